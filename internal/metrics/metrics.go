// Package metrics holds the Prometheus collectors for the editorial service.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "editorial"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	mutations           *prometheus.CounterVec
	mutationDuration    *prometheus.HistogramVec
	partitionSize       *prometheus.GaugeVec
	persistenceFailures *prometheus.CounterVec

	recomputeDuration  prometheus.Histogram
	statsTriggers      prometheus.Counter
	statsCacheFailures prometheus.Counter

	notifications  *prometheus.CounterVec
	archiveExports *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Manuscript store mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		mutationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mutation_duration_seconds",
			Help:      "Latency of manuscript store mutations including synchronous persistence",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
		partitionSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "partition_records",
			Help:      "Records currently held in each workflow partition",
		}, []string{"status"}),
		persistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Partition saves that failed",
		}, []string{"op"}),
		recomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stats_recompute_duration_seconds",
			Help:      "Time spent recomputing dashboard statistics",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		statsTriggers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_triggers_total",
			Help:      "Recompute requests received by the stats aggregator before debouncing",
		}),
		statsCacheFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_failures_total",
			Help:      "Dashboard cache saves that failed",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound notifications by event and outcome",
		}, []string{"event", "outcome"}),
		archiveExports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_exports_total",
			Help:      "Snapshot exports by sink and outcome",
		}, []string{"sink", "outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),
	}
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveMutation(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
	m.mutationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) SetPartitionSize(status string, size int) {
	if m == nil {
		return
	}
	m.partitionSize.WithLabelValues(status).Set(float64(size))
}

func (m *Metrics) IncPersistenceFailure(op string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveRecompute(d time.Duration) {
	if m == nil {
		return
	}
	m.recomputeDuration.Observe(d.Seconds())
}

func (m *Metrics) IncTrigger() {
	if m == nil {
		return
	}
	m.statsTriggers.Inc()
}

func (m *Metrics) IncCacheFailure() {
	if m == nil {
		return
	}
	m.statsCacheFailures.Inc()
}

// ObserveNotification counts one notification attempt; err nil is success.
func (m *Metrics) ObserveNotification(event string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(event, outcome(err)).Inc()
}

func (m *Metrics) ObserveExport(sink string, err error) {
	if m == nil {
		return
	}
	m.archiveExports.WithLabelValues(sink, outcome(err)).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
