package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveMutation("add", "ok", time.Millisecond)
	m.SetPartitionSize("pre-review", 3)
	m.IncPersistenceFailure("add")
	m.ObserveRecompute(time.Millisecond)
	m.IncTrigger()
	m.IncCacheFailure()
	m.ObserveNotification("published", nil)
	m.ObserveExport("file", nil)
	m.ObserveRequest("/manuscript", http.MethodGet, http.StatusOK)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestCollectorsRecord(t *testing.T) {
	m := New()
	m.ObserveMutation("transition", "ok", 2*time.Millisecond)
	m.ObserveMutation("transition", "validation", time.Millisecond)
	m.SetPartitionSize("accepted", 7)
	m.IncPersistenceFailure("flush")
	m.ObserveNotification("status_changed", errors.New("timeout"))
	m.ObserveExport("s3", nil)

	families := gather(t, m)
	if got := value(families, "editorial_mutations_total", map[string]string{"op": "transition", "outcome": "ok"}); got != 1 {
		t.Fatalf("unexpected mutation count %v", got)
	}
	if got := value(families, "editorial_partition_records", map[string]string{"status": "accepted"}); got != 7 {
		t.Fatalf("unexpected partition size %v", got)
	}
	if got := value(families, "editorial_persistence_failures_total", map[string]string{"op": "flush"}); got != 1 {
		t.Fatalf("unexpected persistence failures %v", got)
	}
	if got := value(families, "editorial_notifications_total", map[string]string{"event": "status_changed", "outcome": "error"}); got != 1 {
		t.Fatalf("unexpected notification count %v", got)
	}
}

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		out[family.GetName()] = family
	}
	return out
}

func value(families map[string]*dto.MetricFamily, name string, labels map[string]string) float64 {
	family, ok := families[name]
	if !ok {
		return -1
	}
	for _, metric := range family.GetMetric() {
		matched := 0
		for _, pair := range metric.GetLabel() {
			if labels[pair.GetName()] == pair.GetValue() {
				matched++
			}
		}
		if matched != len(labels) {
			continue
		}
		switch {
		case metric.GetCounter() != nil:
			return metric.GetCounter().GetValue()
		case metric.GetGauge() != nil:
			return metric.GetGauge().GetValue()
		}
	}
	return -1
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SetPartitionSize("published", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `editorial_partition_records{status="published"} 2`) {
		t.Fatalf("metrics output missing partition gauge:\n%s", rec.Body.String())
	}
}
