package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"editorial/internal/logging"
	"editorial/internal/manuscript"
	"editorial/internal/persistence"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 100 * time.Millisecond

// Source supplies consistent partition snapshots.
type Source interface {
	Snapshot() manuscript.Partitions
}

// Publisher delivers committed store mutations.
type Publisher interface {
	OnMutationCommitted(fn func(manuscript.Event)) func()
}

// Counter reports the size of a reviewer or editor directory.
type Counter interface {
	Count() int
}

// Recorder receives aggregator measurements.
type Recorder interface {
	ObserveRecompute(d time.Duration)
	IncTrigger()
	IncCacheFailure()
}

type noopRecorder struct{}

func (noopRecorder) ObserveRecompute(time.Duration) {}
func (noopRecorder) IncTrigger()                    {}
func (noopRecorder) IncCacheFailure()               {}

// cacheEntry is the payload stored under persistence.StatsKey.
type cacheEntry struct {
	SelectedYear int            `json:"selectedYear"`
	Stats        DashboardStats `json:"stats"`
}

// Aggregator keeps DashboardStats current for a Source.
type Aggregator struct {
	source    Source
	reviewers Counter
	editors   Counter
	adapter   persistence.Adapter
	logger    *slog.Logger
	recorder  Recorder
	now       func() time.Time
	window    time.Duration

	// recomputeMu serializes recomputations so a later one never publishes
	// results older than an earlier one.
	recomputeMu sync.Mutex

	mu      sync.Mutex
	current DashboardStats
	year    int
	timer   *time.Timer
	stopped bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWindow sets the debounce window. Zero recomputes synchronously on every trigger.
func WithWindow(window time.Duration) Option {
	return func(a *Aggregator) {
		if window >= 0 {
			a.window = window
		}
	}
}

// WithYear sets the initially selected year.
func WithYear(year int) Option {
	return func(a *Aggregator) {
		if year > 0 {
			a.year = year
		}
	}
}

// WithDirectories supplies the reviewer and editor counts.
func WithDirectories(reviewers, editors Counter) Option {
	return func(a *Aggregator) {
		a.reviewers = reviewers
		a.editors = editors
	}
}

// WithCache persists the selected year and latest stats.
func WithCache(adapter persistence.Adapter) Option {
	return func(a *Aggregator) {
		a.adapter = adapter
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(a *Aggregator) {
		if recorder != nil {
			a.recorder = recorder
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator builds an aggregator over source. Call Start to restore the
// cache and compute the first stats.
func NewAggregator(source Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:   source,
		recorder: noopRecorder{},
		now:      time.Now,
		window:   DefaultWindow,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.year == 0 {
		a.year = a.now().Year()
	}
	a.logger = logging.NewComponentLogger(a.logger, "stats-aggregator")
	return a
}

// Start restores the selected year from the cache, when one was saved, and
// recomputes.
func (a *Aggregator) Start(ctx context.Context) DashboardStats {
	if cached, ok := a.loadCache(ctx); ok {
		a.mu.Lock()
		if cached.SelectedYear > 0 {
			a.year = cached.SelectedYear
		}
		a.current = cached.Stats
		a.mu.Unlock()
	}
	return a.RecomputeNow(ctx)
}

// Subscribe triggers a recomputation after every mutation pub commits.
func (a *Aggregator) Subscribe(pub Publisher) func() {
	return pub.OnMutationCommitted(func(manuscript.Event) {
		a.Trigger()
	})
}

// Trigger schedules a recomputation. Triggers arriving within the window are
// coalesced into one recomputation that reads the partitions when it runs.
func (a *Aggregator) Trigger() {
	a.recorder.IncTrigger()
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.window == 0 {
		a.mu.Unlock()
		a.RecomputeNow(context.Background())
		return
	}
	if a.timer == nil {
		a.timer = time.AfterFunc(a.window, a.fire)
	} else {
		a.timer.Reset(a.window)
	}
	a.mu.Unlock()
}

func (a *Aggregator) fire() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.RecomputeNow(context.Background())
}

// RecomputeNow recomputes from a fresh snapshot and returns the result.
func (a *Aggregator) RecomputeNow(ctx context.Context) DashboardStats {
	a.recomputeMu.Lock()
	defer a.recomputeMu.Unlock()

	a.mu.Lock()
	year := a.year
	a.mu.Unlock()

	start := time.Now()
	result := Recompute(a.source.Snapshot(), count(a.reviewers), count(a.editors), year)
	a.recorder.ObserveRecompute(time.Since(start))

	a.mu.Lock()
	a.current = result
	a.mu.Unlock()

	a.logger.Debug("dashboard stats recomputed",
		logging.Uint64("version", result.Version),
		logging.Int("year", year),
		logging.Int("total", result.Total),
	)
	a.saveCache(ctx, cacheEntry{SelectedYear: year, Stats: result})
	return result
}

// Current returns the latest computed stats.
func (a *Aggregator) Current() DashboardStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// ForYear computes stats for year without changing the selected year.
func (a *Aggregator) ForYear(year int) DashboardStats {
	if year == a.Year() {
		return a.Current()
	}
	return Recompute(a.source.Snapshot(), count(a.reviewers), count(a.editors), year)
}

// Year returns the selected year.
func (a *Aggregator) Year() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.year
}

// SetYear changes the selected year and recomputes immediately.
func (a *Aggregator) SetYear(ctx context.Context, year int) (DashboardStats, error) {
	if year < 1 || year > 9999 {
		return DashboardStats{}, fmt.Errorf("invalid year %d", year)
	}
	a.mu.Lock()
	a.year = year
	a.mu.Unlock()
	return a.RecomputeNow(ctx), nil
}

// Stop cancels any pending recomputation. Later triggers are ignored.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
}

func (a *Aggregator) loadCache(ctx context.Context) (cacheEntry, bool) {
	if a.adapter == nil {
		return cacheEntry{}, false
	}
	payload, found, err := a.adapter.Load(ctx, persistence.StatsKey)
	if err != nil {
		logging.WarnWithContext(a.logger, "dashboard cache unavailable", "stats_cache_load_failed",
			logging.String(logging.FieldErrorHint, "stats will be recomputed from partitions"),
			logging.Error(err),
		)
		return cacheEntry{}, false
	}
	if !found {
		return cacheEntry{}, false
	}
	var cached cacheEntry
	if err := json.Unmarshal(payload, &cached); err != nil {
		logging.WarnWithContext(a.logger, "dashboard cache unreadable", "stats_cache_decode_failed",
			logging.String(logging.FieldErrorHint, "the cache is rewritten on the next recompute"),
			logging.Error(err),
		)
		return cacheEntry{}, false
	}
	return cached, true
}

func (a *Aggregator) saveCache(ctx context.Context, entry cacheEntry) {
	if a.adapter == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err == nil {
		err = a.adapter.Save(ctx, persistence.StatsKey, payload)
	}
	if err != nil {
		a.recorder.IncCacheFailure()
		logging.WarnWithContext(a.logger, "dashboard cache save failed", "stats_cache_save_failed",
			logging.String(logging.FieldErrorHint, "check the storage backend"),
			logging.String(logging.FieldImpact, "dashboard year selection may not survive a restart"),
			logging.Error(err),
		)
	}
}

func count(c Counter) int {
	if c == nil {
		return 0
	}
	return c.Count()
}
