package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"editorial/internal/api"
	"editorial/internal/archive"
	"editorial/internal/config"
	"editorial/internal/directory"
	"editorial/internal/logging"
	"editorial/internal/manuscript"
	"editorial/internal/metrics"
	"editorial/internal/notifications"
	"editorial/internal/persistence"
	"editorial/internal/preflight"
	"editorial/internal/ratings"
	"editorial/internal/stats"
)

// Daemon owns the store and every background loop around it.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	adapter persistence.Adapter
	metrics *metrics.Metrics

	store      *manuscript.Store
	stats      *stats.Aggregator
	roster     *directory.Roster
	ratings    *ratings.Service
	notifier   notifications.Service
	dispatcher *notifications.Dispatcher
	archiver   *archive.Archiver

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
	ready    chan struct{}
	once     sync.Once
	apiAddr  string
}

// New opens storage and builds every component. The caller owns the returned
// daemon and must Close it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	adapter, err := persistence.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	d, err := build(ctx, cfg, logger, adapter)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}
	return d, nil
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger, adapter persistence.Adapter) (*Daemon, error) {
	roster, err := directory.Load(cfg.Paths.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	m := metrics.New()

	store, err := manuscript.Open(ctx,
		manuscript.WithAdapter(adapter),
		manuscript.WithLogger(logger),
		manuscript.WithRecorder(m),
		manuscript.WithReviewerDirectory(roster.Reviewers),
		manuscript.WithAsyncPersistence(cfg.Storage.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("load manuscripts: %w", err)
	}

	agg := stats.NewAggregator(store,
		stats.WithWindow(cfg.DebounceWindow()),
		stats.WithYear(cfg.Stats.DefaultYear),
		stats.WithDirectories(roster.Reviewers, roster.Editors),
		stats.WithCache(adapter),
		stats.WithLogger(logger),
		stats.WithRecorder(m),
	)

	ratingSvc, err := ratings.Open(ctx, store, ratings.WithAdapter(adapter), ratings.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	notifier := notifications.NewService(cfg)
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		adapter:    adapter,
		metrics:    m,
		store:      store,
		stats:      agg,
		roster:     roster,
		ratings:    ratingSvc,
		notifier:   notifier,
		dispatcher: notifications.NewDispatcher(notifier, cfg.Notifications.QueueSize, logger, m),
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
		ready:      make(chan struct{}),
	}

	if cfg.Archive.Enabled {
		sink, err := archive.NewSink(ctx, cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("archive sink: %w", err)
		}
		d.archiver = archive.New(store, sink,
			archive.WithStats(agg),
			archive.WithLogger(logger),
			archive.WithRecorder(m),
		)
	}
	return d, nil
}

// Run acquires the instance lock and serves until ctx is cancelled or a
// component fails.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another editorial daemon is using %s", d.cfg.Paths.DataDir)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
				logging.Error(err),
				logging.String("lock", d.lockPath),
			)
		}
	}()

	runPreflightChecks(ctx, preflight.RunAll(ctx, d.cfg), d.logger)

	initial := d.stats.Start(ctx)
	unsubscribeStats := d.stats.Subscribe(d.store)
	unsubscribeNotify := d.dispatcher.Subscribe(d.store)
	defer func() {
		unsubscribeNotify()
		unsubscribeStats()
		d.stats.Stop()
	}()

	server, err := newAPIServer(d.cfg, d.Handler(), d.logger)
	if err != nil {
		return err
	}

	d.once.Do(func() {
		d.apiAddr = server.address()
		close(d.ready)
	})

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return server.serve(gctx) })
	group.Go(func() error { return d.dispatcher.Run(gctx) })
	if d.cfg.Storage.Async {
		group.Go(func() error { return d.store.RunFlusher(gctx) })
	}
	if d.archiver != nil {
		group.Go(func() error { return d.archiver.Run(gctx, d.cfg.ArchiveInterval()) })
	}

	d.logger.Info("editorial daemon started",
		logging.String("lock", d.lockPath),
		logging.String("backend", d.adapter.Name()),
		logging.String("api", server.address()),
		logging.Int("records", initial.Total),
		logging.Int("stats_year", initial.Year),
	)

	err = group.Wait()
	if err != nil {
		logging.ErrorWithContext(d.logger, "daemon component failed", "daemon_failed", logging.Error(err))
		_ = d.notifier.NotifyError(context.Background(), err, "daemon")
	}
	d.logger.Info("editorial daemon stopped")
	return err
}

// Handler returns the HTTP API wired to this daemon's components.
func (d *Daemon) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Store:     d.store,
		Stats:     d.stats,
		Reviewers: d.roster.Reviewers,
		Editors:   d.roster.Editors,
		Ratings:   d.ratings,
		Notifier:  d.notifier,
		Metrics:   d.metrics,
		Logger:    d.logger,
		Token:     d.cfg.Paths.APIToken,
		Status:    d.Status,
	})
}

// Status reports runtime information for the API.
func (d *Daemon) Status(context.Context) api.DaemonStatus {
	snapshot := d.store.Snapshot()
	counts := make(map[manuscript.Status]int)
	for _, status := range manuscript.AllStatuses() {
		counts[status] = snapshot.Count(status)
	}
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Backend:      d.adapter.Name(),
		LockFilePath: d.lockPath,
		Version:      snapshot.Version,
		Counts:       counts,
		PendingFlush: d.store.Pending(),
		StatsYear:    d.stats.Year(),
	}
}

// Ready is closed once the API listener is bound and background loops are
// about to start.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// APIAddress is the bound API address. Valid after Ready is closed.
func (d *Daemon) APIAddress() string { return d.apiAddr }

// Store exposes the record store, mainly for tests and embedding.
func (d *Daemon) Store() *manuscript.Store { return d.store }

// Close flushes pending partitions and releases the storage backend.
func (d *Daemon) Close() error {
	var errs []error
	if d.store != nil && d.store.Pending() {
		if err := d.store.Flush(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if d.adapter != nil {
		if err := d.adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", d.adapter.Name(), err))
		}
	}
	return errors.Join(errs...)
}
