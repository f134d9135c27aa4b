package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"editorial/internal/logging"
	"editorial/internal/manuscript"
	"editorial/internal/stats"
)

const timestampLayout = "20060102T150405Z"

// Source supplies the partitions to export.
type Source interface {
	Snapshot() manuscript.Partitions
}

// StatsSource supplies the dashboard figures to export. Optional.
type StatsSource interface {
	Current() stats.DashboardStats
}

// Recorder counts export outcomes.
type Recorder interface {
	ObserveExport(sink string, err error)
}

// Document is the exported JSON body.
type Document struct {
	ExportedAt string                `json:"exportedAt"`
	Version    uint64                `json:"version"`
	Total      int                   `json:"total"`
	Partitions manuscript.Partitions `json:"partitions"`
	Stats      *stats.DashboardStats `json:"stats,omitempty"`
}

// Archiver renders snapshots and writes them to a sink.
type Archiver struct {
	source   Source
	stats    StatsSource
	sink     Sink
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option customizes an Archiver.
type Option func(*Archiver)

func WithStats(src StatsSource) Option { return func(a *Archiver) { a.stats = src } }

func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) { a.logger = logging.NewComponentLogger(logger, "archive") }
}

func WithRecorder(recorder Recorder) Option { return func(a *Archiver) { a.recorder = recorder } }

func WithClock(now func() time.Time) Option { return func(a *Archiver) { a.now = now } }

func New(source Source, sink Sink, opts ...Option) *Archiver {
	a := &Archiver{
		source: source,
		sink:   sink,
		logger: logging.NewComponentLogger(nil, "archive"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Export writes one snapshot and returns where it was stored.
func (a *Archiver) Export(ctx context.Context) (string, error) {
	at := a.now().UTC()
	snapshot := a.source.Snapshot()
	doc := Document{
		ExportedAt: at.Format(time.RFC3339),
		Version:    snapshot.Version,
		Total:      snapshot.Total(),
		Partitions: snapshot,
	}
	if a.stats != nil {
		current := a.stats.Current()
		doc.Stats = &current
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}

	name := fmt.Sprintf("editorial-%s.json", at.Format(timestampLayout))
	location, err := a.sink.Put(ctx, name, data)
	if a.recorder != nil {
		a.recorder.ObserveExport(a.sink.Name(), err)
	}
	if err != nil {
		return "", err
	}
	a.logger.Info("archive exported",
		logging.String("location", location),
		logging.Int("records", doc.Total),
		logging.Uint64("version", doc.Version),
	)
	return location, nil
}

// Run exports every interval until ctx is cancelled. Failures are logged and
// the next tick tries again.
func (a *Archiver) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("archive interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.Export(ctx); err != nil && ctx.Err() == nil {
				logging.WarnWithContext(a.logger, "archive export failed", "archive_failed",
					logging.String("sink", a.sink.Name()),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check archive destination permissions or S3 credentials"),
					logging.String(logging.FieldImpact, "snapshot skipped until the next interval"),
				)
			}
		}
	}
}
