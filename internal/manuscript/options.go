package manuscript

import (
	"log/slog"
	"time"

	"editorial/internal/persistence"
)

// Recorder receives store measurements. A nil *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveMutation(op, outcome string, elapsed time.Duration)
	SetPartitionSize(status string, size int)
	IncPersistenceFailure(op string)
}

// ReviewerResolver reports whether a reviewer id exists in the directory.
type ReviewerResolver interface {
	Has(id string) bool
}

// Option configures a Store.
type Option func(*Store)

// WithAdapter persists partitions through adapter.
func WithAdapter(adapter persistence.Adapter) Option {
	return func(s *Store) {
		s.adapter = adapter
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReviewerDirectory enables reviewer id resolution warnings.
func WithReviewerDirectory(resolver ReviewerResolver) Option {
	return func(s *Store) {
		s.reviewers = resolver
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(recorder Recorder) Option {
	return func(s *Store) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithAsyncPersistence commits mutations in memory first and saves dirty
// partitions from RunFlusher.
func WithAsyncPersistence(enabled bool) Option {
	return func(s *Store) {
		s.async = enabled
	}
}

// WithIDGenerator overrides how ids are assigned to submissions without one.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

type noopRecorder struct{}

func (noopRecorder) ObserveMutation(string, string, time.Duration) {}
func (noopRecorder) SetPartitionSize(string, int)                  {}
func (noopRecorder) IncPersistenceFailure(string)                  {}
