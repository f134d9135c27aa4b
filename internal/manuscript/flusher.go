package manuscript

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"editorial/internal/logging"
	"editorial/internal/persistence"
)

const flushRetryInterval = 5 * time.Second

func (s *Store) markDirty(statuses []Status) {
	s.dirtyMu.Lock()
	for _, status := range statuses {
		s.dirty[string(status)] = struct{}{}
	}
	s.dirtyMu.Unlock()
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// Pending reports whether partitions are waiting to be saved.
func (s *Store) Pending() bool {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	return len(s.dirty) > 0
}

// Flush saves every dirty partition in one batch. Partitions that fail to
// save stay dirty for the next attempt.
func (s *Store) Flush(ctx context.Context) error {
	if s.adapter == nil {
		return nil
	}
	s.dirtyMu.Lock()
	statuses := make([]Status, 0, len(s.dirty))
	for key := range s.dirty {
		statuses = append(statuses, Status(key))
	}
	s.dirty = make(map[string]struct{})
	s.dirtyMu.Unlock()
	if len(statuses) == 0 {
		return nil
	}

	s.mu.RLock()
	entries := make([]persistence.Entry, 0, len(statuses))
	var encodeErr error
	for _, status := range statuses {
		payload, err := json.Marshal(s.listLocked(status))
		if err != nil {
			encodeErr = fmt.Errorf("encode %s: %w", status, err)
			break
		}
		entries = append(entries, persistence.Entry{Key: persistence.PartitionKey(string(status)), Payload: payload})
	}
	s.mu.RUnlock()

	err := encodeErr
	if err == nil {
		err = s.adapter.SaveBatch(ensureContext(ctx), entries)
	}
	if err != nil {
		s.dirtyMu.Lock()
		for _, status := range statuses {
			s.dirty[string(status)] = struct{}{}
		}
		s.dirtyMu.Unlock()
		s.recorder.IncPersistenceFailure("flush")
		return &PersistenceError{Op: "flush", Keys: entryKeys(entries), Err: err}
	}
	return nil
}

// RunFlusher saves dirty partitions until ctx is cancelled, then makes a final
// attempt. It is only needed with WithAsyncPersistence.
func (s *Store) RunFlusher(ctx context.Context) error {
	retry := time.NewTicker(flushRetryInterval)
	defer retry.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Flush(shutdownCtx); err != nil {
				logging.ErrorWithContext(s.logger, "final partition flush failed", "flush_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "recent changes may be lost; check the storage backend"),
				)
				return err
			}
			return nil
		case <-s.flushCh:
		case <-retry.C:
			if !s.Pending() {
				continue
			}
		}
		if err := s.Flush(ctx); err != nil {
			logging.WarnWithContext(s.logger, "partition flush failed", "flush_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the storage backend"),
				logging.String(logging.FieldImpact, "changes stay in memory and will be retried"),
			)
		}
	}
}
