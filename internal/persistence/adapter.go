package persistence

import (
	"context"
	"errors"
	"strings"
)

// Well-known keys.
const (
	partitionPrefix = "partition/"
	StatsKey        = "stats/dashboard"
	RatingsKey      = "ratings"
)

// ErrClosed is returned by adapters used after Close.
var ErrClosed = errors.New("persistence adapter closed")

// PartitionKey returns the key holding one workflow partition.
func PartitionKey(status string) string {
	return partitionPrefix + strings.TrimSpace(status)
}

// Entry is one key and its encoded collection.
type Entry struct {
	Key     string
	Payload []byte
}

// Adapter is durable storage for encoded collections.
type Adapter interface {
	// Load returns the payload stored under key. found is false when nothing
	// has been saved yet.
	Load(ctx context.Context, key string) (payload []byte, found bool, err error)
	// Save replaces the payload stored under key.
	Save(ctx context.Context, key string, payload []byte) error
	// SaveBatch replaces every entry in one atomic write.
	SaveBatch(ctx context.Context, entries []Entry) error
	// Name identifies the backend in logs and status output.
	Name() string
	Close() error
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func keysOf(entries []Entry) []string {
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	return keys
}
