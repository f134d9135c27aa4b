package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter stores payloads as plain string values under a key prefix.
type RedisAdapter struct {
	mu     sync.RWMutex
	client *redis.Client
	prefix string
}

// OpenRedis parses url, pings the server, and returns an adapter that
// namespaces every key with prefix.
func OpenRedis(ctx context.Context, url, prefix string) (*RedisAdapter, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("redis url is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisAdapter(client, prefix), nil
}

// NewRedisAdapter wraps an existing client.
func NewRedisAdapter(client *redis.Client, prefix string) *RedisAdapter {
	return &RedisAdapter{client: client, prefix: prefix}
}

func (r *RedisAdapter) Name() string { return "redis" }

func (r *RedisAdapter) key(key string) string { return r.prefix + key }

func (r *RedisAdapter) Load(ctx context.Context, key string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.client == nil {
		return nil, false, ErrClosed
	}
	payload, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return payload, true, nil
}

func (r *RedisAdapter) Save(ctx context.Context, key string, payload []byte) error {
	return r.SaveBatch(ctx, []Entry{{Key: key, Payload: payload}})
}

// SaveBatch writes all entries inside MULTI/EXEC.
func (r *RedisAdapter) SaveBatch(ctx context.Context, entries []Entry) error {
	ctx = ensureContext(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.client == nil {
		return ErrClosed
	}
	if len(entries) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, entry := range entries {
			pipe.Set(ctx, r.key(entry.Key), entry.Payload, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", strings.Join(keysOf(entries), ","), err)
	}
	return nil
}

func (r *RedisAdapter) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}
