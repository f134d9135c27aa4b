package persistence

import (
	"context"
	"fmt"

	"editorial/internal/config"
	"editorial/internal/services"
)

// Open builds the adapter selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (Adapter, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "persistence", "open", "missing configuration", nil)
	}
	var (
		adapter Adapter
		err     error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		adapter = NewMemoryAdapter()
	case config.BackendSQLite, "":
		adapter, err = OpenSQLite(ctx, cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		adapter, err = OpenPostgres(ctx, cfg.Storage.PostgresDSN)
	case config.BackendRedis:
		adapter, err = OpenRedis(ctx, cfg.Storage.RedisURL, cfg.Storage.KeyPrefix)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "persistence", "open",
			fmt.Sprintf("unknown storage backend %q", cfg.Storage.Backend), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "persistence", "open "+cfg.Storage.Backend, "storage backend unavailable", err)
	}
	return adapter, nil
}
