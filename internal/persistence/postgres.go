package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
)

const postgresDriver = "pgx"

var sqlOpen = sql.Open

// PostgresAdapter stores payloads as JSONB rows keyed by collection name.
type PostgresAdapter struct {
	mu sync.RWMutex
	db *sql.DB
}

// OpenPostgres connects to dsn and ensures the state table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresAdapter, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	db, err := sqlOpen(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS editorial_state (
		key TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	return &PostgresAdapter{db: db}, nil
}

func (p *PostgresAdapter) Name() string { return "postgres" }

// DB exposes the connection pool for integration tests.
func (p *PostgresAdapter) DB() *sql.DB {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db
}

func (p *PostgresAdapter) Load(ctx context.Context, key string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return nil, false, ErrClosed
	}
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM editorial_state WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return payload, true, nil
}

func (p *PostgresAdapter) Save(ctx context.Context, key string, payload []byte) error {
	return p.SaveBatch(ctx, []Entry{{Key: key, Payload: payload}})
}

func (p *PostgresAdapter) SaveBatch(ctx context.Context, entries []Entry) error {
	ctx = ensureContext(ctx)
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return ErrClosed
	}
	if len(entries) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO editorial_state (key, payload, updated_at) VALUES ($1, $2, now())
			 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
			entry.Key, string(entry.Payload),
		); err != nil {
			return fmt.Errorf("save %s: %w", entry.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", strings.Join(keysOf(entries), ","), err)
	}
	return nil
}

func (p *PostgresAdapter) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
