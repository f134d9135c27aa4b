package testsupport

import (
	"path/filepath"
	"testing"

	"editorial/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults to the sqlite backend, an ephemeral API port and no debounce,
// then applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.RosterFile = filepath.Join(base, "roster.toml")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Storage.Backend = config.BackendSQLite
	cfgVal.Storage.SQLitePath = filepath.Join(base, "data", "editorial.db")
	cfgVal.Stats.DebounceMS = 0
	cfgVal.Archive.Dir = filepath.Join(base, "archive")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return builder.cfg
}

// WithBackend selects the storage backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
	}
}

// WithToken sets the API bearer token.
func WithToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithRoster writes roster TOML next to the config and points the config at it.
func WithRoster(content string) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.RosterFile, content)
	}
}

// WithArchive enables file archiving into the config's archive directory.
func WithArchive(intervalMinutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.Enabled = true
		b.cfg.Archive.Destination = config.ArchiveFile
		b.cfg.Archive.IntervalMinutes = intervalMinutes
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
