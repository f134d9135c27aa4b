// Package daemonrun is the editoriald process entry: signals, logging,
// tracing, pid file and the daemon lifecycle.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"editorial/internal/config"
	"editorial/internal/daemon"
	"editorial/internal/logging"
	"editorial/internal/observability"
)

const tracingShutdownTimeout = 5 * time.Second

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the editorial daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:           level,
		Format:          cfg.Logging.Format,
		OutputPaths:     []string{"stdout"},
		FilePaths:       []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
		ComponentLevels: cfg.Logging.ComponentOverrides,
		Development:     opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)

	shutdownTracing, err := observability.Setup(signalCtx, cfg.Tracing, logger)
	if err != nil {
		logging.WarnWithContext(logger, "tracing disabled", "tracing_init_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [tracing] exporter and endpoint"),
			logging.String(logging.FieldImpact, "spans are not exported"),
		)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmdCtx), tracingShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logging.WarnWithContext(logger, "tracing shutdown failed", "tracing_shutdown_failed", logging.Error(err))
		}
	}()

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(signalCtx, cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [storage] settings and that the backend is reachable"),
		)
		return fmt.Errorf("create daemon: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logging.ErrorWithContext(logger, "daemon close failed", "daemon_close_failed", logging.Error(err))
		}
	}()

	if err := d.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("editorial daemon shutting down")
	return nil
}

// PIDPath is where the running daemon records its process id.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "editoriald.pid")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// ReadPID returns the pid recorded at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file %q: %w", path, err)
	}
	return pid, nil
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Paths.APIToken) != ""),
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.Bool("storage_async", cfg.Storage.Async),
		logging.Int("stats_debounce_ms", cfg.Stats.DebounceMS),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("archive_enabled", cfg.Archive.Enabled),
		logging.String("archive_destination", cfg.Archive.Destination),
		logging.Bool("tracing_enabled", cfg.Tracing.Enabled),
		logging.String("tracing_exporter", cfg.Tracing.Exporter),
	)
}
