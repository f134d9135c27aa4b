package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"editorial/internal/config"
)

// LogFileName is the daemon log written under the configured log directory.
const LogFileName = "editoriald.log"

// Options describes logger construction parameters.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	// FilePaths receive JSON lines regardless of Format.
	FilePaths       []string
	ComponentLevels map[string]string
	Development     bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	overrides := make(map[string]slog.Level, len(opts.ComponentLevels))
	floor := level
	for component, value := range opts.ComponentLevels {
		component = strings.TrimSpace(component)
		if component == "" {
			continue
		}
		lvl := parseLevel(value)
		overrides[component] = lvl
		if lvl < floor {
			floor = lvl
		}
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(floor)
	addSource := opts.Development || level <= slog.LevelDebug

	outputPaths := opts.OutputPaths
	if len(outputPaths) == 0 && len(opts.FilePaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	var handlers []slog.Handler
	if len(outputPaths) > 0 {
		writer, err := openWriters(outputPaths)
		if err != nil {
			return nil, err
		}
		switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
		case "", "console":
			handlers = append(handlers, newPrettyHandler(writer, levelVar, addSource))
		case "json":
			handlers = append(handlers, newJSONHandler(writer, levelVar, addSource))
		default:
			return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
		}
	}
	if len(opts.FilePaths) > 0 {
		writer, err := openWriters(opts.FilePaths)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, newJSONHandler(writer, levelVar, addSource))
	}

	return slog.New(newComponentLevelHandler(newFanoutHandler(handlers...), level, overrides)), nil
}

// NewFromConfig creates the daemon logger: configured format on stdout plus
// JSON lines in <log_dir>/editoriald.log.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	opts := Options{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		OutputPaths:     []string{"stdout"},
		ComponentLevels: cfg.Logging.ComponentOverrides,
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		opts.FilePaths = []string{filepath.Join(dir, LogFileName)}
	}
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openWriters(paths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create log directory %s: %w", dir, err)
				}
			}
			file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", trimmed, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}
