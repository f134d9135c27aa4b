package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateStats(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTracing() error {
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1 (got %g)", c.Tracing.SampleRatio)
	}
	if !c.Tracing.Enabled {
		return nil
	}
	switch c.Tracing.Exporter {
	case ExporterStdout:
	case ExporterOTLP:
		if c.Tracing.Endpoint == "" {
			return errors.New("tracing.endpoint must be set when tracing.exporter is otlp (or set OTEL_EXPORTER_OTLP_ENDPOINT)")
		}
	default:
		return fmt.Errorf("tracing.exporter must be stdout or otlp (got %q)", c.Tracing.Exporter)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			return errors.New("storage.postgres_dsn must be set when storage.backend is postgres (or set EDITORIAL_POSTGRES_DSN)")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Storage.RedisURL) == "" {
			return errors.New("storage.redis_url must be set when storage.backend is redis (or set EDITORIAL_REDIS_URL)")
		}
	default:
		return fmt.Errorf("storage.backend must be one of memory, sqlite, postgres, redis (got %q)", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateStats() error {
	if c.Stats.DebounceMS < 0 {
		return errors.New("stats.debounce_ms must be zero or positive")
	}
	if c.Stats.DefaultYear != 0 && (c.Stats.DefaultYear < 1900 || c.Stats.DefaultYear > 9999) {
		return errors.New("stats.default_year must be a four-digit year")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	switch c.Archive.Destination {
	case ArchiveFile:
	case ArchiveS3:
		if c.Archive.S3Bucket == "" {
			return errors.New("archive.s3_bucket must be set when archive.destination is s3")
		}
	default:
		return fmt.Errorf("archive.destination must be file or s3 (got %q)", c.Archive.Destination)
	}
	if c.Archive.IntervalMinutes <= 0 {
		return errors.New("archive.interval_minutes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	for component, level := range c.Logging.ComponentOverrides {
		if !validLevel(level) {
			return fmt.Errorf("logging.component_overrides.%s must be debug, info, warn, or error (got %q)", component, level)
		}
	}
	if !validLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}
