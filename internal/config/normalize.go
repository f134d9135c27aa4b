package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeNotifications()
	if err := c.normalizeArchive(); err != nil {
		return err
	}
	c.normalizeTracing()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.RosterFile, err = expandPath(c.Paths.RosterFile); err != nil {
		return fmt.Errorf("paths.roster_file: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("EDITORIAL_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		c.Storage.SQLitePath = filepath.Join(c.Paths.DataDir, defaultSQLiteFile)
	}
	var err error
	if c.Storage.SQLitePath, err = expandPath(c.Storage.SQLitePath); err != nil {
		return fmt.Errorf("storage.sqlite_path: %w", err)
	}
	if c.Storage.PostgresDSN == "" {
		if value, ok := os.LookupEnv("EDITORIAL_POSTGRES_DSN"); ok {
			c.Storage.PostgresDSN = strings.TrimSpace(value)
		}
	}
	if c.Storage.RedisURL == "" {
		if value, ok := os.LookupEnv("EDITORIAL_REDIS_URL"); ok {
			c.Storage.RedisURL = strings.TrimSpace(value)
		}
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = defaultKeyPrefix
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("EDITORIAL_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Notifications.QueueSize <= 0 {
		c.Notifications.QueueSize = defaultNotifyQueueSize
	}
}

func (c *Config) normalizeArchive() error {
	c.Archive.Destination = strings.ToLower(strings.TrimSpace(c.Archive.Destination))
	if c.Archive.Destination == "" {
		c.Archive.Destination = defaultArchiveDestination
	}
	if strings.TrimSpace(c.Archive.Dir) == "" {
		c.Archive.Dir = filepath.Join(c.Paths.DataDir, defaultArchiveSubdir)
	}
	var err error
	if c.Archive.Dir, err = expandPath(c.Archive.Dir); err != nil {
		return fmt.Errorf("archive.dir: %w", err)
	}
	c.Archive.S3Bucket = strings.TrimSpace(c.Archive.S3Bucket)
	c.Archive.S3Prefix = strings.Trim(strings.TrimSpace(c.Archive.S3Prefix), "/")
	if c.Archive.S3AccessKey == "" {
		c.Archive.S3AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if c.Archive.S3SecretKey == "" {
		c.Archive.S3SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	return nil
}

func (c *Config) normalizeTracing() {
	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
	if c.Tracing.Endpoint == "" {
		if value, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
			c.Tracing.Endpoint = value
		}
	}
	c.Tracing.Endpoint = strings.TrimSpace(c.Tracing.Endpoint)
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = defaultTraceExporter
		if c.Tracing.Endpoint != "" {
			c.Tracing.Exporter = ExporterOTLP
		}
	}
	c.Tracing.ServiceName = strings.TrimSpace(c.Tracing.ServiceName)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultTraceService
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.ComponentOverrides) > 0 {
		normalized := make(map[string]string, len(c.Logging.ComponentOverrides))
		for component, level := range c.Logging.ComponentOverrides {
			normalized[strings.ToLower(strings.TrimSpace(component))] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.ComponentOverrides = normalized
	}
}
