package config

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Trace exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Archive destinations.
const (
	ArchiveFile = "file"
	ArchiveS3   = "s3"
)

const (
	defaultConfigPath         = "~/.config/editorial/config.toml"
	defaultDataDir            = "~/.local/share/editorial"
	defaultLogDir             = "~/.local/share/editorial/logs"
	defaultRosterFile         = "~/.config/editorial/roster.toml"
	defaultAPIBind            = "127.0.0.1:7480"
	defaultStorageBackend     = BackendSQLite
	defaultSQLiteFile         = "editorial.db"
	defaultKeyPrefix          = "editorial:"
	defaultStatsDebounceMS    = 100
	defaultNotifyTimeout      = 10
	defaultNotifyQueueSize    = 64
	defaultArchiveDestination = ArchiveFile
	defaultArchiveSubdir      = "archive"
	defaultArchiveInterval    = 24 * 60
	defaultTraceExporter      = ExporterStdout
	defaultTraceService       = "editoriald"
	defaultTraceSampleRatio   = 0.1
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
			RosterFile: defaultRosterFile,
		},
		Storage: Storage{
			Backend:   defaultStorageBackend,
			KeyPrefix: defaultKeyPrefix,
		},
		Stats: Stats{
			DebounceMS: defaultStatsDebounceMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			QueueSize:      defaultNotifyQueueSize,
			Submissions:    true,
			Transitions:    true,
			Publications:   true,
			Errors:         true,
		},
		Archive: Archive{
			Destination:     defaultArchiveDestination,
			IntervalMinutes: defaultArchiveInterval,
		},
		Tracing: Tracing{
			Exporter:    defaultTraceExporter,
			ServiceName: defaultTraceService,
			SampleRatio: defaultTraceSampleRatio,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
