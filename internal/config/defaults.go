package config

const (
	defaultConfigPath    = "~/.config/enrollsync/config.toml"
	projectConfigName    = "enrollsync.toml"
	defaultStagingDir    = "~/.local/share/enrollsync/staging"
	defaultLogDir        = "~/.local/share/enrollsync/logs"
	defaultProductionDSN = "~/.local/share/enrollsync/production.db"
	stagingDatabaseName  = "staging.db"
	lockFileName         = "enrollsync.lock"
	defaultWorkers       = 4
	maxWorkers           = 64
	defaultBucket        = "enrollment-documents"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"

	// DriverSQLite and DriverPostgres name the supported production drivers.
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment fallbacks consulted during normalization. A set variable wins
// over the config file.
const (
	EnvStagingDSN    = "ENROLLSYNC_STAGING_DSN"
	EnvProductionDSN = "ENROLLSYNC_PRODUCTION_DSN"
	EnvDatabaseURL   = "DATABASE_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Production: Production{
			Driver: DriverSQLite,
			DSN:    defaultProductionDSN,
		},
		Ingest: Ingest{
			Workers:       defaultWorkers,
			CopyDocuments: true,
		},
		Storage: Storage{
			Bucket: defaultBucket,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
