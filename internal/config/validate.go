package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if err := c.validateProduction(); err != nil {
		return err
	}
	if c.Ingest.Workers < 1 || c.Ingest.Workers > maxWorkers {
		return fmt.Errorf("ingest.workers must be between 1 and %d", maxWorkers)
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket must be set")
	}
	return c.validateLogging()
}

func (c *Config) validateProduction() error {
	switch c.Production.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("production.driver %q is not supported (use %q or %q)", c.Production.Driver, DriverSQLite, DriverPostgres)
	}
	if strings.TrimSpace(c.Production.DSN) == "" {
		return fmt.Errorf("production.dsn is required. Set %s or edit the config file (create with 'enrollsync config init')", EnvProductionDSN)
	}
	if c.Production.Driver == DriverSQLite && looksLikePostgres(c.Production.DSN) {
		return errors.New("production.dsn looks like a PostgreSQL URL but production.driver is sqlite")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
