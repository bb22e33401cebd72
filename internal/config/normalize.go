package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStaging(); err != nil {
		return err
	}
	if err := c.normalizeProduction(); err != nil {
		return err
	}
	if err := c.normalizeFilter(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeLogging()
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultBucket
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(strings.TrimSpace(c.Paths.SourceDir)); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStaging() error {
	if value, ok := lookupEnv(EnvStagingDSN); ok {
		c.Staging.Database = value
	}
	var err error
	if c.Staging.Database, err = expandPath(strings.TrimSpace(c.Staging.Database)); err != nil {
		return fmt.Errorf("staging.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeProduction() error {
	fromEnv := false
	if value, ok := lookupEnv(EnvProductionDSN); ok {
		c.Production.DSN, fromEnv = value, true
	} else if value, ok := lookupEnv(EnvDatabaseURL); ok {
		c.Production.DSN, fromEnv = value, true
	}
	c.Production.DSN = strings.TrimSpace(c.Production.DSN)
	if c.Production.DSN == "" {
		c.Production.DSN = defaultProductionDSN
	}

	driver := strings.ToLower(strings.TrimSpace(c.Production.Driver))
	switch driver {
	case "sqlite3":
		driver = DriverSQLite
	case "pg", "postgresql", "pq":
		driver = DriverPostgres
	}
	if driver == "" || fromEnv {
		if looksLikePostgres(c.Production.DSN) {
			driver = DriverPostgres
		} else if driver == "" {
			driver = DriverSQLite
		}
	}
	c.Production.Driver = driver

	if driver == DriverSQLite && !strings.HasPrefix(c.Production.DSN, "file:") && c.Production.DSN != ":memory:" {
		var err error
		if c.Production.DSN, err = expandPath(c.Production.DSN); err != nil {
			return fmt.Errorf("production.dsn: %w", err)
		}
	}
	return nil
}

func looksLikePostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://") ||
		(strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="))
}

func (c *Config) normalizeFilter() error {
	var err error
	if c.Filter.ListPath, err = expandPath(strings.TrimSpace(c.Filter.ListPath)); err != nil {
		return fmt.Errorf("filter.list_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeIngest() {
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
