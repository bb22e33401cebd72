package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories enrollsync reads from and writes to.
type Paths struct {
	SourceDir  string `toml:"source_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Staging configures the local staging database.
type Staging struct {
	// Database is the SQLite file path. Empty means <staging_dir>/staging.db.
	Database string `toml:"database"`
}

// Production configures the production database connection.
type Production struct {
	Driver string `toml:"driver"` // sqlite or postgres
	DSN    string `toml:"dsn"`
}

// Ingest contains configuration for the directory-first loader.
type Ingest struct {
	Workers       int  `toml:"workers"`
	CopyDocuments bool `toml:"copy_documents"`
}

// Filter points at the operator-maintained non-person list.
type Filter struct {
	ListPath string `toml:"list_path"`
}

// Storage describes where migrated documents are expected to be uploaded.
type Storage struct {
	Bucket string `toml:"bucket"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for enrollsync.
//
// Configuration sections by subsystem:
//   - Paths: source tree, staging area and log directory
//   - Staging: staging database location
//   - Production: production driver and DSN
//   - Ingest: checksum workers and document copying
//   - Filter: non-person list extensions
//   - Storage: bucket recorded on migrated documents
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Staging    Staging    `toml:"staging"`
	Production Production `toml:"production"`
	Ingest     Ingest     `toml:"ingest"`
	Filter     Filter     `toml:"filter"`
	Storage    Storage    `toml:"storage"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the staging and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StagingDatabasePath returns the staging database file, defaulting to a file
// inside the staging directory.
func (c *Config) StagingDatabasePath() string {
	if strings.TrimSpace(c.Staging.Database) != "" {
		return c.Staging.Database
	}
	return filepath.Join(c.Paths.StagingDir, stagingDatabaseName)
}

// WithStagingDir returns a copy of c whose whole staging area lives in dir:
// copied documents, the run lock and, unless staging.database names a file
// elsewhere, the staging database. A database pinned outside dir is an error,
// since the copies and the rows describing them would then live apart. An
// empty dir returns c unchanged.
func (c *Config) WithStagingDir(dir string) (*Config, error) {
	expanded, err := expandPath(strings.TrimSpace(dir))
	if err != nil {
		return nil, fmt.Errorf("staging dir: %w", err)
	}
	if expanded == "" || expanded == c.Paths.StagingDir {
		return c, nil
	}
	db := strings.TrimSpace(c.Staging.Database)
	if db != "" && db != filepath.Join(c.Paths.StagingDir, stagingDatabaseName) {
		return nil, fmt.Errorf("staging dir %q conflicts with staging.database %q; move the database setting with it", expanded, db)
	}
	relocated := *c
	relocated.Paths.StagingDir = expanded
	relocated.Staging.Database = ""
	return &relocated, nil
}

// LockPath returns the run lock file guarding the staging area.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StagingDir, lockFileName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
