package testsupport

import (
	"path/filepath"
	"testing"

	"enrollsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Both databases are SQLite files under the temp root and logging is left to
// the caller.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = ""
	cfgVal.Staging.Database = filepath.Join(base, "staging", "staging.db")
	cfgVal.Production.Driver = config.DriverSQLite
	cfgVal.Production.DSN = filepath.Join(base, "production.db")
	cfgVal.Ingest.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFilterList points the non-person filter at a YAML list written with the
// given contents.
func WithFilterList(contents string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "filter.yaml")
		WriteText(b.t, path, contents)
		b.cfg.Filter.ListPath = path
	}
}

// WithoutDocumentCopies disables copying documents into the staging area.
func WithoutDocumentCopies() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.CopyDocuments = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
