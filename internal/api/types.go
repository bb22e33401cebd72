package api

import (
	"log/slog"
	"time"

	"enrollsync/internal/config"
	"enrollsync/internal/sanitize"
	"enrollsync/internal/staging"
)

// Result is the outcome of an ingestion or migration run.
type Result struct {
	Success bool           `json:"success"`
	RunID   string         `json:"run_id,omitempty"`
	Status  string         `json:"status,omitempty"`
	Stats   map[string]int `json:"stats"`
	Error   string         `json:"error,omitempty"`
}

// IngestRequest selects the source tree to load. Empty fields fall back on
// the configuration.
type IngestRequest struct {
	Config    *config.Config
	Logger    *slog.Logger
	SourceDir string
	// StagingDir replaces paths.staging_dir for the run, database and lock
	// included. See config.Config.WithStagingDir.
	StagingDir string
}

// MigrateRequest controls a migration run.
type MigrateRequest struct {
	Config *config.Config
	Logger *slog.Logger
	DryRun bool
}

// SanitizeRequest controls a retrospective non-person pass.
type SanitizeRequest struct {
	Config  *config.Config
	Logger  *slog.Logger
	Execute bool
}

// SanitizeResult wraps the sanitize report.
type SanitizeResult struct {
	Success bool            `json:"success"`
	Report  sanitize.Report `json:"report"`
	Stats   map[string]int  `json:"stats"`
}

// DeleteStudentRequest names one staged student to remove.
type DeleteStudentRequest struct {
	Config    *config.Config
	Logger    *slog.Logger
	StudentID string
	Execute   bool
}

// DeleteStudentResult describes what was, or would be, removed.
type DeleteStudentResult struct {
	Found     bool           `json:"found"`
	Executed  bool           `json:"executed"`
	StudentID string         `json:"student_id"`
	FullName  string         `json:"full_name,omitempty"`
	Stats     map[string]int `json:"stats"`
}

// StatsRequest reads staging counters.
type StatsRequest struct {
	Config *config.Config
	// Runs bounds the number of recent runs returned.
	Runs int
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Status     string         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stats      map[string]int `json:"stats,omitempty"`
	Notes      string         `json:"notes,omitempty"`
}

// StagingStatsResult reports table counts, copied document directories and
// recent runs.
type StagingStatsResult struct {
	Tables         map[string]int `json:"tables"`
	DocumentDirs   int            `json:"document_dirs"`
	DocumentFiles  int            `json:"document_files"`
	DocumentsBytes int64          `json:"documents_bytes"`
	Runs           []RunSummary   `json:"runs"`
}

// CleanRequest controls a staging cleanup. Without Orphaned every table is
// truncated and the copied documents are removed, which requires Confirm.
type CleanRequest struct {
	Config   *config.Config
	Logger   *slog.Logger
	Confirm  bool
	Orphaned bool
}

// CleanResult reports a staging cleanup.
type CleanResult struct {
	Truncated map[string]int64 `json:"truncated,omitempty"`
	Removed   []string         `json:"removed"`
	Errors    []string         `json:"errors,omitempty"`
}

func summarizeRun(r staging.Run) RunSummary {
	return RunSummary{
		ID:         r.ID,
		Kind:       string(r.Kind),
		Status:     string(r.Status),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Stats:      r.Stats,
		Notes:      r.Notes,
	}
}
