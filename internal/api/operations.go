package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"enrollsync/internal/config"
	"enrollsync/internal/failure"
	"enrollsync/internal/ingest"
	"enrollsync/internal/logging"
	"enrollsync/internal/migrate"
	"enrollsync/internal/nonperson"
	"enrollsync/internal/production"
	"enrollsync/internal/sanitize"
	"enrollsync/internal/staging"
)

// ErrConfirmationRequired is returned by destructive operations invoked
// without confirmation.
var ErrConfirmationRequired = errors.New("confirmation required")

func requireConfig(cfg *config.Config) error {
	if cfg == nil {
		return failure.Wrap(failure.ErrValidation, "api", "", "configuration is required", nil)
	}
	return nil
}

func loggerOrNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}

func loadFilter(cfg *config.Config) (*nonperson.Filter, error) {
	list, err := nonperson.LoadList(cfg.Filter.ListPath)
	if err != nil {
		return nil, failure.Wrap(failure.ErrValidation, "api", "load filter list", cfg.Filter.ListPath, err)
	}
	return nonperson.New(list), nil
}

// RunIngestion loads a source tree into the staging store under the run lock.
// A request staging directory relocates the whole staging area for the run.
func RunIngestion(ctx context.Context, req IngestRequest) (Result, error) {
	result := Result{Stats: map[string]int{}}
	if err := requireConfig(req.Config); err != nil {
		return result, err
	}
	cfg, err := req.Config.WithStagingDir(req.StagingDir)
	if err != nil {
		return result, failure.Wrap(failure.ErrValidation, "api", "ingest", "staging directory", err)
	}
	sourceDir := strings.TrimSpace(req.SourceDir)
	if sourceDir == "" {
		sourceDir = cfg.Paths.SourceDir
	}
	if sourceDir == "" {
		return result, failure.Wrap(failure.ErrValidation, "api", "ingest", "source directory is required", nil)
	}
	if expanded, err := config.ExpandPath(sourceDir); err == nil {
		sourceDir = expanded
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return result, failure.Wrap(failure.ErrIO, "api", "ingest", "prepare directories", err)
	}
	lock, err := acquireLock(cfg)
	if err != nil {
		return result, err
	}
	defer lock.release()

	filter, err := loadFilter(cfg)
	if err != nil {
		return result, err
	}
	store, err := staging.Open(cfg.StagingDatabasePath())
	if err != nil {
		return result, err
	}
	defer store.Close()

	loader := ingest.NewLoader(store, filter, ingest.Options{
		Workers:       cfg.Ingest.Workers,
		CopyDocuments: cfg.Ingest.CopyDocuments,
	}, loggerOrNop(req.Logger))
	run, err := loader.Run(ctx, sourceDir, cfg.Paths.StagingDir)
	result.RunID = run.RunID
	result.Status = string(run.Status)
	result.Stats = run.Stats
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Success = true
	return result, nil
}

// Migrate promotes the staging store into the production store under the run
// lock. A dry run takes the lock too so it sees a stable staging store.
func Migrate(ctx context.Context, req MigrateRequest) (Result, error) {
	result := Result{Stats: map[string]int{}}
	if err := requireConfig(req.Config); err != nil {
		return result, err
	}
	cfg := req.Config
	if err := cfg.EnsureDirectories(); err != nil {
		return result, failure.Wrap(failure.ErrIO, "api", "migrate", "prepare directories", err)
	}
	lock, err := acquireLock(cfg)
	if err != nil {
		return result, err
	}
	defer lock.release()

	st, err := staging.Open(cfg.StagingDatabasePath())
	if err != nil {
		return result, err
	}
	defer st.Close()
	filter, err := loadFilter(cfg)
	if err != nil {
		return result, err
	}
	prod, err := production.Open(ctx, cfg.Production.Driver, cfg.Production.DSN)
	if err != nil {
		return result, err
	}
	defer prod.Close()

	engine := migrate.NewEngine(st, prod, filter, migrate.Options{
		DryRun: req.DryRun,
		Bucket: cfg.Storage.Bucket,
	}, loggerOrNop(req.Logger))
	run, err := engine.Run(ctx)
	result.RunID = run.RunID
	result.Status = string(run.Status)
	result.Stats = run.Stats
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Success = true
	return result, nil
}

// Sanitize runs the non-person filter over staged persons. Nothing is deleted
// unless req.Execute is set.
func Sanitize(ctx context.Context, req SanitizeRequest) (SanitizeResult, error) {
	var result SanitizeResult
	if err := requireConfig(req.Config); err != nil {
		return result, err
	}
	cfg := req.Config
	lock, err := acquireLock(cfg)
	if err != nil {
		return result, err
	}
	defer lock.release()

	filter, err := loadFilter(cfg)
	if err != nil {
		return result, err
	}
	store, err := staging.Open(cfg.StagingDatabasePath())
	if err != nil {
		return result, err
	}
	defer store.Close()

	report, err := sanitize.Run(ctx, store, filter, sanitize.Options{
		Execute:    req.Execute,
		StagingDir: cfg.Paths.StagingDir,
	}, loggerOrNop(req.Logger))
	result.Report = report
	result.Stats = report.Stats()
	if err != nil {
		return result, err
	}
	result.Success = true
	return result, nil
}

// DeleteStudent removes one staged student with its documents and staged
// copies. Without req.Execute it only reports what would go.
func DeleteStudent(ctx context.Context, req DeleteStudentRequest) (DeleteStudentResult, error) {
	result := DeleteStudentResult{StudentID: strings.TrimSpace(req.StudentID), Stats: map[string]int{}}
	if err := requireConfig(req.Config); err != nil {
		return result, err
	}
	if result.StudentID == "" {
		return result, failure.Wrap(failure.ErrValidation, "api", "delete student", "student id is required", nil)
	}
	cfg := req.Config
	logger := logging.NewComponentLogger(loggerOrNop(req.Logger), "sanitize")
	lock, err := acquireLock(cfg)
	if err != nil {
		return result, err
	}
	defer lock.release()

	store, err := staging.Open(cfg.StagingDatabasePath())
	if err != nil {
		return result, err
	}
	defer store.Close()

	rec, err := store.StudentByID(ctx, result.StudentID)
	if err != nil {
		return result, err
	}
	if rec == nil {
		return result, nil
	}
	result.Found = true
	result.FullName = rec.Person.FullName

	if !req.Execute {
		docs, err := store.DocumentsForStudent(ctx, result.StudentID)
		if err != nil {
			return result, err
		}
		result.Stats["students_deleted"] = 1
		result.Stats["documents_deleted"] = len(docs)
		logger.Info("dry run: would delete student",
			logging.String("student_id", result.StudentID),
			logging.String("full_name", result.FullName),
			logging.Int("documents", len(docs)),
		)
		return result, nil
	}

	del, err := store.DeleteStudent(ctx, result.StudentID)
	if err != nil {
		return result, fmt.Errorf("delete student %s: %w", result.StudentID, err)
	}
	result.Executed = true
	result.Stats["persons_deleted"] = int(del.Persons)
	result.Stats["students_deleted"] = int(del.Students)
	result.Stats["documents_deleted"] = int(del.Documents)
	result.Stats["files_removed"] = sanitize.RemoveStagedFiles(cfg.Paths.StagingDir, del, logger)
	logger.Info("student deleted",
		logging.String("student_id", result.StudentID),
		logging.String("full_name", result.FullName),
		logging.Int64("rows", del.Total()),
	)
	return result, nil
}

// StagingStats reads table counts, the copied document tree and recent runs.
// It takes no lock.
func StagingStats(ctx context.Context, req StatsRequest) (StagingStatsResult, error) {
	var result StagingStatsResult
	if err := requireConfig(req.Config); err != nil {
		return result, err
	}
	cfg := req.Config
	store, err := staging.Open(cfg.StagingDatabasePath())
	if err != nil {
		return result, err
	}
	defer store.Close()

	if result.Tables, err = store.Stats(ctx); err != nil {
		return result, err
	}
	dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
	if err != nil {
		return result, failure.Wrap(failure.ErrIO, "api", "staging stats", "list document directories", err)
	}
	result.DocumentDirs = len(dirs)
	for _, d := range dirs {
		result.DocumentFiles += d.Files
		result.DocumentsBytes += d.Size
	}

	limit := req.Runs
	if limit <= 0 {
		limit = 5
	}
	runs, err := store.Runs(ctx, "", limit)
	if err != nil {
		return result, err
	}
	result.Runs = make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		result.Runs = append(result.Runs, summarizeRun(r))
	}
	return result, nil
}

// CleanStaging empties the staging store and removes copied documents, or
// with req.Orphaned only removes document directories of students that are
// no longer staged.
func CleanStaging(ctx context.Context, req CleanRequest) (CleanResult, error) {
	result := CleanResult{Removed: []string{}}
	if err := requireConfig(req.Config); err != nil {
		return result, err
	}
	if !req.Orphaned && !req.Confirm {
		return result, fmt.Errorf("%w: staging clean truncates every staging table", ErrConfirmationRequired)
	}
	cfg := req.Config
	logger := logging.NewComponentLogger(loggerOrNop(req.Logger), "staging")
	lock, err := acquireLock(cfg)
	if err != nil {
		return result, err
	}
	defer lock.release()

	store, err := staging.Open(cfg.StagingDatabasePath())
	if err != nil {
		return result, err
	}
	defer store.Close()

	var cleanup staging.CleanResult
	if req.Orphaned {
		students, err := store.Students(ctx)
		if err != nil {
			return result, err
		}
		active := make(map[string]struct{}, len(students))
		for _, s := range students {
			active[s.Student.ID] = struct{}{}
		}
		cleanup = staging.CleanOrphaned(ctx, cfg.Paths.StagingDir, active, logger)
	} else {
		if result.Truncated, err = store.Truncate(ctx); err != nil {
			return result, err
		}
		cleanup = staging.RemoveDocuments(ctx, cfg.Paths.StagingDir, logger)
	}
	result.Removed = append(result.Removed, cleanup.Removed...)
	for _, e := range cleanup.Errors {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", e.Path, e.Error))
	}
	return result, nil
}
