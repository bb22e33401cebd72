package api_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"enrollsync/internal/api"
	"enrollsync/internal/config"
	"enrollsync/internal/failure"
	"enrollsync/internal/ingest"
	"enrollsync/internal/migrate"
	"enrollsync/internal/staging"
	"enrollsync/internal/testsupport"
)

func seedSource(t *testing.T, cfg *config.Config) {
	t.Helper()
	src := cfg.Paths.SourceDir
	testsupport.WriteFile(t, filepath.Join(src, "Work and Travel", "Juan Gomez", "pasaporte.pdf"), 256)
	testsupport.WriteFile(t, filepath.Join(src, "Work and Travel", "Juan Gomez", "visa.pdf"), 128)
	testsupport.WriteFile(t, filepath.Join(src, "Au Pair", "Laura Perez", "foto.jpg"), 64)
	testsupport.WriteFile(t, filepath.Join(src, "Work and Travel", "2024", "resumen.pdf"), 64)
	testsupport.WriteText(t, filepath.Join(src, "estudiantes.csv"), "Nombre,Correo\nJuan Gomez,juan@example.com\n")
}

func TestIngestThenMigrate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSource(t, cfg)
	ctx := context.Background()

	ingested, err := api.RunIngestion(ctx, api.IngestRequest{Config: cfg})
	if err != nil {
		t.Fatalf("RunIngestion failed: %v", err)
	}
	if !ingested.Success || ingested.RunID == "" {
		t.Fatalf("unexpected ingestion result: %+v", ingested)
	}
	if ingested.Stats[ingest.StatIdentities] != 2 || ingested.Stats[ingest.StatDocumentsCreated] != 3 {
		t.Fatalf("unexpected ingestion stats: %v", ingested.Stats)
	}

	dry, err := api.Migrate(ctx, api.MigrateRequest{Config: cfg, DryRun: true})
	if err != nil {
		t.Fatalf("dry-run Migrate failed: %v", err)
	}
	if dry.Status != string(staging.RunDryRun) || dry.Stats[migrate.StatStudentsCreated] != 2 {
		t.Fatalf("unexpected dry run: %+v", dry)
	}

	migrated, err := api.Migrate(ctx, api.MigrateRequest{Config: cfg})
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if !migrated.Success || migrated.Stats[migrate.StatStudentsCreated] != 2 || migrated.Stats[migrate.StatDocumentsMigrated] != 3 {
		t.Fatalf("unexpected migration: %+v", migrated)
	}

	prod := testsupport.MustOpenProduction(t, cfg)
	counts, err := prod.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if counts["persons"] != 2 || counts["persons_placeholder_email"] != 1 {
		t.Fatalf("unexpected production counts: %v", counts)
	}

	stats, err := api.StagingStats(ctx, api.StatsRequest{Config: cfg})
	if err != nil {
		t.Fatalf("StagingStats failed: %v", err)
	}
	if stats.Tables["students"] != 2 || stats.DocumentDirs != 2 || stats.DocumentFiles == 0 {
		t.Fatalf("unexpected staging stats: %+v", stats)
	}
	if len(stats.Runs) != 3 || stats.Runs[0].Kind != string(staging.RunMigration) {
		t.Fatalf("unexpected runs: %+v", stats.Runs)
	}
}

func TestIngestionFailsWhileLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSource(t, cfg)
	if err := os.MkdirAll(cfg.Paths.StagingDir, 0o755); err != nil {
		t.Fatalf("mkdir staging: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock failed: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	result, err := api.RunIngestion(context.Background(), api.IngestRequest{Config: cfg})
	if !errors.Is(err, api.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if result.Success {
		t.Fatal("Success = true while locked")
	}
}

func TestIngestionMissingSourceReportsPartialResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result, err := api.RunIngestion(context.Background(), api.IngestRequest{
		Config:    cfg,
		SourceDir: filepath.Join(testsupport.BaseDir(cfg), "nowhere"),
	})
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if result.Success || result.Status != string(staging.RunFailed) || result.Error == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSanitizeAndDeleteStudent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSource(t, cfg)
	ctx := context.Background()
	if _, err := api.RunIngestion(ctx, api.IngestRequest{Config: cfg}); err != nil {
		t.Fatalf("RunIngestion failed: %v", err)
	}

	report, err := api.Sanitize(ctx, api.SanitizeRequest{Config: cfg})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if report.Stats["persons_scanned"] != 2 || report.Stats["persons_flagged"] != 0 {
		t.Fatalf("unexpected sanitize stats: %v", report.Stats)
	}

	laura := staging.StudentID(staging.DirectoryPersonID("LAURA PEREZ"))
	preview, err := api.DeleteStudent(ctx, api.DeleteStudentRequest{Config: cfg, StudentID: laura})
	if err != nil {
		t.Fatalf("DeleteStudent preview failed: %v", err)
	}
	if !preview.Found || preview.Executed || preview.Stats["documents_deleted"] != 1 {
		t.Fatalf("unexpected preview: %+v", preview)
	}

	deleted, err := api.DeleteStudent(ctx, api.DeleteStudentRequest{Config: cfg, StudentID: laura, Execute: true})
	if err != nil {
		t.Fatalf("DeleteStudent failed: %v", err)
	}
	if !deleted.Executed || deleted.Stats["persons_deleted"] != 1 || deleted.Stats["files_removed"] != 1 {
		t.Fatalf("unexpected deletion: %+v", deleted)
	}
	if _, err := os.Stat(staging.StudentDir(cfg.Paths.StagingDir, laura)); !os.IsNotExist(err) {
		t.Fatalf("student directory still present: %v", err)
	}

	missing, err := api.DeleteStudent(ctx, api.DeleteStudentRequest{Config: cfg, StudentID: "nope", Execute: true})
	if err != nil || missing.Found {
		t.Fatalf("expected a not-found result, got %+v err=%v", missing, err)
	}
}

func TestCleanStaging(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSource(t, cfg)
	ctx := context.Background()
	if _, err := api.RunIngestion(ctx, api.IngestRequest{Config: cfg}); err != nil {
		t.Fatalf("RunIngestion failed: %v", err)
	}

	if _, err := api.CleanStaging(ctx, api.CleanRequest{Config: cfg}); !errors.Is(err, api.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}

	orphan := filepath.Join(staging.DocumentsDir(cfg.Paths.StagingDir), "stale-student")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatalf("mkdir orphan: %v", err)
	}
	orphaned, err := api.CleanStaging(ctx, api.CleanRequest{Config: cfg, Orphaned: true})
	if err != nil {
		t.Fatalf("orphaned clean failed: %v", err)
	}
	if len(orphaned.Removed) != 1 || orphaned.Removed[0] != orphan {
		t.Fatalf("unexpected orphan removal: %+v", orphaned)
	}

	cleaned, err := api.CleanStaging(ctx, api.CleanRequest{Config: cfg, Confirm: true})
	if err != nil {
		t.Fatalf("CleanStaging failed: %v", err)
	}
	if cleaned.Truncated["students"] != 2 || cleaned.Truncated["documents"] != 3 {
		t.Fatalf("unexpected truncation: %+v", cleaned.Truncated)
	}
	if _, err := os.Stat(staging.DocumentsDir(cfg.Paths.StagingDir)); !os.IsNotExist(err) {
		t.Fatalf("documents directory still present: %v", err)
	}
}

func TestMigrateKeepsNonPersonLeadsOutOfProduction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSource(t, cfg)
	testsupport.WriteText(t, filepath.Join(cfg.Paths.SourceDir, "leads.csv"), "Nombre,Correo\nAU PAIR,aupair@x.com\nAna Ruiz,ana@x.com\n")
	ctx := context.Background()

	ingested, err := api.RunIngestion(ctx, api.IngestRequest{Config: cfg})
	if err != nil {
		t.Fatalf("RunIngestion failed: %v", err)
	}
	if ingested.Stats[ingest.StatLeadsRejected] != 1 || ingested.Stats[ingest.StatLeadsCreated] != 1 {
		t.Fatalf("unexpected ingestion stats: %v", ingested.Stats)
	}
	if _, err := api.Migrate(ctx, api.MigrateRequest{Config: cfg}); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	prod := testsupport.MustOpenProduction(t, cfg)
	tx, err := prod.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback()
	if p, err := tx.PersonByEmail(ctx, "aupair@x.com"); err != nil || p != nil {
		t.Fatalf("non-person lead reached production: %+v (%v)", p, err)
	}
	if p, err := tx.PersonByEmail(ctx, "ana@x.com"); err != nil || p == nil {
		t.Fatalf("person lead missing from production (%v)", err)
	}
}

func TestIngestionStagingDirRelocatesTheStagingArea(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSource(t, cfg)
	ctx := context.Background()
	alt := filepath.Join(testsupport.BaseDir(cfg), "alt-staging")

	if _, err := api.RunIngestion(ctx, api.IngestRequest{Config: cfg, StagingDir: alt}); err != nil {
		t.Fatalf("RunIngestion failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(alt, "staging.db")); err != nil {
		t.Fatalf("staging database not in the requested dir: %v", err)
	}
	if _, err := os.Stat(cfg.StagingDatabasePath()); !os.IsNotExist(err) {
		t.Fatalf("configured staging database was written: %v", err)
	}

	relocated, err := cfg.WithStagingDir(alt)
	if err != nil {
		t.Fatalf("WithStagingDir failed: %v", err)
	}
	stats, err := api.StagingStats(ctx, api.StatsRequest{Config: relocated})
	if err != nil {
		t.Fatalf("StagingStats failed: %v", err)
	}
	if stats.Tables["students"] != 2 || stats.DocumentDirs != 2 {
		t.Fatalf("rows and copies are not in one staging area: %+v", stats)
	}
	if _, err := api.CleanStaging(ctx, api.CleanRequest{Config: relocated, Confirm: true}); err != nil {
		t.Fatalf("CleanStaging failed: %v", err)
	}
	if _, err := os.Stat(staging.DocumentsDir(alt)); !os.IsNotExist(err) {
		t.Fatalf("copies in the requested dir survived clean: %v", err)
	}

	pinned := *cfg
	pinned.Staging.Database = filepath.Join(testsupport.BaseDir(cfg), "db", "staging.db")
	_, err = api.RunIngestion(ctx, api.IngestRequest{Config: &pinned, StagingDir: alt})
	if !errors.Is(err, failure.ErrValidation) {
		t.Fatalf("expected validation error for a pinned database, got %v", err)
	}
}
