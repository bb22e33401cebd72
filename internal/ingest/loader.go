package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"enrollsync/internal/documents"
	"enrollsync/internal/logging"
	"enrollsync/internal/nonperson"
	"enrollsync/internal/staging"
)

const studentStatus = "ENROLLED"

// Options tunes a Loader.
type Options struct {
	// Workers bounds concurrent checksum computation per identity.
	Workers int
	// CopyDocuments copies each new document into the staging directory and
	// writes a manifest per student.
	CopyDocuments bool
	// Adapter reads document metadata. Nil means the local filesystem.
	Adapter documents.StorageAdapter
}

// Loader fills the staging store from a source tree.
type Loader struct {
	store   *staging.Store
	filter  *nonperson.Filter
	opts    Options
	adapter documents.StorageAdapter
	logger  *slog.Logger
	now     func() time.Time
}

// NewLoader constructs a Loader. A nil filter uses the built-in rules only.
func NewLoader(store *staging.Store, filter *nonperson.Filter, opts Options, logger *slog.Logger) *Loader {
	if filter == nil {
		filter = nonperson.New(nonperson.List{})
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	adapter := opts.Adapter
	if adapter == nil {
		adapter = documents.NewLocalAdapter()
	}
	return &Loader{
		store:   store,
		filter:  filter,
		opts:    opts,
		adapter: adapter,
		logger:  logging.NewComponentLogger(logger, "ingest"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Result is the outcome of one ingestion run.
type Result struct {
	RunID      string
	Status     staging.RunStatus
	Stats      map[string]int
	Identities []*Identity
}

// Load runs the identity and enrichment passes without writing anything.
func (l *Loader) Load(ctx context.Context, sourceDir string) ([]*Identity, map[string]int, error) {
	stats := make(map[string]int)
	identities, _, _, err := l.load(ctx, sourceDir, stats)
	return identities, stats, err
}

func (l *Loader) load(ctx context.Context, sourceDir string, stats map[string]int) ([]*Identity, map[string]*Identity, tablePass, error) {
	dirs, err := scanDocumentDirs(ctx, sourceDir)
	if err != nil {
		return nil, nil, tablePass{}, err
	}
	identities, byName := l.buildIdentities(ctx, dirs, stats)
	pass, err := l.readTables(ctx, sourceDir, byName, stats)
	if err != nil {
		return identities, byName, pass, err
	}
	return identities, byName, pass, nil
}

// Run ingests sourceDir into the staging store, copying documents under
// stagingDir. The run record is appended when the run ends, whatever its
// outcome; the returned stats are partial when err is non-nil.
func (l *Loader) Run(ctx context.Context, sourceDir, stagingDir string) (Result, error) {
	started := l.now()
	result := Result{RunID: staging.NewRunID(), Stats: make(map[string]int)}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, l.logger)
	logger.Info("ingestion started", logging.String("source_dir", sourceDir), logging.String("staging_dir", stagingDir))

	runErr := l.run(ctx, sourceDir, stagingDir, &result)

	result.Status = staging.RunCompleted
	notes := ""
	if runErr != nil {
		result.Status = staging.RunFailed
		notes = runErr.Error()
	}
	finished := l.now()
	record := staging.Run{
		ID:         result.RunID,
		Kind:       staging.RunIngestion,
		SourceDir:  sourceDir,
		Status:     result.Status,
		StartedAt:  started,
		FinishedAt: finished,
		Stats:      result.Stats,
		Notes:      notes,
	}
	if err := l.store.RecordRun(context.WithoutCancel(ctx), record); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("record ingestion run: %w", err))
	}

	if runErr != nil {
		logging.ErrorWithContext(logger, "ingestion failed", "ingestion_failed",
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "check that the source directory is readable and the staging store is writable"),
			logging.Duration("duration", finished.Sub(started)),
		)
		return result, runErr
	}
	logger.Info("ingestion completed",
		logging.Duration("duration", finished.Sub(started)),
		logging.Int(StatIdentities, result.Stats[StatIdentities]),
		logging.Int(StatDocumentsCreated, result.Stats[StatDocumentsCreated]),
		logging.Int(StatLeadsCreated, result.Stats[StatLeadsCreated]),
		logging.Int(StatFailures, result.Stats[StatFailures]),
	)
	return result, nil
}

func (l *Loader) run(ctx context.Context, sourceDir, stagingDir string, result *Result) error {
	identities, byName, pass, err := l.load(ctx, sourceDir, result.Stats)
	result.Identities = identities
	if err != nil {
		return err
	}
	w := &writer{
		loader:     l,
		runID:      result.RunID,
		stagingDir: stagingDir,
		stats:      result.Stats,
	}
	for _, id := range identities {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.stageIdentity(ctx, id)
	}
	if err := w.stageLeads(ctx, pass.leads, byName); err != nil {
		return err
	}
	return w.stageReferences(ctx, pass.references)
}
