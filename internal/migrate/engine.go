package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"enrollsync/internal/failure"
	"enrollsync/internal/logging"
	"enrollsync/internal/nonperson"
	"enrollsync/internal/production"
	"enrollsync/internal/staging"
	"enrollsync/internal/textutil"
)

const (
	maxFailureMessage = 500
	// dryRunSavepoint scopes one record inside the dry-run transaction.
	dryRunSavepoint = "record"
)

// Options tunes an Engine.
type Options struct {
	// DryRun runs the whole migration in one transaction that is rolled
	// back at the end. Each record gets its own savepoint, so later records
	// see earlier ones exactly as in a real run.
	DryRun bool
	// Bucket is recorded on migrated documents.
	Bucket string
}

// Engine migrates the staging store into the production store. An Engine
// runs one migration at a time.
type Engine struct {
	staging *staging.Store
	prod    *production.Store
	filter  *nonperson.Filter
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	// dry is the enclosing transaction of a dry run.
	dry *production.Tx
}

// NewEngine constructs an Engine. Staged persons the filter rejects are
// never written to production; a nil filter uses the built-in rules.
func NewEngine(st *staging.Store, prod *production.Store, filter *nonperson.Filter, opts Options, logger *slog.Logger) *Engine {
	if filter == nil {
		filter = nonperson.New(nonperson.List{})
	}
	return &Engine{
		staging: st,
		prod:    prod,
		filter:  filter,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "migrate"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Result is the outcome of one migration run.
type Result struct {
	RunID  string
	Status staging.RunStatus
	Stats  map[string]int
}

// Run migrates students, then leads, then documents. Record errors are
// written as failure records and skipped; only phase-level errors such as an
// unreadable staging store or a cancelled context end the run early, in which
// case the returned stats are partial. A run record is appended either way.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	started := e.now()
	result := Result{RunID: staging.NewRunID(), Stats: make(map[string]int)}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, e.logger).With(logging.DryRun(e.opts.DryRun))
	logger.Info("migration started")

	runErr := e.run(ctx, result.Stats)

	switch {
	case runErr != nil:
		result.Status = staging.RunFailed
	case e.opts.DryRun:
		result.Status = staging.RunDryRun
	default:
		result.Status = staging.RunCompleted
	}
	notes := ""
	if runErr != nil {
		notes = runErr.Error()
	}
	finished := e.now()
	record := staging.Run{
		ID:         result.RunID,
		Kind:       staging.RunMigration,
		Status:     result.Status,
		StartedAt:  started,
		FinishedAt: finished,
		Stats:      result.Stats,
		Notes:      notes,
	}
	if err := e.staging.RecordRun(context.WithoutCancel(ctx), record); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("record migration run: %w", err))
	}

	if runErr != nil {
		logging.ErrorWithContext(logger, "migration failed", "migration_failed",
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "check that both stores are reachable; completed records stay migrated"),
			logging.Duration("duration", finished.Sub(started)),
		)
		return result, runErr
	}
	logger.Info("migration completed",
		logging.Duration("duration", finished.Sub(started)),
		logging.Int(StatStudentsCreated, result.Stats[StatStudentsCreated]),
		logging.Int(StatLeadsCreated, result.Stats[StatLeadsCreated]),
		logging.Int(StatDocumentsMigrated, result.Stats[StatDocumentsMigrated]),
		logging.Int(StatFailures, result.Stats[StatFailures]),
	)
	return result, nil
}

func (e *Engine) run(ctx context.Context, stats map[string]int) error {
	if e.opts.DryRun {
		tx, err := e.prod.Begin(ctx)
		if err != nil {
			return err
		}
		e.dry = tx
		defer func() {
			_ = tx.Rollback()
			e.dry = nil
		}()
	}

	students, err := e.staging.Students(ctx)
	if err != nil {
		return failure.Wrap(failure.ErrDependency, "migrate", "read staged students", "", err)
	}
	for _, rec := range students {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.migrateStudent(ctx, rec, stats)
	}

	leads, err := e.staging.Leads(ctx)
	if err != nil {
		return failure.Wrap(failure.ErrDependency, "migrate", "read staged leads", "", err)
	}
	for _, rec := range leads {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.migrateLead(ctx, rec, stats)
	}

	docs, err := e.staging.Documents(ctx)
	if err != nil {
		return failure.Wrap(failure.ErrDependency, "migrate", "read staged documents", "", err)
	}
	for _, rec := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.migrateDocument(ctx, rec, stats)
	}
	return nil
}

// inTx runs fn in its own production transaction, or in a savepoint of the
// dry-run transaction. Counters fn records are added to stats only when the
// record's writes are kept.
func (e *Engine) inTx(ctx context.Context, stats map[string]int, fn func(tx *production.Tx, counts map[string]int) error) error {
	if e.dry != nil {
		return e.inSavepoint(ctx, stats, fn)
	}
	tx, err := e.prod.Begin(ctx)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	if err := fn(tx, counts); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	addCounts(stats, counts)
	return nil
}

func (e *Engine) inSavepoint(ctx context.Context, stats map[string]int, fn func(tx *production.Tx, counts map[string]int) error) error {
	tx := e.dry
	if err := tx.Savepoint(ctx, dryRunSavepoint); err != nil {
		return err
	}
	counts := make(map[string]int)
	if err := fn(tx, counts); err != nil {
		if rbErr := tx.RollbackTo(ctx, dryRunSavepoint); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		_ = tx.Release(ctx, dryRunSavepoint)
		return err
	}
	if err := tx.Release(ctx, dryRunSavepoint); err != nil {
		return err
	}
	addCounts(stats, counts)
	return nil
}

func addCounts(stats, counts map[string]int) {
	for key, n := range counts {
		stats[key] += n
	}
}

// rejected reports whether p is a non-person the filter keeps out of
// production, and counts it under stat.
func (e *Engine) rejected(logger *slog.Logger, p staging.Person, stat string, stats map[string]int) bool {
	if e.filter.Whitelisted(p.ID) {
		return false
	}
	rule := e.filter.Check(p.FullName)
	if rule == nonperson.RuleNone {
		return false
	}
	stats[stat]++
	logger.Info("non-person record skipped",
		logging.String(logging.FieldEventType, "non_person_skipped"),
		logging.String("rule", string(rule)),
	)
	return true
}

func (e *Engine) migrateStudent(ctx context.Context, rec staging.StudentRecord, stats map[string]int) {
	ctx = logging.WithRecordKind(ctx, "student")
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String("student_id", rec.Student.ID),
		logging.String("full_name", rec.Person.FullName),
	)
	if e.rejected(logger, rec.Person, StatStudentsRejected, stats) {
		return
	}
	incoming := toProduction(rec.Person)

	err := e.inTx(ctx, stats, func(tx *production.Tx, counts map[string]int) error {
		match, err := FindOrCreate(ctx, tx, incoming)
		if err != nil {
			return err
		}
		countMatch(counts, match)

		existing, err := tx.StudentByPerson(ctx, match.Person.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := tx.UpdateStudent(ctx, existing.ID, rec.Student.Program, incoming.DataSource); err != nil {
				return err
			}
			counts[StatStudentsUpdated]++
			e.logRecord(logger, "student updated", "update student", match)
			return nil
		}
		if _, err := tx.CreateStudent(ctx, production.Student{
			PersonID:    match.Person.ID,
			Program:     rec.Student.Program,
			Status:      production.StudentActive,
			DataSource:  incoming.DataSource,
			CSVEnriched: rec.Person.Enriched,
		}); err != nil {
			return err
		}
		counts[StatStudentsCreated]++
		e.logRecord(logger, "student created", "create student", match)
		return nil
	})
	if err != nil {
		stats[StatStudentsFailed]++
		e.recordFailure(ctx, stats, "student", rec, rec.Student.SourceDir, "", 0, err)
	}
}

func (e *Engine) migrateLead(ctx context.Context, rec staging.LeadRecord, stats map[string]int) {
	ctx = logging.WithRecordKind(ctx, "lead")
	ctx = logging.WithSourceFile(ctx, rec.Lead.SourceFile)
	logger := logging.WithContext(ctx, e.logger).With(logging.String("full_name", rec.Person.FullName))
	if e.rejected(logger, rec.Person, StatLeadsRejected, stats) {
		return
	}
	incoming := toProduction(rec.Person)

	err := e.inTx(ctx, stats, func(tx *production.Tx, counts map[string]int) error {
		match, err := FindOrCreate(ctx, tx, incoming)
		if err != nil {
			return err
		}
		countMatch(counts, match)

		lead := production.Lead{
			PersonID:    match.Person.ID,
			Program:     rec.Lead.Program,
			Status:      rec.Lead.Status,
			SourceFile:  rec.Lead.SourceFile,
			SourceSheet: rec.Lead.SourceSheet,
		}
		existing, err := tx.FindLead(ctx, match.Person.ID, lead.Program, lead.SourceFile)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := tx.UpdateLead(ctx, existing.ID, lead); err != nil {
				return err
			}
			counts[StatLeadsUpdated]++
			e.logRecord(logger, "lead updated", "update lead", match)
			return nil
		}
		if _, err := tx.CreateLead(ctx, lead); err != nil {
			return err
		}
		counts[StatLeadsCreated]++
		e.logRecord(logger, "lead created", "create lead", match)
		return nil
	})
	if err != nil {
		stats[StatLeadsFailed]++
		e.recordFailure(ctx, stats, "lead", rec, rec.Lead.SourceFile, rec.Lead.SourceSheet, rec.Lead.RowIndex, err)
	}
}

func (e *Engine) migrateDocument(ctx context.Context, rec staging.DocumentRecord, stats map[string]int) {
	ctx = logging.WithRecordKind(ctx, "document")
	doc := rec.Document
	logger := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldSourceFile, doc.OriginalName),
		logging.String("checksum", doc.Checksum),
	)
	if e.rejected(logger.With(logging.String("full_name", rec.Owner.FullName)), rec.Owner, StatDocumentsRejected, stats) {
		return
	}

	err := e.inTx(ctx, stats, func(tx *production.Tx, counts map[string]int) error {
		owner, probe, err := resolveOwner(ctx, tx, toProduction(rec.Owner))
		if err != nil {
			return err
		}
		var student *production.Student
		if owner != nil {
			if student, err = tx.StudentByPerson(ctx, owner.ID); err != nil {
				return err
			}
		}
		if student == nil {
			counts[StatDocumentsUnresolved]++
			logger.Info("document owner not found in production; skipped",
				logging.String(logging.FieldEventType, "document_unresolved"),
				logging.String("full_name", rec.Owner.FullName),
			)
			return nil
		}

		dup, err := tx.HasDocument(ctx, doc.Checksum)
		if err != nil {
			return err
		}
		if dup {
			counts[StatDocumentsDuplicate]++
			return nil
		}

		fileName := doc.FileName
		if fileName == "" {
			fileName = doc.OriginalName
		}
		created, err := tx.CreateDocument(ctx, production.Document{
			StudentID:    student.ID,
			FileName:     fileName,
			OriginalName: doc.OriginalName,
			Checksum:     doc.Checksum,
			Size:         doc.Size,
			MIME:         doc.MIME,
			DocType:      doc.DocType,
			StorageKey:   StorageKey(student.ID, doc.DocType, doc.Checksum, fileName),
			Bucket:       e.opts.Bucket,
			Status:       production.DocumentPending,
			SourcePath:   sourcePath(doc),
		})
		if err != nil {
			return err
		}
		counts[StatDocumentsMigrated]++
		e.logRecord(logger.With(logging.String("owner_probe", string(probe))), "document migrated", "migrate document",
			Match{Person: *owner, Probe: probe},
			logging.String("storage_key", created.StorageKey),
		)
		return nil
	})
	if err != nil {
		stats[StatDocumentsFailed]++
		e.recordFailure(ctx, stats, "document", rec, doc.OriginalName, "", 0, err)
	}
}

// StorageKey is the object key of a migrated document:
// <student_id>/<DOC_TYPE>/<checksum[:12]>-<file name>.
func StorageKey(studentID, docType, checksum, fileName string) string {
	short := checksum
	if len(short) > 12 {
		short = short[:12]
	}
	if docType == "" {
		docType = "OTHER"
	}
	name := textutil.SanitizeFileName(fileName)
	return strings.Join([]string{studentID, docType, short + "-" + name}, "/")
}

// sourcePath prefers the staged copy over the original file.
func sourcePath(d staging.Document) string {
	if d.StagedPath != "" {
		return d.StagedPath
	}
	return d.SourcePath
}

func (e *Engine) logRecord(logger *slog.Logger, done, would string, m Match, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.String("person_id", m.Person.ID),
		logging.Bool("person_created", m.Created),
	)
	if m.Probe != ProbeNone {
		attrs = append(attrs, logging.String("probe", string(m.Probe)))
	}
	if m.Probe == ProbeNamePrefix {
		attrs = append(attrs, logging.Alert("merged on name prefix only"))
		logger.Info("person matched on name prefix", logging.Args(attrs...)...)
	}
	if e.opts.DryRun {
		logger.Info("dry run: would "+would, logging.Args(attrs...)...)
		return
	}
	logger.Debug(done, logging.Args(attrs...)...)
}

// recordFailure logs a rejected record and writes it to the staging failure
// table, outside the rolled-back production transaction.
func (e *Engine) recordFailure(ctx context.Context, stats map[string]int, kind string, record any, source, sheet string, row int, err error) {
	stats[StatFailures]++
	recErr := failure.NewRecordError(kind, source, sheet, row, err)
	logging.WarnWithContext(logging.WithContext(ctx, e.logger), "record not migrated", kind+"_migration_failed",
		logging.String(logging.FieldErrorType, string(recErr.Category)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "review the failure records for this run"),
	)

	payload, marshalErr := json.Marshal(record)
	if marshalErr != nil {
		payload = []byte("{}")
	}
	runID, _ := logging.RunIDFromContext(ctx)
	rec := staging.Failure{
		RunID:        runID,
		RecordKind:   kind,
		Payload:      string(payload),
		ErrorType:    recErr.Category,
		ErrorMessage: failure.Truncate(err, maxFailureMessage),
		SourceFile:   source,
		SourceSheet:  sheet,
		RowIndex:     row,
	}
	if writeErr := e.staging.RecordFailure(context.WithoutCancel(ctx), rec); writeErr != nil {
		e.logger.Error("failure record not written", logging.Error(writeErr))
	}
}

// toProduction maps a staged person onto the production shape.
func toProduction(p staging.Person) production.Person {
	return production.Person{
		FullName:       p.FullName,
		NormalizedName: p.NormalizedName,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		NationalID:     p.NationalID,
		BirthDate:      p.BirthDate,
		Country:        p.Country,
		City:           p.City,
		DataSource:     strings.ToLower(string(p.Source)),
		OriginalName:   p.FullName,
		CSVEnriched:    p.Enriched,
	}
}
