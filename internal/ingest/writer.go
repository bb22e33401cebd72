package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"enrollsync/internal/documents"
	"enrollsync/internal/failure"
	"enrollsync/internal/fileutil"
	"enrollsync/internal/identity"
	"enrollsync/internal/logging"
	"enrollsync/internal/staging"
	"enrollsync/internal/tabular"
)

const maxFailureMessage = 500

// writer performs the staging pass of one run.
type writer struct {
	loader     *Loader
	runID      string
	stagingDir string
	stats      map[string]int
}

// stageIdentity writes the person, the student role, and the documents of id
// in that order. Errors are recorded and the run moves on.
func (w *writer) stageIdentity(ctx context.Context, id *Identity) {
	ctx = logging.WithRecordKind(ctx, "student")
	logger := logging.WithContext(ctx, w.loader.logger).With(logging.String("person_id", id.PersonID))

	person := staging.PersonFromCandidate(id.PersonID, id.Candidate, staging.SourceDirectory, id.Directories[0])
	person.Enriched = id.Enriched()
	person.EnrichmentSource = strings.Join(id.SourceFiles, ", ")
	student := staging.Student{
		ID:        staging.StudentID(id.PersonID),
		PersonID:  id.PersonID,
		Program:   id.Candidate.Program,
		Status:    studentStatus,
		SourceDir: id.Directories[0],
	}

	personRes, studentRes, err := w.loader.store.StageStudent(ctx, person, student)
	if err != nil {
		w.recordFailure(ctx, "student", id.Candidate, id.Directories[0], "", 0, err)
		return
	}
	countWrite(w.stats, personRes, StatPersonsCreated, StatPersonsUpdated, StatPersonsSkipped)
	countWrite(w.stats, studentRes, StatStudentsCreated, StatStudentsUpdated, StatStudentsSkipped)
	logger.Debug("student staged",
		logging.String("full_name", person.FullName),
		logging.String("person", personRes.String()),
		logging.String("student", studentRes.String()),
	)

	w.stageDocuments(ctx, id, person, student)
}

func (w *writer) stageDocuments(ctx context.Context, id *Identity, person staging.Person, student staging.Student) {
	ctx = logging.WithRecordKind(ctx, "document")
	logger := logging.WithContext(ctx, w.loader.logger).With(logging.String("student_id", student.ID))
	store := w.loader.store

	metas, fileErrs, err := documents.Describe(ctx, w.loader.adapter, id.Documents, person.FullName, w.loader.opts.Workers)
	if err != nil {
		return
	}
	for _, fe := range fileErrs {
		w.stats[StatDocumentsFailed]++
		w.recordDocumentFailure(ctx, fe.Path, fe.Err)
	}

	existing, err := store.DocumentsForStudent(ctx, student.ID)
	if err != nil {
		w.recordDocumentFailure(ctx, id.Directories[0], err)
		return
	}
	seq := make(map[string]int)
	for _, doc := range existing {
		seq[doc.DocType]++
	}

	for _, meta := range metas {
		if ctx.Err() != nil {
			return
		}
		staged, err := store.HasDocument(ctx, meta.Checksum)
		if err != nil {
			w.stats[StatDocumentsFailed]++
			w.recordDocumentFailure(ctx, meta.Path, err)
			continue
		}
		if staged {
			w.stats[StatDocumentsSkipped]++
			continue
		}

		docType := string(meta.DocType)
		doc := staging.Document{
			ID:           staging.DocumentID(meta.Checksum),
			StudentID:    student.ID,
			OriginalName: meta.Name,
			FileName:     meta.Name,
			Checksum:     meta.Checksum,
			Size:         meta.Size,
			MIME:         meta.MIME,
			DocType:      docType,
			SourcePath:   meta.Path,
		}
		if w.loader.opts.CopyDocuments {
			doc.FileName = staging.StagedFileName(docType, seq[docType]+1, meta.Name)
			doc.StagedPath = filepath.Join(staging.StudentDir(w.stagingDir, student.ID), doc.FileName)
			sum, err := fileutil.CopyFileVerified(meta.Path, doc.StagedPath)
			if err == nil && sum != meta.Checksum {
				err = failure.Wrap(failure.ErrIO, "ingest", "copy document", meta.Path+" changed while staging", nil)
			}
			if err != nil {
				_ = os.Remove(doc.StagedPath)
				w.stats[StatDocumentsFailed]++
				w.recordDocumentFailure(ctx, meta.Path, err)
				continue
			}
		}

		inserted, err := store.UpsertDocument(ctx, doc)
		if err != nil {
			if doc.StagedPath != "" {
				_ = os.Remove(doc.StagedPath)
			}
			w.stats[StatDocumentsFailed]++
			w.recordDocumentFailure(ctx, meta.Path, err)
			continue
		}
		if !inserted {
			w.stats[StatDocumentsSkipped]++
			continue
		}
		seq[docType]++
		w.stats[StatDocumentsCreated]++
		logger.Debug("document staged",
			logging.String("doc_type", docType),
			logging.String(logging.FieldSourceFile, meta.Name),
			logging.Int64("size_bytes", meta.Size),
			logging.String("checksum", meta.Checksum),
		)
	}

	if w.loader.opts.CopyDocuments {
		w.writeManifest(ctx, person, student)
	}
}

func (w *writer) writeManifest(ctx context.Context, person staging.Person, student staging.Student) {
	docs, err := w.loader.store.DocumentsForStudent(ctx, student.ID)
	if err != nil {
		w.recordDocumentFailure(ctx, student.SourceDir, err)
		return
	}
	entries := make([]staging.ManifestDocument, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, staging.ManifestDocument{
			OriginalName: d.OriginalName,
			StagedName:   d.FileName,
			DocType:      d.DocType,
			MIME:         d.MIME,
			Size:         d.Size,
			Checksum:     d.Checksum,
		})
	}
	if _, err := staging.WriteManifest(w.stagingDir, staging.NewManifest(person, student, entries)); err != nil {
		w.recordDocumentFailure(ctx, student.SourceDir, err)
		return
	}
	w.stats[StatManifestsWritten]++
}

// stageLeads writes every indexed lead in its own transaction. A lead whose
// name matches a directory identity attaches to that person; leads the
// non-person filter rejects are counted and dropped.
func (w *writer) stageLeads(ctx context.Context, leads *identity.Index, byName map[string]*Identity) error {
	ctx = logging.WithRecordKind(ctx, "lead")
	logger := logging.WithContext(ctx, w.loader.logger)

	for _, c := range leads.Candidates() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var personID string
		if id, ok := byName[c.NormalizedName]; ok {
			personID = id.PersonID
		} else if key, ok := identity.PrimaryKey(*c); ok {
			personID = staging.TabularPersonID(key)
		} else {
			w.stats[StatLeadsSkipped]++
			continue
		}
		if w.loader.filter.Rejects(personID, c.FullName) {
			w.stats[StatLeadsRejected]++
			logger.Debug("lead rejected as non-person",
				logging.String("full_name", c.FullName),
				logging.String(logging.FieldSourceFile, c.SourceFile),
				logging.Int("row", c.RowIndex),
			)
			continue
		}
		person := staging.PersonFromCandidate(personID, *c, staging.SourceTabular, c.SourceFile)
		lead := staging.Lead{
			ID:          staging.LeadID(personID, c.Program, c.SourceFile),
			PersonID:    personID,
			Program:     c.Program,
			Status:      c.Status,
			SourceFile:  c.SourceFile,
			SourceSheet: c.SourceSheet,
			RowIndex:    c.RowIndex,
		}
		personRes, leadRes, err := w.loader.store.StageLead(ctx, person, lead)
		if err != nil {
			w.stats[StatLeadFailures]++
			w.recordFailure(ctx, "lead", *c, c.SourceFile, c.SourceSheet, c.RowIndex, err)
			continue
		}
		countWrite(w.stats, personRes, StatPersonsCreated, StatPersonsUpdated, StatPersonsSkipped)
		if leadRes == staging.WriteInserted {
			w.stats[StatLeadsCreated]++
		} else {
			w.stats[StatLeadsSkipped]++
		}
	}
	logger.Debug("leads staged", logging.Int("candidates", leads.Len()))
	return nil
}

func (w *writer) stageReferences(ctx context.Context, tables []tabular.Table) error {
	ctx = logging.WithRecordKind(ctx, "reference")
	for _, table := range tables {
		refType := string(tabular.ReferenceTypeOf(table))
		for i, payload := range tabular.ReferenceRows(table) {
			if err := ctx.Err(); err != nil {
				return err
			}
			inserted, err := w.loader.store.InsertReference(ctx, staging.ReferenceRow{
				Type:        refType,
				SourceFile:  table.Name(),
				SourceSheet: table.Sheet,
				RowIndex:    i + 2,
				Payload:     payload,
			})
			if err != nil {
				w.recordFailure(ctx, "reference", identity.Candidate{}, table.Name(), table.Sheet, i+2, err)
				continue
			}
			if inserted {
				w.stats[StatReferenceRows]++
			}
		}
	}
	return nil
}

func (w *writer) recordDocumentFailure(ctx context.Context, path string, err error) {
	w.recordFailure(ctx, "document", identity.Candidate{}, path, "", 0, err)
}

// recordFailure logs a rejected record and appends it to the failure table in
// its own transaction.
func (w *writer) recordFailure(ctx context.Context, kind string, c identity.Candidate, source, sheet string, row int, err error) {
	w.stats[StatFailures]++
	recErr := failure.NewRecordError(kind, source, sheet, row, err)
	logging.WarnWithContext(logging.WithContext(ctx, w.loader.logger), "record skipped", kind+"_failed",
		logging.String(logging.FieldErrorType, string(recErr.Category)),
		logging.String(logging.FieldSourceFile, source),
		logging.Int("row", row),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "review the failure records for this run"),
	)

	payload, marshalErr := json.Marshal(failurePayload(c))
	if marshalErr != nil {
		payload = []byte("{}")
	}
	rec := staging.Failure{
		RunID:        w.runID,
		RecordKind:   kind,
		Payload:      string(payload),
		ErrorType:    recErr.Category,
		ErrorMessage: failure.Truncate(err, maxFailureMessage),
		SourceFile:   source,
		SourceSheet:  sheet,
		RowIndex:     row,
	}
	if writeErr := w.loader.store.RecordFailure(context.WithoutCancel(ctx), rec); writeErr != nil {
		w.loader.logger.Error("failure record not written", logging.Error(writeErr))
	}
}

func failurePayload(c identity.Candidate) map[string]string {
	out := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("full_name", c.FullName)
	set("normalized_name", c.NormalizedName)
	set("email", c.Email)
	set("phone", c.Phone)
	set("national_id", c.NationalID)
	set("program", c.Program)
	set("status", c.Status)
	if !c.BirthDate.IsZero() {
		out["birth_date"] = tabular.FormatDate(c.BirthDate)
	}
	return out
}
