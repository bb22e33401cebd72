package staging

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"enrollsync/internal/failure"
)

// Persons returns every staged person ordered by normalized name.
func (s *Store) Persons(ctx context.Context) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+personColumns+` FROM persons p ORDER BY p.normalized_name, p.id`)
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", err)
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PersonByID returns the person with id, or nil when none exists.
func (s *Store) PersonByID(ctx context.Context, id string) (*Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons p WHERE p.id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return &p, nil
}

// StudentByID returns the student with id, or nil when none exists.
func (s *Store) StudentByID(ctx context.Context, id string) (*StudentRecord, error) {
	rec, err := s.students(ctx, ` WHERE s.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, nil
	}
	return &rec[0], nil
}

// Students returns every staged student with its person.
func (s *Store) Students(ctx context.Context) ([]StudentRecord, error) {
	return s.students(ctx, "")
}

func (s *Store) students(ctx context.Context, where string, args ...any) ([]StudentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.person_id, s.program, s.status, s.source_dir, s.created_at, `+personColumns+`
         FROM students s JOIN persons p ON p.id = s.person_id`+where+`
         ORDER BY p.normalized_name, s.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var out []StudentRecord
	for rows.Next() {
		var (
			rec       StudentRecord
			program   sql.NullString
			sourceDir sql.NullString
			created   sql.NullString
			person    personRow
		)
		dest := append([]any{&rec.Student.ID, &rec.Student.PersonID, &program, &rec.Student.Status, &sourceDir, &created}, personDest(&person)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		rec.Student.Program = program.String
		rec.Student.SourceDir = sourceDir.String
		rec.Student.CreatedAt = parseTimeString(created.String)
		rec.Person = person.person()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Leads returns every staged lead with its person, in staging order.
func (s *Store) Leads(ctx context.Context) ([]LeadRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.person_id, l.program, l.status, l.source_file, l.source_sheet, l.row_index, l.created_at, `+personColumns+`
         FROM leads l JOIN persons p ON p.id = l.person_id
         ORDER BY l.source_file, l.row_index, l.id`)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var out []LeadRecord
	for rows.Next() {
		var (
			rec      LeadRecord
			sheet    sql.NullString
			rowIndex sql.NullInt64
			created  sql.NullString
			person   personRow
		)
		dest := append([]any{&rec.Lead.ID, &rec.Lead.PersonID, &rec.Lead.Program, &rec.Lead.Status, &rec.Lead.SourceFile, &sheet, &rowIndex, &created}, personDest(&person)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		rec.Lead.SourceSheet = sheet.String
		rec.Lead.RowIndex = int(rowIndex.Int64)
		rec.Lead.CreatedAt = parseTimeString(created.String)
		rec.Person = person.person()
		out = append(out, rec)
	}
	return out, rows.Err()
}

const documentColumns = "d.id, d.student_id, d.original_name, d.file_name, d.checksum, d.size_bytes, d.mime_type, d.doc_type, d.source_path, d.staged_path, d.created_at"

func documentDest(d *Document, mime, staged, created *sql.NullString) []any {
	return []any{&d.ID, &d.StudentID, &d.OriginalName, &d.FileName, &d.Checksum, &d.Size, mime, &d.DocType, &d.SourcePath, staged, created}
}

// Documents returns every staged document with the person owning it.
func (s *Store) Documents(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+`, `+personColumns+`
         FROM documents d
         JOIN students s ON s.id = d.student_id
         JOIN persons p ON p.id = s.person_id
         ORDER BY p.normalized_name, d.file_name, d.id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		var (
			rec                   DocumentRecord
			mime, staged, created sql.NullString
			person                personRow
		)
		dest := append(documentDest(&rec.Document, &mime, &staged, &created), personDest(&person)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		rec.Document.MIME = mime.String
		rec.Document.StagedPath = staged.String
		rec.Document.CreatedAt = parseTimeString(created.String)
		rec.Owner = person.person()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DocumentsForStudent returns the documents staged for one student.
func (s *Store) DocumentsForStudent(ctx context.Context, studentID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents d WHERE d.student_id = ? ORDER BY d.file_name`, studentID)
	if err != nil {
		return nil, fmt.Errorf("query student documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d                     Document
			mime, staged, created sql.NullString
		)
		if err := rows.Scan(documentDest(&d, &mime, &staged, &created)...); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.MIME = mime.String
		d.StagedPath = staged.String
		d.CreatedAt = parseTimeString(created.String)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Failures returns failure records, limited to one run when runID is set.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	query := `SELECT id, run_id, record_kind, payload, error_type, error_message, source_file, source_sheet, row_index, created_at FROM lead_failures`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var (
			f                                   Failure
			errorType                           string
			message, sourceFile, sheet, created sql.NullString
			rowIndex                            sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.RunID, &f.RecordKind, &f.Payload, &errorType, &message, &sourceFile, &sheet, &rowIndex, &created); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.ErrorType = failure.Category(errorType)
		f.ErrorMessage = message.String
		f.SourceFile = sourceFile.String
		f.SourceSheet = sheet.String
		f.RowIndex = int(rowIndex.Int64)
		f.CreatedAt = parseTimeString(created.String)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Runs returns the most recent runs of kind, newest first. An empty kind
// returns runs of every kind.
func (s *Store) Runs(ctx context.Context, kind RunKind, limit int) ([]Run, error) {
	query := `SELECT id, kind, source_dir, status, started_at, finished_at, stats_json, notes FROM ingestion_runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY finished_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                                  Run
			kindStr, status, started, finished string
			sourceDir, statsJSON, notes        sql.NullString
		)
		if err := rows.Scan(&r.ID, &kindStr, &sourceDir, &status, &started, &finished, &statsJSON, &notes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Kind = RunKind(kindStr)
		r.Status = RunStatus(status)
		r.SourceDir = sourceDir.String
		r.StartedAt = parseTimeString(started)
		r.FinishedAt = parseTimeString(finished)
		r.Notes = notes.String
		if statsJSON.Valid && statsJSON.String != "" {
			if err := json.Unmarshal([]byte(statsJSON.String), &r.Stats); err != nil {
				return nil, fmt.Errorf("decode run stats: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
