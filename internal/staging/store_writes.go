package staging

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// WriteResult reports what an idempotent write did.
type WriteResult int

const (
	WriteUnchanged WriteResult = iota
	WriteInserted
	WriteUpdated
)

func (r WriteResult) String() string {
	switch r {
	case WriteInserted:
		return "inserted"
	case WriteUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

const upsertPersonSQL = `INSERT INTO persons (
        id, full_name, normalized_name, email, phone, address, national_id,
        birth_date, country, city, source, source_path, enriched,
        enrichment_source, created_at, updated_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(id) DO UPDATE SET
        email = COALESCE(persons.email, excluded.email),
        phone = COALESCE(persons.phone, excluded.phone),
        address = COALESCE(persons.address, excluded.address),
        national_id = COALESCE(persons.national_id, excluded.national_id),
        birth_date = COALESCE(persons.birth_date, excluded.birth_date),
        country = COALESCE(persons.country, excluded.country),
        city = COALESCE(persons.city, excluded.city),
        enriched = MAX(persons.enriched, excluded.enriched),
        enrichment_source = COALESCE(persons.enrichment_source, excluded.enrichment_source),
        updated_at = excluded.updated_at
    WHERE (persons.email IS NULL AND excluded.email IS NOT NULL)
       OR (persons.phone IS NULL AND excluded.phone IS NOT NULL)
       OR (persons.address IS NULL AND excluded.address IS NOT NULL)
       OR (persons.national_id IS NULL AND excluded.national_id IS NOT NULL)
       OR (persons.birth_date IS NULL AND excluded.birth_date IS NOT NULL)
       OR (persons.country IS NULL AND excluded.country IS NOT NULL)
       OR (persons.city IS NULL AND excluded.city IS NOT NULL)
       OR (persons.enriched < excluded.enriched)`

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func upsertPersonTx(ctx context.Context, tx *sql.Tx, p Person) (WriteResult, error) {
	if p.ID == "" {
		return WriteUnchanged, errors.New("person id is empty")
	}
	found, err := exists(ctx, tx, `SELECT 1 FROM persons WHERE id = ?`, p.ID)
	if err != nil {
		return WriteUnchanged, fmt.Errorf("probe person: %w", err)
	}
	now := timestamp(time.Time{})
	res, err := tx.ExecContext(ctx, upsertPersonSQL,
		p.ID,
		p.FullName,
		p.NormalizedName,
		nullableString(p.Email),
		nullableString(p.Phone),
		nullableString(p.Address),
		nullableString(p.NationalID),
		nullableDate(p.BirthDate),
		nullableString(p.Country),
		nullableString(p.City),
		string(p.Source),
		nullableString(p.SourcePath),
		boolToInt(p.Enriched),
		nullableString(p.EnrichmentSource),
		now,
		now,
	)
	if err != nil {
		return WriteUnchanged, fmt.Errorf("upsert person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return WriteUnchanged, fmt.Errorf("rows affected: %w", err)
	}
	switch {
	case !found:
		return WriteInserted, nil
	case affected > 0:
		return WriteUpdated, nil
	default:
		return WriteUnchanged, nil
	}
}

func upsertStudentTx(ctx context.Context, tx *sql.Tx, st Student) (WriteResult, error) {
	found, err := exists(ctx, tx, `SELECT 1 FROM students WHERE id = ?`, st.ID)
	if err != nil {
		return WriteUnchanged, fmt.Errorf("probe student: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO students (id, person_id, program, status, source_dir, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET program = excluded.program
         WHERE students.program IS NULL AND excluded.program IS NOT NULL`,
		st.ID,
		st.PersonID,
		nullableString(st.Program),
		st.Status,
		nullableString(st.SourceDir),
		timestamp(st.CreatedAt),
	)
	if err != nil {
		return WriteUnchanged, fmt.Errorf("upsert student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return WriteUnchanged, fmt.Errorf("rows affected: %w", err)
	}
	switch {
	case !found:
		return WriteInserted, nil
	case affected > 0:
		return WriteUpdated, nil
	default:
		return WriteUnchanged, nil
	}
}

// UpsertPerson writes p. Writing the same person twice is a no-op; a later
// write only fills columns that are still null.
func (s *Store) UpsertPerson(ctx context.Context, p Person) (WriteResult, error) {
	var result WriteResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		result, err = upsertPersonTx(ctx, tx, p)
		return err
	})
	return result, err
}

// StageStudent writes a person and its student role in one transaction,
// person first.
func (s *Store) StageStudent(ctx context.Context, p Person, st Student) (WriteResult, WriteResult, error) {
	var personRes, studentRes WriteResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if personRes, err = upsertPersonTx(ctx, tx, p); err != nil {
			return err
		}
		st.PersonID = p.ID
		studentRes, err = upsertStudentTx(ctx, tx, st)
		return err
	})
	return personRes, studentRes, err
}

// StageLead writes a person and one lead role in one transaction. A failure
// rolls back both writes.
func (s *Store) StageLead(ctx context.Context, p Person, l Lead) (WriteResult, WriteResult, error) {
	var personRes, leadRes WriteResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if personRes, err = upsertPersonTx(ctx, tx, p); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO leads (id, person_id, program, status, source_file, source_sheet, row_index, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT DO NOTHING`,
			l.ID,
			p.ID,
			l.Program,
			l.Status,
			l.SourceFile,
			nullableString(l.SourceSheet),
			l.RowIndex,
			timestamp(l.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			leadRes = WriteInserted
		}
		return nil
	})
	return personRes, leadRes, err
}

// UpsertDocument writes d unless a document with the same checksum is
// already staged. It reports whether a row was inserted.
func (s *Store) UpsertDocument(ctx context.Context, d Document) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO documents (
            id, student_id, original_name, file_name, checksum, size_bytes,
            mime_type, doc_type, source_path, staged_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT DO NOTHING`,
		d.ID,
		d.StudentID,
		d.OriginalName,
		d.FileName,
		d.Checksum,
		d.Size,
		nullableString(d.MIME),
		d.DocType,
		d.SourcePath,
		nullableString(d.StagedPath),
		timestamp(d.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// HasDocument reports whether a document with checksum is staged.
func (s *Store) HasDocument(ctx context.Context, checksum string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents WHERE checksum = ?`, checksum).Scan(&count); err != nil {
		return false, fmt.Errorf("probe document: %w", err)
	}
	return count > 0, nil
}

// RecordFailure appends a failure record in its own transaction.
func (s *Store) RecordFailure(ctx context.Context, f Failure) error {
	if f.Payload == "" {
		f.Payload = "{}"
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO lead_failures (
            run_id, record_kind, payload, error_type, error_message,
            source_file, source_sheet, row_index, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID,
		f.RecordKind,
		f.Payload,
		string(f.ErrorType),
		nullableString(f.ErrorMessage),
		nullableString(f.SourceFile),
		nullableString(f.SourceSheet),
		f.RowIndex,
		timestamp(f.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert failure record: %w", err)
	}
	return nil
}

// RecordRun appends a finished run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	statsJSON, err := json.Marshal(r.Stats)
	if err != nil {
		return fmt.Errorf("marshal run stats: %w", err)
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO ingestion_runs (
            id, kind, source_dir, status, started_at, finished_at,
            duration_ms, stats_json, notes
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		string(r.Kind),
		nullableString(r.SourceDir),
		string(r.Status),
		timestamp(r.StartedAt),
		timestamp(r.FinishedAt),
		r.Duration().Milliseconds(),
		string(statsJSON),
		nullableString(r.Notes),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// InsertReference stores one reference row. Rows already stored for the same
// file, sheet and row index are left alone.
func (s *Store) InsertReference(ctx context.Context, row ReferenceRow) (bool, error) {
	payload, err := json.Marshal(row.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal reference row: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO reference_data (ref_type, source_file, source_sheet, row_index, payload, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT DO NOTHING`,
		row.Type,
		row.SourceFile,
		row.SourceSheet,
		row.RowIndex,
		string(payload),
		timestamp(time.Time{}),
	)
	if err != nil {
		return false, fmt.Errorf("insert reference row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
