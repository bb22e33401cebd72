package production

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"enrollsync/internal/failure"
	"enrollsync/internal/identity"
)

// Tx is one production transaction. Every error it returns has been passed
// through failure.FromDriver.
type Tx struct {
	tx     *sql.Tx
	driver string
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return failure.FromDriver(err)
	}
	return nil
}

// Rollback aborts the transaction. Rolling back a finished transaction is a
// no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return failure.FromDriver(err)
	}
	return nil
}

// Savepoint marks a point the transaction can later return to with
// RollbackTo. Names must be plain identifiers.
func (t *Tx) Savepoint(ctx context.Context, name string) error {
	_, err := t.exec(ctx, `SAVEPOINT `+name)
	return err
}

// RollbackTo discards everything written since the named savepoint. The
// savepoint stays open until Release.
func (t *Tx) RollbackTo(ctx context.Context, name string) error {
	_, err := t.exec(ctx, `ROLLBACK TO SAVEPOINT `+name)
	return err
}

// Release closes the named savepoint and keeps its writes in the enclosing
// transaction.
func (t *Tx) Release(ctx context.Context, name string) error {
	_, err := t.exec(ctx, `RELEASE SAVEPOINT `+name)
	return err
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, rebind(t.driver, query), args...)
	if err != nil {
		return nil, failure.FromDriver(err)
	}
	return res, nil
}

func (t *Tx) findPerson(ctx context.Context, where string, args ...any) (*Person, error) {
	row := t.tx.QueryRowContext(ctx, rebind(t.driver, `SELECT `+personColumns+` FROM persons WHERE `+where+` ORDER BY created_at, id LIMIT 1`), args...)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, failure.FromDriver(err)
	}
	return &p, nil
}

// PersonByNationalID returns the person holding nationalID, or nil.
func (t *Tx) PersonByNationalID(ctx context.Context, nationalID string) (*Person, error) {
	return t.findPerson(ctx, `national_id = ?`, nationalID)
}

// PersonByEmail returns the person holding email, or nil.
func (t *Tx) PersonByEmail(ctx context.Context, email string) (*Person, error) {
	return t.findPerson(ctx, `email = ?`, email)
}

// PersonByNameAndBirthDate returns the first person with the normalized name
// and birth date, or nil.
func (t *Tx) PersonByNameAndBirthDate(ctx context.Context, normalizedName string, birthDate time.Time) (*Person, error) {
	return t.findPerson(ctx, `normalized_name = ? AND birth_date = ?`, normalizedName, nullableDate(birthDate))
}

// PersonByNameAndPhone returns the first person with the normalized name and
// phone, or nil.
func (t *Tx) PersonByNameAndPhone(ctx context.Context, normalizedName, phone string) (*Person, error) {
	return t.findPerson(ctx, `normalized_name = ? AND phone = ?`, normalizedName, phone)
}

// PersonByName returns the first person whose normalized name equals
// normalizedName, or nil.
func (t *Tx) PersonByName(ctx context.Context, normalizedName string) (*Person, error) {
	return t.findPerson(ctx, `normalized_name = ?`, normalizedName)
}

// PersonByNamePrefix returns the oldest person whose normalized name starts
// with prefix, or nil.
func (t *Tx) PersonByNamePrefix(ctx context.Context, prefix string) (*Person, error) {
	if prefix == "" {
		return nil, nil
	}
	return t.findPerson(ctx, `normalized_name LIKE ?`, prefix+"%")
}

// CreatePerson inserts p, assigning an id when p.ID is empty, and returns the
// stored row.
func (t *Tx) CreatePerson(ctx context.Context, p Person) (Person, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	ts := now()
	if _, err := t.exec(ctx,
		`INSERT INTO persons (
            id, full_name, normalized_name, email, phone, address, national_id,
            birth_date, country, city, data_source, original_name,
            placeholder_email, csv_enriched, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		nullableString(p.FullName),
		p.NormalizedName,
		nullableString(p.Email),
		nullableString(p.Phone),
		nullableString(p.Address),
		nullableString(p.NationalID),
		nullableDate(p.BirthDate),
		nullableString(p.Country),
		nullableString(p.City),
		nullableString(p.DataSource),
		nullableString(p.OriginalName),
		boolToInt(p.PlaceholderEmail),
		boolToInt(p.CSVEnriched),
		ts,
		ts,
	); err != nil {
		return Person{}, fmt.Errorf("insert person: %w", err)
	}
	p.CreatedAt = parseTimeString(ts)
	p.UpdatedAt = p.CreatedAt
	return p, nil
}

// MergePerson fills the columns of target that are still null from src and
// returns the names of the columns it filled. A placeholder email counts as
// null and is replaced by a real one. Non-null values are never overwritten.
func (t *Tx) MergePerson(ctx context.Context, target Person, src Person) ([]string, error) {
	var filled []string
	note := func(column, have, offer string) {
		if have == "" && offer != "" {
			filled = append(filled, column)
		}
	}
	note("phone", target.Phone, src.Phone)
	note("address", target.Address, src.Address)
	note("national_id", target.NationalID, src.NationalID)
	if target.BirthDate.IsZero() && !src.BirthDate.IsZero() {
		filled = append(filled, "birth_date")
	}
	note("country", target.Country, src.Country)
	note("city", target.City, src.City)
	note("original_name", target.OriginalName, src.OriginalName)

	replaceEmail := target.PlaceholderEmail && src.Email != "" && !identity.IsPlaceholderEmail(src.Email)
	if replaceEmail {
		filled = append(filled, "email")
	}
	enriched := target.CSVEnriched || src.CSVEnriched
	if enriched != target.CSVEnriched {
		filled = append(filled, "csv_enriched")
	}
	if len(filled) == 0 {
		return nil, nil
	}

	if _, err := t.exec(ctx,
		`UPDATE persons SET
            phone = COALESCE(phone, ?),
            address = COALESCE(address, ?),
            national_id = COALESCE(national_id, ?),
            birth_date = COALESCE(birth_date, ?),
            country = COALESCE(country, ?),
            city = COALESCE(city, ?),
            original_name = COALESCE(original_name, ?),
            csv_enriched = ?,
            updated_at = ?
        WHERE id = ?`,
		nullableString(src.Phone),
		nullableString(src.Address),
		nullableString(src.NationalID),
		nullableDate(src.BirthDate),
		nullableString(src.Country),
		nullableString(src.City),
		nullableString(src.OriginalName),
		boolToInt(enriched),
		now(),
		target.ID,
	); err != nil {
		return nil, fmt.Errorf("merge person: %w", err)
	}
	if replaceEmail {
		if _, err := t.exec(ctx,
			`UPDATE persons SET email = ?, placeholder_email = 0 WHERE id = ? AND placeholder_email = 1`,
			src.Email, target.ID,
		); err != nil {
			return nil, fmt.Errorf("replace placeholder email: %w", err)
		}
	}
	return filled, nil
}

// StudentByPerson returns the student role of personID, or nil.
func (t *Tx) StudentByPerson(ctx context.Context, personID string) (*Student, error) {
	var (
		st              Student
		program, source sql.NullString
		enriched        sql.NullInt64
	)
	err := t.tx.QueryRowContext(ctx,
		rebind(t.driver, `SELECT id, person_id, program, status, data_source, csv_enriched FROM students WHERE person_id = ?`),
		personID,
	).Scan(&st.ID, &st.PersonID, &program, &st.Status, &source, &enriched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, failure.FromDriver(err)
	}
	st.Program = program.String
	st.DataSource = source.String
	st.CSVEnriched = enriched.Int64 != 0
	return &st, nil
}

// CreateStudent inserts a student role and returns it with its id.
func (t *Tx) CreateStudent(ctx context.Context, st Student) (Student, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.Status == "" {
		st.Status = StudentActive
	}
	ts := now()
	if _, err := t.exec(ctx,
		`INSERT INTO students (id, person_id, program, status, data_source, csv_enriched, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID,
		st.PersonID,
		nullableString(st.Program),
		st.Status,
		nullableString(st.DataSource),
		boolToInt(st.CSVEnriched),
		ts,
		ts,
	); err != nil {
		return Student{}, fmt.Errorf("insert student: %w", err)
	}
	return st, nil
}

// UpdateStudent fills a null program and data source on an existing student
// and marks it enriched.
func (t *Tx) UpdateStudent(ctx context.Context, id, program, dataSource string) error {
	if _, err := t.exec(ctx,
		`UPDATE students SET
            program = COALESCE(program, ?),
            data_source = COALESCE(data_source, ?),
            csv_enriched = 1,
            updated_at = ?
        WHERE id = ?`,
		nullableString(program),
		nullableString(dataSource),
		now(),
		id,
	); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// FindLead returns the lead of personID for program and source file. A stored
// lead with a null program or source file matches any value.
func (t *Tx) FindLead(ctx context.Context, personID, program, sourceFile string) (*Lead, error) {
	var (
		l                         Lead
		prog, status, file, sheet sql.NullString
	)
	err := t.tx.QueryRowContext(ctx,
		rebind(t.driver, `SELECT id, person_id, program_type, lead_status, source_file, source_sheet
         FROM leads
         WHERE person_id = ?
           AND (program_type = ? OR program_type IS NULL)
           AND (source_file = ? OR source_file IS NULL)
         ORDER BY created_at, id LIMIT 1`),
		personID, nullableString(program), nullableString(sourceFile),
	).Scan(&l.ID, &l.PersonID, &prog, &status, &file, &sheet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, failure.FromDriver(err)
	}
	l.Program = prog.String
	l.Status = status.String
	l.SourceFile = file.String
	l.SourceSheet = sheet.String
	return &l, nil
}

// CreateLead inserts a lead role and returns it with its id.
func (t *Tx) CreateLead(ctx context.Context, l Lead) (Lead, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	ts := now()
	if _, err := t.exec(ctx,
		`INSERT INTO leads (id, person_id, program_type, lead_status, source_file, source_sheet, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.PersonID,
		nullableString(l.Program),
		nullableString(l.Status),
		nullableString(l.SourceFile),
		nullableString(l.SourceSheet),
		ts,
		ts,
	); err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return l, nil
}

// UpdateLead overwrites the lead's columns with the non-null values of l.
func (t *Tx) UpdateLead(ctx context.Context, id string, l Lead) error {
	if _, err := t.exec(ctx,
		`UPDATE leads SET
            program_type = COALESCE(?, program_type),
            lead_status = COALESCE(?, lead_status),
            source_file = COALESCE(?, source_file),
            source_sheet = COALESCE(?, source_sheet),
            updated_at = ?
        WHERE id = ?`,
		nullableString(l.Program),
		nullableString(l.Status),
		nullableString(l.SourceFile),
		nullableString(l.SourceSheet),
		now(),
		id,
	); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

// HasDocument reports whether a document with checksum exists.
func (t *Tx) HasDocument(ctx context.Context, checksum string) (bool, error) {
	var count int
	if err := t.tx.QueryRowContext(ctx, rebind(t.driver, `SELECT COUNT(1) FROM documents WHERE checksum = ?`), checksum).Scan(&count); err != nil {
		return false, failure.FromDriver(err)
	}
	return count > 0, nil
}

// CreateDocument inserts a document row and returns it with its id.
func (t *Tx) CreateDocument(ctx context.Context, d Document) (Document, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = DocumentPending
	}
	ts := now()
	if _, err := t.exec(ctx,
		`INSERT INTO documents (
            id, student_id, file_name, original_name, checksum, size_bytes,
            mime_type, doc_type, storage_key, bucket, status, source_path,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.StudentID,
		d.FileName,
		nullableString(d.OriginalName),
		d.Checksum,
		d.Size,
		nullableString(d.MIME),
		d.DocType,
		d.StorageKey,
		nullableString(d.Bucket),
		d.Status,
		nullableString(d.SourcePath),
		ts,
		ts,
	); err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	d.CreatedAt = parseTimeString(ts)
	return d, nil
}
