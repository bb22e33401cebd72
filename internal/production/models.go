package production

import (
	"database/sql"
	"time"
)

// Document lifecycle states.
const (
	DocumentPending  = "PENDING"
	DocumentUploaded = "UPLOADED"
)

// StudentActive is the status of a newly promoted student.
const StudentActive = "ACTIVE"

// Person is a production identity.
type Person struct {
	ID               string
	FullName         string
	NormalizedName   string
	Email            string
	Phone            string
	Address          string
	NationalID       string
	BirthDate        time.Time
	Country          string
	City             string
	DataSource       string
	OriginalName     string
	PlaceholderEmail bool
	CSVEnriched      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Student is a production student role.
type Student struct {
	ID          string
	PersonID    string
	Program     string
	Status      string
	DataSource  string
	CSVEnriched bool
}

// Lead is a production lead role.
type Lead struct {
	ID          string
	PersonID    string
	Program     string
	Status      string
	SourceFile  string
	SourceSheet string
}

// Document is a production document row. StorageKey locates the object in
// the document store; Status tracks its upload lifecycle.
type Document struct {
	ID           string
	StudentID    string
	FileName     string
	OriginalName string
	Checksum     string
	Size         int64
	MIME         string
	DocType      string
	StorageKey   string
	Bucket       string
	Status       string
	SourcePath   string
	CreatedAt    time.Time
}

const dateLayout = "2006-01-02"

// timestampLayout is fixed-width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const personColumns = "id, full_name, normalized_name, email, phone, address, national_id, birth_date, country, city, data_source, original_name, placeholder_email, csv_enriched, created_at, updated_at"

func scanPerson(scanner interface{ Scan(dest ...any) error }) (Person, error) {
	var (
		p                                   Person
		phone, address, nationalID, birth   sql.NullString
		country, city, source, originalName sql.NullString
		placeholder, enriched               sql.NullInt64
		created, updated                    sql.NullString
	)
	if err := scanner.Scan(
		&p.ID, &p.FullName, &p.NormalizedName, &p.Email, &phone, &address, &nationalID,
		&birth, &country, &city, &source, &originalName, &placeholder, &enriched,
		&created, &updated,
	); err != nil {
		return Person{}, err
	}
	p.Phone = phone.String
	p.Address = address.String
	p.NationalID = nationalID.String
	p.BirthDate = parseDate(birth)
	p.Country = country.String
	p.City = city.String
	p.DataSource = source.String
	p.OriginalName = originalName.String
	p.PlaceholderEmail = placeholder.Int64 != 0
	p.CSVEnriched = enriched.Int64 != 0
	p.CreatedAt = parseTimeString(created.String)
	p.UpdatedAt = parseTimeString(updated.String)
	return p, nil
}

const documentColumns = "id, student_id, file_name, original_name, checksum, size_bytes, mime_type, doc_type, storage_key, bucket, status, source_path, created_at"

func scanDocument(scanner interface{ Scan(dest ...any) error }) (Document, error) {
	var (
		d                                    Document
		original, mime, bucket, src, created sql.NullString
	)
	if err := scanner.Scan(
		&d.ID, &d.StudentID, &d.FileName, &original, &d.Checksum, &d.Size, &mime,
		&d.DocType, &d.StorageKey, &bucket, &d.Status, &src, &created,
	); err != nil {
		return Document{}, err
	}
	d.OriginalName = original.String
	d.MIME = mime.String
	d.Bucket = bucket.String
	d.SourcePath = src.String
	d.CreatedAt = parseTimeString(created.String)
	return d, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableDate(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.Format(dateLayout)
}

func parseDate(value sql.NullString) time.Time {
	if !value.Valid || value.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

func parseTimeString(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
