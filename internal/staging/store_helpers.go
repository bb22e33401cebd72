package staging

import (
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

// timestampLayout is fixed-width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const personColumns = "p.id, p.full_name, p.normalized_name, p.email, p.phone, p.address, p.national_id, p.birth_date, p.country, p.city, p.source, p.source_path, p.enriched, p.enrichment_source, p.created_at, p.updated_at"

func personDest(p *personRow) []any {
	return []any{
		&p.id, &p.fullName, &p.normalizedName, &p.email, &p.phone, &p.address,
		&p.nationalID, &p.birthDate, &p.country, &p.city, &p.source, &p.sourcePath,
		&p.enriched, &p.enrichmentSource, &p.createdAt, &p.updatedAt,
	}
}

type personRow struct {
	id               string
	fullName         string
	normalizedName   string
	email            sql.NullString
	phone            sql.NullString
	address          sql.NullString
	nationalID       sql.NullString
	birthDate        sql.NullString
	country          sql.NullString
	city             sql.NullString
	source           string
	sourcePath       sql.NullString
	enriched         sql.NullInt64
	enrichmentSource sql.NullString
	createdAt        sql.NullString
	updatedAt        sql.NullString
}

func (r personRow) person() Person {
	return Person{
		ID:               r.id,
		FullName:         r.fullName,
		NormalizedName:   r.normalizedName,
		Email:            r.email.String,
		Phone:            r.phone.String,
		Address:          r.address.String,
		NationalID:       r.nationalID.String,
		BirthDate:        parseDate(r.birthDate),
		Country:          r.country.String,
		City:             r.city.String,
		Source:           Source(r.source),
		SourcePath:       r.sourcePath.String,
		Enriched:         r.enriched.Valid && r.enriched.Int64 != 0,
		EnrichmentSource: r.enrichmentSource.String,
		CreatedAt:        parseTimeString(r.createdAt.String),
		UpdatedAt:        parseTimeString(r.updatedAt.String),
	}
}

func scanPerson(scanner interface{ Scan(dest ...any) error }) (Person, error) {
	var row personRow
	if err := scanner.Scan(personDest(&row)...); err != nil {
		return Person{}, err
	}
	return row.person(), nil
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

func timestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
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
