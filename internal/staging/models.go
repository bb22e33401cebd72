package staging

import (
	"time"

	"enrollsync/internal/failure"
	"enrollsync/internal/identity"
)

// Source records which input shape created a person.
type Source string

const (
	SourceDirectory Source = "DIRECTORY"
	SourceTabular   Source = "TABULAR"
)

// Person is a staged identity.
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
	Source           Source
	SourcePath       string
	Enriched         bool
	EnrichmentSource string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PersonFromCandidate copies the identity fields of c into a Person.
func PersonFromCandidate(id string, c identity.Candidate, source Source, sourcePath string) Person {
	return Person{
		ID:             id,
		FullName:       c.FullName,
		NormalizedName: c.NormalizedName,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		NationalID:     c.NationalID,
		BirthDate:      c.BirthDate,
		Country:        c.Country,
		City:           c.City,
		Source:         source,
		SourcePath:     sourcePath,
	}
}

// Candidate converts the person back into a match candidate for the
// migration cascade.
func (p Person) Candidate() identity.Candidate {
	return identity.Candidate{
		FullName:       p.FullName,
		NormalizedName: p.NormalizedName,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		NationalID:     p.NationalID,
		BirthDate:      p.BirthDate,
		Country:        p.Country,
		City:           p.City,
	}
}

// Student is a staged student role.
type Student struct {
	ID        string
	PersonID  string
	Program   string
	Status    string
	SourceDir string
	CreatedAt time.Time
}

// Lead is a staged lead role.
type Lead struct {
	ID          string
	PersonID    string
	Program     string
	Status      string
	SourceFile  string
	SourceSheet string
	RowIndex    int
	CreatedAt   time.Time
}

// Document is a staged document file.
type Document struct {
	ID           string
	StudentID    string
	OriginalName string
	FileName     string
	Checksum     string
	Size         int64
	MIME         string
	DocType      string
	SourcePath   string
	StagedPath   string
	CreatedAt    time.Time
}

// StudentRecord is a student joined with its person, as read for migration.
type StudentRecord struct {
	Student Student
	Person  Person
}

// LeadRecord is a lead joined with its person.
type LeadRecord struct {
	Lead   Lead
	Person Person
}

// DocumentRecord is a document joined with the person owning its student.
type DocumentRecord struct {
	Document Document
	Owner    Person
}

// RunKind separates ingestion runs from migration runs.
type RunKind string

const (
	RunIngestion RunKind = "ingestion"
	RunMigration RunKind = "migration"
)

// RunStatus is the final state of a run.
type RunStatus string

const (
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunDryRun    RunStatus = "DRY_RUN"
)

// Run is one execution's metadata. Runs are appended once, when the run
// finishes.
type Run struct {
	ID         string
	Kind       RunKind
	SourceDir  string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      map[string]int
	Notes      string
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failure is a rejected record kept for review. Failures are written once and
// never updated.
type Failure struct {
	ID           int64
	RunID        string
	RecordKind   string
	Payload      string
	ErrorType    failure.Category
	ErrorMessage string
	SourceFile   string
	SourceSheet  string
	RowIndex     int
	CreatedAt    time.Time
}

// ReferenceRow is one row of a non-person table.
type ReferenceRow struct {
	Type        string
	SourceFile  string
	SourceSheet string
	RowIndex    int
	Payload     map[string]string
}
