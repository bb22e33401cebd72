package staging

import (
	"github.com/google/uuid"

	"enrollsync/internal/identity"
)

// idNamespace seeds the name-based UUIDs so the same input always yields the
// same staged ids across runs.
var idNamespace = uuid.MustParse("6f1c0b3e-8a52-4d8e-9b64-2f0c1e7d5a90")

// DirectoryPersonID returns the person id for a document directory, keyed by
// its normalized name so directories that collapse into one identity share
// one person.
func DirectoryPersonID(normalizedName string) string {
	return uuid.NewSHA1(idNamespace, []byte("dir:"+normalizedName)).String()
}

// TabularPersonID returns the person id for a tabular candidate, keyed by its
// highest-priority match key.
func TabularPersonID(key identity.MatchKey) string {
	return uuid.NewSHA1(idNamespace, []byte("row:"+key.String())).String()
}

// StudentID returns the student role id for a person.
func StudentID(personID string) string {
	return uuid.NewSHA1(idNamespace, []byte("student:"+personID)).String()
}

// LeadID returns the lead role id for a person, program and source file.
func LeadID(personID, program, sourceFile string) string {
	return uuid.NewSHA1(idNamespace, []byte("lead:"+personID+"|"+program+"|"+sourceFile)).String()
}

// DocumentID returns the document id for a content checksum.
func DocumentID(checksum string) string {
	return uuid.NewSHA1(idNamespace, []byte("doc:"+checksum)).String()
}

// NewRunID returns a random run id.
func NewRunID() string {
	return uuid.NewString()
}
