package staging

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"enrollsync/internal/fileutil"
)

const (
	documentsDirName = "documents"
	// ManifestName is the per-student summary written beside the copied
	// documents.
	ManifestName = "STUDENT_INFO.json"
)

// DocumentsDir returns the root of the copied document tree.
func DocumentsDir(stagingDir string) string {
	return filepath.Join(stagingDir, documentsDirName)
}

// StudentDir returns the directory holding one student's copied documents.
func StudentDir(stagingDir, studentID string) string {
	return filepath.Join(DocumentsDir(stagingDir), studentID)
}

// StagedFileName names the seq-th document of a type, e.g. PASSPORT_01.pdf.
func StagedFileName(docType string, seq int, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s_%02d%s", docType, seq, ext)
}

// Manifest summarizes one staged student for reviewers.
type Manifest struct {
	StudentID   string             `json:"student_id"`
	PersonID    string             `json:"person_id"`
	FullName    string             `json:"full_name"`
	Normalized  string             `json:"normalized_name"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	NationalID  string             `json:"national_id,omitempty"`
	BirthDate   string             `json:"birth_date,omitempty"`
	Program     string             `json:"program,omitempty"`
	SourceDir   string             `json:"source_dir"`
	Enriched    bool               `json:"enriched"`
	EnrichedBy  string             `json:"enrichment_source,omitempty"`
	Documents   []ManifestDocument `json:"documents"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ManifestDocument is one copied file listed in a manifest.
type ManifestDocument struct {
	OriginalName string `json:"original_name"`
	StagedName   string `json:"staged_name"`
	DocType      string `json:"doc_type"`
	MIME         string `json:"mime_type"`
	Size         int64  `json:"size_bytes"`
	Checksum     string `json:"checksum"`
}

// NewManifest builds the manifest for a student and its person.
func NewManifest(p Person, st Student, docs []ManifestDocument) Manifest {
	birth := ""
	if !p.BirthDate.IsZero() {
		birth = p.BirthDate.Format(dateLayout)
	}
	if docs == nil {
		docs = []ManifestDocument{}
	}
	return Manifest{
		StudentID:   st.ID,
		PersonID:    p.ID,
		FullName:    p.FullName,
		Normalized:  p.NormalizedName,
		Email:       p.Email,
		Phone:       p.Phone,
		NationalID:  p.NationalID,
		BirthDate:   birth,
		Program:     st.Program,
		SourceDir:   st.SourceDir,
		Enriched:    p.Enriched,
		EnrichedBy:  p.EnrichmentSource,
		Documents:   docs,
		GeneratedAt: time.Now().UTC(),
	}
}

// WriteManifest writes m into the student's document directory.
func WriteManifest(stagingDir string, m Manifest) (string, error) {
	path := filepath.Join(StudentDir(stagingDir, m.StudentID), ManifestName)
	if err := fileutil.WriteJSONAtomic(path, m); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
