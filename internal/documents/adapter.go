package documents

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"enrollsync/internal/failure"
)

// FileMetadata describes one document file.
type FileMetadata struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size_bytes"`
	MIME       string    `json:"mime_type"`
	Checksum   string    `json:"checksum"`
	DocType    Type      `json:"inferred_type"`
	ModifiedAt time.Time `json:"modified_at"`
	OwnerHint  string    `json:"owner_hint,omitempty"`
}

// StorageAdapter is the document source the pipeline reads from.
type StorageAdapter interface {
	// Validate returns nil when path names a readable regular file.
	Validate(path string) error
	// Metadata describes the file at path. ownerHint is carried through
	// unchanged for logging and manifests.
	Metadata(path, ownerHint string) (FileMetadata, error)
}

// LocalAdapter reads documents from the local filesystem.
type LocalAdapter struct{}

// NewLocalAdapter returns a LocalAdapter.
func NewLocalAdapter() *LocalAdapter { return &LocalAdapter{} }

// Validate implements StorageAdapter.
func (LocalAdapter) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return failure.Wrap(failure.ErrIO, "documents", "validate", path, err)
	}
	if !info.Mode().IsRegular() {
		return failure.Wrap(failure.ErrIO, "documents", "validate", path+" is not a regular file", nil)
	}
	return nil
}

// Metadata implements StorageAdapter. The checksum is computed while
// streaming the file.
func (a LocalAdapter) Metadata(path, ownerHint string) (FileMetadata, error) {
	if err := a.Validate(path); err != nil {
		return FileMetadata{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileMetadata{}, failure.Wrap(failure.ErrIO, "documents", "stat", path, err)
	}
	sum, err := Checksum(path)
	if err != nil {
		return FileMetadata{}, err
	}
	name := filepath.Base(path)
	return FileMetadata{
		Path:       path,
		Name:       name,
		Size:       info.Size(),
		MIME:       MIMEType(name),
		Checksum:   sum,
		DocType:    Classify(name),
		ModifiedAt: info.ModTime().UTC(),
		OwnerHint:  ownerHint,
	}, nil
}

// Checksum returns the hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", failure.Wrap(failure.ErrIO, "documents", "checksum", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", failure.Wrap(failure.ErrIO, "documents", "checksum", fmt.Sprintf("read %s", path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
