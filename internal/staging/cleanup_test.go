package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"enrollsync/internal/logging"
)

func mkStudentDir(t *testing.T, stagingDir, id string, files ...string) string {
	t.Helper()
	dir := StudentDir(stagingDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create student dir: %v", err)
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestRemoveDocumentsInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := RemoveDocuments(context.Background(), dir, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestRemoveDocumentsKeepsDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	mkStudentDir(t, tmpDir, "a", "PASSPORT_01.pdf")
	dbPath := filepath.Join(tmpDir, DatabaseName)
	if err := os.WriteFile(dbPath, []byte("db"), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}

	result := RemoveDocuments(context.Background(), tmpDir, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != DocumentsDir(tmpDir) {
		t.Fatalf("expected documents dir removed, got %v", result.Removed)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file to survive: %v", err)
	}
}

func TestCleanOrphanedEmptyDir(t *testing.T) {
	result := CleanOrphaned(context.Background(), t.TempDir(), nil, logging.NewNop())
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestCleanOrphanedRemovesUnknownStudents(t *testing.T) {
	tmpDir := t.TempDir()
	keep := mkStudentDir(t, tmpDir, "keep", "VISA_01.pdf")
	drop := mkStudentDir(t, tmpDir, "drop", "PHOTO_01.jpg")
	stray := filepath.Join(DocumentsDir(tmpDir), "README.txt")
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	active := map[string]struct{}{"keep": {}}
	result := CleanOrphaned(context.Background(), tmpDir, active, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != drop {
		t.Fatalf("expected only %s removed, got %v", drop, result.Removed)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("expected active dir to remain: %v", err)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("expected loose files to be ignored: %v", err)
	}
}

func TestListDirectoriesInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(dir)
		if err != nil {
			t.Fatalf("ListDirectories(%q) failed: %v", dir, err)
		}
		if len(dirs) != 0 {
			t.Fatalf("expected no dirs for %q, got %d", dir, len(dirs))
		}
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	mkStudentDir(t, tmpDir, "one", "A.pdf", "B.pdf")
	mkStudentDir(t, tmpDir, "two")

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories failed: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %d", len(dirs))
	}
	byName := map[string]DirInfo{}
	for _, d := range dirs {
		byName[d.Name] = d
	}
	if got := byName["one"]; got.Files != 2 || got.Size != 8 {
		t.Fatalf("unexpected info for one: %+v", got)
	}
	if got := byName["two"]; got.Files != 0 || got.Size != 0 {
		t.Fatalf("unexpected info for two: %+v", got)
	}
}

func TestStagedFileName(t *testing.T) {
	if got := StagedFileName("PASSPORT", 1, "Pasaporte Juan.PDF"); got != "PASSPORT_01.pdf" {
		t.Fatalf("StagedFileName = %q", got)
	}
	if got := StagedFileName("OTHER", 12, "notes"); got != "OTHER_12" {
		t.Fatalf("StagedFileName = %q", got)
	}
}
