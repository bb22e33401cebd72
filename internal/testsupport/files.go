package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// repeating pattern seeded by the file name, so distinct paths get distinct
// checksums. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	seed := []byte(filepath.Base(path))
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = seed[i%len(seed)]
	}
	writeBytes(t, path, buf)
}

// WriteText writes contents to path, creating parent directories.
func WriteText(t testing.TB, path, contents string) {
	t.Helper()
	writeBytes(t, path, []byte(contents))
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
