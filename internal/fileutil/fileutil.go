package fileutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFileVerified streams src to dst with SHA256 + size integrity verification
// and returns the hex checksum of the copied bytes. Parent directories of dst
// are created as needed. Removes dst on mismatch.
func CopyFileVerified(src, dst string) (string, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create destination dir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	srcSum := srcHasher.Sum(nil)
	if !bytes.Equal(srcSum, dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	return hex.EncodeToString(srcSum), nil
}

// WriteJSONAtomic encodes v as indented JSON into a temp file beside path and
// renames it into place.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
