package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"enrollsync/internal/logging"
)

// CleanResult contains the outcome of a staging tree cleanup.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// RemoveDocuments deletes the whole copied document tree under stagingDir.
func RemoveDocuments(ctx context.Context, stagingDir string, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}
	dir := DocumentsDir(stagingDir)
	if _, err := os.Stat(dir); err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		}
		return result
	}
	removeDir(dir, "staged documents", logger, &result)
	return result
}

// CleanOrphaned removes student document directories whose id is not in
// activeStudents.
func CleanOrphaned(ctx context.Context, stagingDir string, activeStudents map[string]struct{}, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(DocumentsDir(stagingDir))
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: DocumentsDir(stagingDir), Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: ctx.Err()})
			return result
		}
		if !entry.IsDir() {
			continue
		}
		if _, active := activeStudents[entry.Name()]; active {
			continue
		}
		removeDir(filepath.Join(DocumentsDir(stagingDir), entry.Name()), "orphaned student documents", logger, &result)
	}

	return result
}

func removeDir(dirPath, what string, logger *slog.Logger, result *CleanResult) {
	if err := os.RemoveAll(dirPath); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
		if logger != nil {
			logger.Warn("failed to remove "+what,
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
		return
	}
	result.Removed = append(result.Removed, dirPath)
	if logger != nil {
		logger.Info("removed "+what,
			logging.String("path", dirPath),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
}

// ListDirectories returns the student document directories with their
// metadata.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(DocumentsDir(stagingDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(DocumentsDir(stagingDir), entry.Name())
		size, files, _ := dirSize(dirPath)

		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
			Files:   files,
		})
	}

	return dirs, nil
}

// DirInfo contains metadata about a student document directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	Files   int
}

// dirSize calculates the total size and file count of a directory recursively.
func dirSize(path string) (int64, int, error) {
	var (
		size  int64
		files int
	)
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Ignore errors, best effort
		}
		if !info.IsDir() {
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files, err
}
