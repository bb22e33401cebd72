package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"enrollsync/internal/failure"
	"enrollsync/internal/identity"
	"enrollsync/internal/logging"
	"enrollsync/internal/program"
	"enrollsync/internal/staging"
	"enrollsync/internal/tabular"
)

// Identity is one person discovered from the document tree. Directories that
// normalize to the same name share an Identity.
type Identity struct {
	PersonID  string
	Candidate identity.Candidate
	// Directories holds the contributing directories relative to the source
	// root, in discovery order.
	Directories []string
	// Documents holds absolute paths of the files found in Directories.
	Documents       []string
	EnrichmentCount int
	SourceFiles     []string
}

// Enriched reports whether any tabular row filled this identity.
func (id *Identity) Enriched() bool { return id.EnrichmentCount > 0 }

func (id *Identity) addSourceFile(name string) {
	for _, existing := range id.SourceFiles {
		if existing == name {
			return
		}
	}
	id.SourceFiles = append(id.SourceFiles, name)
}

// documentDir is a directory that directly holds at least one document.
type documentDir struct {
	rel   string
	files []string
}

// scanDocumentDirs walks root and returns every directory below it that
// directly contains a regular, non-hidden, non-tabular file.
func scanDocumentDirs(ctx context.Context, root string) ([]documentDir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, failure.Wrap(failure.ErrIO, "ingest", "open source", root, err)
	}
	if !info.IsDir() {
		return nil, failure.Wrap(failure.ErrValidation, "ingest", "open source", root+" is not a directory", nil)
	}

	byDir := make(map[string][]string)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || hidden(d.Name()) || tabular.IsTabular(path) {
			return nil
		}
		dir := filepath.Dir(path)
		if dir == root {
			return nil
		}
		byDir[dir] = append(byDir[dir], path)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, failure.Wrap(failure.ErrIO, "ingest", "walk source", root, err)
	}

	dirs := make([]documentDir, 0, len(byDir))
	for dir, files := range byDir {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return nil, fmt.Errorf("relative path for %s: %w", dir, err)
		}
		sort.Strings(files)
		dirs = append(dirs, documentDir{rel: filepath.ToSlash(rel), files: files})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].rel < dirs[j].rel })
	return dirs, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}

// buildIdentities runs the identity pass over dirs.
func (l *Loader) buildIdentities(ctx context.Context, dirs []documentDir, stats map[string]int) ([]*Identity, map[string]*Identity) {
	logger := logging.WithContext(ctx, l.logger)
	byName := make(map[string]*Identity, len(dirs))
	var ordered []*Identity

	for _, dir := range dirs {
		stats[StatDirectoriesScanned]++
		name := filepath.Base(filepath.FromSlash(dir.rel))
		c := identity.NewCandidate(identity.CleanText(name), "", "", "")
		personID := staging.DirectoryPersonID(c.NormalizedName)
		if c.NormalizedName == "" || l.filter.Rejects(personID, name) {
			stats[StatDirectoriesRejected]++
			stats[StatDocumentsUnmatched] += len(dir.files)
			logger.Info("directory skipped as non-person",
				logging.String(logging.FieldEventType, "directory_rejected"),
				logging.String("source_dir", dir.rel),
				logging.Int("files", len(dir.files)),
			)
			continue
		}

		if existing, ok := byName[c.NormalizedName]; ok {
			stats[StatDirectoriesMerged]++
			existing.Directories = append(existing.Directories, dir.rel)
			existing.Documents = append(existing.Documents, dir.files...)
			if existing.Candidate.Program == program.Unknown {
				existing.Candidate.Program, _ = program.FromPath(dir.rel)
			}
			logger.Debug("directory collapsed into existing identity",
				logging.String("source_dir", dir.rel),
				logging.String("person_id", existing.PersonID),
			)
			continue
		}

		c.Program, _ = program.FromPath(dir.rel)
		c.Role = identity.RoleStudent
		c.Status = studentStatus
		id := &Identity{
			PersonID:    personID,
			Candidate:   c,
			Directories: []string{dir.rel},
			Documents:   append([]string(nil), dir.files...),
		}
		byName[c.NormalizedName] = id
		ordered = append(ordered, id)
	}
	stats[StatIdentities] = len(ordered)
	return ordered, byName
}

// enrichmentFields copies the fields a tabular row may contribute to a
// directory identity. Names, roles and statuses always come from the tree.
func enrichmentFields(c identity.Candidate) identity.Candidate {
	return identity.Candidate{
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		NationalID: c.NationalID,
		BirthDate:  c.BirthDate,
		Country:    c.Country,
		City:       c.City,
		Program:    c.Program,
	}
}

// enrich applies one tabular candidate to the identity with the same
// normalized name and reports whether there was one.
func enrich(byName map[string]*Identity, c identity.Candidate) bool {
	id, ok := byName[c.NormalizedName]
	if !ok {
		return false
	}
	id.Candidate.Fill(enrichmentFields(c))
	id.EnrichmentCount++
	if c.SourceFile != "" {
		id.addSourceFile(c.SourceFile)
	}
	return true
}
