// Package sanitize applies the non-person filter retrospectively to persons
// that are already staged. A pass only reports by default; with Execute set
// it deletes each flagged person with its roles, documents and staged copies.
package sanitize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"enrollsync/internal/logging"
	"enrollsync/internal/nonperson"
	"enrollsync/internal/staging"
)

// Options controls one sanitize pass.
type Options struct {
	Execute    bool
	StagingDir string
}

// Flagged is a staged person the filter rejects.
type Flagged struct {
	PersonID string         `json:"person_id"`
	FullName string         `json:"full_name"`
	Rule     nonperson.Rule `json:"rule"`
	Source   string         `json:"source_path,omitempty"`
}

// Report is the outcome of a pass.
type Report struct {
	Scanned   int       `json:"scanned"`
	Flagged   []Flagged `json:"flagged"`
	Executed  bool      `json:"executed"`
	Persons   int64     `json:"persons_deleted"`
	Students  int64     `json:"students_deleted"`
	Leads     int64     `json:"leads_deleted"`
	Documents int64     `json:"documents_deleted"`
	Files     int       `json:"files_removed"`
}

// Stats flattens the report into counters.
func (r Report) Stats() map[string]int {
	return map[string]int{
		"persons_scanned":   r.Scanned,
		"persons_flagged":   len(r.Flagged),
		"persons_deleted":   int(r.Persons),
		"students_deleted":  int(r.Students),
		"leads_deleted":     int(r.Leads),
		"documents_deleted": int(r.Documents),
		"files_removed":     r.Files,
	}
}

// Run scans every staged person with filter, the same predicate the loader
// applies before staging.
func Run(ctx context.Context, store *staging.Store, filter *nonperson.Filter, opts Options, logger *slog.Logger) (Report, error) {
	logger = logging.NewComponentLogger(logger, "sanitize").With(logging.DryRun(!opts.Execute))
	persons, err := store.Persons(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read staged persons: %w", err)
	}

	report := Report{Scanned: len(persons), Flagged: []Flagged{}, Executed: opts.Execute}
	for _, p := range persons {
		if filter.Whitelisted(p.ID) {
			continue
		}
		rule := filter.Check(p.FullName)
		if rule == nonperson.RuleNone {
			continue
		}
		report.Flagged = append(report.Flagged, Flagged{PersonID: p.ID, FullName: p.FullName, Rule: rule, Source: p.SourcePath})
	}

	if !opts.Execute {
		for _, f := range report.Flagged {
			logger.Info("dry run: would delete non-person",
				logging.String("person_id", f.PersonID),
				logging.String("full_name", f.FullName),
				logging.String("rule", string(f.Rule)),
			)
		}
		return report, nil
	}

	var errs []error
	for _, f := range report.Flagged {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		del, err := store.DeletePerson(ctx, f.PersonID)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", f.PersonID, err))
			continue
		}
		report.add(del)
		report.Files += RemoveStagedFiles(opts.StagingDir, del, logger)
		logger.Info("non-person deleted",
			logging.String("person_id", f.PersonID),
			logging.String("full_name", f.FullName),
			logging.String("rule", string(f.Rule)),
			logging.Int64("rows", del.Total()),
		)
	}
	return report, errors.Join(errs...)
}

func (r *Report) add(d staging.Deletion) {
	r.Persons += d.Persons
	r.Students += d.Students
	r.Leads += d.Leads
	r.Documents += d.Documents
}

// RemoveStagedFiles deletes the staged copies a deletion released, then the
// emptied student directories, and returns the number of files removed.
func RemoveStagedFiles(stagingDir string, d staging.Deletion, logger *slog.Logger) int {
	removed := 0
	for _, path := range d.StagedPaths {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("staged copy not removed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "staged_file_remove_failed"),
					logging.String(logging.FieldErrorHint, "remove the file by hand"),
				)
			}
			continue
		}
		removed++
	}
	if stagingDir == "" {
		return removed
	}
	for _, id := range d.StudentIDs {
		if err := os.RemoveAll(staging.StudentDir(stagingDir, id)); err != nil {
			logger.Warn("student directory not removed",
				logging.String("student_id", id),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staged_dir_remove_failed"),
				logging.String(logging.FieldErrorHint, "run staging clean --orphaned"),
			)
		}
	}
	return removed
}
