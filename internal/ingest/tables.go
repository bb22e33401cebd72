package ingest

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"enrollsync/internal/failure"
	"enrollsync/internal/identity"
	"enrollsync/internal/logging"
	"enrollsync/internal/tabular"
)

// tablePass is what the enrichment pass collected from the tabular files.
type tablePass struct {
	leads      *identity.Index
	references []tabular.Table
}

// readTables runs the enrichment pass: student lists enrich identities row by
// row, lead lists are indexed and then enrich by merged candidate, and
// everything else is kept as reference data.
func (l *Loader) readTables(ctx context.Context, root string, byName map[string]*Identity, stats map[string]int) (tablePass, error) {
	pass := tablePass{leads: identity.NewIndex()}
	logger := logging.WithContext(ctx, l.logger)

	paths, err := tabular.Discover(root)
	if err != nil {
		return pass, failure.Wrap(failure.ErrIO, "ingest", "discover tables", root, err)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return pass, err
		}
		stats[StatTabularFiles]++
		fileLogger := logger.With(logging.String(logging.FieldSourceFile, filepath.Base(path)))
		if !tabular.Readable(path) {
			stats[StatTabularUnsupported]++
			fileLogger.Info("tabular file skipped; export it as CSV to include it",
				logging.String(logging.FieldEventType, "tabular_unsupported"),
			)
			continue
		}
		table, err := tabular.ReadFile(path)
		if err != nil {
			stats[StatTabularUnreadable]++
			logging.WarnWithContext(fileLogger, "tabular file unreadable", "tabular_unreadable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the file encoding and delimiter"),
				logging.String(logging.FieldImpact, "rows from this file are not staged"),
			)
			continue
		}
		stats[StatRowsRead] += len(table.Rows)
		stats[StatRowsSkipped] += table.Skipped

		switch kind := tabular.Classify(table); kind {
		case tabular.KindStudents:
			candidates, issues, skipped := tabular.Rows(table, kind)
			stats[StatRowsSkipped] += skipped
			countDateIssues(fileLogger, issues, stats)
			for _, c := range candidates {
				if enrich(byName, c) {
					stats[StatRowsEnriched]++
				} else {
					stats[StatRowsUnmatched]++
				}
			}
			fileLogger.Debug("student list read", logging.Int("rows", len(table.Rows)), logging.Int("candidates", len(candidates)))
		case tabular.KindLeads:
			summary := tabular.IndexLeads(table, pass.leads)
			stats[StatRowsSkipped] += summary.Skipped
			stats[StatLeadsMerged] += summary.Merged
			countDateIssues(fileLogger, summary.Unparseable, stats)
			fileLogger.Debug("lead list indexed",
				logging.Int("rows", summary.Rows),
				logging.Int("added", summary.Added),
				logging.Int("merged", summary.Merged),
			)
		default:
			pass.references = append(pass.references, table)
		}
	}

	for _, c := range pass.leads.Candidates() {
		if enrich(byName, *c) {
			stats[StatRowsEnriched]++
		} else {
			stats[StatRowsUnmatched]++
		}
	}
	return pass, nil
}

// countDateIssues logs unreadable birth dates. They leave the date empty and
// are not failures.
func countDateIssues(logger *slog.Logger, issues []tabular.RowIssue, stats map[string]int) {
	for _, issue := range issues {
		if !errors.Is(issue.Err, failure.ErrParse) {
			continue
		}
		stats[StatDateParseIssues]++
		logger.Debug("birth date not recognized; left empty",
			logging.Int("row", issue.Row),
			logging.Error(issue.Err),
		)
	}
}
