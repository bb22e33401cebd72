package tabular

import (
	"errors"

	"enrollsync/internal/failure"
	"enrollsync/internal/fieldmap"
	"enrollsync/internal/identity"
	"enrollsync/internal/program"
	"enrollsync/internal/textutil"
)

// RowIssue records a row-level problem that did not stop extraction.
type RowIssue struct {
	Row int
	Err error
}

// Rows converts every row of t that carries a name into a candidate. Rows
// without a usable name are skipped and counted in the returned skip count.
// Unreadable birth dates leave the date empty and are reported as issues.
func Rows(t Table, kind Kind) ([]identity.Candidate, []RowIssue, int) {
	m := fieldmap.Map(t.Headers)
	if !m.Has(fieldmap.FullName) {
		return nil, nil, len(t.Rows)
	}
	sheetProgram, _ := program.FromText(t.Sheet)
	role := identity.RoleLead
	if kind == KindStudents {
		role = identity.RoleStudent
	}
	status := StatusFromSheet(t.Sheet, kind)

	var (
		out     []identity.Candidate
		issues  []RowIssue
		skipped int
	)
	for i, row := range t.Rows {
		line := i + 2
		c := identity.NewCandidate(
			identity.CleanText(m.Value(row, fieldmap.FullName)),
			m.Value(row, fieldmap.Email),
			m.Value(row, fieldmap.Phone),
			m.Value(row, fieldmap.NationalID),
		)
		if c.NormalizedName == "" {
			skipped++
			continue
		}
		c.Address = identity.CleanText(m.Value(row, fieldmap.Address))
		c.Country = identity.CleanText(m.Value(row, fieldmap.Country))
		c.City = identity.CleanText(m.Value(row, fieldmap.City))
		c.Program = program.Canonical(identity.CleanText(m.Value(row, fieldmap.Program)))
		if c.Program == program.Unknown {
			c.Program = sheetProgram
		}
		c.Status = status
		c.Role = role
		c.SourceFile = t.Name()
		c.SourceSheet = t.Sheet
		c.RowIndex = line

		born, ok, err := ParseDate(m.Value(row, fieldmap.BirthDate))
		switch {
		case err != nil:
			issues = append(issues, RowIssue{Row: line, Err: err})
		case ok:
			c.BirthDate = born
		}
		out = append(out, c)
	}
	return out, issues, skipped
}

// LeadSummary counts what IndexLeads did with one table.
type LeadSummary struct {
	Rows        int
	Added       int
	Merged      int
	Skipped     int
	DateIssues  int
	Unparseable []RowIssue
}

// IndexLeads extracts the rows of a lead table into ix.
func IndexLeads(t Table, ix *identity.Index) LeadSummary {
	candidates, issues, skipped := Rows(t, KindLeads)
	summary := LeadSummary{Rows: len(t.Rows), Skipped: skipped, Unparseable: issues}
	for _, issue := range issues {
		if errors.Is(issue.Err, failure.ErrParse) {
			summary.DateIssues++
		}
	}
	for _, c := range candidates {
		if _, merged := ix.Add(c); merged {
			summary.Merged++
		} else {
			summary.Added++
		}
	}
	return summary
}

// ReferenceRows returns the non-empty rows of a reference table with their
// headers folded for stable JSON keys.
func ReferenceRows(t Table) []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]string, len(row))
		for k, v := range row {
			if v == "" {
				continue
			}
			record[textutil.Fold(k)] = v
		}
		if len(record) > 0 {
			out = append(out, record)
		}
	}
	return out
}
