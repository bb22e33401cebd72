package staging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// truncateOrder lists staging tables children first so foreign keys hold at
// every step.
var truncateOrder = []string{
	"documents",
	"students",
	"leads",
	"lead_failures",
	"reference_data",
	"ingestion_runs",
	"persons",
}

// Stats returns row counts per staging table plus derived counters.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int, len(truncateOrder)+2)
	for _, table := range truncateOrder {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = count
	}
	derived := []struct {
		key   string
		query string
	}{
		{"persons_enriched", `SELECT COUNT(1) FROM persons WHERE enriched = 1`},
		{"persons_without_email", `SELECT COUNT(1) FROM persons WHERE email IS NULL`},
		{"students_without_documents", `SELECT COUNT(1) FROM students s WHERE NOT EXISTS (SELECT 1 FROM documents d WHERE d.student_id = s.id)`},
	}
	for _, d := range derived {
		var count int
		if err := s.db.QueryRowContext(ctx, d.query).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", d.key, err)
		}
		stats[d.key] = count
	}
	return stats, nil
}

// Truncate empties every staging table and returns the rows removed per
// table.
func (s *Store) Truncate(ctx context.Context) (map[string]int64, error) {
	removed := make(map[string]int64, len(truncateOrder))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range truncateOrder {
			res, err := tx.ExecContext(ctx, `DELETE FROM `+table)
			if err != nil {
				return fmt.Errorf("truncate %s: %w", table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			removed[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Deletion reports what a cascading delete removed.
type Deletion struct {
	Persons     int64
	Students    int64
	Leads       int64
	Documents   int64
	StudentIDs  []string
	StagedPaths []string
}

// Total returns the number of rows removed.
func (d Deletion) Total() int64 {
	return d.Persons + d.Students + d.Leads + d.Documents
}

// DeletePerson removes a person with every role and document hanging off it,
// children first.
func (s *Store) DeletePerson(ctx context.Context, personID string) (Deletion, error) {
	var out Deletion
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		studentIDs, err := studentIDsForPerson(ctx, tx, personID)
		if err != nil {
			return err
		}
		for _, studentID := range studentIDs {
			if err := deleteStudentTx(ctx, tx, studentID, &out); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE person_id = ?`, personID)
		if err != nil {
			return fmt.Errorf("delete leads: %w", err)
		}
		if out.Leads, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		res, err = tx.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, personID)
		if err != nil {
			return fmt.Errorf("delete person: %w", err)
		}
		if out.Persons, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	return out, err
}

// DeleteStudent removes a student role with its documents. The person goes
// too unless it still holds a lead role. A missing student is not an error;
// the returned Deletion is empty.
func (s *Store) DeleteStudent(ctx context.Context, studentID string) (Deletion, error) {
	var out Deletion
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var personID string
		err := tx.QueryRowContext(ctx, `SELECT person_id FROM students WHERE id = ?`, studentID).Scan(&personID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup student: %w", err)
		}
		if err := deleteStudentTx(ctx, tx, studentID, &out); err != nil {
			return err
		}
		hasLeads, err := exists(ctx, tx, `SELECT 1 FROM leads WHERE person_id = ? LIMIT 1`, personID)
		if err != nil {
			return fmt.Errorf("probe leads: %w", err)
		}
		if hasLeads {
			return nil
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, personID)
		if err != nil {
			return fmt.Errorf("delete person: %w", err)
		}
		if out.Persons, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	return out, err
}

func studentIDsForPerson(ctx context.Context, tx *sql.Tx, personID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM students WHERE person_id = ?`, personID)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan student id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func deleteStudentTx(ctx context.Context, tx *sql.Tx, studentID string, out *Deletion) error {
	rows, err := tx.QueryContext(ctx, `SELECT staged_path FROM documents WHERE student_id = ? AND staged_path IS NOT NULL`, studentID)
	if err != nil {
		return fmt.Errorf("query staged paths: %w", err)
	}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return fmt.Errorf("scan staged path: %w", err)
		}
		out.StagedPaths = append(out.StagedPaths, path)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close staged paths: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE student_id = ?`, studentID)
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	out.Documents += n

	res, err = tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, studentID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	out.Students += n
	out.StudentIDs = append(out.StudentIDs, studentID)
	return nil
}
