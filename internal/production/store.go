package production

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"enrollsync/internal/failure"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the production identity store.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the production database and applies pending schema
// migrations. driver is DriverSQLite or DriverPostgres; for SQLite the dsn is
// a file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, failure.Wrap(failure.ErrValidation, "production", "open", "dsn is empty", nil)
	}

	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, failure.Wrap(failure.ErrIO, "production", "open", "create database directory", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, failure.Wrap(failure.ErrValidation, "production", "open", fmt.Sprintf("unsupported driver %q", driver), nil)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, failure.Wrap(failure.ErrDependency, "production", "open", "open database", err)
	}
	store := &Store{db: db, driver: driver}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, failure.Wrap(failure.ErrDependency, "production", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
			}
		}
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, failure.Wrap(failure.ErrDependency, "production", "open", "ping database", failure.FromDriver(err))
	}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, failure.Wrap(failure.ErrDependency, "production", "open", "apply migrations", err)
	}
	return store, nil
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string { return s.driver }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites "?" placeholders as "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	return rebind(s.driver, query)
}

func rebind(driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Begin starts a transaction for one migrated record.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, failure.Wrap(failure.ErrDependency, "production", "begin tx", "", failure.FromDriver(err))
	}
	return &Tx{tx: tx, driver: s.driver}, nil
}

// Stats returns row counts per production table.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int, 5)
	for _, table := range []string{"persons", "students", "leads", "documents"} {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, failure.FromDriver(err))
		}
		stats[table] = count
	}
	var placeholders int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM persons WHERE placeholder_email = 1`).Scan(&placeholders); err != nil {
		return nil, fmt.Errorf("count placeholder emails: %w", failure.FromDriver(err))
	}
	stats["persons_placeholder_email"] = placeholders
	return stats, nil
}

// Persons returns every production person ordered by normalized name.
func (s *Store) Persons(ctx context.Context) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+personColumns+` FROM persons ORDER BY normalized_name, id`)
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", failure.FromDriver(err))
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Documents returns every production document.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", failure.FromDriver(err))
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
