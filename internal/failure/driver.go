package failure

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// FromDriver translates SQLite and PostgreSQL driver errors into the typed
// errors of this package. Errors that are already typed, and errors from
// unknown sources, are returned unchanged.
func FromDriver(err error) error {
	if err == nil {
		return nil
	}
	var constraint *ConstraintError
	var parse *ParseError
	if errors.As(err, &constraint) || errors.As(err, &parse) {
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return fromSQLite(liteErr.Code(), err)
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return fromPostgres(pgErr, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return Wrap(ErrDependency, "store", "", "connection unavailable", err)
	}
	return err
}

func fromSQLite(code int, err error) error {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return &ConstraintError{Kind: ConstraintUnique, Constraint: sqliteConstraintName(err), Err: err}
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return &ConstraintError{Kind: ConstraintNotNull, Constraint: sqliteConstraintName(err), Err: err}
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return &ConstraintError{Kind: ConstraintCheck, Err: err}
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return &ConstraintError{Kind: ConstraintForeignKey, Err: err}
	}
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return &ConstraintError{Kind: sqliteConstraintKind(err), Constraint: sqliteConstraintName(err), Err: err}
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN:
		return Wrap(ErrDependency, "store", "", "database unavailable", err)
	}
	return err
}

// sqliteConstraintKind reads the constraint kind from the message when only
// the primary result code is available.
func sqliteConstraintKind(err error) ConstraintKind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ConstraintUnique
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return ConstraintNotNull
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ConstraintForeignKey
	default:
		return ConstraintCheck
	}
}

// sqliteConstraintName extracts "persons.email" from messages such as
// "UNIQUE constraint failed: persons.email".
func sqliteConstraintName(err error) string {
	msg := err.Error()
	idx := strings.LastIndex(msg, "constraint failed: ")
	if idx < 0 {
		return ""
	}
	name := msg[idx+len("constraint failed: "):]
	if end := strings.IndexAny(name, " )"); end >= 0 {
		name = name[:end]
	}
	return strings.TrimSpace(name)
}

func fromPostgres(pgErr *pq.Error, err error) error {
	switch pgErr.Code {
	case "23505":
		return &ConstraintError{Kind: ConstraintUnique, Constraint: pgErr.Constraint, Err: err}
	case "23502":
		return &ConstraintError{Kind: ConstraintNotNull, Constraint: pgErr.Column, Err: err}
	case "23514":
		return &ConstraintError{Kind: ConstraintCheck, Constraint: pgErr.Constraint, Err: err}
	case "23503":
		return &ConstraintError{Kind: ConstraintForeignKey, Constraint: pgErr.Constraint, Err: err}
	case "22007", "22008":
		return &ParseError{Field: pgErr.Column, Value: pgErr.Detail, Err: err}
	}
	switch pgErr.Code.Class() {
	case "08", "53", "57":
		return Wrap(ErrDependency, "store", "", "database unavailable", err)
	case "22":
		return Wrap(ErrValidation, "store", "", "invalid value", err)
	}
	return err
}
