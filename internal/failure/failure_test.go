package failure_test

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"enrollsync/internal/failure"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := failure.Wrap(failure.ErrIO, "ingest", "checksum", "read failed", base)
	if !errors.Is(err, failure.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	for _, fragment := range []string{"ingest", "checksum", "read failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error string %q", fragment, err.Error())
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want failure.Category
	}{
		{"nil", nil, failure.CategoryDatabase},
		{"unknown", errors.New("disk on fire"), failure.CategoryDatabase},
		{"parse", &failure.ParseError{Field: "birth_date", Value: "32/13/2020"}, failure.CategoryDateParse},
		{"wrapped parse", fmt.Errorf("lead 3: %w", &failure.ParseError{Field: "birth_date"}), failure.CategoryDateParse},
		{"unique", &failure.ConstraintError{Kind: failure.ConstraintUnique}, failure.CategoryDuplicate},
		{"not null", &failure.ConstraintError{Kind: failure.ConstraintNotNull}, failure.CategoryValidation},
		{"validation marker", failure.Wrap(failure.ErrValidation, "migrate", "find", "no usable key", nil), failure.CategoryValidation},
		{"dependency marker", failure.Wrap(failure.ErrDependency, "store", "open", "", nil), failure.CategoryDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failure.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFromDriverTranslatesSQLiteConstraints(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE persons (id TEXT PRIMARY KEY, email TEXT UNIQUE, full_name TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO persons (id, email, full_name) VALUES ('a', 'x@y.com', 'A')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err = db.Exec(`INSERT INTO persons (id, email, full_name) VALUES ('b', 'x@y.com', 'B')`)
	dup := failure.FromDriver(err)
	if !errors.Is(dup, failure.ErrConflict) {
		t.Fatalf("expected conflict, got %v", dup)
	}
	var constraint *failure.ConstraintError
	if !errors.As(dup, &constraint) || constraint.Constraint != "persons.email" {
		t.Fatalf("expected persons.email constraint, got %+v", constraint)
	}
	if got := failure.Classify(dup); got != failure.CategoryDuplicate {
		t.Fatalf("Classify(dup) = %s", got)
	}

	_, err = db.Exec(`INSERT INTO persons (id, email, full_name) VALUES ('c', 'z@y.com', NULL)`)
	notNull := failure.FromDriver(err)
	if got := failure.Classify(notNull); got != failure.CategoryValidation {
		t.Fatalf("Classify(not null) = %s (%v)", got, notNull)
	}
	if got := failure.Classify(notNull).Label(); got != "validation error" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestFromDriverPassesThrough(t *testing.T) {
	if failure.FromDriver(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	plain := errors.New("plain")
	if got := failure.FromDriver(plain); got != plain {
		t.Fatalf("unknown errors should be returned unchanged, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	err := errors.New(strings.Repeat("é", 600))
	if got := failure.Truncate(err, 500); len([]rune(got)) != 500 {
		t.Fatalf("expected 500 runes, got %d", len([]rune(got)))
	}
	if got := failure.Truncate(nil, 10); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestRecordErrorCarriesCategory(t *testing.T) {
	base := &failure.ConstraintError{Kind: failure.ConstraintNotNull, Constraint: "persons.full_name", Err: errors.New("NOT NULL constraint failed")}
	err := failure.NewRecordError("lead", "leads.csv", "Interesados", 7, base)
	if got := failure.Classify(fmt.Errorf("migrate: %w", err)); got != failure.CategoryValidation {
		t.Fatalf("Classify = %s, want %s", got, failure.CategoryValidation)
	}
	if got := err.Category.Label(); got != "validation error" {
		t.Fatalf("Label = %q", got)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected record error to unwrap to the constraint error")
	}
	if !strings.Contains(err.Error(), "leads.csv:7") {
		t.Fatalf("expected source pointer in %q", err.Error())
	}
}
