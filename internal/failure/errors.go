package failure

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrValidation = errors.New("validation error")
	ErrParse      = errors.New("parse error")
	ErrConflict   = errors.New("conflict error")
	ErrIO         = errors.New("i/o error")
	ErrDependency = errors.New("dependency error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrDependency
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

// ConstraintKind names the database constraint a write violated.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError is a constraint violation reported by a store driver.
// Unique violations match ErrConflict; every other kind matches
// ErrValidation.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s constraint %q violated: %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool {
	if e.Kind == ConstraintUnique {
		return target == ErrConflict
	}
	return target == ErrValidation
}

// ParseError reports a value that should have been a date or number but could
// not be read as one. Values that are recognizably not dates (age strings,
// "nan") are never reported as ParseError.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Truncate shortens an error message to at most limit runes for storage in
// failure records.
func Truncate(err error, limit int) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if limit <= 0 || utf8.RuneCountInString(msg) <= limit {
		return msg
	}
	return string([]rune(msg)[:limit])
}

// RecordError ties a per-record failure to the record it came from. Its
// Category is fixed when the error is built at the write boundary.
type RecordError struct {
	Kind     string
	Source   string
	Sheet    string
	Row      int
	Category Category
	Err      error
}

// NewRecordError classifies err and attaches the record pointers.
func NewRecordError(kind, source, sheet string, row int, err error) *RecordError {
	return &RecordError{
		Kind:     kind,
		Source:   source,
		Sheet:    sheet,
		Row:      row,
		Category: Classify(FromDriver(err)),
		Err:      err,
	}
}

func (e *RecordError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s record: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s record %s:%d: %v", e.Kind, e.Source, e.Row, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// FailureCategory implements Classifier.
func (e *RecordError) FailureCategory() Category { return e.Category }
