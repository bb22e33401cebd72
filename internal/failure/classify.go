package failure

import "errors"

// Category is the failure type persisted with a failure record.
type Category string

const (
	CategoryDateParse  Category = "DATE_PARSE_ERROR"
	CategoryDuplicate  Category = "DUPLICATE_ERROR"
	CategoryValidation Category = "VALIDATION_ERROR"
	CategoryDatabase   Category = "DATABASE_ERROR"
)

// Label returns the human-readable form used in logs and CLI output.
func (c Category) Label() string {
	switch c {
	case CategoryDateParse:
		return "date-parse error"
	case CategoryDuplicate:
		return "duplicate error"
	case CategoryValidation:
		return "validation error"
	default:
		return "database error"
	}
}

// Classifier allows errors to declare their own failure category.
type Classifier interface {
	FailureCategory() Category
}

// Classify maps err to a failure category. Errors implementing Classifier
// decide for themselves; otherwise the sentinel markers decide, and anything
// unrecognized is a database error.
func Classify(err error) Category {
	var classifier Classifier
	if errors.As(err, &classifier) {
		return classifier.FailureCategory()
	}
	switch {
	case errors.Is(err, ErrParse):
		return CategoryDateParse
	case errors.Is(err, ErrConflict):
		return CategoryDuplicate
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	default:
		return CategoryDatabase
	}
}
