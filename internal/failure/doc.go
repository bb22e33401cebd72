// Package failure defines the pipeline's error taxonomy and the classifier
// that turns any error into a failure category for per-record failure
// records.
//
// Errors are tagged with one of the sentinel markers (ErrValidation,
// ErrParse, ErrConflict, ErrIO, ErrDependency) through Wrap, or raised as one
// of the typed errors (*ConstraintError, *ParseError). Store code passes raw
// driver errors through FromDriver at the insert boundary so SQLite and
// PostgreSQL constraint violations become typed values before they reach the
// migration loop. Classify is total: every error, including nil and unknown
// errors, maps to exactly one Category.
package failure
