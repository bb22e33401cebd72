package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for ingestion and migration run identifiers.
	FieldRunID = "run_id"
	// FieldRecordKind is the standardized structured logging key for the kind of record being processed
	// (person, student, lead, document, reference).
	FieldRecordKind = "record_kind"
	// FieldSourceFile is the standardized structured logging key for the source file a record came from.
	FieldSourceFile = "source_file"
	// FieldEventType classifies a log line for filtering (for example "lead_failed").
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator-facing next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldErrorType carries the failure category of a record-level error.
	FieldErrorType = "error_type"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldDryRun marks lines emitted while changes are being rolled back.
	FieldDryRun = "dry_run"
)

type contextKey int

const (
	runIDKey contextKey = iota
	recordKindKey
	sourceFileKey
)

// WithRunID tags ctx with the identifier of the current run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return withValue(ctx, runIDKey, runID)
}

// WithRecordKind tags ctx with the kind of record being processed.
func WithRecordKind(ctx context.Context, kind string) context.Context {
	return withValue(ctx, recordKindKey, kind)
}

// WithSourceFile tags ctx with the source file being processed.
func WithSourceFile(ctx context.Context, path string) context.Context {
	return withValue(ctx, sourceFileKey, path)
}

// RunIDFromContext returns the run identifier stored in ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := stringValue(ctx, runIDKey); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if kind, ok := stringValue(ctx, recordKindKey); ok {
		fields = append(fields, slog.String(FieldRecordKind, kind))
	}
	if path, ok := stringValue(ctx, sourceFileKey); ok {
		fields = append(fields, slog.String(FieldSourceFile, path))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
