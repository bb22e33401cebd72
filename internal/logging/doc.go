// Package logging assembles structured slog loggers and formatting helpers used
// across enrollsync.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so ingestion and migration code
// can tag log lines with the run id, the record kind, and the source file
// being processed. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape and routing.
package logging
