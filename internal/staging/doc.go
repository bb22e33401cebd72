// Package staging persists ingested identities, their role records and their
// documents in a reviewable SQLite database before anything is promoted to
// production.
//
// Writes are idempotent: persons, students and leads are keyed by
// deterministic ids and documents by content checksum, so re-running an
// ingestion over an unchanged source changes nothing. Writes never match
// identities themselves; they trust the ids handed to them by the loader.
//
// The package also owns the on-disk staging tree (copied documents and
// per-student manifests) and its cleanup.
package staging
