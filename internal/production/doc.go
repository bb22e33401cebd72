// Package production is the identity store records are promoted into.
//
// The schema enforces the production invariants: at most one person per
// national id and per email, at most one student role per person, and at
// most one document per content checksum. The store runs on SQLite
// (modernc) or PostgreSQL (lib/pq) behind database/sql; queries are written
// with "?" placeholders and rebound for PostgreSQL.
//
// All reads and writes used by migration go through a Tx so each migrated
// record is isolated in its own transaction.
package production
