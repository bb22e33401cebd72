// Package ingest implements the directory-first loader that fills the staging
// store.
//
// A run has three passes. The identity pass walks the source tree and turns
// every document-bearing directory into an Identity keyed by its normalized
// name. The enrichment pass reads the tabular exports, fills empty contact
// fields on matching identities, and collects lead rows into an
// identity.Index. The staging pass writes each identity as person, then
// student role, then documents, followed by the leads and reference rows.
//
// Per-record problems are counted, logged, and recorded as failures; only an
// unreadable source root, a cancelled context, or a staging store error on
// the run record aborts the run.
package ingest
