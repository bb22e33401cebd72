package ingest

import "enrollsync/internal/staging"

// Counter keys reported in Result.Stats.
const (
	StatDirectoriesScanned  = "directories_scanned"
	StatDirectoriesRejected = "directories_rejected"
	StatDirectoriesMerged   = "directories_merged"
	StatIdentities          = "identities"
	StatPersonsCreated      = "persons_created"
	StatPersonsUpdated      = "persons_updated"
	StatPersonsSkipped      = "persons_skipped"
	StatStudentsCreated     = "students_created"
	StatStudentsUpdated     = "students_updated"
	StatStudentsSkipped     = "students_skipped"
	StatDocumentsCreated    = "documents_created"
	StatDocumentsSkipped    = "documents_skipped"
	StatDocumentsFailed     = "documents_failed"
	StatDocumentsUnmatched  = "documents_unmatched"
	StatManifestsWritten    = "manifests_written"
	StatTabularFiles        = "tabular_files"
	StatTabularUnsupported  = "tabular_unsupported"
	StatTabularUnreadable   = "tabular_unreadable"
	StatRowsRead            = "rows_read"
	StatRowsEnriched        = "rows_enriched"
	StatRowsUnmatched       = "rows_unmatched"
	StatRowsSkipped         = "rows_skipped"
	StatDateParseIssues     = "date_parse_issues"
	StatLeadsCreated        = "leads_created"
	StatLeadsSkipped        = "leads_skipped"
	StatLeadsMerged         = "leads_merged"
	StatLeadsRejected       = "leads_rejected_non_person"
	StatLeadFailures        = "lead_failures"
	StatReferenceRows       = "reference_rows"
	StatFailures            = "failures"
)

func countWrite(stats map[string]int, result staging.WriteResult, created, updated, skipped string) {
	switch result {
	case staging.WriteInserted:
		stats[created]++
	case staging.WriteUpdated:
		stats[updated]++
	default:
		stats[skipped]++
	}
}
