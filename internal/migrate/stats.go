package migrate

// Counter keys reported in Result.Stats.
const (
	StatPersonsCreated      = "persons_created"
	StatPersonsMatched      = "persons_matched"
	StatPersonsMerged       = "persons_merged"
	StatStudentsCreated     = "students_created"
	StatStudentsUpdated     = "students_updated"
	StatStudentsFailed      = "students_failed"
	StatStudentsRejected    = "students_rejected_non_person"
	StatLeadsCreated        = "leads_created"
	StatLeadsUpdated        = "leads_updated"
	StatLeadsFailed         = "leads_failed"
	StatLeadsRejected       = "leads_rejected_non_person"
	StatDocumentsMigrated   = "documents_migrated"
	StatDocumentsDuplicate  = "documents_duplicate"
	StatDocumentsUnresolved = "documents_unresolved"
	StatDocumentsFailed     = "documents_failed"
	StatDocumentsRejected   = "documents_rejected_non_person"
	StatFailures            = "failures"
)

// probeStat is the counter for persons resolved by probe.
func probeStat(p Probe) string {
	return "matched_by_" + string(p)
}

func countMatch(counts map[string]int, m Match) {
	if m.Created {
		counts[StatPersonsCreated]++
		return
	}
	counts[StatPersonsMatched]++
	counts[probeStat(m.Probe)]++
	if len(m.Filled) > 0 {
		counts[StatPersonsMerged]++
	}
}
