package tabular

import (
	"strings"

	"enrollsync/internal/fieldmap"
	"enrollsync/internal/textutil"
)

// Kind is the role a whole table plays in ingestion.
type Kind string

const (
	KindStudents  Kind = "STUDENT"
	KindLeads     Kind = "LEAD"
	KindReference Kind = "REFERENCE"
)

// ReferenceType tags non-person tables kept as reference data.
type ReferenceType string

const (
	ReferencePriceList    ReferenceType = "PRICE_LIST"
	ReferenceEmployerList ReferenceType = "EMPLOYER_LIST"
	ReferenceCountryList  ReferenceType = "COUNTRY_LIST"
	ReferenceGeneral      ReferenceType = "GENERAL_REFERENCE"
)

var (
	studentKeywords = []string{"student", "estudiante", "participant", "participante", "enrolled", "inscrito", "active", "activo", "visa", "passport", "pasaporte", "program"}
	leadKeywords    = []string{"lead", "prospecto", "inquiry", "consulta", "interested", "interesado", "pending", "pendiente", "contact", "contacto"}
	studentHeaders  = []string{"program", "visa", "passport", "status", "enrolled"}
)

// Classify decides whether t lists students, leads, or reference data. The
// file name decides first; otherwise a table with a name column and a contact
// column is a person list, and a student list when it also carries program or
// visa columns.
func Classify(t Table) Kind {
	name := textutil.Fold(t.Name())
	if containsAny(name, studentKeywords) {
		return KindStudents
	}
	if containsAny(name, leadKeywords) {
		return KindLeads
	}
	m := fieldmap.Map(t.Headers)
	hasName := m.Has(fieldmap.FullName)
	hasContact := m.Has(fieldmap.Email) || m.Has(fieldmap.Phone)
	if !hasName || !hasContact {
		return KindReference
	}
	folded := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		folded[i] = textutil.Fold(h)
	}
	if containsAny(strings.Join(folded, " "), studentHeaders) || m.Has(fieldmap.Program) {
		return KindStudents
	}
	return KindLeads
}

// ReferenceTypeOf tags a reference table by its sheet name.
func ReferenceTypeOf(t Table) ReferenceType {
	sheet := textutil.Fold(t.Sheet)
	switch {
	case containsAny(sheet, []string{"price", "precio"}):
		return ReferencePriceList
	case containsAny(sheet, []string{"employer", "empleador"}):
		return ReferenceEmployerList
	case containsAny(sheet, []string{"country", "pais"}):
		return ReferenceCountryList
	default:
		return ReferenceGeneral
	}
}

// StatusFromSheet derives a person status from the sheet name, falling back
// on the table kind.
func StatusFromSheet(sheet string, kind Kind) string {
	s := textutil.Fold(sheet)
	switch {
	case containsAny(s, []string{"inscrita", "inscrito", "registered", "enrolled", "active"}):
		return "ENROLLED"
	case containsAny(s, []string{"interesada", "interesado", "interested", "lead", "prospecto"}):
		return "INTERESTED"
	case containsAny(s, []string{"cancelad", "cancelled", "lost"}):
		return "CANCELLED"
	case containsAny(s, []string{"agendad", "scheduled"}):
		return "SCHEDULED"
	}
	if kind == KindStudents {
		return "ENROLLED"
	}
	return "NEW"
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
