package documents

import (
	"path/filepath"
	"strings"

	"enrollsync/internal/textutil"
)

// Type is the inferred document category.
type Type string

const (
	TypePassport         Type = "PASSPORT"
	TypeVisa             Type = "VISA"
	TypeDiploma          Type = "DIPLOMA"
	TypeTranscript       Type = "TRANSCRIPT"
	TypePhoto            Type = "PHOTO"
	TypeFinancial        Type = "FINANCIAL"
	TypeMedical          Type = "MEDICAL"
	TypeIDCard           Type = "ID_CARD"
	TypeLetter           Type = "LETTER"
	TypeResume           Type = "RESUME"
	TypeContract         Type = "CONTRACT"
	TypeBackgroundCheck  Type = "BACKGROUND_CHECK"
	TypeEmergencyContact Type = "EMERGENCY_CONTACT"
	TypeQuotation        Type = "QUOTATION"
	TypeOther            Type = "OTHER"
)

// typeKeywords is ordered; the first entry with a keyword contained in the
// folded file name wins.
var typeKeywords = []struct {
	docType  Type
	keywords []string
}{
	{TypePassport, []string{"passport", "pasaporte", "pasport", "pp ", "passp"}},
	{TypeVisa, []string{"visa", "ds-160", "ds160"}},
	{TypeDiploma, []string{"diploma", "degree", "titulo", "grado", "certificate of"}},
	{TypeTranscript, []string{"transcript", "notas", "grades", "academic record", "certificado de notas", "student status", "proof of student"}},
	{TypePhoto, []string{"photo", "foto", "picture", "imagen", "2x2"}},
	{TypeFinancial, []string{"bank", "banco", "financial", "balance", "solvencia", "sponsorship", "fee", "refund", "disclosure"}},
	{TypeMedical, []string{"medical", "medico", "health", "salud", "vaccination", "vacuna"}},
	{TypeIDCard, []string{"cedula", "id card", "identification", "dni", "id ", "identif", "ssn", "social security"}},
	{TypeLetter, []string{"letter", "carta", "recommendation", "recomendacion", "job offer", "offer letter"}},
	{TypeResume, []string{"resume", "cv", "hoja de vida", "curriculum"}},
	{TypeContract, []string{"contract", "contrato", "agreement", "acuerdo", "cu digital", "cu-", "cu20"}},
	{TypeBackgroundCheck, []string{"antecedentes", "background", "police", "policia"}},
	{TypeEmergencyContact, []string{"contacto", "contact", "emergencia", "emergency"}},
	{TypeQuotation, []string{"cotizacion", "quotation", "quote", "proposal", "asesorias"}},
}

// Classify infers the document type from a file name.
func Classify(fileName string) Type {
	name := textutil.Fold(filepath.Base(fileName))
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.docType
			}
		}
	}
	return TypeOther
}

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".heic": "image/heic",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".txt":  "text/plain",
	".zip":  "application/zip",
}

// MIMEType returns the MIME type for a file extension, defaulting to
// application/octet-stream.
func MIMEType(fileName string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return "application/octet-stream"
}
