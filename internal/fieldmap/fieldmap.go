// Package fieldmap resolves canonical person fields to whichever header
// variant a tabular export happens to use.
//
// Exports arrive with Spanish and English headers in any casing and with or
// without accents ("CORREO", "Correo electrónico", "E-mail"). Headers and
// synonyms are compared after textutil.Fold, so "  Fecha de  Nacimiento" and
// "FECHA DE NACIMIENTO" are the same header. A missing field is a normal
// outcome, not an error.
package fieldmap

import (
	"enrollsync/internal/textutil"
)

// Field names a canonical person attribute.
type Field string

const (
	FullName   Field = "full_name"
	Email      Field = "email"
	Phone      Field = "phone"
	Address    Field = "address"
	NationalID Field = "national_id"
	BirthDate  Field = "birth_date"
	Country    Field = "country"
	City       Field = "city"
	Program    Field = "program"
)

// Fields lists every canonical field in resolution order.
var Fields = []Field{FullName, Email, Phone, Address, NationalID, BirthDate, Country, City, Program}

// synonyms are tried in order; earlier entries win when a file carries more
// than one variant of the same field.
var synonyms = map[Field][]string{
	FullName:   {"NOMBRE COMPLETO", "NOMBRE Y APELLIDO", "NOMBRES Y APELLIDOS", "NOMBRE", "NOMBRES", "FULL NAME", "NAME", "ESTUDIANTE"},
	Email:      {"CORREO", "CORREO ELECTRÓNICO", "EMAIL", "E-MAIL", "MAIL"},
	Phone:      {"CELULAR", "CEL", "TELÉFONO", "MÓVIL", "TEL", "WHATSAPP", "PHONE"},
	Address:    {"DIRECCIÓN", "ADDRESS"},
	NationalID: {"CÉDULA", "CC", "DOCUMENTO", "NÚMERO DE DOCUMENTO", "ID", "DOCUMENT ID"},
	BirthDate:  {"FECHA DE NACIMIENTO", "FECHA NACIMIENTO", "NACIMIENTO", "BIRTH DATE", "BIRTHDAY", "DATE OF BIRTH"},
	Country:    {"PAÍS", "COUNTRY"},
	City:       {"CIUDAD", "CITY"},
	Program:    {"PROGRAMA", "PROGRAM"},
}

// Synonyms returns a copy of the header variants recognized for field.
func Synonyms(field Field) []string {
	list := synonyms[field]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Lookup returns the first header in headers that matches a synonym of
// field. The boolean is false when nothing matches or field is unknown.
func Lookup(field Field, headers []string) (string, bool) {
	variants, ok := synonyms[field]
	if !ok {
		return "", false
	}
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = textutil.Fold(h)
	}
	for _, variant := range variants {
		want := textutil.Fold(variant)
		for i, h := range folded {
			if h == want {
				return headers[i], true
			}
		}
	}
	return "", false
}

// Mapping holds the header resolved for each canonical field.
type Mapping map[Field]string

// Map resolves every canonical field against headers. Unresolved fields are
// absent from the result.
func Map(headers []string) Mapping {
	m := make(Mapping, len(Fields))
	for _, field := range Fields {
		if header, ok := Lookup(field, headers); ok {
			m[field] = header
		}
	}
	return m
}

// Has reports whether field resolved to a header.
func (m Mapping) Has(field Field) bool {
	_, ok := m[field]
	return ok
}

// Value returns the row value for field, or "" when the field is unmapped or
// the header is missing from row.
func (m Mapping) Value(row map[string]string, field Field) string {
	header, ok := m[field]
	if !ok {
		return ""
	}
	return textutil.CollapseSpaces(row[header])
}
