// Package tabular reads CSV exports of the office spreadsheets and turns
// their rows into identity candidates.
//
// Files are decoded through golang.org/x/text: a byte order mark selects
// UTF-8 or UTF-16, and bytes that are not valid UTF-8 are read as Windows-1252,
// which is what spreadsheet software writes for Spanish text. Exports named
// "<workbook> - <sheet>.csv" keep their sheet name, which carries status and
// program hints.
//
// Each file is classified as a student list, a lead list, or reference data.
// Lead rows become candidates through an identity.Index so the same person
// listed on several sheets is staged once. Student rows are only ever used to
// enrich directory identities; they never create one.
//
// Binary spreadsheets (.xlsx, .xls) are recognized as tabular so they are
// never mistaken for documents, but they are not decoded here.
package tabular
