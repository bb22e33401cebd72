package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks after canonical decomposition, so
// "MARÍA" becomes "MARIA" and "ñ" becomes "n".
func StripDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// NormalizeName produces the identity comparison key for a raw person name.
// Diacritics are stripped, letters uppercased, every rune other than A-Z,
// space and hyphen dropped, and whitespace runs collapsed. The result is
// idempotent and "" for empty input.
func NormalizeName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	upper := strings.ToUpper(StripDiacritics(raw))
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return CollapseSpaces(b.String())
}

// Fold lowercases, strips diacritics and collapses whitespace. Header and
// path-segment comparisons go through Fold.
func Fold(value string) string {
	return CollapseSpaces(strings.ToLower(StripDiacritics(value)))
}

// CollapseSpaces trims value and replaces every whitespace run with one space.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
