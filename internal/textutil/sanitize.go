package textutil

import "strings"

// keyUnsafe maps characters that break paths or need escaping in object
// storage keys.
var keyUnsafe = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"#", "",
	"%", "",
	"&", "and",
	"+", "-",
)

// SanitizeFileName turns an original document name into one that is safe as
// the last segment of a storage key. Unsafe characters are replaced or
// dropped after diacritics are stripped; whitespace runs become underscores.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(StripDiacritics(name))
	if name == "" {
		return ""
	}
	return strings.Join(strings.Fields(keyUnsafe.Replace(name)), "_")
}

// SanitizeToken converts a string to a lowercase token safe for paths and
// mailbox local parts. Diacritics are stripped first; letters are lowercased,
// digits, hyphens and underscores kept, everything else becomes an underscore.
// Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(StripDiacritics(value))
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// DigitsOnly returns the ASCII digits of value in order.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
