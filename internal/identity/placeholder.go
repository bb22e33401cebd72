package identity

import (
	"strings"

	"enrollsync/internal/textutil"
)

// PlaceholderDomain is the reserved domain used for synthesized emails.
const PlaceholderDomain = "placeholder.invalid"

// PlaceholderEmail synthesizes a deterministic email for a candidate that has
// none, from the phone digits when present and the normalized name
// otherwise. Two contact-less people with the same name get the same address.
func PlaceholderEmail(c Candidate) string {
	if digits := textutil.DigitsOnly(c.Phone); digits != "" {
		return "phone." + digits + "@" + PlaceholderDomain
	}
	name := c.NormalizedName
	if name == "" {
		name = textutil.NormalizeName(c.FullName)
	}
	return textutil.SanitizeToken(name) + "@" + PlaceholderDomain
}

// IsPlaceholderEmail reports whether email was produced by PlaceholderEmail.
func IsPlaceholderEmail(email string) bool {
	return strings.HasSuffix(strings.ToLower(email), "@"+PlaceholderDomain)
}
