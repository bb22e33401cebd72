package identity

import (
	"strings"
	"time"

	"enrollsync/internal/textutil"
)

// Role distinguishes enrolled students from prospective leads.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleLead    Role = "LEAD"
)

// Candidate is a person as read from one source, before resolution against
// any store. Empty strings and a zero BirthDate mean "unknown".
type Candidate struct {
	FullName       string
	NormalizedName string
	Email          string
	Phone          string
	Address        string
	NationalID     string
	BirthDate      time.Time
	Country        string
	City           string
	Program        string
	Status         string
	Role           Role

	SourceFile  string
	SourceSheet string
	RowIndex    int
}

// NewCandidate builds a candidate with a normalized name and cleaned contact
// fields.
func NewCandidate(fullName, email, phone, nationalID string) Candidate {
	fullName = textutil.CollapseSpaces(fullName)
	return Candidate{
		FullName:       fullName,
		NormalizedName: textutil.NormalizeName(fullName),
		Email:          CleanEmail(email),
		Phone:          CleanPhone(phone),
		NationalID:     CleanNationalID(nationalID),
	}
}

// HasContact reports whether the candidate carries any strong key.
func (c Candidate) HasContact() bool {
	return c.Email != "" || c.Phone != "" || c.NationalID != ""
}

// Fill copies every field that is empty on c from other and reports whether
// anything changed. Non-empty fields on c are never overwritten.
func (c *Candidate) Fill(other Candidate) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&c.FullName, other.FullName)
	fill(&c.NormalizedName, other.NormalizedName)
	fill(&c.Email, other.Email)
	fill(&c.Phone, other.Phone)
	fill(&c.Address, other.Address)
	fill(&c.NationalID, other.NationalID)
	fill(&c.Country, other.Country)
	fill(&c.City, other.City)
	fill(&c.Program, other.Program)
	fill(&c.Status, other.Status)
	if c.BirthDate.IsZero() && !other.BirthDate.IsZero() {
		c.BirthDate = other.BirthDate
		changed = true
	}
	return changed
}

// CleanEmail trims and lowercases an email, returning "" for values without
// an @.
func CleanEmail(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if !strings.Contains(value, "@") || isNullToken(value) {
		return ""
	}
	return value
}

// CleanPhone trims a phone number, returning "" for values shorter than seven
// characters.
func CleanPhone(value string) string {
	value = textutil.CollapseSpaces(value)
	value = strings.TrimSuffix(value, ".0")
	if len(value) < 7 || isNullToken(value) {
		return ""
	}
	return value
}

// CleanNationalID trims a national id and drops the ".0" suffix spreadsheet
// exports add to numeric cells.
func CleanNationalID(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, ".0")
	value = strings.NewReplacer(" ", "", ".", "", ",", "").Replace(value)
	if isNullToken(value) {
		return ""
	}
	return value
}

// CleanText collapses whitespace and maps spreadsheet null markers to "".
func CleanText(value string) string {
	value = textutil.CollapseSpaces(value)
	if isNullToken(value) {
		return ""
	}
	return value
}

func isNullToken(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "none", "null", "n/a", "na", "-":
		return true
	}
	return false
}
