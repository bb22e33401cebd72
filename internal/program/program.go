// Package program recognizes exchange-program names in folder paths, sheet
// names and free-text cells and maps them to canonical labels.
package program

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"enrollsync/internal/textutil"
)

const (
	AuPair        = "Au Pair"
	WorkAndTravel = "Work and Travel"
	H2B           = "H-2B"
	InternTrainee = "Intern & Trainee"
	CampCounselor = "Camp Counselor"
	Canada        = "Canada"
	Unknown       = ""
)

type rule struct {
	pattern *regexp.Regexp
	label   string
}

// rules are matched against folded text in order.
var rules = []rule{
	{regexp.MustCompile(`\b(au ?pair)`), AuPair},
	{regexp.MustCompile(`\b(work (and|&) travel|wat)\b`), WorkAndTravel},
	{regexp.MustCompile(`\bh-? ?2b\b`), H2B},
	{regexp.MustCompile(`\b(intern|trainee)`), InternTrainee},
	{regexp.MustCompile(`\b(camp|counselor)`), CampCounselor},
	{regexp.MustCompile(`\bcanada\b`), Canada},
}

var titleCaser = cases.Title(language.Spanish)

// FromText returns the program named anywhere in text.
func FromText(text string) (string, bool) {
	folded := textutil.Fold(text)
	if folded == "" {
		return Unknown, false
	}
	for _, r := range rules {
		if r.pattern.MatchString(folded) {
			return r.label, true
		}
	}
	return Unknown, false
}

// FromPath inspects the segments of rel, a path relative to the source root,
// from the innermost directory outwards and returns the first program found.
func FromPath(rel string) (string, bool) {
	segments := strings.Split(filepath.ToSlash(filepath.Clean(rel)), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if label, ok := FromText(segments[i]); ok {
			return label, true
		}
	}
	return Unknown, false
}

// Canonical maps a free-text program value to its canonical label. Values
// that name no known program are title-cased so spelling variants of the
// same unknown program still compare equal.
func Canonical(value string) string {
	value = textutil.CollapseSpaces(value)
	if value == "" {
		return Unknown
	}
	if label, ok := FromText(value); ok {
		return label
	}
	return titleCaser.String(strings.ToLower(value))
}
