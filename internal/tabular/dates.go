package tabular

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"enrollsync/internal/failure"
	"enrollsync/internal/textutil"
)

var dayFirstLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2 Jan 2006",
	"2-Jan-2006",
	"2 January 2006",
	"2/Jan/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

var spanishMonths = map[string]string{
	"enero": "January", "febrero": "February", "marzo": "March", "abril": "April",
	"mayo": "May", "junio": "June", "julio": "July", "agosto": "August",
	"septiembre": "September", "setiembre": "September", "octubre": "October",
	"noviembre": "November", "diciembre": "December",
	"ene": "Jan", "abr": "Apr", "ago": "Aug", "sept": "Sep", "dic": "Dec",
}

var (
	agePattern      = regexp.MustCompile(`\b(anos?|years?|yrs?|edad)\b`)
	wordPattern     = regexp.MustCompile(`[a-z]+`)
	spanishOfDate   = regexp.MustCompile(`\s+de(l)?\s+`)
	excelEpoch      = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	maxPlausibleAge = 120
)

// ParseDate reads a birth date cell. The boolean is false when the cell holds
// no date: blank values, null markers and age strings such as "26 años". A
// cell that looks like a date but cannot be read returns a *failure.ParseError.
func ParseDate(value string) (time.Time, bool, error) {
	raw := strings.TrimSpace(value)
	folded := textutil.Fold(raw)
	switch folded {
	case "", "nan", "none", "null", "nat", "n/a", "-":
		return time.Time{}, false, nil
	}
	if agePattern.MatchString(folded) {
		return time.Time{}, false, nil
	}

	if n, err := strconv.ParseFloat(folded, 64); err == nil {
		if n >= 0 && n <= float64(maxPlausibleAge) && n == math.Trunc(n) {
			return time.Time{}, false, nil
		}
		if n < 1 || n > 2958465 {
			return time.Time{}, false, &failure.ParseError{Field: "birth_date", Value: raw, Err: fmt.Errorf("serial %v out of range", n)}
		}
		days := int(math.Floor(n))
		return excelEpoch.AddDate(0, 0, days), true, nil
	}

	cleaned := strings.ReplaceAll(folded, "/ ", "/")
	cleaned = strings.ReplaceAll(cleaned, " /", "/")
	cleaned = spanishOfDate.ReplaceAllString(cleaned, " ")
	cleaned = translateMonths(cleaned)
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true, nil
		}
	}
	return time.Time{}, false, &failure.ParseError{Field: "birth_date", Value: raw}
}

// translateMonths replaces Spanish month words with English ones. Month
// matching in time.Parse ignores case, so English words pass through.
func translateMonths(value string) string {
	return wordPattern.ReplaceAllStringFunc(value, func(word string) string {
		if english, ok := spanishMonths[word]; ok {
			return english
		}
		return word
	})
}

// FormatDate renders a date the way the stores keep it. The zero time renders
// as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
