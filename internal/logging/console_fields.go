package logging

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are rendered first, in this order, when present.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldErrorType,
	"error",
	FieldErrorHint,
	FieldImpact,
	FieldDryRun,
	"student_id",
	"person_id",
	"full_name",
	"program",
	"doc_type",
	"source_dir",
	"staging_dir",
	"duration",
}

// selectInfoFields orders attributes for display and reports how many were
// withheld. Debug records show everything; info and above hide debug-only keys
// and overly long values.
func selectInfoFields(attrs []kv, includeDebug bool) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	consider := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if skipInfoKey(attr.key) {
			return
		}
		if !includeDebug && isDebugOnlyKey(attr.key) {
			hidden++
			return
		}
		val := formatValueForKey(attr.key, attr.value)
		if !includeDebug && shouldHideInfoValue(attr.key, val) {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: val})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				consider(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			consider(idx)
		}
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	if isByteSizeKey(key) {
		switch v.Kind() {
		case slog.KindInt64:
			if n := v.Int64(); n >= 0 {
				return humanize.Bytes(uint64(n))
			}
		case slog.KindUint64:
			return humanize.Bytes(v.Uint64())
		}
	}
	switch v.Kind() {
	case slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case slog.KindInt64:
		return humanize.Comma(v.Int64())
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	}
	value := formatValue(v)
	if key == "error" && len(value) > 240 {
		value = value[:240] + "…"
	}
	return value
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || key == "size" || strings.HasSuffix(key, "_size")
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldRunID, FieldRecordKind:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case "checksum", "payload", "dsn", "mime", "staged_path":
		return true
	}
	if strings.HasSuffix(key, "_id") && key != "student_id" && key != "person_id" {
		return true
	}
	return strings.HasSuffix(key, "_path") && key != FieldSourceFile
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error", FieldErrorHint, FieldSourceFile:
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorType:
		return "Error Type"
	case FieldErrorHint:
		return "Hint"
	case FieldSourceFile:
		return "File"
	case FieldDryRun:
		return "Dry Run"
	case "student_id":
		return "Student"
	case "person_id":
		return "Person"
	case "full_name":
		return "Name"
	case "doc_type":
		return "Type"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func attrValue(attrs []kv, key string) string {
	for _, kv := range attrs {
		if kv.key == key {
			return attrString(kv.value)
		}
	}
	return ""
}
