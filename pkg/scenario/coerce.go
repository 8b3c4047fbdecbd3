package scenario

import (
	"strings"
)

// MergePolicy defines what happens to the sections a submit does not carry.
type MergePolicy string

const (
	// MergeReplace drops the sections absent from the submission.
	MergeReplace MergePolicy = "replace"
	// MergeKeep keeps the sections absent from the submission untouched.
	MergeKeep MergePolicy = "merge"
)

// MergePolicies lists the supported merge policies.
var MergePolicies = []MergePolicy{MergeReplace, MergeKeep}

// ReservedPrefix marks form fields that are not sections (e.g. the revision).
const ReservedPrefix = "_"

// Field is a submitted form field.
type Field struct {
	Name  string
	Value string
}

// IsReserved reports whether a form field name is not a section.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, ReservedPrefix)
}

// Coerce builds the new sections out of the submitted fields.
// A field whose existing value is a Sequence is split on line breaks, each
// line trimmed and empty lines discarded. Any other field is kept as a Scalar.
// The existing order is kept, new sections are appended in submission order.
// When a field is submitted twice, the first occurrence wins.
func Coerce(existing Sections, fields []Field, policy MergePolicy) Sections {
	submitted := map[string]string{}
	order := []string{}
	for _, f := range fields {
		if IsReserved(f.Name) {
			continue
		}
		if _, ok := submitted[f.Name]; ok {
			continue
		}
		submitted[f.Name] = f.Value
		order = append(order, f.Name)
	}

	out := Sections{}
	for _, k := range existing.Keys() {
		old, _ := existing.Get(k)
		text, ok := submitted[k]
		if !ok {
			if policy == MergeKeep {
				out.Set(k, old)
			}
			continue
		}
		out.Set(k, coerce(old, text))
	}
	for _, k := range order {
		if _, ok := existing.Get(k); ok {
			continue
		}
		out.Set(k, Scalar(normalizeNewlines(submitted[k])))
	}
	return out
}

func coerce(old Value, text string) Value {
	if !old.IsSequence() {
		return Scalar(normalizeNewlines(text))
	}
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return Sequence(items...)
}

// normalizeNewlines turns the CRLF line breaks browsers submit textareas
// with back to LF.
func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
