package scenario

import (
	"strings"
)

// DefaultStripLabel is the label stripped from section texts when displayed.
const DefaultStripLabel = "Problem Description:\n"

// DisplayField is a section prepared for a single text box.
type DisplayField struct {
	Name     string
	Text     string
	Sequence bool
}

// Display prepares the sections for edition: a leading label is stripped
// and the text trimmed. Sequence items are joined with line breaks, to be
// split again by Coerce on submit.
func Display(sections Sections, label string) []DisplayField {
	out := make([]DisplayField, 0, sections.Len())
	for _, k := range sections.Keys() {
		v, _ := sections.Get(k)
		df := DisplayField{
			Name:     k,
			Sequence: v.IsSequence(),
		}
		if v.IsSequence() {
			items := v.Items()
			for i, item := range items {
				items[i] = strip(item, label)
			}
			df.Text = strings.Join(items, "\n")
		} else {
			df.Text = strip(v.Text(), label)
		}
		out = append(out, df)
	}
	return out
}

func strip(text, label string) string {
	if label != "" {
		text = strings.TrimPrefix(text, label)
	}
	return strings.TrimSpace(text)
}

// Fields turns displayed fields back into form fields, as a browser would
// submit them untouched.
func Fields(dfs []DisplayField) []Field {
	out := make([]Field, 0, len(dfs))
	for _, df := range dfs {
		out = append(out, Field{Name: df.Name, Value: df.Text})
	}
	return out
}
