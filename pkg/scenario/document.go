package scenario

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
)

// Indent is the indentation of the collection when written back.
const Indent = "    "

// Scenario is a record of the collection.
type Scenario struct {
	ID       int
	Sections Sections
}

// Document is the whole scenario collection, as stored in the blob: a JSON
// array of records.
type Document struct {
	raw []byte
}

// ParseDocument validates the collection is a JSON array.
// Records are not validated until they are looked up.
func ParseDocument(b []byte) (*Document, error) {
	if !gjson.ValidBytes(b) {
		return nil, &errs.ErrMalformed{Sub: fmt.Errorf("invalid JSON")}
	}
	if !gjson.ParseBytes(b).IsArray() {
		return nil, &errs.ErrMalformed{Sub: fmt.Errorf("expected an array of scenarios")}
	}
	return &Document{raw: b}, nil
}

// Find performs a linear scan of the collection and returns the first
// record whose ScenarioID equals id, along with its index.
// Returns an *errs.ErrScenarioNotFound if none matches.
func (doc *Document) Find(id int) (*Scenario, int, error) {
	idx, found := -1, gjson.Result{}
	i := 0
	gjson.ParseBytes(doc.raw).ForEach(func(_, rec gjson.Result) bool {
		sid := rec.Get("ScenarioID")
		if sid.Type == gjson.Number && sid.Num == float64(id) {
			idx, found = i, rec
			return false
		}
		i++
		return true
	})
	if idx == -1 {
		return nil, -1, &errs.ErrScenarioNotFound{ID: id}
	}

	sections, err := sectionsOf(found.Get("Sections"))
	if err != nil {
		if merr, ok := err.(*errs.ErrMalformed); ok {
			merr.Path = fmt.Sprintf("[%d].%s", idx, merr.Path)
		}
		return nil, -1, err
	}
	return &Scenario{
		ID:       id,
		Sections: sections,
	}, idx, nil
}

// Len returns the number of records of the collection.
func (doc *Document) Len() int {
	return int(gjson.GetBytes(doc.raw, "#").Int())
}

// SetSections replaces the Sections of the record at index, leaving every
// other byte of the record and of the collection untouched.
func (doc *Document) SetSections(index int, sections Sections) error {
	if index < 0 || index >= doc.Len() {
		return fmt.Errorf("scenario index %d out of range", index)
	}
	raw, err := sections.MarshalJSON()
	if err != nil {
		return err
	}
	out, err := sjson.SetRawBytes(doc.raw, strconv.Itoa(index)+".Sections", raw)
	if err != nil {
		return err
	}
	doc.raw = out
	return nil
}

// Bytes returns the whole collection, indented.
func (doc *Document) Bytes() []byte {
	return pretty.PrettyOptions(doc.raw, &pretty.Options{
		Indent: Indent,
		// Width 0 puts every array item on its own line.
		Width: 0,
	})
}
