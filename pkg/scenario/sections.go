package scenario

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
)

// Sections is the editable payload of a scenario: an ordered mapping from
// section name to Value. Order is the one of the stored document, and is kept
// when serialized back.
// The zero value is an empty mapping ready to use.
type Sections struct {
	keys []string
	vals map[string]Value
}

// Set defines the value of a section, appending it if new.
func (s *Sections) Set(name string, v Value) {
	if s.vals == nil {
		s.vals = map[string]Value{}
	}
	if _, ok := s.vals[name]; !ok {
		s.keys = append(s.keys, name)
	}
	s.vals[name] = v
}

func (s Sections) Get(name string) (Value, bool) {
	v, ok := s.vals[name]
	return v, ok
}

// Keys returns the section names in order.
func (s Sections) Keys() []string {
	return slices.Clone(s.keys)
}

func (s Sections) Len() int {
	return len(s.keys)
}

func (s Sections) Clone() Sections {
	out := Sections{}
	for _, k := range s.keys {
		out.Set(k, s.vals[k])
	}
	return out
}

// Equal reports whether both hold the same sections with equal values,
// regardless of their order.
func (s Sections) Equal(o Sections) bool {
	if len(s.keys) != len(o.keys) {
		return false
	}
	for k, v := range s.vals {
		ov, ok := o.vals[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (s Sections) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i != 0 {
			buf.WriteByte(',')
		}
		kb, err := marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := s.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Sections) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return &errs.ErrMalformed{Sub: fmt.Errorf("invalid JSON sections")}
	}
	out, err := sectionsOf(gjson.ParseBytes(b))
	if err != nil {
		return err
	}
	*s = out
	return nil
}

func sectionsOf(r gjson.Result) (Sections, error) {
	if !r.IsObject() {
		return Sections{}, &errs.ErrMalformed{Path: "Sections", Sub: fmt.Errorf("expected an object, got %s", describe(r))}
	}
	out := Sections{}
	var err error
	r.ForEach(func(key, val gjson.Result) bool {
		v, verr := valueOf(val)
		if verr != nil {
			err = &errs.ErrMalformed{Path: "Sections." + key.Str, Sub: verr}
			return false
		}
		out.Set(key.Str, v)
		return true
	})
	return out, err
}
