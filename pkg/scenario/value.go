package scenario

import (
	"bytes"
	"fmt"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
)

// Kind is the variant of a section Value.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is the content of a section: either a single text block (Scalar) or
// an ordered list of text lines (Sequence).
// The zero value is an empty Scalar.
type Value struct {
	kind   Kind
	scalar string
	items  []string
}

// Scalar returns a single text block value.
func Scalar(text string) Value {
	return Value{kind: KindScalar, scalar: text}
}

// Sequence returns a list value. The items are copied.
func Sequence(items ...string) Value {
	return Value{kind: KindSequence, items: slices.Clone(items)}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsSequence() bool {
	return v.kind == KindSequence
}

// Text returns the text of a Scalar, empty for a Sequence.
func (v Value) Text() string {
	return v.scalar
}

// Items returns a copy of the items of a Sequence, nil for a Scalar.
func (v Value) Items() []string {
	if v.kind != KindSequence {
		return nil
	}
	return slices.Clone(v.items)
}

// Equal reports whether both values have the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindScalar {
		return v.scalar == o.scalar
	}
	return slices.Equal(v.items, o.items)
}

// String renders the value for humans: the raw text of a Scalar, the JSON
// array of a Sequence.
func (v Value) String() string {
	if v.kind == KindScalar {
		return v.scalar
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%q", v.items)
	}
	return string(b)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindSequence {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return marshal(items)
	}
	return marshal(v.scalar)
}

// marshal encodes v without escaping HTML characters, as sections are
// plain text read by humans in the collection and the audit log.
func marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return &errs.ErrMalformed{Sub: fmt.Errorf("invalid JSON value")}
	}
	val, err := valueOf(gjson.ParseBytes(b))
	if err != nil {
		return &errs.ErrMalformed{Sub: err}
	}
	*v = val
	return nil
}

// valueOf decodes a string as a Scalar and an array of strings as a
// Sequence. Any other shape is rejected.
func valueOf(r gjson.Result) (Value, error) {
	switch {
	case r.Type == gjson.String:
		return Scalar(r.Str), nil

	case r.IsArray():
		items := []string{}
		var err error
		r.ForEach(func(_, item gjson.Result) bool {
			if item.Type != gjson.String {
				err = fmt.Errorf("sequence item %s is not a string", item.Raw)
				return false
			}
			items = append(items, item.Str)
			return true
		})
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindSequence, items: items}, nil
	}
	return Value{}, fmt.Errorf("section value %s is neither a string nor a list of strings", describe(r))
}

func describe(r gjson.Result) string {
	raw := r.Raw
	if len(raw) > 32 {
		raw = raw[:32] + "..."
	}
	if raw == "" {
		return "(missing)"
	}
	return raw
}
