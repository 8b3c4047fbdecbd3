package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/pretty"
	yamlv2 "go.yaml.in/yaml/v2"
	"gopkg.in/yaml.v3"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// render writes the scenario keeping the order of its sections.
func render(w io.Writer, format string, loaded *repository.Loaded) error {
	scn := loaded.Scenario

	var (
		b   []byte
		err error
	)
	switch format {
	case formatJSON:
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		err = enc.Encode(struct {
			ScenarioID int               `json:"ScenarioID"`
			Revision   string            `json:"Revision"`
			Sections   scenario.Sections `json:"Sections"`
		}{
			ScenarioID: scn.ID,
			Revision:   loaded.Revision,
			Sections:   scn.Sections,
		})
		b = buf.Bytes()
		if err == nil {
			b = pretty.PrettyOptions(b, &pretty.Options{Width: 80, Indent: scenario.Indent})
		}

	default:
		sections := yamlv2.MapSlice{}
		for _, k := range scn.Sections.Keys() {
			v, _ := scn.Sections.Get(k)
			var out any = v.Text()
			if v.IsSequence() {
				out = v.Items()
			}
			sections = append(sections, yamlv2.MapItem{Key: k, Value: out})
		}
		b, err = yamlv2.Marshal(yamlv2.MapSlice{
			{Key: "ScenarioID", Value: scn.ID},
			{Key: "Revision", Value: loaded.Revision},
			{Key: "Sections", Value: sections},
		})
	}
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// parseSections reads name=value pairs.
func parseSections(raw []string) ([]scenario.Field, error) {
	fields := make([]scenario.Field, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &errs.ErrValidationFailed{Field: "section", Reason: fmt.Sprintf("%q is not of the form name=value", r)}
		}
		if scenario.IsReserved(name) {
			return nil, &errs.ErrValidationFailed{Field: "section", Reason: fmt.Sprintf("%q is a reserved name", name)}
		}
		fields = append(fields, scenario.Field{Name: name, Value: value})
	}
	return fields, nil
}

// readSectionsFile reads a YAML mapping of sections, in document order.
func readSectionsFile(b []byte) ([]scenario.Field, error) {
	root := yaml.Node{}
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, &errs.ErrValidationFailed{Field: "file", Reason: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &errs.ErrValidationFailed{Field: "file", Reason: "expected a mapping of sections"}
	}

	m := root.Content[0]
	fields := make([]scenario.Field, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if scenario.IsReserved(k.Value) {
			return nil, &errs.ErrValidationFailed{Field: "file", Reason: fmt.Sprintf("%q is a reserved name", k.Value)}
		}

		switch v.Kind {
		case yaml.ScalarNode:
			fields = append(fields, scenario.Field{Name: k.Value, Value: v.Value})
		case yaml.SequenceNode:
			items := make([]string, 0, len(v.Content))
			for _, item := range v.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, &errs.ErrValidationFailed{Field: "file", Reason: fmt.Sprintf("section %q must only hold texts", k.Value)}
				}
				items = append(items, item.Value)
			}
			fields = append(fields, scenario.Field{Name: k.Value, Value: strings.Join(items, "\n")})
		default:
			return nil, &errs.ErrValidationFailed{Field: "file", Reason: fmt.Sprintf("section %q must be a text or a list of texts", k.Value)}
		}
	}
	return fields, nil
}
