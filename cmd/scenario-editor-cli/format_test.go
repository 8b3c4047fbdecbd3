package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/repository"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

func loaded() *repository.Loaded {
	sections := scenario.Sections{}
	sections.Set("Summary", scenario.Scalar("Pump failure"))
	sections.Set("Notes", scenario.Sequence("line one", "line two"))
	return &repository.Loaded{
		Scenario: &scenario.Scenario{ID: 7, Sections: sections},
		Revision: "abc",
	}
}

func Test_U_Render(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Format   string
		Expected string
	}{
		"yaml": {
			Format: formatYAML,
			Expected: `ScenarioID: 7
Revision: abc
Sections:
  Summary: Pump failure
  Notes:
  - line one
  - line two
`,
		},
		"json": {
			Format: formatJSON,
			Expected: `{
    "ScenarioID": 7,
    "Revision": "abc",
    "Sections": {
        "Summary": "Pump failure",
        "Notes": ["line one", "line two"]
    }
}
`,
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			require.NoError(t, render(buf, tt.Format, loaded()))
			assert.Equal(t, tt.Expected, buf.String())
		})
	}
}

func Test_U_RenderJSONKeepsHTMLCharacters(t *testing.T) {
	t.Parallel()

	sections := scenario.Sections{}
	sections.Set("Summary", scenario.Scalar("P < 3 & T > 80"))
	sections.Set("Notes", scenario.Sequence("<valve>"))

	buf := &bytes.Buffer{}
	require.NoError(t, render(buf, formatJSON, &repository.Loaded{
		Scenario: &scenario.Scenario{ID: 7, Sections: sections},
		Revision: "abc",
	}))
	assert.Contains(t, buf.String(), `"Summary": "P < 3 & T > 80",`)
	assert.Contains(t, buf.String(), `"Notes": ["<valve>"]`)
}

func Test_U_ParseSections(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Raw       []string
		Expected  []scenario.Field
		ExpectErr bool
	}{
		"ordered": {
			Raw: []string{"B=2", "A=x=y"},
			Expected: []scenario.Field{
				{Name: "B", Value: "2"},
				{Name: "A", Value: "x=y"},
			},
		},
		"empty-value": {
			Raw:      []string{"A="},
			Expected: []scenario.Field{{Name: "A", Value: ""}},
		},
		"no-equal": {
			Raw:       []string{"A"},
			ExpectErr: true,
		},
		"reserved": {
			Raw:       []string{"_revision=x"},
			ExpectErr: true,
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			fields, err := parseSections(tt.Raw)
			if tt.ExpectErr {
				var verr *errs.ErrValidationFailed
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.Expected, fields)
		})
	}
}

func Test_U_ReadSectionsFile(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Content   string
		Expected  []scenario.Field
		ExpectErr bool
	}{
		"ordered": {
			Content: "Zeta: z\nAlpha: |\n  first\n  second\nNotes:\n  - one\n  - two\n",
			Expected: []scenario.Field{
				{Name: "Zeta", Value: "z"},
				{Name: "Alpha", Value: "first\nsecond\n"},
				{Name: "Notes", Value: "one\ntwo"},
			},
		},
		"not-a-mapping": {
			Content:   "- a\n- b\n",
			ExpectErr: true,
		},
		"nested": {
			Content:   "A:\n  b: c\n",
			ExpectErr: true,
		},
		"empty": {
			Content:   "",
			ExpectErr: true,
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			fields, err := readSectionsFile([]byte(tt.Content))
			if tt.ExpectErr {
				var verr *errs.ErrValidationFailed
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.Expected, fields)
		})
	}
}
