package scenario_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	errs "github.com/ctfer-io/scenario-editor/pkg/errors"
	"github.com/ctfer-io/scenario-editor/pkg/scenario"
)

const collection = `[
	{"ScenarioID": 3, "Title": "first", "Sections": {"Summary": "Problem Description:\n  A summary  "}},
	{"ScenarioID": 7, "Sections": {"Notes": ["line one", "line two"], "Owner": "ops"}, "Tags": ["x"]},
	{"ScenarioID": 7, "Sections": {"Notes": "duplicate"}}
]`

func Test_U_DocumentFind(t *testing.T) {
	t.Parallel()

	doc, err := scenario.ParseDocument([]byte(collection))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Len())

	scn, idx, err := doc.Find(7)
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "first match wins")
	assert.Equal(t, 7, scn.ID)
	assert.Equal(t, []string{"Notes", "Owner"}, scn.Sections.Keys())
	notes, _ := scn.Sections.Get("Notes")
	assert.Equal(t, []string{"line one", "line two"}, notes.Items())

	_, _, err = doc.Find(42)
	var nerr *errs.ErrScenarioNotFound
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, 42, nerr.ID)
}

func Test_U_DocumentFindNumericOnly(t *testing.T) {
	t.Parallel()

	doc, err := scenario.ParseDocument([]byte(`[{"ScenarioID": "5", "Sections": {}}, {"ScenarioID": 5.0, "Sections": {}}]`))
	require.NoError(t, err)

	_, idx, err := doc.Find(5)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func Test_U_DocumentMalformed(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		JSON string
	}{
		"not-json": {
			JSON: `[{"ScenarioID": 1`,
		},
		"not-array": {
			JSON: `{"ScenarioID": 1}`,
		},
	}

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			_, err := scenario.ParseDocument([]byte(tt.JSON))
			var merr *errs.ErrMalformed
			assert.ErrorAs(t, err, &merr)
		})
	}
}

func Test_U_DocumentFindMalformedSections(t *testing.T) {
	t.Parallel()

	doc, err := scenario.ParseDocument([]byte(`[{"ScenarioID": 1, "Sections": {"Bad": 12}}, {"ScenarioID": 2}]`))
	require.NoError(t, err)

	_, _, err = doc.Find(1)
	var merr *errs.ErrMalformed
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "[0].Sections.Bad", merr.Path)

	_, _, err = doc.Find(2)
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "[1].Sections", merr.Path)
}

func Test_U_DocumentSetSections(t *testing.T) {
	t.Parallel()

	doc, err := scenario.ParseDocument([]byte(collection))
	require.NoError(t, err)

	var s scenario.Sections
	s.Set("Notes", scenario.Sequence("line one", "line three"))
	require.NoError(t, doc.SetSections(1, s))
	assert.Error(t, doc.SetSections(3, s))

	out := doc.Bytes()
	res := gjson.ParseBytes(out)

	// Edited record
	assert.Equal(t, `["line one","line three"]`, compact(res.Get("1.Sections.Notes").Raw))
	assert.False(t, res.Get("1.Sections.Owner").Exists())
	// Unknown attributes and other records survive
	assert.Equal(t, "x", res.Get("1.Tags.0").String())
	assert.Equal(t, "first", res.Get("0.Title").String())
	assert.Equal(t, "duplicate", res.Get("2.Sections.Notes").String())

	// Stable indentation, one item per line
	assert.Contains(t, string(out), "\n    {\n        \"ScenarioID\": 3,")
	assert.Contains(t, string(out), "\"Notes\": [\n                \"line one\",\n                \"line three\"\n            ]")

	// Written output is parsed back to the same record
	doc2, err := scenario.ParseDocument(out)
	require.NoError(t, err)
	scn, _, err := doc2.Find(7)
	require.NoError(t, err)
	assert.True(t, s.Equal(scn.Sections))
}

func Test_U_DocumentSetSectionsKeepsHTMLCharacters(t *testing.T) {
	t.Parallel()

	doc, err := scenario.ParseDocument([]byte(collection))
	require.NoError(t, err)

	var s scenario.Sections
	s.Set("Steps & <checks>", scenario.Sequence("open valve <A>", "check P & T"))
	s.Set("Summary", scenario.Scalar("pressure > 3 bar"))
	require.NoError(t, doc.SetSections(1, s))

	out := string(doc.Bytes())
	assert.Contains(t, out, `"Steps & <checks>": [`)
	assert.Contains(t, out, `"open valve <A>",`)
	assert.Contains(t, out, `"Summary": "pressure > 3 bar"`)
	assert.NotContains(t, out, `\u003c`)
	assert.NotContains(t, out, `\u0026`)
}

func compact(raw string) string {
	return string(pretty.Ugly([]byte(raw)))
}
