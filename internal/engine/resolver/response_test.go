package resolver

import (
	"testing"

	"autosg/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_FencedBlock(t *testing.T) {
	res, err := ParseResponse("```json\n{\"definitions\":[[1,0]],\"external\":[2],\"errors\":[]}\n```")
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 0}}, res.Definitions)
	assert.Equal(t, []int{2}, res.External)
	assert.Empty(t, res.Errors)
	assert.JSONEq(t, `{"definitions":[[1,0]],"external":[2],"errors":[]}`, string(res.Raw))
}

func TestParseResponse_UnfencedFallback(t *testing.T) {
	res, err := ParseResponse(`{"definitions":[[1,0]],"external":[2],"errors":[]}`)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 0}}, res.Definitions)
	assert.Equal(t, []int{2}, res.External)
}

func TestParseResponse_Variants(t *testing.T) {
	tests := []struct {
		name string
		text string
		defs [][2]int
		errs []ResolveError
	}{
		{
			name: "untagged fence with prose",
			text: "Here you go:\n```\n{\"definitions\":[[3,1],[3,2]],\"external\":[],\"errors\":[]}\n```\nDone.",
			defs: [][2]int{{3, 1}, {3, 2}},
		},
		{
			name: "object surrounded by prose",
			text: "Sure! {\"definitions\":[[5,4]],\"external\":[],\"errors\":[{\"id\":6,\"reason\":\"uses {braces}\"}]} Hope that helps {really}.",
			defs: [][2]int{{5, 4}},
			errs: []ResolveError{{ID: 6, Reason: "uses {braces}"}},
		},
		{
			name: "non-json brace before the object",
			text: "Note {not json}\n{\"definitions\":[],\"external\":[1],\"errors\":[]}",
			defs: [][2]int{},
		},
		{
			name: "missing fields default to empty",
			text: `{"definitions":[[2,1]]}`,
			defs: [][2]int{{2, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseResponse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.defs, res.Definitions)
			if tt.errs != nil {
				assert.Equal(t, tt.errs, res.Errors)
			}
			assert.NotNil(t, res.External)
			assert.NotNil(t, res.Errors)
		})
	}
}

func TestParseResponse_Failures(t *testing.T) {
	for name, text := range map[string]string{
		"empty":             "",
		"no json":           "I cannot help with that.",
		"bad fenced json":   "```json\n{definitions: nope}\n```",
		"array not object":  "```json\n[1,2]\n```",
		"unbalanced":        `{"definitions":[[1,0]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(text)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeResponseParse), "got %v", err)
		})
	}
}

func TestParseResponse_LooseIDs(t *testing.T) {
	res, err := ParseResponse(`{"definitions":[["1","0"],[3.0,2],["x",1],[4]],"external":[2.0,"5"],"errors":[{"id":"7","reason":"ambiguous"}]}`)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 0}, {3, 2}}, res.Definitions)
	assert.Equal(t, []int{2, 5}, res.External)
	assert.Equal(t, []ResolveError{{ID: 7, Reason: "ambiguous"}}, res.Errors)
}

func TestParseResponse_AnyObjectIsKept(t *testing.T) {
	text := `{"definitions":"none","notes":{"model":"thinks"}}`
	res, err := ParseResponse(text)
	require.NoError(t, err)
	assert.Empty(t, res.Definitions)
	assert.Empty(t, res.External)
	assert.JSONEq(t, text, string(res.Raw))

	out, err := res.Indented()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"notes"`)
}

func TestResult_Indented(t *testing.T) {
	res, err := ParseResponse(`{"definitions":[[1,0]],"external":[],"errors":[]}`)
	require.NoError(t, err)
	out, err := res.Indented()
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"definitions\": [")
}
