package review

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already_valid", input: `{"a":1}`, expected: `{"a":1}`},
		{name: "unclosed_object", input: `{"a":1`, expected: `{"a":1}`},
		{name: "unclosed_string", input: `{"summary":"Looks go`, expected: `{"summary":"Looks go"}`},
		{name: "nested_unclosed", input: `{"comments":[{"file":"a.go","line":3`, expected: `{"comments":[{"file":"a.go","line":3}]}`},
		{name: "trailing_commas", input: `{"a":[1,2,],"b":3,}`, expected: `{"a":[1,2],"b":3}`},
		{name: "trailing_comma_at_end", input: `{"a":1,`, expected: `{"a":1}`},
		{name: "dangling_colon", input: `{"a":1,"b":`, expected: `{"a":1,"b":null}`},
		{name: "dangling_key", input: `{"a":1,"summ`, expected: `{"a":1,"summ":null}`},
		{name: "cut_literal", input: `{"ok":tr`, expected: `{"ok":true}`},
		{name: "cut_number", input: `{"score":9.`, expected: `{"score":9}`},
		{name: "escape_at_end", input: `{"s":"a\`, expected: `{"s":"a"}`},
		{name: "raw_newline_in_string", input: "{\"s\":\"a\nb\"}", expected: `{"s":"a\nb"}`},
		{name: "array_root", input: `[1,{"a":[`, expected: `[1,{"a":[]}]`},
		{name: "trailing_text_kept", input: `{"a":1} thanks!`, expected: `{"a":1} thanks!`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Repair(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRepair_ProducesValidJSON(t *testing.T) {
	full := `{"quality_score": 72, "summary": "Needs a few fixes", "comments": [{"file": "a.go", "line": 10, "severity": "major", "message": "nil deref"}, {"file": "b.go", "line": 2, "severity": "minor", "message": "naming"}]}`

	// Every prefix that ends outside an escape sequence must repair into
	// valid JSON.
	for i := 1; i <= len(full); i++ {
		got, ok := Repair(full[:i])
		require.True(t, ok)
		assert.True(t, json.Valid([]byte(got)), "prefix %q repaired to invalid %q", full[:i], got)
	}
}

func TestRepair_RejectsNonJSON(t *testing.T) {
	for _, in := range []string{"", "   ", "not json", "```json\n{}\n```", `"just a string"`} {
		_, ok := Repair(in)
		assert.False(t, ok, in)
	}
}

func TestRepair_LargeTruncatedReply(t *testing.T) {
	const n = 20000
	var b strings.Builder
	b.WriteString(`{"summary":"many nits","comments":[`)
	for i := 0; i < n; i++ {
		b.WriteString(`{"file":"pkg/handler.go","line":12,"severity":"minor","message":"rename this variable"},`)
	}
	b.WriteString(`{"file":"pkg/handler.go","mess`)

	start := time.Now()
	res, err := Normalize(b.String())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, StageRepaired, res.RecoveredBy)
	assert.Len(t, res.Comments, n+1)
	assert.Less(t, elapsed, 2*time.Second)
}
