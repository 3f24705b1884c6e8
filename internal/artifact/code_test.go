package artifact

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
)

func TestParseCodeBlocks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category intent.Category
		expected []Code
	}{
		{
			name:     "single_python_block",
			text:     "Here:\n```python\ndef fib(n): ...\n```",
			category: intent.Code,
			expected: []Code{{Code: "def fib(n): ...", Language: "python"}},
		},
		{
			name:     "language_is_lower_cased",
			text:     "```TypeScript\nconst x = 1\n```",
			category: intent.Code,
			expected: []Code{{Code: "const x = 1", Language: "typescript"}},
		},
		{
			name:     "missing_language_is_plaintext",
			text:     "```\nsome output\n```",
			category: intent.Debug,
			expected: []Code{{Code: "some output", Language: PlainText}},
		},
		{
			name:     "filename_from_info_string",
			text:     "```go main.go\npackage main\n```",
			category: intent.Code,
			expected: []Code{{Code: "package main", Language: "go", Filename: "main.go"}},
		},
		{
			name:     "filename_from_first_line_comment",
			text:     "```python\n# filename: app.py\nprint('hi')\n```",
			category: intent.Code,
			expected: []Code{{Code: "# filename: app.py\nprint('hi')", Language: "python", Filename: "app.py"}},
		},
		{
			name:     "slash_comment_filename",
			text:     "```js\n// file: src/index.js\nexport default 1\n```",
			category: intent.Code,
			expected: []Code{{Code: "// file: src/index.js\nexport default 1", Language: "js", Filename: "src/index.js"}},
		},
		{
			name:     "blocks_in_source_order",
			text:     "First\n```go\na()\n```\nthen\n```sql\nSELECT 1;\n```\n",
			category: intent.Analysis,
			expected: []Code{{Code: "a()", Language: "go"}, {Code: "SELECT 1;", Language: "sql"}},
		},
		{
			name:     "longer_fence_wraps_inner_fence",
			text:     "````markdown\n```go\nx\n```\n````",
			category: intent.Documentation,
			expected: []Code{{Code: "```go\nx\n```", Language: "markdown"}},
		},
		{
			name:     "unterminated_fence_runs_to_end",
			text:     "```rust\nfn main() {}\n",
			category: intent.Code,
			expected: []Code{{Code: "fn main() {}", Language: "rust"}},
		},
		{
			name:     "no_fences_non_code_intent",
			text:     "Just an explanation.",
			category: intent.Documentation,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCodeBlocks(tt.text, tt.category)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("ParseCodeBlocks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCodeBlocks_NBlocksGiveNArtifacts(t *testing.T) {
	langs := []string{"go", "", "python", "bash", ""}
	var b strings.Builder
	for i, lang := range langs {
		fmt.Fprintf(&b, "Step %d:\n```%s\nline %d\n```\n\n", i, lang, i)
	}

	got := ParseCodeBlocks(b.String(), intent.Code)
	require.Len(t, got, len(langs))
	for i, lang := range langs {
		want := lang
		if want == "" {
			want = PlainText
		}
		assert.Equal(t, want, got[i].Language)
		assert.Equal(t, fmt.Sprintf("line %d", i), got[i].Code)
	}
}

func TestParseCodeBlocks_UnfencedFallback(t *testing.T) {
	text := "Sure, here is the function you asked for.\n\ndef add(a, b):\n    return a + b\n"

	for _, c := range []intent.Category{intent.Code, intent.Refactor, intent.Debug} {
		got := ParseCodeBlocks(text, c)
		require.Len(t, got, 1, c)
		assert.Equal(t, "def add(a, b):\n    return a + b", got[0].Code)
		assert.NotEmpty(t, got[0].Language)
	}

	assert.Nil(t, ParseCodeBlocks(text, intent.Review))
	assert.Nil(t, ParseCodeBlocks("   \n", intent.Code))
}

func TestParseCodeBlocks_UnfencedWithoutCodeTokenKeepsWholeText(t *testing.T) {
	got := ParseCodeBlocks("  x = compute(y)\nprint(x)  ", intent.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "x = compute(y)\nprint(x)", got[0].Code)
}

func TestGuessLanguage(t *testing.T) {
	assert.Equal(t, PlainText, guessLanguage(""))

	goSrc := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}"
	got := ParseCodeBlocks("Run this:\n"+goSrc, intent.Code)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0].Code, "package main"))
	assert.Equal(t, strings.ToLower(got[0].Language), got[0].Language)
}
