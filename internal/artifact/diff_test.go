package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gitDiff = `diff --git a/main.go b/main.go
index 83db48f..bf269f4 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,5 @@
 package main
-import "fmt"
+import (
+	"fmt"
+)
 func main() {}
`

func TestParseDiff_GitDiff(t *testing.T) {
	d := ParseDiff(gitDiff)
	require.NotNil(t, d)

	assert.Equal(t, "main.go", d.Filename)
	assert.Equal(t, "Changes to main.go", d.Title)
	assert.Equal(t, DiffStats{Additions: 3, Deletions: 1, Hunks: 1, Files: 1}, d.Stats)

	var added, removed []int
	for _, l := range d.Lines {
		switch l.Kind {
		case LineAdded:
			require.NotNil(t, l.LineNumber)
			added = append(added, *l.LineNumber)
		case LineRemoved:
			require.NotNil(t, l.LineNumber)
			removed = append(removed, *l.LineNumber)
		}
	}
	assert.Equal(t, []int{2, 3, 4}, added)
	assert.Equal(t, []int{2}, removed)
}

func TestParseDiff_FileHeadersAreContext(t *testing.T) {
	d := ParseDiff(gitDiff)
	require.NotNil(t, d)

	for _, l := range d.Lines {
		if l.Content == "--- a/main.go" || l.Content == "+++ b/main.go" {
			assert.Equal(t, LineContext, l.Kind)
			assert.Nil(t, l.LineNumber)
		}
	}
}

func TestParseDiff_StatsMatchLines(t *testing.T) {
	inputs := []string{
		gitDiff,
		"@@ -10,2 +10,2 @@\n-old\n+new\n context\n",
		"Review notes\n```diff\n+added one\n+added two\n-removed\n```\nThanks",
	}
	for _, in := range inputs {
		d := ParseDiff(in)
		require.NotNil(t, d, in)
		add, del := d.CountChanges()
		assert.Equal(t, d.Stats.Additions, add)
		assert.Equal(t, d.Stats.Deletions, del)
	}
}

func TestParseDiff_FencedSourceOnly(t *testing.T) {
	text := "- this bullet is prose\n```patch\n@@ -1 +1 @@\n-a\n+b\n```\n- another bullet"
	d := ParseDiff(text)
	require.NotNil(t, d)

	assert.Equal(t, 1, d.Stats.Additions)
	assert.Equal(t, 1, d.Stats.Deletions)
	assert.Equal(t, DefaultDiffFilename, d.Filename)
	assert.Equal(t, 1, d.Stats.Files)
}

func TestParseDiff_HeaderlessHunkNumbers(t *testing.T) {
	d := ParseDiff("@@ -10,2 +20,2 @@\n-old\n+new\n same\n")
	require.NotNil(t, d)

	require.Len(t, d.Lines, 5)
	assert.Equal(t, LineHunk, d.Lines[0].Kind)
	assert.Nil(t, d.Lines[0].LineNumber)
	assert.Equal(t, 10, *d.Lines[1].LineNumber)
	assert.Equal(t, 20, *d.Lines[2].LineNumber)
	assert.Equal(t, "same", d.Lines[3].Content)
	assert.Equal(t, 21, *d.Lines[3].LineNumber)
	assert.Equal(t, LineContext, d.Lines[4].Kind)
}

func TestParseDiff_NoChanges(t *testing.T) {
	assert.Nil(t, ParseDiff("Looks good to me, nothing to change."))
	assert.Nil(t, ParseDiff("--- a/x\n+++ b/x\n"))
}

func TestSummarizeDiff(t *testing.T) {
	files, err := SummarizeDiff(gitDiff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, FileChange{Name: "main.go", Additions: 3, Deletions: 1}, files[0])

	files, err = SummarizeDiff("no diff here")
	require.NoError(t, err)
	assert.Empty(t, files)
}
