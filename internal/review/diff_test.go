package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewedDiff = `diff --git a/api.go b/api.go
--- a/api.go
+++ b/api.go
@@ -1,2 +1,3 @@
 package api
-func A() {}
+func A() error { return nil }
+func B() {}
diff --git a/db.go b/db.go
--- a/db.go
+++ b/db.go
@@ -1 +1 @@
-var x = 1
+var x = 2
`

func TestWithDiff_FillsMissingCounts(t *testing.T) {
	res, err := Normalize(`{"comments":[{"file":"db.go","severity":"error"},{"file":"api.go","severity":"info"}]}`)
	require.NoError(t, err)

	WithDiff(res, reviewedDiff)

	assert.Equal(t, 2, res.DiffAwareness.FilesChanged)
	assert.Equal(t, 3, res.DiffAwareness.LinesAdded)
	assert.Equal(t, 2, res.DiffAwareness.LinesRemoved)
	assert.Equal(t, []string{"db.go"}, res.DiffAwareness.RiskyFiles)
}

func TestWithDiff_KeepsHandlerCounts(t *testing.T) {
	res, err := Normalize(`{"diff_awareness":{"files_changed":9,"lines_added":1,"risky_files":["x.go"]}}`)
	require.NoError(t, err)

	WithDiff(res, reviewedDiff)

	assert.Equal(t, 9, res.DiffAwareness.FilesChanged)
	assert.Equal(t, 1, res.DiffAwareness.LinesAdded)
	assert.Equal(t, []string{"x.go"}, res.DiffAwareness.RiskyFiles)
}

func TestWithDiff_HeaderlessDiff(t *testing.T) {
	res, err := Normalize(`{}`)
	require.NoError(t, err)

	WithDiff(res, "@@ -1 +1,2 @@\n-a\n+b\n+c\n")

	assert.Equal(t, 1, res.DiffAwareness.FilesChanged)
	assert.Equal(t, 2, res.DiffAwareness.LinesAdded)
	assert.Equal(t, 1, res.DiffAwareness.LinesRemoved)
	assert.Empty(t, res.DiffAwareness.RiskyFiles)
}

func TestWithDiff_Nil(t *testing.T) {
	assert.Nil(t, WithDiff(nil, reviewedDiff))
}
