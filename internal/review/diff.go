package review

import (
	"sort"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/artifact"
)

// WithDiff fills res.DiffAwareness from the unified diff that was reviewed
// when the handler left the counts out. Risky files default to the files
// carrying critical or error comments and findings. res is modified in place
// and returned.
func WithDiff(res *Result, diffText string) *Result {
	if res == nil {
		return nil
	}

	if res.DiffAwareness.empty() && diffText != "" {
		files, err := artifact.SummarizeDiff(diffText)
		if err == nil && len(files) > 0 {
			res.DiffAwareness.FilesChanged = len(files)
			for _, f := range files {
				res.DiffAwareness.LinesAdded += f.Additions
				res.DiffAwareness.LinesRemoved += f.Deletions
			}
		} else if d := artifact.ParseDiff(diffText); d != nil {
			res.DiffAwareness.FilesChanged = d.Stats.Files
			res.DiffAwareness.LinesAdded = d.Stats.Additions
			res.DiffAwareness.LinesRemoved = d.Stats.Deletions
		}
	}

	if len(res.DiffAwareness.RiskyFiles) == 0 {
		res.DiffAwareness.RiskyFiles = riskyFiles(res)
	}
	return res
}

func riskyFiles(res *Result) []string {
	seen := map[string]bool{}
	mark := func(file string, s Severity) {
		if file != "" && (s == SeverityCritical || s == SeverityError) {
			seen[file] = true
		}
	}
	for _, c := range res.Comments {
		mark(c.File, c.Severity)
	}
	for _, f := range res.SecurityFindings {
		mark(f.File, f.Severity)
	}

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
