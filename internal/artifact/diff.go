package artifact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// DefaultDiffFilename names a diff whose file headers are missing.
const DefaultDiffFilename = "changes.diff"

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// ParseDiff reads the first unified diff in text.
//
// Source: the bodies of ```diff or ```patch fences when the text has any,
// otherwise the whole text. Each line is classified by its first characters:
// "@@" starts a hunk, "+" is an added line and "-" a removed one (except the
// "+++" and "---" file headers), anything else is context. Line numbers come
// from the most recent hunk header. The filename comes from the file headers
// when they parse, otherwise it is "changes.diff".
//
// It returns nil when the source has no added or removed lines.
func ParseDiff(text string) *Diff {
	source := diffSource(text)

	d := &Diff{}
	var (
		oldLine, newLine int
		inHunk           bool
	)
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "@@"):
			d.Lines = append(d.Lines, DiffLine{Kind: LineHunk, Content: line})
			d.Stats.Hunks++
			if m := hunkHeader.FindStringSubmatch(line); m != nil {
				oldLine, _ = strconv.Atoi(m[1])
				newLine, _ = strconv.Atoi(m[2])
				inHunk = true
			} else {
				inHunk = false
			}
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			d.Lines = append(d.Lines, DiffLine{Kind: LineContext, Content: line})
		case strings.HasPrefix(line, "+"):
			dl := DiffLine{Kind: LineAdded, Content: line[1:]}
			if inHunk {
				dl.LineNumber = lineNumber(newLine)
				newLine++
			}
			d.Lines = append(d.Lines, dl)
			d.Stats.Additions++
		case strings.HasPrefix(line, "-"):
			dl := DiffLine{Kind: LineRemoved, Content: line[1:]}
			if inHunk {
				dl.LineNumber = lineNumber(oldLine)
				oldLine++
			}
			d.Lines = append(d.Lines, dl)
			d.Stats.Deletions++
		default:
			dl := DiffLine{Kind: LineContext, Content: line}
			if inHunk && strings.HasPrefix(line, " ") {
				dl.Content = line[1:]
				dl.LineNumber = lineNumber(newLine)
				oldLine++
				newLine++
			}
			d.Lines = append(d.Lines, dl)
		}
	}

	if d.Stats.Additions == 0 && d.Stats.Deletions == 0 {
		return nil
	}

	d.Filename = DefaultDiffFilename
	d.Stats.Files = 1
	if files, err := SummarizeDiff(source); err == nil && len(files) > 0 {
		d.Filename = files[0].Name
		d.Stats.Files = len(files)
	}
	d.Title = fmt.Sprintf("Changes to %s", d.Filename)
	return d
}

func lineNumber(n int) *int {
	return &n
}

// diffSource joins the bodies of diff and patch fences, or returns text
// unchanged when there are none.
func diffSource(text string) string {
	var parts []string
	for _, f := range scanFences(text) {
		lang, _, _ := strings.Cut(strings.TrimSpace(f.Info), " ")
		switch strings.ToLower(lang) {
		case "diff", "patch":
			parts = append(parts, f.Body)
		}
	}
	if len(parts) == 0 {
		return text
	}
	return strings.Join(parts, "\n")
}

// FileChange summarizes one file of a unified diff.
type FileChange struct {
	Name      string
	IsNew     bool
	IsDeleted bool
	Additions int
	Deletions int
}

// SummarizeDiff parses a unified diff with git-style file headers and returns
// per-file line counts. Text without file headers yields no files.
func SummarizeDiff(raw string) ([]FileChange, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	out := make([]FileChange, 0, len(parsed))
	for _, f := range parsed {
		fc := FileChange{
			Name:      f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
		}
		if fc.Name == "" || f.IsDelete {
			fc.Name = f.OldName
		}
		for _, frag := range f.TextFragments {
			for _, l := range frag.Lines {
				switch l.Op {
				case gitdiff.OpAdd:
					fc.Additions++
				case gitdiff.OpDelete:
					fc.Deletions++
				}
			}
		}
		if fc.Name == "" {
			continue
		}
		out = append(out, fc)
	}
	return out, nil
}
