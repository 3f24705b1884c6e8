// Package artifact turns a finalized handler response into typed artifacts:
// code, documents, tables and diffs.
package artifact

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags the variant an Artifact carries.
type Kind string

const (
	KindCode     Kind = "code"
	KindDocument Kind = "document"
	KindTable    Kind = "table"
	KindDiff     Kind = "diff"
)

// Artifact is one typed unit of generated output. Exactly one of the variant
// pointers matching Kind is set. Artifacts are not modified after creation.
type Artifact struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	Code     *Code     `json:"code,omitempty"`
	Document *Document `json:"document,omitempty"`
	Table    *Table    `json:"table,omitempty"`
	Diff     *Diff     `json:"diff,omitempty"`
}

// Data returns the variant payload.
func (a Artifact) Data() any {
	switch a.Kind {
	case KindCode:
		return a.Code
	case KindDocument:
		return a.Document
	case KindTable:
		return a.Table
	case KindDiff:
		return a.Diff
	}
	return nil
}

// Code is a source snippet.
type Code struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

// Document is a titled list of sections.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Table is a header plus rows keyed by column name.
type Table struct {
	Title   string              `json:"title"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// LineKind classifies one line of a diff.
type LineKind string

const (
	LineAdded   LineKind = "added"
	LineRemoved LineKind = "removed"
	LineContext LineKind = "context"
	LineHunk    LineKind = "hunk"
)

// DiffLine is one line of a diff. LineNumber is the new-file line for added
// and context lines and the old-file line for removed lines; it is nil for
// hunk headers and for lines seen before the first hunk.
type DiffLine struct {
	Kind       LineKind `json:"kind"`
	Content    string   `json:"content"`
	LineNumber *int     `json:"line_number,omitempty"`
}

type DiffStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Hunks     int `json:"hunks"`
	Files     int `json:"files"`
}

// Diff is a parsed unified diff.
type Diff struct {
	Title    string     `json:"title"`
	Filename string     `json:"filename"`
	Lines    []DiffLine `json:"lines"`
	Stats    DiffStats  `json:"stats"`
}

// CountChanges recomputes additions and deletions from Lines.
func (d *Diff) CountChanges() (additions, deletions int) {
	for _, l := range d.Lines {
		switch l.Kind {
		case LineAdded:
			additions++
		case LineRemoved:
			deletions++
		}
	}
	return additions, deletions
}

// CodeLength is the total number of characters across the code artifacts in
// arts.
func CodeLength(arts []Artifact) int {
	n := 0
	for _, a := range arts {
		if a.Kind == KindCode && a.Code != nil {
			n += len([]rune(a.Code.Code))
		}
	}
	return n
}

// Languages returns the distinct languages of the code artifacts in arts, in
// first-seen order.
func Languages(arts []Artifact) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range arts {
		if a.Kind != KindCode || a.Code == nil || seen[a.Code.Language] {
			continue
		}
		seen[a.Code.Language] = true
		out = append(out, a.Code.Language)
	}
	return out
}
