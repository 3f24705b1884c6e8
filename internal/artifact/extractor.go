package artifact

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
)

const responseTitle = "Response"

// Extractor runs the structural parsers over a finalized response. The zero
// value is not usable; use NewExtractor.
type Extractor struct {
	newID func() uuid.UUID
	now   func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithIDGenerator overrides how artifact ids are produced.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(e *Extractor) { e.newID = fn }
}

// WithClock overrides the creation timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(e *Extractor) { e.now = fn }
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{newID: uuid.New, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// Extract runs the package's default Extractor.
func Extract(text string, c intent.Category) []Artifact {
	return defaultExtractor.Extract(text, c)
}

// Extract returns the artifacts found in text, trying the parsers in a fixed
// priority:
//
//  1. fenced code blocks (any category; unfenced code for code, refactor and debug)
//  2. document sections, for documentation when no code was found
//  3. a unified diff, for review
//  4. a pipe table, for architecture and analysis
//
// When none of them produce anything the whole text becomes a "Response"
// document. Blank text yields no artifacts.
func (e *Extractor) Extract(text string, c intent.Category) []Artifact {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []Artifact
	for _, code := range ParseCodeBlocks(text, c) {
		code := code
		out = append(out, e.artifact(KindCode, func(a *Artifact) { a.Code = &code }))
	}

	if c == intent.Documentation && len(out) == 0 {
		doc := ParseDocument(text)
		out = append(out, e.artifact(KindDocument, func(a *Artifact) { a.Document = &doc }))
	}

	if c == intent.Review {
		if d := ParseDiff(text); d != nil {
			out = append(out, e.artifact(KindDiff, func(a *Artifact) { a.Diff = d }))
		}
	}

	if c == intent.Architecture || c == intent.Analysis {
		if t := ParseTable(text); t != nil {
			out = append(out, e.artifact(KindTable, func(a *Artifact) { a.Table = t }))
		}
	}

	if len(out) == 0 {
		out = append(out, e.artifact(KindDocument, func(a *Artifact) {
			a.Document = &Document{
				Title:    responseTitle,
				Sections: []Section{{Title: responseTitle, Content: text}},
			}
		}))
	}
	return out
}

func (e *Extractor) artifact(kind Kind, set func(*Artifact)) Artifact {
	a := Artifact{ID: e.newID(), Kind: kind, CreatedAt: e.now()}
	set(&a)
	return a
}
