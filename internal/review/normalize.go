package review

import (
	"regexp"
	"time"
)

// jsonFence captures the body of the first ```json fence. A fence that is
// never closed runs to the end of the text.
var jsonFence = regexp.MustCompile("(?is)```[ \t]*json[^\n]*\n(.*?)(?:```|$)")

// Normalize parses a reviewer reply into a Result. It tries, in order, a
// strict parse of the whole text, a parse of the repaired text, and the
// contents of the first ```json fence (strict, then repaired). When every
// stage fails it returns a *ParseError wrapping ErrUnparseable.
func Normalize(raw string) (*Result, error) {
	return normalizeAt(raw, time.Now())
}

func normalizeAt(raw string, now time.Time) (*Result, error) {
	p, stage := recoverPayload(raw)
	if p == nil {
		return nil, &ParseError{Raw: raw}
	}
	res := build(p, now)
	res.RecoveredBy = stage
	return res, nil
}

func recoverPayload(raw string) (*payload, Stage) {
	if p, err := decodePayload(raw); err == nil {
		return p, StageStrict
	}
	if p := decodeRepaired(raw); p != nil {
		return p, StageRepaired
	}
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		if p, err := decodePayload(m[1]); err == nil {
			return p, StageFenced
		}
		if p := decodeRepaired(m[1]); p != nil {
			return p, StageFenced
		}
	}
	return nil, ""
}

func decodeRepaired(s string) *payload {
	repaired, ok := Repair(s)
	if !ok {
		return nil
	}
	p, err := decodePayload(repaired)
	if err != nil {
		return nil
	}
	return p
}

func build(p *payload, now time.Time) *Result {
	findings := p.findings()
	res := &Result{
		Comments:         make([]Comment, 0, len(p.Comments)),
		SecurityFindings: make([]Finding, 0, len(findings)),
		Summary:          p.Summary.trimmed(),
		ReviewMode:       p.reviewMode(),
		Timestamp:        now,
		DiffAwareness:    DiffAwareness{RiskyFiles: []string{}},
	}
	if res.ReviewMode == "" {
		res.ReviewMode = DefaultReviewMode
	}

	for _, c := range p.Comments {
		msg := c.Message.trimmed()
		if msg == "" {
			msg = c.Body.trimmed()
		}
		res.Comments = append(res.Comments, Comment{
			File:       string(c.File),
			Line:       c.Line.int(),
			Severity:   NormalizeSeverity(string(c.Severity)),
			Category:   string(c.Category),
			Message:    msg,
			Suggestion: string(c.Suggestion),
		})
	}
	for _, f := range findings {
		res.SecurityFindings = append(res.SecurityFindings, Finding{
			Title:       string(f.Title),
			Severity:    NormalizeSeverity(string(f.Severity)),
			File:        string(f.File),
			Line:        f.Line.int(),
			Description: string(f.Description),
			CWE:         string(f.CWE),
			Remediation: string(f.Remediation),
		})
	}

	if p.DiffAwareness.set {
		d := p.DiffAwareness.v
		res.DiffAwareness.FilesChanged = d.FilesChanged.int()
		res.DiffAwareness.LinesAdded = d.LinesAdded.int()
		res.DiffAwareness.LinesRemoved = d.LinesRemoved.int()
		res.DiffAwareness.Summary = string(d.Summary)
		if d.RiskyFiles != nil {
			res.DiffAwareness.RiskyFiles = d.RiskyFiles
		}
	}

	res.Health = deriveHealth(res, p.qualityScore(), p.confidence())
	return res
}
