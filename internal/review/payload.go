package review

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// number accepts a JSON number or a numeric string.
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// A non-numeric string leaves the field unset.
			return nil
		}
		n.setFinite(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		// Booleans, objects and arrays leave the field unset too.
		return nil
	}
	n.setFinite(v)
	return nil
}

// setFinite records v unless it is NaN or an infinity, which ParseFloat
// accepts in string form.
func (n *number) setFinite(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	n.value, n.set = v, true
}

func (n number) int() int {
	return int(n.value)
}

// text accepts any JSON scalar. Numbers and booleans keep their literal
// form; objects and arrays decode to the empty string.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = text(s)
	case b[0] == '{' || b[0] == '[':
	default:
		*t = text(b)
	}
	return nil
}

func (t text) trimmed() string {
	return strings.TrimSpace(string(t))
}

// objects decodes an array of JSON objects, skipping elements of any other
// shape. A value that is not an array decodes to an empty list.
type objects[T any] []T

func (o *objects[T]) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) == 0 || r[0] != '{' {
			continue
		}
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*o = out
	return nil
}

// object decodes a JSON object into v and ignores any other shape.
type object[T any] struct {
	v   T
	set bool
}

func (o *object[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(b, &o.v); err != nil {
		return nil
	}
	o.set = true
	return nil
}

// stringList accepts either a single string or an array of scalars. Blank
// entries are dropped.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var items []text
	if b[0] == '[' {
		if err := json.Unmarshal(b, &items); err != nil {
			return nil
		}
	} else {
		var one text
		if err := json.Unmarshal(b, &one); err != nil {
			return nil
		}
		items = []text{one}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := it.trimmed(); s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

type healthPayload struct {
	QualityScore      number `json:"quality_score"`
	QualityScoreCamel number `json:"qualityScore"`
	Confidence        number `json:"confidence"`
}

func (h healthPayload) qualityScore() number {
	if h.QualityScore.set {
		return h.QualityScore
	}
	return h.QualityScoreCamel
}

type commentPayload struct {
	File       text   `json:"file"`
	Line       number `json:"line"`
	Severity   text   `json:"severity"`
	Category   text   `json:"category"`
	Message    text   `json:"message"`
	Body       text   `json:"body"`
	Suggestion text   `json:"suggestion"`
}

type findingPayload struct {
	Title       text   `json:"title"`
	Severity    text   `json:"severity"`
	File        text   `json:"file"`
	Line        number `json:"line"`
	Description text   `json:"description"`
	CWE         text   `json:"cwe"`
	Remediation text   `json:"remediation"`
}

type diffPayload struct {
	FilesChanged number     `json:"files_changed"`
	LinesAdded   number     `json:"lines_added"`
	LinesRemoved number     `json:"lines_removed"`
	RiskyFiles   stringList `json:"risky_files"`
	Summary      text       `json:"summary"`
}

// payload enumerates every field a reviewer reply may carry. All are
// optional, and a field of the wrong shape decodes to its zero value
// instead of failing the whole reply.
type payload struct {
	healthPayload
	Health object[healthPayload] `json:"health"`

	Summary          text                    `json:"summary"`
	ReviewMode       text                    `json:"review_mode"`
	ReviewModeCamel  text                    `json:"reviewMode"`
	Comments         objects[commentPayload] `json:"comments"`
	SecurityFindings objects[findingPayload] `json:"security_findings"`
	FindingsCamel    objects[findingPayload] `json:"securityFindings"`
	DiffAwareness    object[diffPayload]     `json:"diff_awareness"`
}

// decodePayload parses s as a JSON object. Only a syntax error or a
// non-object top level fails it.
func decodePayload(s string) (*payload, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, errors.New("review payload is not a JSON object")
	}
	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("decoding review payload: %w", err)
	}
	return &p, nil
}

func (p *payload) qualityScore() number {
	if q := p.healthPayload.qualityScore(); q.set {
		return q
	}
	if p.Health.set {
		return p.Health.v.qualityScore()
	}
	return number{}
}

func (p *payload) confidence() number {
	if p.Confidence.set {
		return p.Confidence
	}
	if p.Health.set {
		return p.Health.v.Confidence
	}
	return number{}
}

func (p *payload) reviewMode() string {
	if m := p.ReviewMode.trimmed(); m != "" {
		return m
	}
	return p.ReviewModeCamel.trimmed()
}

func (p *payload) findings() []findingPayload {
	if len(p.SecurityFindings) > 0 {
		return p.SecurityFindings
	}
	return p.FindingsCamel
}
