// Package review turns a reviewer handler's raw reply into a fully populated
// Result, recovering malformed or fenced JSON and deriving the health fields
// from the comments and findings.
package review

import (
	"errors"
	"time"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type MergeReadiness string

const (
	MergeReady     MergeReadiness = "ready"
	MergeNeedsWork MergeReadiness = "needs-work"
	MergeBlocked   MergeReadiness = "blocked"
)

type Verdict string

const (
	VerdictApprove        Verdict = "approve"
	VerdictComment        Verdict = "comment"
	VerdictRequestChanges Verdict = "request_changes"
)

// Stage names the recovery step that produced a Result.
type Stage string

const (
	StageStrict   Stage = "strict"
	StageRepaired Stage = "repaired"
	StageFenced   Stage = "fenced"
)

const (
	DefaultConfidence = 0.8
	DefaultReviewMode = "standard"
)

type Health struct {
	QualityScore   float64        `json:"quality_score"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	MergeReadiness MergeReadiness `json:"merge_readiness"`
	Confidence     float64        `json:"confidence"`
	Verdict        Verdict        `json:"verdict"`
}

type DiffAwareness struct {
	FilesChanged int      `json:"files_changed"`
	LinesAdded   int      `json:"lines_added"`
	LinesRemoved int      `json:"lines_removed"`
	RiskyFiles   []string `json:"risky_files"`
	Summary      string   `json:"summary"`
}

func (d DiffAwareness) empty() bool {
	return d.FilesChanged == 0 && d.LinesAdded == 0 && d.LinesRemoved == 0
}

type Comment struct {
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

type Finding struct {
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Description string   `json:"description"`
	CWE         string   `json:"cwe,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
}

// Result is a normalized review. Every field is populated: slices are empty
// rather than nil and scalar fields carry their defaults.
type Result struct {
	Health           Health        `json:"health"`
	DiffAwareness    DiffAwareness `json:"diff_awareness"`
	Comments         []Comment     `json:"comments"`
	SecurityFindings []Finding     `json:"security_findings"`
	Summary          string        `json:"summary"`
	ReviewMode       string        `json:"review_mode"`
	Timestamp        time.Time     `json:"timestamp"`
	RecoveredBy      Stage         `json:"recovered_by"`
}

// ErrUnparseable is wrapped by every ParseError.
var ErrUnparseable = errors.New("could not parse review result")

// ParseError reports that none of the recovery stages produced a payload.
// Raw holds the handler's text for manual inspection.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return ErrUnparseable.Error()
}

func (e *ParseError) Unwrap() error {
	return ErrUnparseable
}
