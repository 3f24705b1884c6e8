package review

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_CleanApproval(t *testing.T) {
	res, err := Normalize(`{"quality_score": 95, "comments": [], "security_findings": []}`)
	require.NoError(t, err)

	assert.Equal(t, StageStrict, res.RecoveredBy)
	assert.Equal(t, 95.0, res.Health.QualityScore)
	assert.Equal(t, RiskLow, res.Health.RiskLevel)
	assert.Equal(t, MergeReady, res.Health.MergeReadiness)
	assert.Equal(t, VerdictApprove, res.Health.Verdict)
	assert.Equal(t, DefaultConfidence, res.Health.Confidence)
	assert.Equal(t, DefaultReviewMode, res.ReviewMode)
	assert.NotNil(t, res.Comments)
	assert.NotNil(t, res.SecurityFindings)
	assert.NotNil(t, res.DiffAwareness.RiskyFiles)
	assert.False(t, res.Timestamp.IsZero())
}

func TestNormalize_NotJSON(t *testing.T) {
	res, err := Normalize("not json at all")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnparseable))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "not json at all", pe.Raw)
}

func TestNormalize_RecoveryStages(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		stage Stage
	}{
		{name: "strict", raw: `{"summary": "fine"}`, stage: StageStrict},
		{name: "strict_with_whitespace", raw: "\n  {\"summary\": \"fine\"}\n", stage: StageStrict},
		{name: "truncated", raw: `{"summary": "fine", "comments": [{"severity": "minor", "message": "nit"`, stage: StageRepaired},
		{name: "trailing_comma", raw: `{"summary": "fine",}`, stage: StageRepaired},
		{name: "fenced", raw: "Here is my review:\n```json\n{\"summary\": \"fine\"}\n```\nThanks!", stage: StageFenced},
		{name: "fenced_upper_case_tag", raw: "```JSON\n{\"summary\": \"fine\"}\n```", stage: StageFenced},
		{name: "fenced_and_truncated", raw: "Review:\n```json\n{\"summary\": \"fine\", \"comments\": [", stage: StageFenced},
		{name: "object_then_prose_in_fence", raw: "```json\n{\"summary\": \"fine\"}\n```\n{\"summary\": \"other\"}", stage: StageFenced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.stage, res.RecoveredBy)
			assert.Equal(t, "fine", res.Summary)
		})
	}
}

func TestNormalize_Unrecoverable(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json at all",
		`{"summary": "fine"} and then some prose`,
		"```json\nnot json either\n```",
		`["an", "array"]`,
	} {
		res, err := Normalize(raw)
		assert.Nil(t, res, raw)
		assert.ErrorIs(t, err, ErrUnparseable, raw)
	}
}

func TestNormalize_Derivations(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		risk    RiskLevel
		merge   MergeReadiness
		verdict Verdict
		score   float64
	}{
		{
			name:    "critical_comment",
			raw:     `{"comments":[{"severity":"blocker","message":"drops data"}]}`,
			risk:    RiskCritical,
			merge:   MergeBlocked,
			verdict: VerdictRequestChanges,
			score:   75,
		},
		{
			name:    "critical_finding",
			raw:     `{"security_findings":[{"title":"SQLi","severity":"CRITICAL"}]}`,
			risk:    RiskCritical,
			merge:   MergeBlocked,
			verdict: VerdictRequestChanges,
			score:   75,
		},
		{
			name:    "three_error_comments",
			raw:     `{"comments":[{"severity":"error"},{"severity":"high"},{"severity":"major"}]}`,
			risk:    RiskHigh,
			merge:   MergeNeedsWork,
			verdict: VerdictRequestChanges,
			score:   70,
		},
		{
			name:    "one_error",
			raw:     `{"comments":[{"severity":"error"},{"severity":"warning"}]}`,
			risk:    RiskMedium,
			merge:   MergeNeedsWork,
			verdict: VerdictApprove,
			score:   87,
		},
		{
			name:    "error_finding_only",
			raw:     `{"security_findings":[{"severity":"high"}]}`,
			risk:    RiskMedium,
			merge:   MergeNeedsWork,
			verdict: VerdictApprove,
			score:   90,
		},
		{
			name:    "many_minor_comments",
			raw:     `{"comments":[{},{},{},{},{},{"severity":"minor"}]}`,
			risk:    RiskMedium,
			merge:   MergeReady,
			verdict: VerdictApprove,
			score:   97,
		},
		{
			name:    "summary_requests_changes",
			raw:     `{"summary":"Please Request Changes before merge"}`,
			risk:    RiskLow,
			merge:   MergeReady,
			verdict: VerdictRequestChanges,
			score:   100,
		},
		{
			name:    "summary_comment",
			raw:     `{"summary":"A few comments inline"}`,
			risk:    RiskLow,
			merge:   MergeReady,
			verdict: VerdictComment,
			score:   100,
		},
		{
			name:    "score_floor",
			raw:     `{"comments":[{"severity":"critical"},{"severity":"critical"},{"severity":"critical"},{"severity":"critical"},{"severity":"critical"}]}`,
			risk:    RiskCritical,
			merge:   MergeBlocked,
			verdict: VerdictRequestChanges,
			score:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.risk, res.Health.RiskLevel)
			assert.Equal(t, tt.merge, res.Health.MergeReadiness)
			assert.Equal(t, tt.verdict, res.Health.Verdict)
			assert.Equal(t, tt.score, res.Health.QualityScore)
		})
	}
}

func TestNormalize_UpstreamHealthFields(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		score      float64
		confidence float64
	}{
		{name: "numeric_string_score", raw: `{"quality_score":"88"}`, score: 88, confidence: DefaultConfidence},
		{name: "camel_case_score", raw: `{"qualityScore":64,"confidence":0.5}`, score: 64, confidence: 0.5},
		{name: "nested_health", raw: `{"health":{"qualityScore":"71.5","confidence":0.9}}`, score: 71.5, confidence: 0.9},
		{name: "clamped_high", raw: `{"quality_score":140,"confidence":3}`, score: 100, confidence: 1},
		{name: "clamped_low", raw: `{"quality_score":-5,"confidence":-1}`, score: 0, confidence: 0},
		{name: "garbage_score_uses_default", raw: `{"quality_score":"great","comments":[{"severity":"warning"}]}`, score: 97, confidence: DefaultConfidence},
		{name: "top_level_wins_over_nested", raw: `{"quality_score":50,"health":{"quality_score":10}}`, score: 50, confidence: DefaultConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.score, res.Health.QualityScore)
			assert.Equal(t, tt.confidence, res.Health.Confidence)
		})
	}
}

func TestNormalize_CommentsAndFindings(t *testing.T) {
	raw := `{
		"summary": "  Mostly fine  ",
		"reviewMode": "security",
		"comments": [
			{"file": "api.go", "line": "42", "severity": "Major", "category": "correctness", "body": "unchecked error", "suggestion": "check err"},
			{"file": "api.go", "line": 7, "severity": "nit", "message": "rename"}
		],
		"securityFindings": [
			{"title": "Hardcoded secret", "severity": "medium", "file": "config.go", "line": 3, "cwe": "CWE-798"}
		],
		"diff_awareness": {"files_changed": 2, "lines_added": 10, "lines_removed": "4", "risky_files": ["api.go"]}
	}`

	res, err := normalizeAt(raw, time.Unix(100, 0))
	require.NoError(t, err)

	assert.Equal(t, "Mostly fine", res.Summary)
	assert.Equal(t, "security", res.ReviewMode)
	assert.Equal(t, time.Unix(100, 0), res.Timestamp)

	require.Len(t, res.Comments, 2)
	assert.Equal(t, Comment{File: "api.go", Line: 42, Severity: SeverityError, Category: "correctness", Message: "unchecked error", Suggestion: "check err"}, res.Comments[0])
	assert.Equal(t, SeverityInfo, res.Comments[1].Severity)
	assert.Equal(t, "rename", res.Comments[1].Message)

	require.Len(t, res.SecurityFindings, 1)
	assert.Equal(t, SeverityWarning, res.SecurityFindings[0].Severity)
	assert.Equal(t, "CWE-798", res.SecurityFindings[0].CWE)

	assert.Equal(t, DiffAwareness{FilesChanged: 2, LinesAdded: 10, LinesRemoved: 4, RiskyFiles: []string{"api.go"}}, res.DiffAwareness)
}

func TestNormalize_WrongTypedFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, res *Result)
	}{
		{
			name: "numeric_summary",
			raw:  `{"quality_score":95,"summary":42}`,
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, "42", res.Summary)
				assert.Equal(t, 95.0, res.Health.QualityScore)
			},
		},
		{
			name: "numeric_severity",
			raw:  `{"comments":[{"file":"a.go","severity":2,"message":"odd"}]}`,
			check: func(t *testing.T, res *Result) {
				require.Len(t, res.Comments, 1)
				assert.Equal(t, SeverityInfo, res.Comments[0].Severity)
				assert.Equal(t, "odd", res.Comments[0].Message)
			},
		},
		{
			name: "string_inside_comments",
			raw:  `{"comments":["looks fine",{"file":"a.go","severity":"critical","message":"rce"},7,null]}`,
			check: func(t *testing.T, res *Result) {
				require.Len(t, res.Comments, 1)
				assert.Equal(t, SeverityCritical, res.Comments[0].Severity)
				assert.Equal(t, MergeBlocked, res.Health.MergeReadiness)
			},
		},
		{
			name: "risky_files_as_string",
			raw:  `{"diff_awareness":{"files_changed":1,"risky_files":"a.go"}}`,
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []string{"a.go"}, res.DiffAwareness.RiskyFiles)
				assert.Equal(t, 1, res.DiffAwareness.FilesChanged)
			},
		},
		{
			name: "risky_files_mixed_array",
			raw:  `{"diff_awareness":{"risky_files":["a.go", 3, "", {"x":1}]}}`,
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, []string{"a.go", "3"}, res.DiffAwareness.RiskyFiles)
			},
		},
		{
			name: "structured_values_in_string_fields",
			raw:  `{"summary":{"text":"nested"},"review_mode":["security"],"security_findings":[{"title":true,"cwe":798}]}`,
			check: func(t *testing.T, res *Result) {
				assert.Empty(t, res.Summary)
				assert.Equal(t, DefaultReviewMode, res.ReviewMode)
				require.Len(t, res.SecurityFindings, 1)
				assert.Equal(t, "true", res.SecurityFindings[0].Title)
				assert.Equal(t, "798", res.SecurityFindings[0].CWE)
			},
		},
		{
			name: "scalar_health_and_diff",
			raw:  `{"health":"good","diff_awareness":[1,2],"comments":{"file":"a.go"}}`,
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, 100.0, res.Health.QualityScore)
				assert.Empty(t, res.Comments)
				assert.NotNil(t, res.Comments)
				assert.NotNil(t, res.DiffAwareness.RiskyFiles)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, StageStrict, res.RecoveredBy)
			tt.check(t, res)
		})
	}
}

func TestNormalize_NonFiniteScores(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "nan_and_infinity", raw: `{"quality_score":"NaN","confidence":"Infinity"}`},
		{name: "negative_inf", raw: `{"qualityScore":"-Inf","confidence":"nan"}`},
		{name: "nested", raw: `{"health":{"quality_score":"+Infinity","confidence":"NaN"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, 100.0, res.Health.QualityScore)
			assert.Equal(t, DefaultConfidence, res.Health.Confidence)

			_, err = json.Marshal(res)
			assert.NoError(t, err)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN(), 0, 100))
	assert.Equal(t, 100.0, clamp(math.Inf(1), 0, 100))
	assert.Equal(t, 0.0, clamp(math.Inf(-1), 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}

func TestNormalizeSeverity(t *testing.T) {
	cases := map[string]Severity{
		"critical": SeverityCritical, "Blocker": SeverityCritical,
		"error": SeverityError, "HIGH": SeverityError, "major": SeverityError,
		"warning": SeverityWarning, "medium": SeverityWarning, " minor ": SeverityWarning,
		"info": SeverityInfo, "low": SeverityInfo, "": SeverityInfo, "suggestion": SeverityInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSeverity(in), in)
	}
}

func TestNormalize_NeverPanics(t *testing.T) {
	inputs := []string{
		"{", "[", "}", "{]", `{"comments": "not a list"}`, `{"comments": [1, 2]}`,
		strings.Repeat("{", 1000), "```json", "```json\n", `{"a":"\u00`,
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _, _ = Normalize(in) }, in)
	}
}
