package review

import (
	"math"
	"strings"
)

// NormalizeSeverity maps the many spellings reviewers use onto four levels.
func NormalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "blocker":
		return SeverityCritical
	case "error", "high", "major":
		return SeverityError
	case "warning", "medium", "minor":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// tally counts severities across comments and findings.
type tally struct {
	critical      int
	errors        int
	warnings      int
	commentErrors int
	comments      int
}

func count(res *Result) tally {
	var t tally
	add := func(s Severity) {
		switch s {
		case SeverityCritical:
			t.critical++
		case SeverityError:
			t.errors++
		case SeverityWarning:
			t.warnings++
		}
	}
	for _, c := range res.Comments {
		add(c.Severity)
		if c.Severity == SeverityError {
			t.commentErrors++
		}
	}
	for _, f := range res.SecurityFindings {
		add(f.Severity)
	}
	t.comments = len(res.Comments)
	return t
}

func deriveHealth(res *Result, quality, confidence number) Health {
	t := count(res)
	h := Health{
		RiskLevel:      riskLevel(t),
		MergeReadiness: mergeReadiness(t),
		Verdict:        verdict(res.Summary, t),
		Confidence:     DefaultConfidence,
	}

	if quality.set {
		h.QualityScore = clamp(quality.value, 0, 100)
	} else {
		h.QualityScore = clamp(100-25*float64(t.critical)-10*float64(t.errors)-3*float64(t.warnings), 0, 100)
	}
	if confidence.set {
		h.Confidence = clamp(confidence.value, 0, 1)
	}
	return h
}

func riskLevel(t tally) RiskLevel {
	switch {
	case t.critical > 0:
		return RiskCritical
	case t.commentErrors > 2:
		return RiskHigh
	case t.errors > 0 || t.comments > 5:
		return RiskMedium
	default:
		return RiskLow
	}
}

func mergeReadiness(t tally) MergeReadiness {
	switch {
	case t.critical > 0:
		return MergeBlocked
	case t.errors > 0:
		return MergeNeedsWork
	default:
		return MergeReady
	}
}

func verdict(summary string, t tally) Verdict {
	s := strings.ToLower(summary)
	switch {
	case strings.Contains(s, "request changes"), t.critical > 0, t.errors > 2:
		return VerdictRequestChanges
	case strings.Contains(s, "comment"):
		return VerdictComment
	default:
		return VerdictApprove
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
