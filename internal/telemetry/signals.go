package telemetry

import (
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
)

// QualitySignals is a view over SessionMetrics. Rates are percentages of
// requests in [0, 100].
type QualitySignals struct {
	RetryRate     float64 `json:"retry_rate"`
	DownloadRate  float64 `json:"download_rate"`
	CopyRate      float64 `json:"copy_rate"`
	EditRate      float64 `json:"edit_rate"`
	SuccessRate   float64 `json:"success_rate"`
	AvgCodeLength float64 `json:"avg_code_length"`
}

// QualitySignals derives the handler's signals from its current counters.
// With no requests every rate is 0 except SuccessRate, which is 100.
func (t *Tracker) QualitySignals(h routing.HandlerID) QualitySignals {
	return Signals(t.Snapshot(h))
}

// Signals computes QualitySignals from m.
func Signals(m SessionMetrics) QualitySignals {
	s := QualitySignals{
		RetryRate:    rate(m.RetryCount, m.RequestCount),
		DownloadRate: rate(m.DownloadActions, m.RequestCount),
		CopyRate:     rate(m.CopyActions, m.RequestCount),
		EditRate:     rate(m.ManualEdits, m.RequestCount),
		SuccessRate:  100,
	}
	if m.RequestCount > 0 {
		s.SuccessRate = rate(m.SuccessCount, m.RequestCount)
	}
	if m.CodeSamples > 0 {
		s.AvgCodeLength = float64(m.TotalCodeLength) / float64(m.CodeSamples)
	}
	return s
}

func rate(n, total int) float64 {
	if total <= 0 || n <= 0 {
		return 0
	}
	r := float64(n) / float64(total) * 100
	if r > 100 {
		return 100
	}
	return r
}
