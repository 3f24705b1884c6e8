// Package telemetry keeps per-handler session counters and derives quality
// signals from how users react to the output.
package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
)

// SessionMetrics are the counters kept for one handler. Response times are in
// milliseconds.
type SessionMetrics struct {
	RequestCount        int            `json:"request_count"`
	TokenCount          int            `json:"token_count"`
	SuccessCount        int            `json:"success_count"`
	ErrorCount          int            `json:"error_count"`
	RetryCount          int            `json:"retry_count"`
	CopyActions         int            `json:"copy_actions"`
	ExpandActions       int            `json:"expand_actions"`
	DownloadActions     int            `json:"download_actions"`
	ManualEdits         int            `json:"manual_edits"`
	ResponseTimes       []float64      `json:"response_times_ms"`
	AverageResponseTime float64        `json:"average_response_time_ms"`
	TotalCodeLength     int            `json:"total_code_length"`
	CodeSamples         int            `json:"code_samples"`
	Languages           map[string]int `json:"languages"`
	ErrorsByKind        map[string]int `json:"errors_by_kind"`
	SessionStart        time.Time      `json:"session_start"`
}

// Outcome describes a successful execution.
type Outcome struct {
	ResponseTime time.Duration
	Tokens       int
	// CodeLength is the number of code characters produced; zero when the
	// response held no code.
	CodeLength int
}

type entry struct {
	mu         sync.Mutex
	metrics    SessionMetrics
	lastPrompt string
	hasPrompt  bool
}

// Tracker holds SessionMetrics per handler. Entries are created on first use
// and live as long as the Tracker.
type Tracker struct {
	mu      sync.RWMutex
	entries map[routing.HandlerID]*entry
	now     func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the session start clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		entries: make(map[routing.HandlerID]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) entry(h routing.HandlerID) *entry {
	t.mu.RLock()
	e, ok := t.entries[h]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[h]; ok {
		return e
	}
	e = &entry{metrics: SessionMetrics{
		Languages:    make(map[string]int),
		ErrorsByKind: make(map[string]int),
		SessionStart: t.now(),
	}}
	t.entries[h] = e
	return e
}

func (t *Tracker) update(h routing.HandlerID, fn func(e *entry)) {
	e := t.entry(h)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e)
}

// TrackRequest counts a submitted prompt. A prompt byte-identical to the
// previous one sent to the same handler is also counted as a retry, and
// TrackRequest reports it.
func (t *Tracker) TrackRequest(h routing.HandlerID, prompt string) (retry bool) {
	t.update(h, func(e *entry) {
		e.metrics.RequestCount++
		if e.hasPrompt && e.lastPrompt == prompt {
			e.metrics.RetryCount++
			retry = true
		}
		e.lastPrompt = prompt
		e.hasPrompt = true
	})
	return retry
}

// TrackSuccess records a completed execution. The average response time is
// the exact mean over every recorded response.
func (t *Tracker) TrackSuccess(h routing.HandlerID, o Outcome) {
	t.update(h, func(e *entry) {
		m := &e.metrics
		m.SuccessCount++
		m.TokenCount += o.Tokens
		m.ResponseTimes = append(m.ResponseTimes, float64(o.ResponseTime)/float64(time.Millisecond))

		var total float64
		for _, rt := range m.ResponseTimes {
			total += rt
		}
		m.AverageResponseTime = total / float64(len(m.ResponseTimes))

		if o.CodeLength > 0 {
			m.TotalCodeLength += o.CodeLength
			m.CodeSamples++
		}
	})
}

// TrackError records a failed execution of the given kind.
func (t *Tracker) TrackError(h routing.HandlerID, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	t.update(h, func(e *entry) {
		e.metrics.ErrorCount++
		e.metrics.ErrorsByKind[kind]++
	})
}

// TrackRetry records an explicit retry, such as a regenerate button.
func (t *Tracker) TrackRetry(h routing.HandlerID) {
	t.update(h, func(e *entry) { e.metrics.RetryCount++ })
}

func (t *Tracker) TrackCopy(h routing.HandlerID) {
	t.update(h, func(e *entry) { e.metrics.CopyActions++ })
}

func (t *Tracker) TrackExpand(h routing.HandlerID) {
	t.update(h, func(e *entry) { e.metrics.ExpandActions++ })
}

func (t *Tracker) TrackDownload(h routing.HandlerID) {
	t.update(h, func(e *entry) { e.metrics.DownloadActions++ })
}

func (t *Tracker) TrackEdit(h routing.HandlerID) {
	t.update(h, func(e *entry) { e.metrics.ManualEdits++ })
}

// TrackLanguage counts one artifact in lang.
func (t *Tracker) TrackLanguage(h routing.HandlerID, lang string) {
	if lang == "" {
		return
	}
	t.update(h, func(e *entry) { e.metrics.Languages[lang]++ })
}

// Snapshot returns a deep copy of the handler's metrics. A handler that has
// never been seen yields zero counters without creating an entry.
func (t *Tracker) Snapshot(h routing.HandlerID) SessionMetrics {
	t.mu.RLock()
	e, ok := t.entries[h]
	t.mu.RUnlock()
	if !ok {
		return SessionMetrics{Languages: map[string]int{}, ErrorsByKind: map[string]int{}, ResponseTimes: []float64{}}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.clone()
}

// Handlers returns the handlers with recorded activity, sorted.
func (t *Tracker) Handlers() []routing.HandlerID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]routing.HandlerID, 0, len(t.entries))
	for h := range t.entries {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m SessionMetrics) clone() SessionMetrics {
	c := m
	c.ResponseTimes = append([]float64{}, m.ResponseTimes...)
	c.Languages = make(map[string]int, len(m.Languages))
	for k, v := range m.Languages {
		c.Languages[k] = v
	}
	c.ErrorsByKind = make(map[string]int, len(m.ErrorsByKind))
	for k, v := range m.ErrorsByKind {
		c.ErrorsByKind[k] = v
	}
	return c
}
