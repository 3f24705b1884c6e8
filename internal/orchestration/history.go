package orchestration

import (
	"sync"
	"time"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/artifact"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
)

// DefaultHistoryLimit is the number of execution records kept.
const DefaultHistoryLimit = 50

// Status is the outcome of an execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ExecutionRecord is the result of one submitted prompt.
type ExecutionRecord struct {
	ID         string              `json:"id"`
	Prompt     string              `json:"prompt"`
	Intent     intent.Category     `json:"intent"`
	Handler    routing.HandlerID   `json:"handler"`
	Artifacts  []artifact.Artifact `json:"artifacts"`
	Text       string              `json:"text"`
	Tokens     int                 `json:"tokens"`
	Retry      bool                `json:"retry"`
	Timestamp  time.Time           `json:"timestamp"`
	DurationMS float64             `json:"duration_ms"`
	Status     Status              `json:"status"`
	Error      string              `json:"error,omitempty"`
	ErrorKind  string              `json:"error_kind,omitempty"`
}

// History keeps the most recent execution records, newest first.
type History struct {
	mu      sync.RWMutex
	limit   int
	records []*ExecutionRecord
}

// NewHistory returns a history holding at most limit records. A non-positive
// limit uses DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, records: make([]*ExecutionRecord, 0, limit)}
}

// Add prepends rec, evicting the oldest record when full.
func (h *History) Add(rec *ExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.records)
	if n < h.limit {
		h.records = append(h.records, nil)
		n++
	}
	copy(h.records[1:n], h.records[:n-1])
	h.records[0] = rec
}

// List returns the records, newest first.
func (h *History) List() []*ExecutionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*ExecutionRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Get looks a record up by id.
func (h *History) Get(id string) (*ExecutionRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, rec := range h.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return nil, false
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.records)
	h.records = h.records[:0]
}
