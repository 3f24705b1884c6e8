package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
)

// Reply is the fake runtime's answer to one invoke request.
type Reply struct {
	Status int
	Body   string
}

// Responder picks the reply for an invoke request.
type Responder func(req orchestration.InvokeRequest) Reply

// FakeRuntime is an in-process handler runtime speaking the invoke and health
// endpoints the orchestrator calls.
type FakeRuntime struct {
	*httptest.Server

	mu        sync.Mutex
	responder Responder
	requests  []orchestration.InvokeRequest
	unhealthy bool
}

// NewFakeRuntime starts a runtime that answers every request with respond.
// It is closed when the test ends.
func NewFakeRuntime(t *testing.T, respond Responder) *FakeRuntime {
	t.Helper()
	f := &FakeRuntime{responder: respond}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /handlers/invoke", f.invoke)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		down := f.unhealthy
		f.mu.Unlock()
		if down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *FakeRuntime) invoke(w http.ResponseWriter, r *http.Request) {
	var req orchestration.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.responder
	f.mu.Unlock()

	reply := respond(req)
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	if reply.Status == http.StatusOK {
		w.Header().Set("Content-Type", "text/event-stream")
	}
	w.WriteHeader(reply.Status)
	w.Write([]byte(reply.Body))
}

// Respond replaces the responder.
func (f *FakeRuntime) Respond(respond Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responder = respond
}

// SetHealthy controls the /health answer.
func (f *FakeRuntime) SetHealthy(healthy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unhealthy = !healthy
}

// Requests returns the invoke requests received so far.
func (f *FakeRuntime) Requests() []orchestration.InvokeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]orchestration.InvokeRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Always answers every request with the same streamed text.
func Always(text string) Responder {
	return func(orchestration.InvokeRequest) Reply {
		return Reply{Body: Completion(Chunk(text, 16)...)}
	}
}

// Status answers every request with a bare status code.
func Status(code int, body string) Responder {
	return func(orchestration.InvokeRequest) Reply {
		return Reply{Status: code, Body: body}
	}
}
