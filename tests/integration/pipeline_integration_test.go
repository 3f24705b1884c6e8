package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/artifact"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/review"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/tests/helpers"
)

func call(t *testing.T, method, url, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestPipelineIntegration(t *testing.T) {
	runtime := helpers.NewFakeRuntime(t, helpers.Always(helpers.CodeReply))
	st := newStack(t, runtime.URL, "")
	base := st.Server.URL

	t.Run("Code Execution", func(t *testing.T) {
		status, body := call(t, http.MethodPost, base+"/api/executions", "", map[string]string{"prompt": helpers.CodePrompt})
		require.Equal(t, http.StatusOK, status, string(body))

		var rec orchestration.ExecutionRecord
		require.NoError(t, json.Unmarshal(body, &rec))
		assert.Equal(t, orchestration.StatusSuccess, rec.Status)
		assert.Equal(t, helpers.CodeReply, rec.Text)
		require.Len(t, rec.Artifacts, 1)
		assert.Equal(t, artifact.KindCode, rec.Artifacts[0].Kind)
		assert.Equal(t, "python", rec.Artifacts[0].Code.Language)
		assert.Contains(t, rec.Artifacts[0].Code.Code, "def fib(n):")

		reqs := runtime.Requests()
		require.NotEmpty(t, reqs)
		last := reqs[len(reqs)-1]
		assert.Equal(t, routing.CodeWriter, last.HandlerID)
		assert.Equal(t, helpers.CodePrompt, last.Message)
		assert.Empty(t, last.History)
	})

	t.Run("History Window", func(t *testing.T) {
		history := make([]orchestration.Message, 15)
		for i := range history {
			role := "user"
			if i%2 == 1 {
				role = "assistant"
			}
			history[i] = orchestration.Message{Role: role, Content: strings.Repeat("x", i+1)}
		}

		status, _ := call(t, http.MethodPost, base+"/api/executions", "", map[string]interface{}{
			"prompt":  helpers.DebugPrompt,
			"history": history,
		})
		require.Equal(t, http.StatusOK, status)

		reqs := runtime.Requests()
		last := reqs[len(reqs)-1]
		assert.Equal(t, routing.Debugger, last.HandlerID)
		require.Len(t, last.History, orchestration.DefaultHistoryWindow)
		assert.Equal(t, history[5:], last.History)
	})

	t.Run("Analysis Table", func(t *testing.T) {
		runtime.Respond(helpers.Always(helpers.TableReply))
		defer runtime.Respond(helpers.Always(helpers.CodeReply))

		status, body := call(t, http.MethodPost, base+"/api/executions", "", map[string]string{"prompt": helpers.TablePrompt})
		require.Equal(t, http.StatusOK, status)

		var rec orchestration.ExecutionRecord
		require.NoError(t, json.Unmarshal(body, &rec))
		assert.Equal(t, routing.DataAnalyst, rec.Handler)
		require.Len(t, rec.Artifacts, 1)
		require.NotNil(t, rec.Artifacts[0].Table)
		assert.Equal(t, []string{"Feature", "Postgres", "MySQL"}, rec.Artifacts[0].Table.Columns)
		assert.Len(t, rec.Artifacts[0].Table.Rows, 2)
	})

	t.Run("Pull Request Review", func(t *testing.T) {
		runtime.Respond(helpers.Always(helpers.ReviewPayload("handler.py", "critical")))
		defer runtime.Respond(helpers.Always(helpers.CodeReply))

		status, body := call(t, http.MethodPost, base+"/api/reviews", "", map[string]string{
			"diff": helpers.SampleDiff,
			"mode": "security",
		})
		require.Equal(t, http.StatusOK, status, string(body))

		var res review.Result
		require.NoError(t, json.Unmarshal(body, &res))
		assert.Equal(t, review.MergeBlocked, res.Health.MergeReadiness)
		assert.Equal(t, review.VerdictRequestChanges, res.Health.Verdict)
		assert.Equal(t, "security", res.ReviewMode)
		assert.Equal(t, 1, res.DiffAwareness.FilesChanged)
		assert.Equal(t, 1, res.DiffAwareness.LinesAdded)
		assert.Equal(t, []string{"handler.py"}, res.DiffAwareness.RiskyFiles)

		reqs := runtime.Requests()
		last := reqs[len(reqs)-1]
		assert.Equal(t, routing.Reviewer, last.HandlerID)
		assert.Contains(t, last.Message, "eval(req.body)")
	})

	t.Run("Telemetry and History", func(t *testing.T) {
		status, body := call(t, http.MethodPost, base+"/api/telemetry/code-writer/events", "", map[string]string{"action": "copy"})
		require.Equal(t, http.StatusNoContent, status, string(body))

		status, body = call(t, http.MethodGet, base+"/api/telemetry/code-writer", "", nil)
		require.Equal(t, http.StatusOK, status)

		var tel struct {
			Metrics struct {
				RequestCount int            `json:"request_count"`
				CopyActions  int            `json:"copy_actions"`
				Languages    map[string]int `json:"languages"`
			} `json:"metrics"`
			Signals struct {
				CopyRate    float64 `json:"copy_rate"`
				SuccessRate float64 `json:"success_rate"`
			} `json:"signals"`
		}
		require.NoError(t, json.Unmarshal(body, &tel))
		assert.Equal(t, 1, tel.Metrics.RequestCount)
		assert.Equal(t, 1, tel.Metrics.CopyActions)
		assert.Equal(t, 1, tel.Metrics.Languages["python"])
		assert.Equal(t, 100.0, tel.Signals.CopyRate)
		assert.Equal(t, 100.0, tel.Signals.SuccessRate)

		status, body = call(t, http.MethodGet, base+"/api/executions", "", nil)
		require.Equal(t, http.StatusOK, status)
		var list []orchestration.ExecutionRecord
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Len(t, list, 4)
		assert.Equal(t, orchestration.StatusSuccess, list[0].Status)

		status, body = call(t, http.MethodGet, base+"/metrics", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(body), `orchestrator_handler_requests_total{handler="code-writer"} 1`)
	})
}

func TestRuntimeFailuresIntegration(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
		wantCode   string
		wantKind   string
	}{
		{"Rate Limited", http.StatusTooManyRequests, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate_limited"},
		{"Credits Exhausted", http.StatusPaymentRequired, http.StatusPaymentRequired, models.ErrCodeCreditsExhausted, "credits_exhausted"},
		{"Runtime Error", http.StatusInternalServerError, http.StatusBadGateway, models.ErrCodeHandlerFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime := helpers.NewFakeRuntime(t, helpers.Status(tt.status, "nope"))
			st := newStack(t, runtime.URL, "")

			status, body := call(t, http.MethodPost, st.Server.URL+"/api/executions", "", map[string]string{"prompt": helpers.CodePrompt})
			assert.Equal(t, tt.wantStatus, status)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.wantCode, resp.Code)

			list := st.Service.History().List()
			require.Len(t, list, 1)
			assert.Equal(t, orchestration.StatusError, list[0].Status)
			assert.Equal(t, tt.wantKind, list[0].ErrorKind)
			assert.Equal(t, 1, st.Tracker.Snapshot(routing.CodeWriter).ErrorsByKind[tt.wantKind])
		})
	}
}

func TestCircuitBreakerIntegration(t *testing.T) {
	runtime := helpers.NewFakeRuntime(t, helpers.Status(http.StatusInternalServerError, "down"))
	st := newStack(t, runtime.URL, "")
	base := st.Server.URL

	status, _ := call(t, http.MethodGet, base+"/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	for i := 0; i < 3; i++ {
		status, _ = call(t, http.MethodPost, base+"/api/executions", "", map[string]string{"prompt": helpers.CodePrompt})
		assert.Equal(t, http.StatusBadGateway, status)
	}
	require.Len(t, runtime.Requests(), 3)

	// The breaker is open: requests fail without reaching the runtime.
	runtime.Respond(helpers.Always("recovered"))
	status, _ = call(t, http.MethodPost, base+"/api/executions", "", map[string]string{"prompt": helpers.CodePrompt})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Len(t, runtime.Requests(), 3)

	status, _ = call(t, http.MethodGet, base+"/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestQuotaErrorsKeepBreakerClosedIntegration(t *testing.T) {
	runtime := helpers.NewFakeRuntime(t, helpers.Status(http.StatusTooManyRequests, ""))
	st := newStack(t, runtime.URL, "")

	for i := 0; i < 5; i++ {
		status, _ := call(t, http.MethodPost, st.Server.URL+"/api/executions", "", map[string]string{"prompt": helpers.CodePrompt})
		assert.Equal(t, http.StatusTooManyRequests, status)
	}
	assert.Len(t, runtime.Requests(), 5)

	status, _ := call(t, http.MethodGet, st.Server.URL+"/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	runtime.SetHealthy(false)
	status, _ = call(t, http.MethodGet, st.Server.URL+"/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestStreamingIntegration(t *testing.T) {
	runtime := helpers.NewFakeRuntime(t, helpers.Always(helpers.CodeReply))
	st := newStack(t, runtime.URL, "streaming-secret")

	token, err := st.JWTManager.GenerateToken(context.Background(), "user-1", "dev", nil, time.Hour)
	require.NoError(t, err)

	t.Run("Server Sent Events", func(t *testing.T) {
		data, _ := json.Marshal(map[string]string{"prompt": helpers.CodePrompt})
		req, err := http.NewRequest(http.MethodPost, st.Server.URL+"/api/executions?stream=true", bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var (
			names   []string
			content strings.Builder
			current string
		)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				current = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
				names = append(names, current)
			case strings.HasPrefix(line, "data:") && current == models.EventTypeDelta:
				var d models.DeltaData
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &d))
				content.WriteString(d.Content)
			}
		}
		require.NoError(t, sc.Err())

		require.NotEmpty(t, names)
		assert.Equal(t, models.EventTypeResult, names[len(names)-1])
		assert.Len(t, names, len(helpers.Chunk(helpers.CodeReply, 16))+1)
		assert.Equal(t, helpers.CodeReply, content.String())
	})

	t.Run("WebSocket", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(st.Server.URL, "http") + "/api/ws/executions?token=" + token
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]string{"prompt": helpers.CodePrompt, "handler_id": "doc-writer"}))

		for {
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			var ev struct {
				EventType string          `json:"event_type"`
				Data      json.RawMessage `json:"data"`
			}
			require.NoError(t, conn.ReadJSON(&ev))
			if ev.EventType == models.EventTypeDelta {
				continue
			}

			require.Equal(t, models.EventTypeResult, ev.EventType, string(ev.Data))
			var rec orchestration.ExecutionRecord
			require.NoError(t, json.Unmarshal(ev.Data, &rec))
			assert.Equal(t, routing.DocWriter, rec.Handler)
			break
		}

		reqs := runtime.Requests()
		assert.Equal(t, routing.DocWriter, reqs[len(reqs)-1].HandlerID)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		status, _ := call(t, http.MethodPost, st.Server.URL+"/api/executions", "", map[string]string{"prompt": "hi"})
		assert.Equal(t, http.StatusUnauthorized, status)

		url := "ws" + strings.TrimPrefix(st.Server.URL, "http") + "/api/ws/executions?token=garbage"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLiveRuntime(t *testing.T) {
	url := liveRuntimeURL(t)
	st := newStack(t, url, "")
	t.Logf("Using live handler runtime at %s", url)

	status, body := call(t, http.MethodPost, st.Server.URL+"/api/executions", "", map[string]string{"prompt": helpers.CodePrompt})
	require.Equal(t, http.StatusOK, status, string(body))

	var rec orchestration.ExecutionRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.NotEmpty(t, rec.Text)
	assert.NotEmpty(t, rec.Artifacts)
}
