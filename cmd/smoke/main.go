// Command smoke drives a running orchestrator end to end: health, readiness,
// classification, an SSE execution and a websocket execution.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/models"
)

const testTimeout = 60 * time.Second

type TestResult struct {
	TestName string
	Success  bool
	Error    error
	Details  string
}

type smoke struct {
	baseURL string
	token   string
	client  *http.Client
}

func main() {
	log.Println("🚀 Starting artifact orchestrator smoke test")

	s := &smoke{
		baseURL: strings.TrimRight(envOr("ORCHESTRATOR_URL", "http://localhost:8080"), "/"),
		client:  &http.Client{Timeout: testTimeout},
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		token, err := generateTestJWT(secret)
		if err != nil {
			log.Fatalf("Failed to generate test JWT: %v", err)
		}
		s.token = token
	}

	prompt := envOr("SMOKE_PROMPT", "Write a Go function that reverses a string")

	results := []TestResult{
		s.testHealth(),
		s.testReady(),
		s.testClassify(prompt),
		s.testStreamedExecution(prompt),
		s.testWebSocketExecution(prompt),
	}

	if !printTestResults(results) {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func generateTestJWT(secret string) (string, error) {
	jm, err := auth.NewJWTManager(secret)
	if err != nil {
		return "", err
	}
	return jm.GenerateToken(context.Background(), "smoke-test", "smoke", nil, time.Hour)
}

func (s *smoke) request(method, path string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, s.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return s.client.Do(req)
}

func (s *smoke) testHealth() TestResult {
	log.Println("📋 Test 1: Liveness")
	name := "Health"

	resp, err := s.request(http.MethodGet, "/health", nil)
	if err != nil {
		return TestResult{TestName: name, Error: err, Details: "Failed to reach /health"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TestResult{TestName: name, Error: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}
	return TestResult{TestName: name, Success: true}
}

func (s *smoke) testReady() TestResult {
	log.Println("📋 Test 2: Readiness (handler runtime reachable)")
	name := "Ready"

	resp, err := s.request(http.MethodGet, "/ready", nil)
	if err != nil {
		return TestResult{TestName: name, Error: err, Details: "Failed to reach /ready"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TestResult{
			TestName: name,
			Error:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
			Details:  "Handler runtime is not reachable from the orchestrator",
		}
	}
	return TestResult{TestName: name, Success: true}
}

func (s *smoke) testClassify(prompt string) TestResult {
	log.Println("📋 Test 3: Classification")
	name := "Classify"

	resp, err := s.request(http.MethodPost, "/api/classify", map[string]string{"prompt": prompt})
	if err != nil {
		return TestResult{TestName: name, Error: err}
	}
	defer resp.Body.Close()

	var out struct {
		Intent  string `json:"intent"`
		Handler string `json:"handler"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return TestResult{TestName: name, Error: err, Details: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	if out.Intent == "" || out.Handler == "" {
		return TestResult{TestName: name, Error: fmt.Errorf("empty classification"), Details: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return TestResult{TestName: name, Success: true, Details: fmt.Sprintf("intent=%s handler=%s", out.Intent, out.Handler)}
}

func (s *smoke) testStreamedExecution(prompt string) TestResult {
	log.Println("📋 Test 4: Streamed execution over SSE")
	name := "SSE Execution"

	resp, err := s.request(http.MethodPost, "/api/executions?stream=true", map[string]string{"prompt": prompt})
	if err != nil {
		return TestResult{TestName: name, Error: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TestResult{TestName: name, Error: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	deltas := 0
	final := ""
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "event:") {
			continue
		}
		switch strings.TrimSpace(strings.TrimPrefix(line, "event:")) {
		case models.EventTypeDelta:
			deltas++
		case models.EventTypeResult, models.EventTypeError:
			final = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
	}
	if err := sc.Err(); err != nil {
		return TestResult{TestName: name, Error: err}
	}

	if final != models.EventTypeResult {
		return TestResult{TestName: name, Error: fmt.Errorf("stream ended with %q", final), Details: fmt.Sprintf("%d deltas", deltas)}
	}
	return TestResult{TestName: name, Success: true, Details: fmt.Sprintf("%d deltas", deltas)}
}

func (s *smoke) testWebSocketExecution(prompt string) TestResult {
	log.Println("📋 Test 5: Execution over websocket")
	name := "WebSocket Execution"

	wsURL := strings.Replace(s.baseURL, "http", "ws", 1) + "/api/ws/executions"
	headers := http.Header{}
	if s.token != "" {
		headers.Set("Authorization", fmt.Sprintf("Bearer %s", s.token))
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, headers)
	if err != nil {
		return TestResult{TestName: name, Error: err, Details: "Failed to connect to websocket endpoint"}
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"prompt": prompt}); err != nil {
		return TestResult{TestName: name, Error: err}
	}

	deltas := 0
	deadline := time.Now().Add(testTimeout)
	for {
		conn.SetReadDeadline(deadline)
		var ev struct {
			EventType string          `json:"event_type"`
			Data      json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&ev); err != nil {
			return TestResult{TestName: name, Error: err, Details: fmt.Sprintf("%d deltas before failure", deltas)}
		}

		switch ev.EventType {
		case models.EventTypeDelta:
			deltas++
		case models.EventTypeResult:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return TestResult{TestName: name, Success: true, Details: fmt.Sprintf("%d deltas", deltas)}
		case models.EventTypeError:
			return TestResult{TestName: name, Error: fmt.Errorf("error event: %s", ev.Data)}
		}
	}
}

func printTestResults(results []TestResult) bool {
	log.Println("\n" + strings.Repeat("=", 80))
	log.Println("🧪 ARTIFACT ORCHESTRATOR SMOKE TEST RESULTS")
	log.Println(strings.Repeat("=", 80))

	successCount := 0
	for _, result := range results {
		status := "❌ FAILED"
		if result.Success {
			status = "✅ PASSED"
			successCount++
		}

		log.Printf("%s %s", status, result.TestName)
		if result.Details != "" {
			log.Printf("   Details: %s", result.Details)
		}
		if result.Error != nil {
			log.Printf("   Error: %v", result.Error)
		}
	}

	log.Println(strings.Repeat("-", 80))
	log.Printf("📊 SUMMARY: %d/%d tests passed", successCount, len(results))
	log.Println(strings.Repeat("=", 80))

	return successCount == len(results)
}
