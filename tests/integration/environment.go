package integration

import (
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/config"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/gateway"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/telemetry"
)

// LiveRuntimeEnv names a real handler runtime to run the live tests against.
const LiveRuntimeEnv = "HANDLER_RUNTIME_URL"

// liveRuntimeURL returns the configured runtime or skips the test.
func liveRuntimeURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv(LiveRuntimeEnv)
	if url == "" {
		t.Skipf("%s not set, skipping live runtime test", LiveRuntimeEnv)
	}
	return url
}

// stack is a fully wired orchestrator in front of a handler runtime.
type stack struct {
	Service    *orchestration.Service
	Tracker    *telemetry.Tracker
	JWTManager *auth.JWTManager
	Server     *httptest.Server
}

// stackConfig returns handler settings suited to tests: no throttling and a
// breaker that opens after three straight failures.
func stackConfig(runtimeURL string) config.HandlerConfig {
	cfg := config.DefaultConfig().Handler
	cfg.RuntimeURL = runtimeURL
	cfg.Timeout = 10 * time.Second
	cfg.RateLimit = 1000
	cfg.RateBurst = 1000
	cfg.Breaker.ConsecutiveFailures = 2
	cfg.Breaker.Timeout = time.Minute
	return cfg
}

// newStack wires the real client, service and router against runtimeURL,
// the way cmd/api does. jwtSecret may be empty to leave the API open.
func newStack(t *testing.T, runtimeURL, jwtSecret string) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tracker := telemetry.NewTracker()
	client := orchestration.NewHandlerClient(stackConfig(runtimeURL), nil)
	service := orchestration.NewService(client, tracker)

	var jm *auth.JWTManager
	if jwtSecret != "" {
		var err error
		jm, err = auth.NewJWTManager(jwtSecret)
		if err != nil {
			t.Fatalf("creating JWT manager: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(telemetry.NewCollector(tracker))

	router := gateway.NewRouter(service, gateway.RouterOptions{JWTManager: jm, Gatherer: registry})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &stack{Service: service, Tracker: tracker, JWTManager: jm, Server: server}
}
