package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/config"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// HandlerInvoker starts a streamed handler invocation.
type HandlerInvoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (io.ReadCloser, error)
	IsHealthy(ctx context.Context) bool
}

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InvokeRequest is the body posted to the handler runtime.
type InvokeRequest struct {
	HandlerID routing.HandlerID `json:"handlerId"`
	Message   string            `json:"message"`
	History   []Message         `json:"history"`
}

// HandlerClient calls the handler runtime over HTTP and hands back the
// event-stream body.
type HandlerClient struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewHandlerClient creates a client for the runtime described by cfg
func NewHandlerClient(cfg config.HandlerConfig, logger *zap.Logger) *HandlerClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "handler-runtime",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.Breaker.ConsecutiveFailures
		},
		// Quota rejections mean the runtime is up.
		IsSuccessful: func(err error) bool {
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				return reqErr.Kind != KindFailed
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &HandlerClient{
		baseURL: strings.TrimRight(cfg.RuntimeURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracer:  otel.Tracer("handler-runtime-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:  logger,
	}
}

// Invoke posts req and returns the response body once the runtime has
// accepted it. The caller must close the body.
func (c *HandlerClient) Invoke(ctx context.Context, req InvokeRequest) (io.ReadCloser, error) {
	ctx, span := c.tracer.Start(ctx, "handler_runtime.invoke")
	defer span.End()

	span.SetAttributes(
		attribute.String("handler.id", string(req.HandlerID)),
		attribute.Int("history.length", len(req.History)),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, transportError(fmt.Errorf("waiting for rate limiter: %w", err))
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.invokeInternal(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		return nil, transportError(err)
	}

	return result.(io.ReadCloser), nil
}

func (c *HandlerClient) invokeInternal(ctx context.Context, req InvokeRequest) (io.ReadCloser, error) {
	if req.History == nil {
		req.History = []Message{}
	}
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/handlers/invoke"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp.Body, nil
}

// IsHealthy checks if the handler runtime is healthy
func (c *HandlerClient) IsHealthy(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "handler_runtime.health_check")
	defer span.End()

	if c.breaker.State() == gobreaker.StateOpen {
		span.SetAttributes(attribute.Bool("healthy", false), attribute.String("reason", "circuit_breaker_open"))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		span.RecordError(err)
		return false
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode == http.StatusOK
	span.SetAttributes(attribute.Bool("healthy", healthy))

	return healthy
}
