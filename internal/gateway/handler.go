package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/telemetry"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	service *orchestration.Service
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewHandler creates a new gateway handler
func NewHandler(service *orchestration.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		logger:  logger,
		tracer:  otel.Tracer("gateway-handler"),
	}
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Reports whether the handler runtime is reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	if !h.service.Healthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "handler runtime unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// ClassifyRequest represents a classification request
type ClassifyRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// ClassifyResponse names the intent and the handler a prompt routes to
type ClassifyResponse struct {
	Intent  intent.Category   `json:"intent"`
	Handler routing.HandlerID `json:"handler"`
}

// Classify godoc
// @Summary Classify a prompt
// @Description Returns the detected intent and the handler the prompt would be routed to
// @Tags executions
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Prompt"
// @Success 200 {object} ClassifyResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /classify [post]
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "Invalid request")
		return
	}

	category, handler := h.service.Classify(req.Prompt)
	c.JSON(http.StatusOK, ClassifyResponse{Intent: category, Handler: handler})
}

// ExecutionRequest represents a prompt submission
type ExecutionRequest struct {
	Prompt    string                  `json:"prompt" binding:"required"`
	History   []orchestration.Message `json:"history"`
	HandlerID string                  `json:"handler_id"`
}

// toServiceRequest validates req before any work starts.
func (r ExecutionRequest) toServiceRequest() (orchestration.ExecuteRequest, error) {
	out := orchestration.ExecuteRequest{Prompt: r.Prompt, History: r.History}
	if strings.TrimSpace(r.Prompt) == "" {
		return out, orchestration.ErrEmptyPrompt
	}
	if r.HandlerID != "" {
		id, ok := routing.Parse(r.HandlerID)
		if !ok {
			return out, orchestration.ErrUnknownHandler
		}
		out.Handler = id
	}
	return out, nil
}

// CreateExecution godoc
// @Summary Execute a prompt
// @Description Classifies, routes and runs a prompt. With stream=true the response is a server-sent event stream of delta events followed by a result or error event.
// @Tags executions
// @Accept json
// @Produce json
// @Produce text/event-stream
// @Param request body ExecutionRequest true "Prompt"
// @Param stream query bool false "Stream deltas as server-sent events"
// @Success 200 {object} orchestration.ExecutionRecord
// @Failure 400 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /executions [post]
func (h *Handler) CreateExecution(c *gin.Context) {
	var body ExecutionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondInvalid(c, "Invalid request")
		return
	}
	req, err := body.toServiceRequest()
	if err != nil {
		respondError(c, err)
		return
	}

	if stream, _ := strconv.ParseBool(c.Query("stream")); stream {
		h.streamExecution(c, req)
		return
	}

	rec, err := h.service.Execute(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) streamExecution(c *gin.Context, req orchestration.ExecuteRequest) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.stream_execution")
	defer span.End()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(ev models.ExecutionEvent) {
		c.SSEvent(ev.EventType, ev.Data)
		c.Writer.Flush()
	}

	deltas := 0
	req.OnDelta = func(d string) {
		deltas++
		send(models.NewDeltaEvent(d))
	}

	rec, err := h.service.Execute(ctx, req)
	span.SetAttributes(attribute.Int("deltas", deltas))
	if err != nil {
		span.RecordError(err)
		_, resp := errorStatus(err)
		send(models.NewErrorEvent(resp))
		return
	}
	send(models.NewResultEvent(rec))
}

// ListExecutions godoc
// @Summary List executions
// @Description Returns the most recent executions, newest first
// @Tags executions
// @Produce json
// @Success 200 {array} orchestration.ExecutionRecord
// @Security BearerAuth
// @Router /executions [get]
func (h *Handler) ListExecutions(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.History().List())
}

// GetExecution godoc
// @Summary Get an execution
// @Tags executions
// @Produce json
// @Param id path string true "Execution ID"
// @Success 200 {object} orchestration.ExecutionRecord
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /executions/{id} [get]
func (h *Handler) GetExecution(c *gin.Context) {
	rec, ok := h.service.History().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.NewErrorResponse(models.ErrCodeNotFound, "Execution not found"))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ClearExecutions godoc
// @Summary Clear execution history
// @Tags executions
// @Success 204
// @Security BearerAuth
// @Router /executions [delete]
func (h *Handler) ClearExecutions(c *gin.Context) {
	h.service.History().Clear()
	c.Status(http.StatusNoContent)
}

// ReviewRequest represents a pull request review request
type ReviewRequest struct {
	Diff  string `json:"diff" binding:"required"`
	Mode  string `json:"mode"`
	Notes string `json:"notes"`
}

// CreateReview godoc
// @Summary Review a diff
// @Description Sends a unified diff to the reviewer handler and returns the normalized result
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body ReviewRequest true "Diff to review"
// @Success 200 {object} review.Result
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "Invalid request")
		return
	}

	res, err := h.service.Review(c.Request.Context(), orchestration.ReviewRequest{
		Diff:  req.Diff,
		Mode:  req.Mode,
		Notes: req.Notes,
	})
	if err != nil {
		h.logger.Warn("Review failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// TelemetryEventRequest reports a user reaction to an artifact
type TelemetryEventRequest struct {
	Action   string `json:"action" binding:"required"`
	Language string `json:"language"`
}

// TelemetryResponse is the telemetry view of one handler
type TelemetryResponse struct {
	Handler routing.HandlerID        `json:"handler"`
	Metrics telemetry.SessionMetrics `json:"metrics"`
	Signals telemetry.QualitySignals `json:"signals"`
}

// RecordTelemetryEvent godoc
// @Summary Record a user action
// @Description Records copy, expand, download, edit, retry or language events against a handler
// @Tags telemetry
// @Accept json
// @Param handler path string true "Handler ID"
// @Param request body TelemetryEventRequest true "Action"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /telemetry/{handler}/events [post]
func (h *Handler) RecordTelemetryEvent(c *gin.Context) {
	var req TelemetryEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "Invalid request")
		return
	}

	handler, ok := routing.Parse(c.Param("handler"))
	if !ok {
		respondError(c, orchestration.ErrUnknownHandler)
		return
	}
	if err := h.service.RecordAction(handler, orchestration.Action(req.Action), req.Language); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTelemetry godoc
// @Summary Handler telemetry
// @Tags telemetry
// @Produce json
// @Param handler path string true "Handler ID"
// @Success 200 {object} TelemetryResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /telemetry/{handler} [get]
func (h *Handler) GetTelemetry(c *gin.Context) {
	handler, ok := routing.Parse(c.Param("handler"))
	if !ok {
		respondError(c, orchestration.ErrUnknownHandler)
		return
	}
	c.JSON(http.StatusOK, h.telemetryFor(handler))
}

// ListTelemetry godoc
// @Summary Telemetry for every handler seen so far
// @Tags telemetry
// @Produce json
// @Success 200 {array} TelemetryResponse
// @Security BearerAuth
// @Router /telemetry [get]
func (h *Handler) ListTelemetry(c *gin.Context) {
	handlers := h.service.Tracker().Handlers()
	out := make([]TelemetryResponse, 0, len(handlers))
	for _, id := range handlers {
		out = append(out, h.telemetryFor(id))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) telemetryFor(id routing.HandlerID) TelemetryResponse {
	tracker := h.service.Tracker()
	m := tracker.Snapshot(id)
	return TelemetryResponse{Handler: id, Metrics: m, Signals: telemetry.Signals(m)}
}

// ListHandlers godoc
// @Summary Handler catalog
// @Tags handlers
// @Produce json
// @Success 200 {array} routing.Descriptor
// @Security BearerAuth
// @Router /handlers [get]
func (h *Handler) ListHandlers(c *gin.Context) {
	c.JSON(http.StatusOK, routing.Catalog())
}
