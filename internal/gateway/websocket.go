package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
	eventBuffer    = 64
)

// errClientClosed ends a session whose client hung up cleanly.
var errClientClosed = errors.New("client closed connection")

// SocketRequest is one prompt submitted over the websocket.
type SocketRequest struct {
	Prompt    string                  `json:"prompt"`
	History   []orchestration.Message `json:"history"`
	HandlerID string                  `json:"handler_id"`
}

// ExecutionSocket runs prompts submitted over a websocket and pushes delta,
// result and error events back on the same connection.
type ExecutionSocket struct {
	service    *orchestration.Service
	jwtManager *auth.JWTManager
	logger     *zap.Logger
	tracer     trace.Tracer
	upgrader   websocket.Upgrader
}

// NewExecutionSocket creates the websocket endpoint. A nil jwtManager
// disables authentication.
func NewExecutionSocket(service *orchestration.Service, jwtManager *auth.JWTManager, logger *zap.Logger) *ExecutionSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecutionSocket{
		service:    service,
		jwtManager: jwtManager,
		logger:     logger,
		tracer:     otel.Tracer("execution-websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Serve handles WebSocket /api/ws/executions
// @Summary Stream executions over a websocket
// @Description Clients send {prompt, history, handler_id} messages and receive delta events followed by a result or error event for each
// @Tags executions
// @Param token query string false "Bearer token, for clients that cannot set headers"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/executions [get]
func (s *ExecutionSocket) Serve(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "execution_websocket.serve")
	defer span.End()

	userID, err := s.authenticate(c)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("WebSocket authentication failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, models.NewErrorResponse(models.ErrCodeUnauthorized, "Unauthorized"))
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	s.logger.Info("WebSocket session started", zap.String("user_id", userID))

	err = s.session(ctx, conn)
	if err != nil && !errors.Is(err, errClientClosed) && !errors.Is(err, context.Canceled) {
		span.RecordError(err)
		s.logger.Warn("WebSocket session error", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("WebSocket session ended", zap.String("user_id", userID))
}

// authenticate accepts a token from the query string or the Authorization
// header. Browsers cannot set headers on websocket upgrades.
func (s *ExecutionSocket) authenticate(c *gin.Context) (string, error) {
	if s.jwtManager == nil {
		return "", nil
	}

	token := c.Query("token")
	if token == "" {
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimSpace(h[len("Bearer "):])
		}
	}
	if token == "" {
		return "", fmt.Errorf("missing JWT token")
	}

	claims, err := s.jwtManager.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return "", fmt.Errorf("invalid JWT: %w", err)
	}
	return claims.UserID, nil
}

// inbound is one client message as seen by the executor: either a decoded
// request or the reason it could not be decoded.
type inbound struct {
	req SocketRequest
	err error
}

// session pumps requests from the client into the service and events back
// out. Executions on one connection run one at a time, in order. Only the
// executor sends on events, so it alone may close the channel.
func (s *ExecutionSocket) session(ctx context.Context, conn *websocket.Conn) error {
	g, ctx := errgroup.WithContext(ctx)
	requests := make(chan inbound)
	events := make(chan models.ExecutionEvent, eventBuffer)

	// A failed writer cancels ctx; closing the connection then unblocks the
	// reader.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	emit := func(ev models.ExecutionEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// client -> service
	g.Go(func() error {
		defer close(requests)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return errClientClosed
				}
				return err
			}

			var in inbound
			if err := json.Unmarshal(data, &in.req); err != nil {
				in.err = err
			}

			select {
			case requests <- in:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// executions
	g.Go(func() error {
		defer close(events)
		for in := range requests {
			if in.err != nil {
				emit(models.NewErrorEvent(models.NewErrorResponse(models.ErrCodeInvalidRequest, "Invalid message")))
			} else {
				s.execute(ctx, in.req, emit)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		return nil
	})

	// service -> client
	g.Go(func() error {
		for ev := range events {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return fmt.Errorf("writing event: %w", err)
			}
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return nil
	})

	return g.Wait()
}

func (s *ExecutionSocket) execute(ctx context.Context, msg SocketRequest, emit func(models.ExecutionEvent) bool) {
	req, err := ExecutionRequest{Prompt: msg.Prompt, History: msg.History, HandlerID: msg.HandlerID}.toServiceRequest()
	if err != nil {
		_, resp := errorStatus(err)
		emit(models.NewErrorEvent(resp))
		return
	}

	req.OnDelta = func(d string) {
		emit(models.NewDeltaEvent(d))
	}

	rec, err := s.service.Execute(ctx, req)
	if err != nil {
		_, resp := errorStatus(err)
		emit(models.NewErrorEvent(resp))
		return
	}
	emit(models.NewResultEvent(rec))
}
