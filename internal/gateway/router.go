package gateway

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/logging"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger *zap.Logger

	// JWTManager guards /api when set.
	JWTManager *auth.JWTManager

	// Gatherer is exposed on /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the HTTP API around service.
func NewRouter(service *orchestration.Service, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewHandler(service, logger)
	socket := NewExecutionSocket(service, opts.JWTManager, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(logger))

	// Health checks MUST be at the root for the WebService standard
	router.GET("/health", handler.Health)
	router.GET("/ready", handler.Ready)

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.GET("/health", handler.Health)

	// The socket authenticates itself so browsers can pass ?token=.
	api.GET("/ws/executions", socket.Serve)

	protected := api.Group("")
	if opts.JWTManager != nil {
		protected.Use(auth.RequireAuth(opts.JWTManager, logger))
	} else {
		logger.Warn("JWT secret not configured, API is unauthenticated")
	}

	protected.GET("/handlers", handler.ListHandlers)
	protected.POST("/classify", handler.Classify)

	protected.POST("/executions", handler.CreateExecution)
	protected.GET("/executions", handler.ListExecutions)
	protected.GET("/executions/:id", handler.GetExecution)
	protected.DELETE("/executions", handler.ClearExecutions)

	protected.POST("/reviews", handler.CreateReview)

	protected.GET("/telemetry", handler.ListTelemetry)
	protected.GET("/telemetry/:handler", handler.GetTelemetry)
	protected.POST("/telemetry/:handler/events", handler.RecordTelemetryEvent)

	return router
}
