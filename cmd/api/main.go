package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/config"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/gateway"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/logging"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/metrics"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/orchestration"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/telemetry"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/tokens"

	_ "github.com/bizmatters/agent-builder/artifact-orchestrator/docs" // swagger docs
)

// @title Artifact Orchestrator API
// @version 1.0
// @description Routes prompts to specialized AI handlers and turns their streamed replies into typed artifacts.
// @description
// @description Features include: intent classification, streamed executions over SSE or websockets,
// @description code/document/table/diff extraction, pull request review normalization and per-handler quality telemetry.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize OpenTelemetry
	tp, err := initTracer()
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	pipelineMetrics, err := metrics.NewPipelineMetrics(nil)
	if err != nil {
		logger.Fatal("Failed to initialize pipeline metrics", zap.Error(err))
	}

	counter := tokens.NewTiktoken(cfg.TokenEncoding)
	tracker := telemetry.NewTracker()

	// Initialize orchestration layer
	client := orchestration.NewHandlerClient(cfg.Handler, logger)
	service := orchestration.NewService(client, tracker,
		orchestration.WithLogger(logger),
		orchestration.WithMetrics(pipelineMetrics),
		orchestration.WithTokenCounter(counter),
		orchestration.WithHistory(orchestration.NewHistory(cfg.History.Limit)),
		orchestration.WithHistoryWindow(cfg.History.Window),
	)

	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager, err = auth.NewJWTManager(cfg.JWTSecret)
		if err != nil {
			logger.Fatal("Failed to initialize JWT manager", zap.Error(err))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		telemetry.NewCollector(tracker),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize gateway layer
	router := gateway.NewRouter(service, gateway.RouterOptions{
		Logger:     logger,
		JWTManager: jwtManager,
		Gatherer:   registry,
	})

	// Swagger documentation (public)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Handler.Timeout + 15*time.Second, // executions stream for up to the handler timeout
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting artifact orchestrator API server",
			zap.String("port", cfg.Port),
			zap.String("runtime_url", cfg.Handler.RuntimeURL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initTracer initializes OpenTelemetry tracing
func initTracer() (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}
