package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("pipeline-metrics")

// PipelineMetrics provides metrics collection for prompt executions. A nil
// *PipelineMetrics records nothing.
type PipelineMetrics struct {
	executionsStartedCounter   metric.Int64Counter
	executionsCompletedCounter metric.Int64Counter
	executionsFailedCounter    metric.Int64Counter
	executionDurationHistogram metric.Float64Histogram
	executionsActiveGauge      metric.Int64UpDownCounter
	artifactsCounter           metric.Int64Counter
	reviewStageCounter         metric.Int64Counter
}

// NewPipelineMetrics creates the instruments on m, or on the global meter
// when m is nil.
func NewPipelineMetrics(m metric.Meter) (*PipelineMetrics, error) {
	if m == nil {
		m = meter
	}

	executionsStartedCounter, err := m.Int64Counter(
		"orchestrator.executions.started",
		metric.WithDescription("Total number of executions started"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	executionsCompletedCounter, err := m.Int64Counter(
		"orchestrator.executions.completed",
		metric.WithDescription("Total number of executions completed successfully"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	executionsFailedCounter, err := m.Int64Counter(
		"orchestrator.executions.failed",
		metric.WithDescription("Total number of executions that failed"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	executionDurationHistogram, err := m.Float64Histogram(
		"orchestrator.execution.duration",
		metric.WithDescription("Duration of an execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	executionsActiveGauge, err := m.Int64UpDownCounter(
		"orchestrator.executions.active",
		metric.WithDescription("Number of executions currently streaming"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	artifactsCounter, err := m.Int64Counter(
		"orchestrator.artifacts.extracted",
		metric.WithDescription("Artifacts extracted from handler responses"),
		metric.WithUnit("{artifact}"),
	)
	if err != nil {
		return nil, err
	}

	reviewStageCounter, err := m.Int64Counter(
		"orchestrator.reviews.normalized",
		metric.WithDescription("Review results by recovery stage"),
		metric.WithUnit("{review}"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		executionsStartedCounter:   executionsStartedCounter,
		executionsCompletedCounter: executionsCompletedCounter,
		executionsFailedCounter:    executionsFailedCounter,
		executionDurationHistogram: executionDurationHistogram,
		executionsActiveGauge:      executionsActiveGauge,
		artifactsCounter:           artifactsCounter,
		reviewStageCounter:         reviewStageCounter,
	}, nil
}

// RecordExecutionStarted records a new execution against a handler
func (pm *PipelineMetrics) RecordExecutionStarted(ctx context.Context, handlerID, intent string) {
	if pm == nil {
		return
	}
	pm.executionsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
			attribute.String("intent", intent),
		),
	)
	pm.executionsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
		),
	)
}

// RecordExecutionCompleted records a successful execution
func (pm *PipelineMetrics) RecordExecutionCompleted(ctx context.Context, handlerID string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.executionsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
			attribute.String("status", "success"),
		),
	)
	pm.executionDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
			attribute.String("status", "success"),
		),
	)
	pm.executionsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
		),
	)
}

// RecordExecutionFailed records a failed execution
func (pm *PipelineMetrics) RecordExecutionFailed(ctx context.Context, handlerID, errorKind string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.executionsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
			attribute.String("status", "error"),
			attribute.String("error.kind", errorKind),
		),
	)
	pm.executionDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
			attribute.String("status", "error"),
		),
	)
	pm.executionsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
		),
	)
}

// RecordArtifact records one extracted artifact
func (pm *PipelineMetrics) RecordArtifact(ctx context.Context, handlerID, kind string) {
	if pm == nil {
		return
	}
	pm.artifactsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("handler.id", handlerID),
			attribute.String("artifact.kind", kind),
		),
	)
}

// RecordReviewStage records which recovery stage produced a review, or
// "failed" when none did
func (pm *PipelineMetrics) RecordReviewStage(ctx context.Context, stage string) {
	if pm == nil {
		return
	}
	pm.reviewStageCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("review.stage", stage),
		),
	)
}
