package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/artifact"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/metrics"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/review"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/routing"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/stream"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/telemetry"
	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/tokens"
)

// DefaultHistoryWindow is the number of prior turns forwarded to a handler.
const DefaultHistoryWindow = 10

var (
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrEmptyDiff      = errors.New("diff is empty")
	ErrUnknownHandler = errors.New("unknown handler")
	ErrUnknownAction  = errors.New("unknown action")
)

// Action is a user reaction to a rendered artifact.
type Action string

const (
	ActionCopy     Action = "copy"
	ActionExpand   Action = "expand"
	ActionDownload Action = "download"
	ActionEdit     Action = "edit"
	ActionRetry    Action = "retry"
	ActionLanguage Action = "language"
)

// ExecuteRequest is a prompt submission. Handler overrides routing when set.
// OnDelta, when set, is called with each content fragment as it arrives.
type ExecuteRequest struct {
	Prompt  string
	History []Message
	Handler routing.HandlerID
	OnDelta func(string)
}

// ReviewRequest asks the reviewer handler to assess a unified diff.
type ReviewRequest struct {
	Diff    string
	Mode    string
	Notes   string
	OnDelta func(string)
}

// Service runs prompts through classification, routing, the handler runtime
// and artifact extraction.
type Service struct {
	client    HandlerInvoker
	tracker   *telemetry.Tracker
	metrics   *metrics.PipelineMetrics
	counter   tokens.Counter
	extractor *artifact.Extractor
	history   *History
	window    int
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTokenCounter sets the counter used for tokenCount. The default is
// tokens.Estimate.
func WithTokenCounter(c tokens.Counter) Option {
	return func(s *Service) { s.counter = c }
}

func WithExtractor(e *artifact.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

func WithHistory(h *History) Option {
	return func(s *Service) { s.history = h }
}

// WithHistoryWindow bounds the conversation turns sent with each request.
func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new orchestration service
func NewService(client HandlerInvoker, tracker *telemetry.Tracker, opts ...Option) *Service {
	s := &Service{
		client:    client,
		tracker:   tracker,
		counter:   tokens.CounterFunc(tokens.Estimate),
		extractor: artifact.NewExtractor(),
		history:   NewHistory(DefaultHistoryLimit),
		window:    DefaultHistoryWindow,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("orchestration-service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracker == nil {
		s.tracker = telemetry.NewTracker()
	}
	return s
}

func (s *Service) History() *History {
	return s.history
}

func (s *Service) Tracker() *telemetry.Tracker {
	return s.tracker
}

// Healthy reports whether the handler runtime is reachable.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.client.IsHealthy(ctx)
}

// Classify returns the intent of prompt and the handler it routes to.
func (s *Service) Classify(prompt string) (intent.Category, routing.HandlerID) {
	c := intent.Classify(prompt)
	return c, routing.Route(c)
}

// Execute runs prompt through the full pipeline. The returned record is also
// stored in the history; on failure it carries StatusError and is returned
// together with the error.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (*ExecutionRecord, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	category, handler := s.Classify(req.Prompt)
	if req.Handler != "" {
		if !req.Handler.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, req.Handler)
		}
		handler = req.Handler
	}

	ctx, span := s.tracer.Start(ctx, "orchestration.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("intent", string(category)),
		attribute.String("handler.id", string(handler)),
	)

	start := s.now()
	rec := &ExecutionRecord{
		ID:        ulid.Make().String(),
		Prompt:    req.Prompt,
		Intent:    category,
		Handler:   handler,
		Artifacts: []artifact.Artifact{},
		Timestamp: start,
	}
	rec.Retry = s.tracker.TrackRequest(handler, req.Prompt)
	s.metrics.RecordExecutionStarted(ctx, string(handler), string(category))

	text, err := s.invoke(ctx, InvokeRequest{
		HandlerID: handler,
		Message:   req.Prompt,
		History:   s.recentTurns(req.History),
	}, req.OnDelta)
	rec.Text = text
	if err != nil {
		return rec, s.fail(ctx, span, rec, start, err)
	}

	if arts := s.extractor.Extract(text, category); len(arts) > 0 {
		rec.Artifacts = arts
	}
	rec.Tokens = s.counter.Count(text)
	elapsed := s.now().Sub(start)
	rec.DurationMS = float64(elapsed) / float64(time.Millisecond)
	rec.Status = StatusSuccess

	s.tracker.TrackSuccess(handler, telemetry.Outcome{
		ResponseTime: elapsed,
		Tokens:       rec.Tokens,
		CodeLength:   artifact.CodeLength(rec.Artifacts),
	})
	for _, lang := range artifact.Languages(rec.Artifacts) {
		s.tracker.TrackLanguage(handler, lang)
	}
	for _, a := range rec.Artifacts {
		s.metrics.RecordArtifact(ctx, string(handler), string(a.Kind))
	}
	s.metrics.RecordExecutionCompleted(ctx, string(handler), elapsed)
	s.history.Add(rec)

	span.SetAttributes(attribute.Int("artifacts", len(rec.Artifacts)), attribute.Int("tokens", rec.Tokens))
	s.logger.Info("Execution completed",
		zap.String("execution_id", rec.ID),
		zap.String("handler", string(handler)),
		zap.String("intent", string(category)),
		zap.Int("artifacts", len(rec.Artifacts)),
		zap.Int("tokens", rec.Tokens),
		zap.Bool("retry", rec.Retry),
		zap.Duration("duration", elapsed),
	)
	return rec, nil
}

// Review sends a diff to the reviewer handler and normalizes its answer. A
// *review.ParseError is returned when no result could be recovered.
func (s *Service) Review(ctx context.Context, req ReviewRequest) (*review.Result, error) {
	if strings.TrimSpace(req.Diff) == "" {
		return nil, ErrEmptyDiff
	}

	handler := routing.Reviewer
	ctx, span := s.tracer.Start(ctx, "orchestration.review")
	defer span.End()
	span.SetAttributes(attribute.String("handler.id", string(handler)))

	message := reviewPrompt(req)
	start := s.now()
	rec := &ExecutionRecord{
		ID:        ulid.Make().String(),
		Prompt:    message,
		Intent:    intent.Review,
		Handler:   handler,
		Artifacts: []artifact.Artifact{},
		Timestamp: start,
	}
	rec.Retry = s.tracker.TrackRequest(handler, message)
	s.metrics.RecordExecutionStarted(ctx, string(handler), string(intent.Review))

	text, err := s.invoke(ctx, InvokeRequest{HandlerID: handler, Message: message}, req.OnDelta)
	rec.Text = text
	if err != nil {
		return nil, s.fail(ctx, span, rec, start, err)
	}

	res, err := review.Normalize(text)
	if err != nil {
		s.metrics.RecordReviewStage(ctx, "failed")
		return nil, s.fail(ctx, span, rec, start, err)
	}
	if req.Mode != "" && res.ReviewMode == review.DefaultReviewMode {
		res.ReviewMode = req.Mode
	}
	review.WithDiff(res, req.Diff)

	rec.Tokens = s.counter.Count(text)
	elapsed := s.now().Sub(start)
	rec.DurationMS = float64(elapsed) / float64(time.Millisecond)
	rec.Status = StatusSuccess

	s.tracker.TrackSuccess(handler, telemetry.Outcome{ResponseTime: elapsed, Tokens: rec.Tokens})
	s.metrics.RecordReviewStage(ctx, string(res.RecoveredBy))
	s.metrics.RecordExecutionCompleted(ctx, string(handler), elapsed)
	s.history.Add(rec)

	span.SetAttributes(attribute.String("review.stage", string(res.RecoveredBy)))
	s.logger.Info("Review completed",
		zap.String("execution_id", rec.ID),
		zap.String("stage", string(res.RecoveredBy)),
		zap.String("verdict", string(res.Health.Verdict)),
		zap.Int("comments", len(res.Comments)),
		zap.Duration("duration", elapsed),
	)
	return res, nil
}

// RecordAction records a user reaction against handler h. language is only
// read for ActionLanguage.
func (s *Service) RecordAction(h routing.HandlerID, action Action, language string) error {
	if !h.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownHandler, h)
	}
	switch action {
	case ActionCopy:
		s.tracker.TrackCopy(h)
	case ActionExpand:
		s.tracker.TrackExpand(h)
	case ActionDownload:
		s.tracker.TrackDownload(h)
	case ActionEdit:
		s.tracker.TrackEdit(h)
	case ActionRetry:
		s.tracker.TrackRetry(h)
	case ActionLanguage:
		if strings.TrimSpace(language) == "" {
			return fmt.Errorf("%w: language action needs a language", ErrUnknownAction)
		}
		s.tracker.TrackLanguage(h, language)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return nil
}

// invoke calls the handler and drains its stream. On a mid-stream failure the
// text received so far is returned with the error.
func (s *Service) invoke(ctx context.Context, req InvokeRequest, onDelta func(string)) (string, error) {
	body, err := s.client.Invoke(ctx, req)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return stream.Collect(ctx, body, onDelta)
}

func (s *Service) fail(ctx context.Context, span trace.Span, rec *ExecutionRecord, start time.Time, err error) error {
	kind := ErrorKindOf(err)
	if errors.Is(err, review.ErrUnparseable) {
		kind = "unparseable"
	}
	elapsed := s.now().Sub(start)

	rec.Status = StatusError
	rec.Error = err.Error()
	rec.ErrorKind = kind
	rec.DurationMS = float64(elapsed) / float64(time.Millisecond)

	s.tracker.TrackError(rec.Handler, kind)
	s.metrics.RecordExecutionFailed(ctx, string(rec.Handler), kind, elapsed)
	s.history.Add(rec)

	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	s.logger.Warn("Execution failed",
		zap.String("execution_id", rec.ID),
		zap.String("handler", string(rec.Handler)),
		zap.String("error_kind", kind),
		zap.Int("partial_length", len(rec.Text)),
		zap.Error(err),
	)
	return err
}

// recentTurns keeps the most recent turns.
func (s *Service) recentTurns(history []Message) []Message {
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

func reviewPrompt(req ReviewRequest) string {
	mode := req.Mode
	if mode == "" {
		mode = review.DefaultReviewMode
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review the following pull request diff in %s mode.\n", mode)
	b.WriteString("Respond with a single JSON object with the fields health, diff_awareness, comments, security_findings, summary and review_mode.\n")
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		fmt.Fprintf(&b, "\nReviewer notes:\n%s\n", notes)
	}
	b.WriteString("\n```diff\n")
	b.WriteString(strings.TrimRight(req.Diff, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}
