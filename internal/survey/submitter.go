package survey

import (
	"context"
	"log/slog"
	"time"

	"solace/internal/platform/metrics"
	"solace/internal/platform/tracer"
	"solace/internal/remote"
	"solace/internal/session"
	dErrors "solace/pkg/domain-errors"
	"solace/pkg/platform/retry"
)

// Retry budgets match the submission contract: retryable server statuses
// get three retries at three-second spacing, transport failures two retries
// at two-second spacing.
var (
	unavailablePolicy = retry.Policy{MaxRetries: 3, Delay: 3 * time.Second}
	transportPolicy   = retry.Policy{MaxRetries: 2, Delay: 2 * time.Second}
)

// Sender posts one survey submission to the backend.
type Sender interface {
	SubmitSurvey(ctx context.Context, token string, submission remote.SurveySubmission) error
}

// Submitter validates, sends, and retries survey submissions. There is no
// idempotency key; at-least-once delivery is the accepted tradeoff.
type Submitter struct {
	sender        Sender
	executor      *retry.Executor
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        tracer.Tracer
	now           func() time.Time
	sleepOverride func(ctx context.Context, d time.Duration) error
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithSubmitterLogger sets the logger instance.
func WithSubmitterLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// WithSubmitterMetrics sets the metrics instance.
func WithSubmitterMetrics(m *metrics.Metrics) SubmitterOption {
	return func(s *Submitter) {
		s.metrics = m
	}
}

// WithSubmitterTracer sets the tracer.
func WithSubmitterTracer(t tracer.Tracer) SubmitterOption {
	return func(s *Submitter) {
		s.tracer = t
	}
}

// WithSubmitterClock replaces the time source (for tests).
func WithSubmitterClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSubmitterSleep replaces the retry delay function (for tests).
func WithSubmitterSleep(sleep func(ctx context.Context, d time.Duration) error) SubmitterOption {
	return func(s *Submitter) {
		s.sleepOverride = sleep
	}
}

// Submit sends the responses under the session's credential. Local
// preconditions reject without any network call: every question must be
// answered and a session must exist. Retryable failures are re-sent under
// the policy budgets; the final error keeps the attempted endpoint for
// diagnostics.
func (s *Submitter) Submit(ctx context.Context, sess *session.Session, responses []Response) error {
	if !Complete(responses) {
		return dErrors.New(dErrors.CodeValidation, "please answer every question before submitting")
	}
	if sess == nil || sess.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "no signed-in user; sign in before submitting the survey")
	}

	submission := remote.SurveySubmission{
		UserID:    sess.UserID,
		Timestamp: s.now(),
		Responses: toWire(responses),
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanSurveySubmit,
		tracer.String(tracer.AttrUserID, tracer.HashUserID(sess.UserID)))
	err := s.executor.Do(ctx, classifySubmitError, func(ctx context.Context, attempt int) error {
		return s.sender.SubmitSurvey(ctx, sess.Token, submission)
	})
	span.End(err)

	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.SurveySubmissions.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeRetryExhausted, "survey submission failed", err)
	}
	return nil
}

// NewSubmitter creates a Submitter over the sender.
func NewSubmitter(sender Sender, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		sender: sender,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = tracer.NewNoop()
	}

	execOpts := []retry.Option{
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			s.logger.Info("retrying survey submission",
				"attempt", attempt, "delay", delay.String(), "error", err.Error())
			if s.metrics != nil {
				s.metrics.SurveyRetriesTotal.Inc()
			}
		}),
	}
	if s.sleepOverride != nil {
		execOpts = append(execOpts, retry.WithSleep(s.sleepOverride))
	}
	s.executor = retry.New(execOpts...)
	return s
}

func classifySubmitError(err error) *retry.Policy {
	switch {
	case dErrors.HasCode(err, dErrors.CodeUnavailable):
		p := unavailablePolicy
		return &p
	case dErrors.HasCode(err, dErrors.CodeTransport):
		p := transportPolicy
		return &p
	default:
		return nil
	}
}
