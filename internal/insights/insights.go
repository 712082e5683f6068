// Package insights loads the user's interaction statistics and emotion
// history after the consent gate opens, and derives the displayed
// stability score.
package insights

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"solace/internal/platform/tracer"
	"solace/internal/remote"
	"solace/internal/session"
)

// HistoryDays is the emotion-history window requested from the backend.
const HistoryDays = 7

// Backend is the subset of the remote client the loader needs.
type Backend interface {
	FetchStatistics(ctx context.Context, token, userID string) (*remote.Statistics, error)
	FetchMoodHistory(ctx context.Context, token, userID string, days int) ([]remote.MoodPoint, error)
}

// Summary is what the panels render. Either part may be missing when its
// load failed; failures are logged, never surfaced.
type Summary struct {
	Stats     *remote.Statistics
	Stability float64
	History   []remote.MoodPoint
}

// Loader fetches statistics and history concurrently.
type Loader struct {
	backend Backend
	logger  *slog.Logger
	tracer  tracer.Tracer
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger instance.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithTracer sets the tracer.
func WithTracer(t tracer.Tracer) LoaderOption {
	return func(l *Loader) {
		l.tracer = t
	}
}

// NewLoader creates a Loader over the backend.
func NewLoader(backend Backend, opts ...LoaderOption) *Loader {
	l := &Loader{backend: backend}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.tracer == nil {
		l.tracer = tracer.NewNoop()
	}
	return l
}

// Load fetches both series concurrently and returns whatever arrived.
// A failed fetch leaves its part of the summary empty.
func (l *Loader) Load(ctx context.Context, sess session.Session) *Summary {
	ctx, span := l.tracer.Start(ctx, tracer.SpanInsightsLoad,
		tracer.String(tracer.AttrUserID, tracer.HashUserID(sess.UserID)))
	defer span.End(nil)

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := l.backend.FetchStatistics(gctx, sess.Token, sess.UserID)
		if err != nil {
			l.logger.DebugContext(gctx, "statistics load failed", "error", err)
			return nil
		}
		mu.Lock()
		summary.Stats = stats
		summary.Stability = StabilityScore(stats.AverageEmotion)
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		history, err := l.backend.FetchMoodHistory(gctx, sess.Token, sess.UserID, HistoryDays)
		if err != nil {
			l.logger.DebugContext(gctx, "mood history load failed", "error", err)
			return nil
		}
		mu.Lock()
		summary.History = history
		mu.Unlock()
		return nil
	})
	_ = g.Wait()
	return &summary
}

// StabilityScore derives the displayed stability percentage from the
// average emotion: 100 - |avg - 0.5| * 200, rounded to two decimals.
// An average of 0.5 is perfectly stable; either extreme scores zero.
func StabilityScore(averageEmotion float64) float64 {
	score := 100 - math.Abs(averageEmotion-0.5)*200
	return math.Round(score*100) / 100
}
