// Package survey decides when to prompt for the periodic wellbeing survey
// and submits completed responses with bounded retry.
package survey

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"solace/internal/consent/models"
	"solace/internal/localstore"
)

// Prompt cadence. The threshold is re-drawn uniformly from
// [thresholdFloorDays, thresholdFloorDays+jitterSpanDays) on every
// evaluation so the cadence stays unpredictable.
const (
	thresholdFloorDays = 5
	jitterSpanDays     = 2

	firstPromptDelay  = 3 * time.Second
	repeatPromptDelay = 2 * time.Second
)

// ConsentReader exposes the per-user cached consent decision that gates the
// very first prompt.
type ConsentReader interface {
	CachedDecision(ctx context.Context, userID string) models.Decision
}

// Scheduler decides whether to show the survey prompt.
type Scheduler struct {
	cache   localstore.Store
	consent ConsentReader
	logger  *slog.Logger
	now     func() time.Time
	randVal func() float64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the logger instance.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithSchedulerClock replaces the time source (for tests).
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedulerRand replaces the jitter source, a function returning values
// in [0,1) (for tests).
func WithSchedulerRand(randVal func() float64) SchedulerOption {
	return func(s *Scheduler) {
		if randVal != nil {
			s.randVal = randVal
		}
	}
}

// NewScheduler creates a Scheduler over the durable cache and consent state.
func NewScheduler(cache localstore.Store, consent ConsentReader, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		cache:   cache,
		consent: consent,
		now:     time.Now,
		randVal: rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ShouldPrompt reports whether the survey prompt is due for the user, and
// after which delay it should open.
//
// With no prior submission on record the prompt fires only when the user's
// consent is granted, after a short first-run delay. With a prior
// submission, elapsed whole days are compared against a freshly drawn
// jittered threshold.
func (s *Scheduler) ShouldPrompt(ctx context.Context, userID string) (bool, time.Duration) {
	last, err := s.cache.Get(ctx, localstore.LastSurveyKey())
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.logger.WarnContext(ctx, "survey schedule read failed", "error", err)
			return false, 0
		}
		if s.consent.CachedDecision(ctx, userID).Granted() {
			return true, firstPromptDelay
		}
		return false, 0
	}

	lastAt, err := time.Parse(time.RFC3339, last)
	if err != nil {
		s.logger.WarnContext(ctx, "survey schedule timestamp unparsable, treating as due", "value", last)
		return true, repeatPromptDelay
	}

	elapsedDays := int(s.now().Sub(lastAt).Hours() / 24)
	threshold := thresholdFloorDays + s.randVal()*jitterSpanDays
	if float64(elapsedDays) >= threshold {
		return true, repeatPromptDelay
	}
	return false, 0
}

// MarkSubmitted records the confirmed submission time. Called only after
// the backend acknowledged the submission.
func (s *Scheduler) MarkSubmitted(ctx context.Context, at time.Time) error {
	return s.cache.Put(ctx, localstore.LastSurveyKey(), at.UTC().Format(time.RFC3339))
}
