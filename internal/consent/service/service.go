package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"solace/internal/consent/models"
	"solace/internal/localstore"
	"solace/internal/platform/metrics"
	"solace/internal/platform/tracer"
	"solace/internal/remote"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Authority

// Authority is the backend's authoritative view of consent state.
// Error Contract:
// - FetchConsent returns a status with a nil Consent when no decision is on file
// - PushConsent failures are tolerated by this service (best-effort)
type Authority interface {
	FetchConsent(ctx context.Context, userID string) (*remote.ConsentStatus, error)
	PushConsent(ctx context.Context, userID string, consent bool, date time.Time) error
}

// Service reconciles backend-authoritative consent state with the local
// per-user cache and exposes the gate decision the application blocks on.
//
// The cache is a read-through mirror: a boolean from the authority always
// overwrites it, and a failed authoritative fetch degrades to the cache but
// never grants access by itself.
type Service struct {
	authority Authority
	cache     localstore.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	now       func() time.Time

	group  singleflight.Group
	notify sync.WaitGroup
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used around reconciliation and notification.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock replaces the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a consent service over the authority and local cache.
func NewService(authority Authority, cache localstore.Store, opts ...Option) *Service {
	s := &Service{
		authority: authority,
		cache:     cache,
		now:       time.Now,
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
	return s
}

// Reconcile merges the authoritative record with the per-user cache entry
// and returns the gate decision. Executed once per transition into the
// authenticated state; concurrent calls for the same user share one
// authoritative fetch.
func (s *Service) Reconcile(ctx context.Context, userID string) models.Gate {
	ctx, span := s.tracer.Start(ctx, tracer.SpanConsentReconcile,
		tracer.String(tracer.AttrUserID, tracer.HashUserID(userID)))

	degraded := false
	status, err, _ := s.fetchShared(ctx, userID)
	if err != nil {
		// Degrade to the cache alone; a failed fetch never grants access.
		s.logger.WarnContext(ctx, "authoritative consent fetch failed, using local cache",
			"user_id", userID, "error", err)
		degraded = true
	} else if status.Consent != nil {
		// The remote value always wins over a stale local one.
		s.writeCache(ctx, userID, decisionFor(*status.Consent), s.parseDate(status.Date))
	}

	decision := s.CachedDecision(ctx, userID)
	gate := models.Gate{Open: decision.Granted(), Decision: decision, Degraded: degraded}

	span.SetAttributes(tracer.Bool(tracer.AttrGateOpen, gate.Open))
	span.End(nil)
	if s.metrics != nil {
		if gate.Open {
			s.metrics.ConsentGateOpened.Inc()
		} else {
			s.metrics.ConsentGateClosed.Inc()
		}
	}
	return gate
}

// CachedDecision reads the per-user cache entry without touching the
// authority.
func (s *Service) CachedDecision(ctx context.Context, userID string) models.Decision {
	value, err := s.cache.Get(ctx, localstore.ConsentKey(userID))
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.logger.WarnContext(ctx, "consent cache read failed", "user_id", userID, "error", err)
		}
		return models.ParseCached("", false)
	}
	return models.ParseCached(value, true)
}

// Accept records the user's grant: the cache entry is written first, then
// the backend is notified asynchronously. A failed notification is logged
// and never reverses the local decision.
func (s *Service) Accept(ctx context.Context, userID string) models.Record {
	record := models.Record{UserID: userID, Decision: models.DecisionGranted, DecidedAt: s.now()}
	s.writeCache(ctx, userID, record.Decision, record.DecidedAt)
	s.notifyBackend(ctx, record)
	return record
}

// Decline records the user's refusal. The local effect is immediate and
// irreversible for this session regardless of whether the backend
// notification succeeds.
func (s *Service) Decline(ctx context.Context, userID string) models.Record {
	record := models.Record{UserID: userID, Decision: models.DecisionDeclined, DecidedAt: s.now()}
	s.writeCache(ctx, userID, record.Decision, record.DecidedAt)
	s.notifyBackend(ctx, record)
	return record
}

// Wait blocks until in-flight best-effort notifications settle. Called on
// shutdown and by tests.
func (s *Service) Wait() {
	s.notify.Wait()
}

func (s *Service) fetchShared(ctx context.Context, userID string) (*remote.ConsentStatus, error, bool) {
	v, err, shared := s.group.Do(userID, func() (any, error) {
		return s.authority.FetchConsent(ctx, userID)
	})
	if err != nil {
		return nil, err, shared
	}
	return v.(*remote.ConsentStatus), nil, shared
}

func (s *Service) writeCache(ctx context.Context, userID string, decision models.Decision, decidedAt time.Time) {
	if err := s.cache.Put(ctx, localstore.ConsentKey(userID), decision.CacheValue()); err != nil {
		s.logger.WarnContext(ctx, "consent cache write failed", "user_id", userID, "error", err)
		return
	}
	if err := s.cache.Put(ctx, localstore.ConsentDateKey(userID), decidedAt.UTC().Format(time.RFC3339)); err != nil {
		s.logger.WarnContext(ctx, "consent date write failed", "user_id", userID, "error", err)
	}
}

// notifyBackend pushes the decision without blocking the caller. The
// detached context outlives the triggering request on purpose: a decline
// teardown must not cancel its own best-effort notification.
func (s *Service) notifyBackend(ctx context.Context, record models.Record) {
	pushCtx := context.WithoutCancel(ctx)
	s.notify.Add(1)
	go func() {
		defer s.notify.Done()
		_, span := s.tracer.Start(pushCtx, tracer.SpanConsentNotify,
			tracer.String(tracer.AttrUserID, tracer.HashUserID(record.UserID)))
		err := s.authority.PushConsent(pushCtx, record.UserID, record.Decision.Granted(), record.DecidedAt)
		span.End(err)
		if err != nil {
			s.logger.WarnContext(pushCtx, "best-effort consent sync failed",
				"user_id", record.UserID, "decision", string(record.Decision), "error", err)
			if s.metrics != nil {
				s.metrics.ConsentSyncFailed.Inc()
			}
		}
	}()
}

func (s *Service) parseDate(raw string) time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return s.now()
}

func decisionFor(consent bool) models.Decision {
	if consent {
		return models.DecisionGranted
	}
	return models.DecisionDeclined
}
