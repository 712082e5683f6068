package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"solace/internal/consent/models"
	"solace/internal/consent/service/mocks"
	"solace/internal/localstore"
	"solace/internal/remote"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	authority *mocks.MockAuthority
	cache     *localstore.InMemoryStore
	service   *Service
	now       time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.authority = mocks.NewMockAuthority(s.ctrl)
	s.cache = localstore.NewInMemory()
	s.now = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s.service = NewService(
		s.authority,
		s.cache,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.service.Wait()
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func boolPtr(v bool) *bool { return &v }

// =============================================================================
// Reconcile - gate decision
// =============================================================================

// TestReconcile_NoDecisionAnywhere verifies the gate stays closed when the
// authority has no record and the cache is empty.
// Invariant: absence of a decision never opens the gate.
func (s *ServiceSuite) TestReconcile_NoDecisionAnywhere() {
	s.authority.EXPECT().
		FetchConsent(gomock.Any(), "u-1").
		Return(&remote.ConsentStatus{Consent: nil}, nil)

	gate := s.service.Reconcile(context.Background(), "u-1")
	assert.False(s.T(), gate.Open)
	assert.Equal(s.T(), models.DecisionUnset, gate.Decision)
	assert.False(s.T(), gate.Degraded)
}

func (s *ServiceSuite) TestReconcile_RemoteGrantOpensGateAndWritesCache() {
	s.authority.EXPECT().
		FetchConsent(gomock.Any(), "u-1").
		Return(&remote.ConsentStatus{Consent: boolPtr(true), Date: "2026-08-01T00:00:00Z"}, nil)

	gate := s.service.Reconcile(context.Background(), "u-1")
	require.True(s.T(), gate.Open)

	value, err := s.cache.Get(context.Background(), localstore.ConsentKey("u-1"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "true", value)

	date, err := s.cache.Get(context.Background(), localstore.ConsentDateKey("u-1"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "2026-08-01T00:00:00Z", date)
}

// TestReconcile_RemoteOverwritesStaleLocal verifies the authority wins over
// the cache in both directions.
// Invariant: a boolean remote value always overwrites the cached one.
func (s *ServiceSuite) TestReconcile_RemoteOverwritesStaleLocal() {
	s.T().Run("remote true over local false", func(t *testing.T) {
		require.NoError(t, s.cache.Put(context.Background(), localstore.ConsentKey("u-1"), "false"))
		s.authority.EXPECT().
			FetchConsent(gomock.Any(), "u-1").
			Return(&remote.ConsentStatus{Consent: boolPtr(true)}, nil)

		gate := s.service.Reconcile(context.Background(), "u-1")
		assert.True(t, gate.Open)
		assert.Equal(t, models.DecisionGranted, gate.Decision)
	})

	s.T().Run("remote false over local true", func(t *testing.T) {
		require.NoError(t, s.cache.Put(context.Background(), localstore.ConsentKey("u-2"), "true"))
		s.authority.EXPECT().
			FetchConsent(gomock.Any(), "u-2").
			Return(&remote.ConsentStatus{Consent: boolPtr(false)}, nil)

		gate := s.service.Reconcile(context.Background(), "u-2")
		assert.False(t, gate.Open)
		assert.Equal(t, models.DecisionDeclined, gate.Decision)
	})
}

// TestReconcile_FetchFailureDegradesToCache verifies degraded operation.
// Invariant: a failed authoritative fetch falls back to the cache but can
// never grant access that the cache does not already record.
func (s *ServiceSuite) TestReconcile_FetchFailureDegradesToCache() {
	s.T().Run("cached grant keeps gate open", func(t *testing.T) {
		require.NoError(t, s.cache.Put(context.Background(), localstore.ConsentKey("u-1"), "true"))
		s.authority.EXPECT().
			FetchConsent(gomock.Any(), "u-1").
			Return(nil, assert.AnError)

		gate := s.service.Reconcile(context.Background(), "u-1")
		assert.True(t, gate.Open)
		assert.True(t, gate.Degraded)
	})

	s.T().Run("empty cache keeps gate closed", func(t *testing.T) {
		s.authority.EXPECT().
			FetchConsent(gomock.Any(), "u-2").
			Return(nil, assert.AnError)

		gate := s.service.Reconcile(context.Background(), "u-2")
		assert.False(t, gate.Open)
		assert.True(t, gate.Degraded)
		assert.Equal(t, models.DecisionUnset, gate.Decision)
	})
}

func (s *ServiceSuite) TestReconcile_NilRemoteDecisionKeepsCachedValue() {
	require.NoError(s.T(), s.cache.Put(context.Background(), localstore.ConsentKey("u-1"), "true"))
	s.authority.EXPECT().
		FetchConsent(gomock.Any(), "u-1").
		Return(&remote.ConsentStatus{Consent: nil}, nil)

	gate := s.service.Reconcile(context.Background(), "u-1")
	assert.True(s.T(), gate.Open)
	assert.False(s.T(), gate.Degraded)
}

// =============================================================================
// Accept / Decline - local-first write, best-effort notify
// =============================================================================

func (s *ServiceSuite) TestAccept_WritesCacheAndNotifiesBackend() {
	s.authority.EXPECT().
		PushConsent(gomock.Any(), "u-1", true, s.now).
		Return(nil)

	record := s.service.Accept(context.Background(), "u-1")
	s.service.Wait()

	assert.Equal(s.T(), models.DecisionGranted, record.Decision)
	assert.Equal(s.T(), s.now, record.DecidedAt)

	value, err := s.cache.Get(context.Background(), localstore.ConsentKey("u-1"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "true", value)
}

// TestDecline_LocalEffectSurvivesNotifyFailure verifies decline is recorded
// locally even when the backend cannot be told.
// Invariant: the local decision is never reversed by a failed notification.
func (s *ServiceSuite) TestDecline_LocalEffectSurvivesNotifyFailure() {
	s.authority.EXPECT().
		PushConsent(gomock.Any(), "u-1", false, s.now).
		Return(assert.AnError)

	record := s.service.Decline(context.Background(), "u-1")
	s.service.Wait()

	assert.Equal(s.T(), models.DecisionDeclined, record.Decision)
	value, err := s.cache.Get(context.Background(), localstore.ConsentKey("u-1"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "false", value)
	assert.Equal(s.T(), models.DecisionDeclined, s.service.CachedDecision(context.Background(), "u-1"))
}

// TestNotify_SurvivesCallerCancellation verifies the push context is
// detached from the triggering request.
func (s *ServiceSuite) TestNotify_SurvivesCallerCancellation() {
	s.authority.EXPECT().
		PushConsent(gomock.Any(), "u-1", false, s.now).
		DoAndReturn(func(ctx context.Context, _ string, _ bool, _ time.Time) error {
			assert.NoError(s.T(), ctx.Err(), "push context must not inherit cancellation")
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.service.Decline(ctx, "u-1")
	s.service.Wait()
}

// =============================================================================
// CachedDecision - per-user isolation
// =============================================================================

func (s *ServiceSuite) TestCachedDecision_IsPerUser() {
	require.NoError(s.T(), s.cache.Put(context.Background(), localstore.ConsentKey("alice"), "true"))

	assert.Equal(s.T(), models.DecisionGranted, s.service.CachedDecision(context.Background(), "alice"))
	assert.Equal(s.T(), models.DecisionUnset, s.service.CachedDecision(context.Background(), "bob"))
}
