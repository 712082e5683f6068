package survey

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/remote"
	"solace/internal/session"
	dErrors "solace/pkg/domain-errors"
)

// scriptedSender fails with the scripted errors in order, then succeeds.
type scriptedSender struct {
	script      []error
	calls       int
	submissions []remote.SurveySubmission
}

func (s *scriptedSender) SubmitSurvey(_ context.Context, _ string, submission remote.SurveySubmission) error {
	s.calls++
	s.submissions = append(s.submissions, submission)
	if s.calls <= len(s.script) {
		return s.script[s.calls-1]
	}
	return nil
}

func unavailableErr() error {
	return dErrors.NewNetwork(dErrors.CodeUnavailable, "backend temporarily unavailable (status 503)", "https://api.example", nil)
}

func transportErr() error {
	return dErrors.NewNetwork(dErrors.CodeTransport, "unable to reach the companion backend", "https://api.example", nil)
}

func newTestSubmitter(sender Sender, delays *[]time.Duration, now time.Time) *Submitter {
	return NewSubmitter(sender,
		WithSubmitterLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSubmitterClock(func() time.Time { return now }),
		WithSubmitterSleep(func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		}),
	)
}

func testSession() *session.Session {
	return &session.Session{UserID: "u-1", UserName: "alice", Token: "tok-1"}
}

func TestSubmit_IncompleteResponsesRejectedLocally(t *testing.T) {
	sender := &scriptedSender{}
	var delays []time.Duration
	sub := newTestSubmitter(sender, &delays, time.Now())

	responses := answerAll(t, 0)
	responses[0] = Answer(Questions[0], -1)

	err := sub.Submit(context.Background(), testSession(), responses)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Zero(t, sender.calls, "no network call for incomplete responses")
}

func TestSubmit_NoSessionRejectedLocally(t *testing.T) {
	sender := &scriptedSender{}
	var delays []time.Duration
	sub := newTestSubmitter(sender, &delays, time.Now())

	err := sub.Submit(context.Background(), nil, answerAll(t, 0))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Zero(t, sender.calls)
}

func TestSubmit_Success(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	sender := &scriptedSender{}
	var delays []time.Duration
	sub := newTestSubmitter(sender, &delays, now)

	err := sub.Submit(context.Background(), testSession(), answerAll(t, 1))
	require.NoError(t, err)
	require.Equal(t, 1, sender.calls)

	got := sender.submissions[0]
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, now, got.Timestamp)
	assert.Len(t, got.Responses, len(Questions))
	assert.Empty(t, delays)
}

// TestSubmit_RetriesUnavailableThenSucceeds verifies the retry budget for
// retryable server statuses.
// Invariant: three consecutive unavailable responses followed by success
// yield exactly three retries at three-second spacing.
func TestSubmit_RetriesUnavailableThenSucceeds(t *testing.T) {
	sender := &scriptedSender{script: []error{unavailableErr(), unavailableErr(), unavailableErr()}}
	var delays []time.Duration
	sub := newTestSubmitter(sender, &delays, time.Now())

	err := sub.Submit(context.Background(), testSession(), answerAll(t, 0))
	require.NoError(t, err)
	assert.Equal(t, 4, sender.calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, delays)
}

func TestSubmit_RetriesTransportWithSmallerBudget(t *testing.T) {
	t.Run("two transport failures then success", func(t *testing.T) {
		sender := &scriptedSender{script: []error{transportErr(), transportErr()}}
		var delays []time.Duration
		sub := newTestSubmitter(sender, &delays, time.Now())

		err := sub.Submit(context.Background(), testSession(), answerAll(t, 0))
		require.NoError(t, err)
		assert.Equal(t, 3, sender.calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, delays)
	})

	t.Run("three transport failures exhaust the budget", func(t *testing.T) {
		sender := &scriptedSender{script: []error{transportErr(), transportErr(), transportErr()}}
		var delays []time.Duration
		sub := newTestSubmitter(sender, &delays, time.Now())

		err := sub.Submit(context.Background(), testSession(), answerAll(t, 0))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
		assert.Equal(t, "https://api.example", dErrors.EndpointOf(err))
		assert.Equal(t, 3, sender.calls)
	})
}

// TestSubmit_ExhaustionSurfacesUnderlyingCode verifies the final error keeps
// the classification and endpoint of what actually failed.
func TestSubmit_ExhaustionSurfacesUnderlyingCode(t *testing.T) {
	sender := &scriptedSender{script: []error{
		unavailableErr(), unavailableErr(), unavailableErr(), unavailableErr(),
	}}
	var delays []time.Duration
	sub := newTestSubmitter(sender, &delays, time.Now())

	err := sub.Submit(context.Background(), testSession(), answerAll(t, 0))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Equal(t, "https://api.example", dErrors.EndpointOf(err))
	assert.Equal(t, 4, sender.calls)
	assert.Len(t, delays, 3)
}

func TestSubmit_TerminalErrorIsNotRetried(t *testing.T) {
	sender := &scriptedSender{script: []error{
		dErrors.NewNetwork(dErrors.CodeUnauthorized, "session rejected by backend", "https://api.example", nil),
	}}
	var delays []time.Duration
	sub := newTestSubmitter(sender, &delays, time.Now())

	err := sub.Submit(context.Background(), testSession(), answerAll(t, 0))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, 1, sender.calls)
	assert.Empty(t, delays)
}
