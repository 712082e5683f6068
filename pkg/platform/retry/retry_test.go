package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRetryable = errors.New("retryable")

func retryAll(policy Policy) Classifier {
	return func(err error) *Policy {
		if errors.Is(err, errRetryable) {
			p := policy
			return &p
		}
		return nil
	}
}

// instantSleep records requested delays without pausing.
func instantSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	var delays []time.Duration
	e := New(WithSleep(instantSleep(&delays)))

	calls := 0
	err := e.Do(context.Background(), retryAll(Policy{MaxRetries: 3, Delay: time.Second}), func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, 0, attempt)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays, "no sleep on immediate success")
}

// TestDo_RetriesThenSucceeds verifies the budget and delay schedule.
// Invariant: three consecutive retryable failures followed by success must
// produce exactly three re-invocations, each preceded by the policy delay.
func TestDo_RetriesThenSucceeds(t *testing.T) {
	var delays []time.Duration
	e := New(WithSleep(instantSleep(&delays)))

	calls := 0
	err := e.Do(context.Background(), retryAll(Policy{MaxRetries: 3, Delay: 3 * time.Second}), func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls-1, attempt, "attempt counter tracks invocation count")
		if calls <= 3 {
			return errRetryable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, delays)
}

// TestDo_BudgetExhausted verifies the last error surfaces once retries run out.
func TestDo_BudgetExhausted(t *testing.T) {
	var delays []time.Duration
	e := New(WithSleep(instantSleep(&delays)))

	calls := 0
	err := e.Do(context.Background(), retryAll(Policy{MaxRetries: 2, Delay: 2 * time.Second}), func(_ context.Context, _ int) error {
		calls++
		return errRetryable
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errRetryable)
	assert.Equal(t, 3, calls, "first attempt plus two retries")
	assert.Len(t, delays, 2)
}

// TestDo_TerminalError verifies a nil classification ends the loop immediately.
func TestDo_TerminalError(t *testing.T) {
	var delays []time.Duration
	e := New(WithSleep(instantSleep(&delays)))

	terminal := errors.New("terminal")
	calls := 0
	err := e.Do(context.Background(), retryAll(Policy{MaxRetries: 3, Delay: time.Second}), func(_ context.Context, _ int) error {
		calls++
		return terminal
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

// TestDo_SharedCounterAcrossClasses verifies the attempt counter is not reset
// when the failure class changes between attempts.
// Invariant: the retry budget is shared across failure classes so a mixed
// sequence cannot exceed the larger policy's cap.
func TestDo_SharedCounterAcrossClasses(t *testing.T) {
	errA := errors.New("class a")
	errB := errors.New("class b")
	classify := func(err error) *Policy {
		switch {
		case errors.Is(err, errA):
			return &Policy{MaxRetries: 3, Delay: 3 * time.Second}
		case errors.Is(err, errB):
			return &Policy{MaxRetries: 2, Delay: 2 * time.Second}
		default:
			return nil
		}
	}

	var delays []time.Duration
	e := New(WithSleep(instantSleep(&delays)))

	// Sequence: A fails (attempt 0, retry under budget 3), B fails
	// (attempt 1, retry under budget 2), B fails (attempt 2, budget 2
	// exhausted) -> error returned without a third retry.
	script := []error{errA, errB, errB}
	calls := 0
	err := e.Do(context.Background(), classify, func(_ context.Context, _ int) error {
		calls++
		return script[calls-1]
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second}, delays)
}

// TestDo_ContextCancelledDuringSleep verifies cancellation surfaces the
// operation error, not a retry continuation.
func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	e := New(WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	calls := 0
	err := e.Do(ctx, retryAll(Policy{MaxRetries: 3, Delay: time.Second}), func(_ context.Context, _ int) error {
		calls++
		return errRetryable
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errRetryable)
	assert.Equal(t, 1, calls, "no re-invocation after cancelled sleep")
}

// TestDo_OnRetryHook verifies the hook sees the upcoming attempt number.
func TestDo_OnRetryHook(t *testing.T) {
	var hooked []int
	var delays []time.Duration
	e := New(
		WithSleep(instantSleep(&delays)),
		WithOnRetry(func(attempt int, _ time.Duration, err error) {
			hooked = append(hooked, attempt)
			assert.ErrorIs(t, err, errRetryable)
		}),
	)

	calls := 0
	err := e.Do(context.Background(), retryAll(Policy{MaxRetries: 2, Delay: time.Second}), func(_ context.Context, _ int) error {
		calls++
		if calls < 3 {
			return errRetryable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, hooked)
}
