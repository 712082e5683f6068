// Package retry provides a bounded, fixed-delay retry executor for
// fail-safe network operations.
package retry

import (
	"context"
	"time"
)

// Policy bounds automatic re-invocation for one class of failure.
type Policy struct {
	// MaxRetries is the number of additional attempts allowed after the first.
	MaxRetries int
	// Delay is the fixed pause before each re-invocation.
	Delay time.Duration
}

// Classifier maps an operation error to the policy governing its retry.
// Returning nil marks the error as terminal.
type Classifier func(err error) *Policy

// Executor runs operations under retry policies. The zero value is not
// usable; construct with New.
type Executor struct {
	sleep   func(ctx context.Context, d time.Duration) error
	onRetry func(attempt int, delay time.Duration, err error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithSleep replaces the delay function. Tests inject an instant sleep that
// records requested durations.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithOnRetry registers a hook invoked before each re-invocation, with the
// attempt number about to run.
func WithOnRetry(hook func(attempt int, delay time.Duration, err error)) Option {
	return func(e *Executor) {
		e.onRetry = hook
	}
}

// New creates an Executor with a context-aware timer sleep.
func New(opts ...Option) *Executor {
	e := &Executor{
		sleep: sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Do invokes op with an attempt counter starting at zero. When op fails and
// classify returns a policy whose budget the shared counter has not
// exhausted, Do pauses for the policy delay and re-invokes op with the
// incremented counter. A nil policy, an exhausted budget, or a cancelled
// context ends the loop and returns the last error.
//
// The counter is shared across failure classes: a transport failure followed
// by retryable server statuses consumes one budget, mirroring a client that
// re-invokes the same operation with attempt+1 regardless of why it failed.
func (e *Executor) Do(ctx context.Context, classify Classifier, op func(ctx context.Context, attempt int) error) error {
	attempt := 0
	for {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		policy := classify(err)
		if policy == nil || attempt >= policy.MaxRetries {
			return err
		}
		if e.onRetry != nil {
			e.onRetry(attempt+1, policy.Delay, err)
		}
		if sleepErr := e.sleep(ctx, policy.Delay); sleepErr != nil {
			return err
		}
		attempt++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
