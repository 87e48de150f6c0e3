package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// FailureLogger logs failed operations.
type FailureLogger interface {
	LogFailure(err error)
}

// WithPacing wraps an operation so each call first waits on the limiter.
// The wait happens inside the operation boundary, so the blocked time counts
// toward the operation's latency and the scheduler's concurrency bound stays
// the only admission knob. A nil limiter returns the operation unchanged.
func WithPacing(op Operation, limiter *rate.Limiter) Operation {
	if limiter == nil {
		return op
	}
	return func(ctx context.Context, input any) (int, error) {
		if err := limiter.Wait(ctx); err != nil {
			return 0, err
		}
		return op(ctx, input)
	}
}

// WithTimeout wraps an operation with a per-call deadline. A timed-out call
// surfaces as an ordinary operation failure, never a run-level abort.
func WithTimeout(op Operation, timeout time.Duration) Operation {
	if timeout <= 0 {
		return op
	}
	return func(ctx context.Context, input any) (int, error) {
		opCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return op(opCtx, input)
	}
}

// WithFailureLog wraps an operation to log failures.
func WithFailureLog(op Operation, logger FailureLogger) Operation {
	if logger == nil {
		return op
	}
	return func(ctx context.Context, input any) (int, error) {
		units, err := op(ctx, input)
		if err != nil {
			logger.LogFailure(err)
		}
		return units, err
	}
}
