package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/stashbench/stashbench/internal/engine"
)

type capturingLogger struct {
	mu     sync.Mutex
	errors []error
}

func (l *capturingLogger) LogFailure(err error) {
	l.mu.Lock()
	l.errors = append(l.errors, err)
	l.mu.Unlock()
}

// TestWithTimeoutConvertsSlowCall ensures a deadline inside the operation
// boundary surfaces as an ordinary failure.
func TestWithTimeoutConvertsSlowCall(t *testing.T) {
	slow := func(ctx context.Context, input any) (int, error) {
		select {
		case <-time.After(time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	op := engine.WithTimeout(slow, 5*time.Millisecond)
	e := engine.New(engine.RunConfig{Total: 3, Concurrency: 3, Op: op})
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.ErrorCount != 3 {
		t.Fatalf("expected every slow call to time out, got %d errors", res.ErrorCount)
	}
}

// TestWithFailureLogSeesEachFailure checks the logger fires once per failed
// operation and never for successes.
func TestWithFailureLogSeesEachFailure(t *testing.T) {
	boom := errors.New("write rejected")
	inner := func(ctx context.Context, input any) (int, error) {
		if input.(int)%2 == 1 {
			return 0, boom
		}
		return 1, nil
	}
	logger := &capturingLogger{}
	op := engine.WithFailureLog(inner, logger)
	e := engine.New(engine.RunConfig{
		Total:       10,
		Concurrency: 2,
		Input:       func(index int) any { return index },
		Op:          op,
	})
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 5 {
		t.Fatalf("logger saw %d failures, want 5", len(logger.errors))
	}
	for _, err := range logger.errors {
		if !errors.Is(err, boom) {
			t.Fatalf("unexpected logged error: %v", err)
		}
	}
}

// TestWithPacingCapsThroughput ensures the limiter restricts operation rate.
func TestWithPacingCapsThroughput(t *testing.T) {
	inner := func(ctx context.Context, input any) (int, error) { return 1, nil }
	// 100 ops/sec, burst 1: 20 operations need roughly 190ms of waits.
	op := engine.WithPacing(inner, rate.NewLimiter(rate.Limit(100), 1))
	e := engine.New(engine.RunConfig{Total: 20, Concurrency: 4, Op: op})

	start := time.Now()
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("20 ops at 100/sec finished in %s, pacing not applied", elapsed)
	}
	if res.TotalAttempted != 20 {
		t.Fatalf("expected 20 attempts, got %d", res.TotalAttempted)
	}
}

// TestMiddlewareNilPassthrough returns the operation unchanged when a
// wrapper has nothing to do.
func TestMiddlewareNilPassthrough(t *testing.T) {
	inner := func(ctx context.Context, input any) (int, error) { return 1, nil }
	if got := engine.WithPacing(inner, nil); got == nil {
		t.Fatal("WithPacing(nil limiter) returned nil")
	}
	if got := engine.WithTimeout(inner, 0); got == nil {
		t.Fatal("WithTimeout(0) returned nil")
	}
	if got := engine.WithFailureLog(inner, nil); got == nil {
		t.Fatal("WithFailureLog(nil logger) returned nil")
	}
}
