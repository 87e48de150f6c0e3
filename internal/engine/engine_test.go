package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stashbench/stashbench/internal/engine"
)

// fakeOp simulates a backend call with fixed latency and unit count.
type fakeOp struct {
	latency time.Duration
	units   int
	calls   int64
	err     error
}

func (f *fakeOp) op(ctx context.Context, input any) (int, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.units, nil
}

// TestRunAttemptsEveryIndexOnce ensures a run produces exactly Total records,
// one per index.
func TestRunAttemptsEveryIndexOnce(t *testing.T) {
	f := &fakeOp{latency: time.Millisecond, units: 1}
	e := engine.New(engine.RunConfig{
		Total:       25,
		Concurrency: 4,
		Op:          f.op,
	})
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.TotalAttempted != 25 {
		t.Fatalf("expected 25 attempted, got %d", res.TotalAttempted)
	}
	if got := atomic.LoadInt64(&f.calls); got != 25 {
		t.Fatalf("expected operation called 25 times, got %d", got)
	}
	if res.SuccessCount+res.ErrorCount != res.TotalAttempted {
		t.Fatalf("success+error = %d+%d, want %d",
			res.SuccessCount, res.ErrorCount, res.TotalAttempted)
	}
	if len(res.Records) != 25 {
		t.Fatalf("expected 25 records, got %d", len(res.Records))
	}
	for i, rec := range res.Records {
		if rec.Index != i {
			t.Fatalf("record %d carries index %d", i, rec.Index)
		}
		if rec.CompletedAt.IsZero() {
			t.Fatalf("record %d missing completion time", i)
		}
	}
	if res.RunID == "" {
		t.Fatal("expected a run ID")
	}
}

// TestRunBoundsInFlightOperations verifies no more than min(C, T) operations
// run simultaneously, via an instrumented operation.
func TestRunBoundsInFlightOperations(t *testing.T) {
	var inFlight, peak int64
	op := func(ctx context.Context, input any) (int, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return 1, nil
	}

	e := engine.New(engine.RunConfig{Total: 40, Concurrency: 5, Op: op})
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := atomic.LoadInt64(&peak); got > 5 {
		t.Fatalf("in-flight peak %d exceeds concurrency 5", got)
	}
}

// TestRunStripesIndicesAcrossLanes checks the deterministic index-to-lane
// assignment: index i always lands on lane i mod C.
func TestRunStripesIndicesAcrossLanes(t *testing.T) {
	f := &fakeOp{units: 1}
	e := engine.New(engine.RunConfig{Total: 23, Concurrency: 4, Op: f.op})
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, rec := range res.Records {
		if rec.Lane != rec.Index%4 {
			t.Fatalf("index %d ran on lane %d, want %d", rec.Index, rec.Lane, rec.Index%4)
		}
	}
}

// TestRunAllFailuresStillCompletes exercises the 100% failure path.
func TestRunAllFailuresStillCompletes(t *testing.T) {
	f := &fakeOp{latency: time.Millisecond, err: errors.New("backend down")}
	e := engine.New(engine.RunConfig{Total: 5, Concurrency: 2, Op: f.op})
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.ErrorCount != 5 || res.SuccessCount != 0 {
		t.Fatalf("expected 5 errors and 0 successes, got %d/%d",
			res.ErrorCount, res.SuccessCount)
	}
	if res.AvgLatency != 0 {
		t.Fatalf("avg latency over zero successes should be 0, got %s", res.AvgLatency)
	}
	if res.TotalUnits != 0 {
		t.Fatalf("failed operations must not count units, got %d", res.TotalUnits)
	}
	if res.Errors["backend down"] != 5 {
		t.Fatalf("expected error tally of 5, got %v", res.Errors)
	}
	// Latency is still measured up to the point of failure.
	if res.MaxLatency <= 0 {
		t.Fatalf("failure latency not recorded: %s", res.MaxLatency)
	}
}

// TestRunClampsOversubscribedConcurrency ensures concurrency above total
// collapses to a single lane for total=1.
func TestRunClampsOversubscribedConcurrency(t *testing.T) {
	f := &fakeOp{units: 3}
	e := engine.New(engine.RunConfig{Total: 1, Concurrency: 5, Op: f.op})
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.TotalAttempted != 1 {
		t.Fatalf("expected one attempt, got %d", res.TotalAttempted)
	}
	if res.Records[0].Lane != 0 {
		t.Fatalf("single operation should run on lane 0, got %d", res.Records[0].Lane)
	}
}

// TestRunRejectsInvalidConfig ensures a bad configuration refuses to run
// instead of silently completing zero operations.
func TestRunRejectsInvalidConfig(t *testing.T) {
	f := &fakeOp{}
	cases := []struct {
		name string
		cfg  engine.RunConfig
		want error
	}{
		{"zero total", engine.RunConfig{Total: 0, Concurrency: 1, Op: f.op}, engine.ErrNoOperations},
		{"negative total", engine.RunConfig{Total: -3, Concurrency: 1, Op: f.op}, engine.ErrNoOperations},
		{"zero concurrency", engine.RunConfig{Total: 10, Concurrency: 0, Op: f.op}, engine.ErrNoConcurrency},
		{"nil op", engine.RunConfig{Total: 10, Concurrency: 1}, engine.ErrNilOperation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.New(tc.cfg).Run(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if n := atomic.LoadInt64(&f.calls); n != 0 {
				t.Fatalf("operation attempted %d times despite invalid config", n)
			}
		})
	}
}

// TestRunConvertsOperationPanic ensures a panicking backend call becomes a
// failed record instead of crashing the run.
func TestRunConvertsOperationPanic(t *testing.T) {
	op := func(ctx context.Context, input any) (int, error) {
		if input.(int)%2 == 0 {
			panic("connection state corrupted")
		}
		return 1, nil
	}
	e := engine.New(engine.RunConfig{
		Total:       6,
		Concurrency: 3,
		Input:       func(index int) any { return index },
		Op:          op,
	})
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.ErrorCount != 3 || res.SuccessCount != 3 {
		t.Fatalf("expected 3 panics converted and 3 successes, got %d/%d",
			res.ErrorCount, res.SuccessCount)
	}
}

// TestRunThreadsInputDescriptors verifies the supplier is consulted per
// index and its descriptor reaches the operation untouched.
func TestRunThreadsInputDescriptors(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]bool)
	op := func(ctx context.Context, input any) (int, error) {
		idx := input.(int)
		mu.Lock()
		if seen[idx] {
			mu.Unlock()
			return 0, errors.New("duplicate descriptor")
		}
		seen[idx] = true
		mu.Unlock()
		return 1, nil
	}
	e := engine.New(engine.RunConfig{
		Total:       17,
		Concurrency: 3,
		Input:       func(index int) any { return index },
		Op:          op,
	})
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.ErrorCount != 0 {
		t.Fatalf("descriptors duplicated or skipped: %v", res.Errors)
	}
	if len(seen) != 17 {
		t.Fatalf("expected 17 distinct descriptors, got %d", len(seen))
	}
}

// TestRunObserverSeesEveryRecord ensures the live metrics hook fires once
// per record.
func TestRunObserverSeesEveryRecord(t *testing.T) {
	var observed int64
	f := &fakeOp{units: 1}
	e := engine.New(engine.RunConfig{
		Total:       12,
		Concurrency: 4,
		Op:          f.op,
		Observer:    func(rec engine.Record) { atomic.AddInt64(&observed, 1) },
	})
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := atomic.LoadInt64(&observed); got != 12 {
		t.Fatalf("observer fired %d times, want 12", got)
	}
}

// TestRunLaneOrdering verifies that within one lane, index k completes
// before index k+C.
func TestRunLaneOrdering(t *testing.T) {
	var mu sync.Mutex
	order := make(map[int][]int) // lane -> indices in completion order
	op := func(ctx context.Context, input any) (int, error) { return 1, nil }
	e := engine.New(engine.RunConfig{
		Total:       30,
		Concurrency: 3,
		Op:          op,
		Observer: func(rec engine.Record) {
			mu.Lock()
			order[rec.Lane] = append(order[rec.Lane], rec.Index)
			mu.Unlock()
		},
	})
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for lane, indices := range order {
		for i := 1; i < len(indices); i++ {
			if indices[i] != indices[i-1]+3 {
				t.Fatalf("lane %d advanced %d -> %d, want stride 3",
					lane, indices[i-1], indices[i])
			}
		}
	}
}
