// Package engine provides the core benchmark execution engine for stashbench.
//
// The engine dispatches a fixed number of logical operations (writes or reads
// against a storage backend) across a bounded set of concurrent lanes, times
// each operation, tolerates per-operation failure without aborting the run,
// and aggregates throughput and latency-distribution statistics.
//
// # Basic Usage
//
// Create an engine with a run configuration and an operation function:
//
//	cfg := engine.RunConfig{
//		Total:       1000,
//		Concurrency: 10,
//		Input:       supplier,
//		Op:          op,
//	}
//	e := engine.New(cfg)
//	result, err := e.Run(ctx)
//
// # Lanes
//
// Work is statically partitioned into striped lanes: with effective
// concurrency C = min(Concurrency, Total), lane i owns indices i, i+C,
// i+2C, and so on. Each lane runs its indices strictly in order, one
// operation in flight at a time. Indices are never reassigned between
// lanes, so index k is always handled by lane k mod C. Lanes run in their
// own goroutines with no cross-lane ordering guarantee.
//
// # Operations
//
// The [Operation] function abstracts a single backend call:
//
//	type Operation func(ctx context.Context, input any) (units int, err error)
//
// A failed operation is recorded, counted, and never retried; its lane
// moves on to the next stride index. The operation's input descriptor
// comes from the caller-supplied [InputSupplier]; the engine never
// generates domain data itself.
//
// # Middleware
//
// Operations can be wrapped before the run starts:
//   - [WithPacing]: rate-limit calls with a golang.org/x/time/rate limiter
//   - [WithTimeout]: per-operation context deadline
//   - [WithFailureLog]: log failed operations
//
// Pacing and timeouts live inside the operation boundary, which keeps
// Concurrency the engine's only admission-control knob.
//
// # Statistics
//
// The final [Result] carries exact rank-based percentiles (value at index
// floor(n*p) of the ascending-sorted successful latencies) rather than an
// approximating histogram, so the reported numbers are reproducible
// run-to-run for identical inputs.
package engine
