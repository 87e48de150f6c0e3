package engine

import (
	"context"
	"errors"
)

// Operation executes a single backend call for one input descriptor and
// returns the number of units (rows written, rows read) it processed.
// Implementations must report failure through the error return, never as a
// silent zero result, and should block inside the call rather than spawn
// their own goroutines.
type Operation func(ctx context.Context, input any) (units int, err error)

// InputSupplier returns the input descriptor for an operation index. It must
// be deterministic in shape and safe for concurrent use; lanes call it from
// their own goroutines.
type InputSupplier func(index int) any

// Observer receives each record as it is produced, in lane completion order.
// Implementations must be safe for concurrent use.
type Observer func(rec Record)

// RunConfig configures a single benchmark run. It is immutable for the
// run's duration.
type RunConfig struct {
	Total       int           // operations to attempt (required, > 0)
	Concurrency int           // concurrent lanes (required, > 0; clamped to Total)
	Input       InputSupplier // per-index input descriptor (optional)
	Op          Operation     // backend operation (required)
	Observer    Observer      // live metrics hook (optional)
}

var (
	ErrNoOperations  = errors.New("engine: total operations must be positive")
	ErrNoConcurrency = errors.New("engine: concurrency must be positive")
	ErrNilOperation  = errors.New("engine: operation function is required")
)

// Validate reports the first configuration error, if any. A run with an
// invalid configuration is refused outright rather than silently completing
// zero operations.
func (c *RunConfig) Validate() error {
	if c.Total <= 0 {
		return ErrNoOperations
	}
	if c.Concurrency <= 0 {
		return ErrNoConcurrency
	}
	if c.Op == nil {
		return ErrNilOperation
	}
	return nil
}

// lanes returns the effective concurrency: Concurrency clamped to Total so
// no lane starts with an empty stride.
func (c *RunConfig) lanes() int {
	if c.Concurrency > c.Total {
		return c.Total
	}
	return c.Concurrency
}
