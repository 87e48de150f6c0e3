// Package feeder loads externally-provided datasets (CSV or JSON) that
// supply lookup keys for read workloads. Records are addressed by operation
// index, so every lane sees a deterministic record for a given index.
package feeder

import (
	"fmt"

	"github.com/stashbench/stashbench/internal/backend"
	"github.com/stashbench/stashbench/internal/engine"
)

// Record represents a single row of data with named fields.
type Record map[string]string

// Feeder provides per-operation data from a fixed dataset. Implementations
// must be safe for concurrent use.
type Feeder interface {
	// At returns the record for an operation index. With rewind enabled
	// the dataset wraps around; otherwise an index past the end returns
	// ErrExhausted.
	At(index int) (Record, error)

	// Len returns the total number of records in the dataset.
	Len() int

	// Close releases any resources held by the feeder.
	Close() error
}

// ErrExhausted is returned when a feeder has no more records and rewind is disabled.
var ErrExhausted = fmt.Errorf("feeder exhausted: no more records available")

// ReadSupplier adapts a feeder to the engine's input contract: each index
// maps to a read query on the record's key field. A record missing the key
// field yields a descriptor the operation will reject, keeping the fault on
// the per-operation channel.
func ReadSupplier(f Feeder, keyField string, limit int) engine.InputSupplier {
	if limit <= 0 {
		limit = 1
	}
	return func(index int) any {
		rec, err := f.At(index)
		if err != nil {
			return backend.ReadQuery{Limit: limit}
		}
		return backend.ReadQuery{Key: rec[keyField], Limit: limit}
	}
}

// rewindIndex maps an operation index onto the dataset, wrapping when
// rewind is enabled.
func rewindIndex(index, size int, rewind bool) (int, error) {
	if size == 0 {
		return 0, ErrExhausted
	}
	if index < size {
		return index, nil
	}
	if !rewind {
		return 0, ErrExhausted
	}
	return index % size, nil
}
