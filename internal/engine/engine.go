package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Engine drives one benchmark run over striped lanes.
type Engine struct {
	cfg RunConfig
}

// New creates an Engine for the given configuration.
func New(cfg RunConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Run executes the configured operations and returns the aggregate result.
//
// A configuration error is returned before any lane starts. Per-operation
// failures never abort the run; they are swallowed into records and
// surfaced through the result's error counts. An error returned after the
// lanes have drained indicates a scheduler or aggregator bug, never a
// backend failure.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return Result{}, err
	}

	lanes := e.cfg.lanes()
	agg := newAggregator(e.cfg.Total)
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(lanes)
	for lane := 0; lane < lanes; lane++ {
		go func(lane int) {
			defer wg.Done()
			// Lane i owns indices i, i+C, i+2C, ... Each index must
			// produce a record before the lane advances to the next.
			for idx := lane; idx < e.cfg.Total; idx += lanes {
				agg.begin()
				rec := execute(ctx, idx, lane, e.cfg)
				agg.record(rec)
				if e.cfg.Observer != nil {
					e.cfg.Observer(rec)
				}
			}
		}(lane)
	}

	<-agg.done
	wg.Wait()
	wall := time.Since(start)

	if produced, inFlight := agg.snapshot(); produced != e.cfg.Total || inFlight != 0 {
		return Result{}, fmt.Errorf("engine: run resolved with %d/%d records and %d in flight",
			produced, e.cfg.Total, inFlight)
	}

	res := agg.finalize(wall)
	res.RunID = newRunID()
	return res, nil
}

// execute times one backend call and converts its outcome into a record.
// Nothing escapes this boundary: an error or panic inside the operation
// becomes a failed record with the elapsed time until the failure was
// observed.
func execute(ctx context.Context, index, lane int, cfg RunConfig) Record {
	var input any
	if cfg.Input != nil {
		input = cfg.Input(index)
	}

	start := time.Now()
	units, err := invoke(ctx, cfg.Op, input)
	latency := time.Since(start)

	if err != nil {
		units = 0
	}
	return Record{
		Index:       index,
		Lane:        lane,
		Units:       units,
		Latency:     latency,
		Err:         err,
		CompletedAt: time.Now(),
	}
}

func invoke(ctx context.Context, op Operation, input any) (units int, err error) {
	defer func() {
		if r := recover(); r != nil {
			units, err = 0, fmt.Errorf("operation panic: %v", r)
		}
	}()
	return op(ctx, input)
}

func newRunID() string {
	return ulid.Make().String()
}
