package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/stashbench/stashbench/internal/backend"
	"github.com/stashbench/stashbench/internal/config"
	"github.com/stashbench/stashbench/internal/datagen"
	"github.com/stashbench/stashbench/internal/engine"
	"github.com/stashbench/stashbench/internal/feeder"
	"github.com/stashbench/stashbench/internal/tracing"
)

// workload bundles the input supplier and backend operation for one run.
type workload struct {
	supplier engine.InputSupplier
	op       engine.Operation
	feeder   feeder.Feeder
}

func (w *workload) close() {
	if w.feeder != nil {
		_ = w.feeder.Close()
	}
}

// buildWorkload maps the configured mode onto an operation shape and its
// matching input supplier.
func buildWorkload(cfg *config.Config, be backend.Backend, gen *datagen.Generator) (*workload, error) {
	switch cfg.Mode {
	case config.ModeWrite:
		return &workload{
			supplier: gen.WriteSupplier(),
			op:       writeOperation(be),
		}, nil

	case config.ModeRead:
		if cfg.Feeder.Path != "" {
			f, err := openFeeder(cfg.Feeder)
			if err != nil {
				return nil, err
			}
			return &workload{
				supplier: feeder.ReadSupplier(f, cfg.Feeder.KeyField, cfg.ReadLimit),
				op:       readOperation(be),
				feeder:   f,
			}, nil
		}
		return &workload{
			supplier: gen.ReadSupplier(cfg.ReadLimit, cfg.SeedOps),
			op:       readOperation(be),
		}, nil

	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func openFeeder(cfg config.FeederConfig) (feeder.Feeder, error) {
	switch cfg.Type {
	case "csv":
		return feeder.NewCSVFeeder(cfg.Path, cfg.Rewind)
	case "json":
		return feeder.NewJSONFeeder(cfg.Path, cfg.Rewind)
	default:
		return nil, fmt.Errorf("unknown feeder type %q", cfg.Type)
	}
}

func writeOperation(be backend.Backend) engine.Operation {
	return func(ctx context.Context, input any) (int, error) {
		batch, ok := input.(backend.WriteBatch)
		if !ok {
			return 0, fmt.Errorf("write operation got input type %T, want WriteBatch", input)
		}
		return be.Write(ctx, batch)
	}
}

func readOperation(be backend.Backend) engine.Operation {
	return func(ctx context.Context, input any) (int, error) {
		q, ok := input.(backend.ReadQuery)
		if !ok {
			return 0, fmt.Errorf("read operation got input type %T, want ReadQuery", input)
		}
		if q.Key == "" {
			return 0, fmt.Errorf("read query has no key")
		}
		return be.Read(ctx, q)
	}
}

// assembleMiddleware wraps the raw operation with the configured layers.
// Pacing sits outermost so limiter waits are excluded from span timings.
func assembleMiddleware(op engine.Operation, cfg *config.Config, tracer trace.Tracer, backendName string) engine.Operation {
	if cfg.Timeout > 0 {
		op = engine.WithTimeout(op, cfg.Timeout)
	}
	if cfg.Tracing.Enabled() {
		op = withTracing(op, tracer, backendName, string(cfg.Mode))
	}
	if cfg.LogErrors {
		op = engine.WithFailureLog(op, &stderrFailureLogger{})
	}
	if cfg.Rate > 0 {
		op = engine.WithPacing(op, rate.NewLimiter(rate.Limit(cfg.Rate), 1))
	}
	return op
}

// withTracing emits one client span per operation. The counter stands in
// for the scheduler's operation index, which is not visible here.
func withTracing(op engine.Operation, tracer trace.Tracer, backendName, mode string) engine.Operation {
	var seq atomic.Int64
	return func(ctx context.Context, input any) (int, error) {
		ctx, span := tracing.StartOperationSpan(ctx, tracer, backendName, mode, int(seq.Add(1)-1))
		units, err := op(ctx, input)
		tracing.EndSpan(span, err, attribute.Int("stashbench.units", units))
		return units, err
	}
}
