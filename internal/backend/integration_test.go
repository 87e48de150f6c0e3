package backend_test

import (
	"context"
	"testing"

	"github.com/stashbench/stashbench/internal/backend"
	"github.com/stashbench/stashbench/internal/datagen"
	"github.com/stashbench/stashbench/internal/engine"
)

// TestEngineAgainstBadger exercises the whole stack with the embedded
// backend: a write run followed by a read run over the written keys.
func TestEngineAgainstBadger(t *testing.T) {
	ctx := context.Background()
	b := openBadger(t)
	if err := b.Setup(ctx); err != nil {
		t.Fatalf("setup: %v", err)
	}

	gen := datagen.New("", 5, 32)

	writeRes, err := engine.New(engine.RunConfig{
		Total:       40,
		Concurrency: 4,
		Input:       gen.WriteSupplier(),
		Op: func(ctx context.Context, input any) (int, error) {
			return b.Write(ctx, input.(backend.WriteBatch))
		},
	}).Run(ctx)
	if err != nil {
		t.Fatalf("write run failed: %v", err)
	}
	if writeRes.ErrorCount != 0 {
		t.Fatalf("write errors: %v", writeRes.Errors)
	}
	if writeRes.TotalUnits != 200 {
		t.Fatalf("wrote %d units, want 40 ops * 5 rows", writeRes.TotalUnits)
	}

	readRes, err := engine.New(engine.RunConfig{
		Total:       60,
		Concurrency: 6,
		Input:       gen.ReadSupplier(3, 40),
		Op: func(ctx context.Context, input any) (int, error) {
			return b.Read(ctx, input.(backend.ReadQuery))
		},
	}).Run(ctx)
	if err != nil {
		t.Fatalf("read run failed: %v", err)
	}
	if readRes.ErrorCount != 0 {
		t.Fatalf("read errors: %v", readRes.Errors)
	}
	if readRes.TotalUnits != 180 {
		t.Fatalf("read %d units, want 60 ops * limit 3", readRes.TotalUnits)
	}
	if readRes.Rate <= 0 {
		t.Fatalf("rate not computed: %.2f", readRes.Rate)
	}
}
