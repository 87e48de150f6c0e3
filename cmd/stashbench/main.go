package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/stashbench/stashbench/internal/backend"
	"github.com/stashbench/stashbench/internal/config"
	"github.com/stashbench/stashbench/internal/dashboard"
	"github.com/stashbench/stashbench/internal/datagen"
	"github.com/stashbench/stashbench/internal/engine"
	"github.com/stashbench/stashbench/internal/metrics"
	"github.com/stashbench/stashbench/internal/output"
	"github.com/stashbench/stashbench/internal/threshold"
	"github.com/stashbench/stashbench/internal/tracing"
)

const connectTimeout = 15 * time.Second

// errThresholdsFailed distinguishes a threshold breach from an
// operational failure so main can report a distinct exit code.
var errThresholdsFailed = errors.New("one or more thresholds failed")

type stderrFailureLogger struct {
	mu sync.Mutex
	w  io.Writer // defaults to os.Stderr
}

func (l *stderrFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.w
	if w == nil {
		w = os.Stderr
	}
	label := metrics.FriendlyErrorName(fmt.Sprintf("%T", err))
	fmt.Fprintf(w, "[stashbench] %s: %v\n", label, err)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errThresholdsFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Thresholds must parse before any work starts; a bad assertion
	// refuses the run rather than failing after it.
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
	be, err := backend.Open(connectCtx, backend.Options{
		Kind:     backend.Kind(cfg.Backend),
		DSN:      cfg.DSN,
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.RedisDB,
		Path:     cfg.Path,
		Table:    cfg.Table,
		MaxConns: cfg.MaxConns,
	})
	connectCancel()
	if err != nil {
		return err
	}
	defer be.Close()

	if err := be.Setup(ctx); err != nil {
		return fmt.Errorf("setup %s: %w", be.Name(), err)
	}

	gen := datagen.New(cfg.KeyPrefix, cfg.BatchSize, cfg.PayloadSize)

	if cfg.Mode == config.ModeRead && cfg.Feeder.Path == "" {
		if err := seedBackend(ctx, be, gen, cfg.SeedOps); err != nil {
			return fmt.Errorf("seed %s: %w", be.Name(), err)
		}
	}

	w, err := buildWorkload(cfg, be, gen)
	if err != nil {
		return err
	}
	defer w.close()

	collector := metrics.NewCollector()
	op := assembleMiddleware(w.op, cfg, provider.Tracer(), be.Name())

	eng := engine.New(engine.RunConfig{
		Total:       cfg.Total,
		Concurrency: cfg.Concurrency,
		Input:       w.supplier,
		Op:          op,
		Observer: func(rec engine.Record) {
			collector.RecordOperation(rec.Latency, rec.Units, rec.Err)
		},
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunConfig{
			Backend:     be.Name(),
			Mode:        string(cfg.Mode),
			Concurrency: cfg.Concurrency,
			Total:       cfg.Total,
			Rate:        cfg.Rate,
			BatchSize:   cfg.BatchSize,
			Timeout:     cfg.Timeout,
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(os.Stdout, collector, cfg.Total)
		progress.Start()
	}

	runCtx, runSpan := tracing.StartRunSpan(ctx, provider.Tracer(), be.Name(), string(cfg.Mode))
	result, runErr := eng.Run(runCtx)
	tracing.EndSpan(runSpan, runErr)

	if progress != nil {
		progress.Stop()
	}

	if runErr != nil {
		return runErr
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, result); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, be.Name(), result)
	}

	if len(thresholds) > 0 {
		// Threshold output goes to stderr so JSON mode keeps a clean stdout.
		results := threshold.NewEvaluator(thresholds).Evaluate(result)
		fmt.Fprintln(os.Stderr, "\nThresholds:")
		for _, r := range results {
			fmt.Fprintf(os.Stderr, "%s\n", r.Message)
		}
		if !threshold.AllPassed(results) {
			return errThresholdsFailed
		}
	}

	if result.ErrorCount > 0 {
		return fmt.Errorf("%d operations failed", result.ErrorCount)
	}
	return nil
}

// seedBackend populates the store so read operations have data to find.
func seedBackend(ctx context.Context, be backend.Backend, gen *datagen.Generator, seedOps int) error {
	for i := 0; i < seedOps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := be.Write(ctx, gen.Batch(i)); err != nil {
			return err
		}
	}
	return nil
}
