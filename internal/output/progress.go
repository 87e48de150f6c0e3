package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/stashbench/stashbench/internal/metrics"
)

// ProgressReporter periodically prints a one-line live summary of an
// in-progress run. It reads from the shared metrics collector, so the
// numbers it shows lag the engine by at most one refresh interval.
type ProgressReporter struct {
	collector *metrics.Collector
	w         io.Writer
	total     int
	interval  time.Duration
	start     time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewProgressReporter(w io.Writer, collector *metrics.Collector, total int) *ProgressReporter {
	return &ProgressReporter{
		collector: collector,
		w:         w,
		total:     total,
		interval:  time.Second,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins periodic reporting in a background goroutine.
func (p *ProgressReporter) Start() {
	p.start = time.Now()
	go p.loop()
}

// Stop halts reporting, prints a final line, and waits for the
// reporting goroutine to exit.
func (p *ProgressReporter) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *ProgressReporter) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.printLine()
		case <-p.stop:
			p.printLine()
			fmt.Fprintln(p.w)
			return
		}
	}
}

func (p *ProgressReporter) printLine() {
	snap := p.collector.Stats(time.Since(p.start))

	pct := 0.0
	if p.total > 0 {
		pct = float64(snap.Total) / float64(p.total) * 100
	}

	fmt.Fprintf(p.w, "\r[%s] %d/%d (%.1f%%) | %.1f ops/s | %.1f units/s | p95 %s | errors %d   ",
		time.Since(p.start).Truncate(time.Second),
		snap.Total, p.total, pct,
		snap.OpsPerSec, snap.UnitsPerSec,
		snap.P95Latency.Truncate(time.Microsecond),
		snap.Failures,
	)
}
