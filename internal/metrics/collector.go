package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector records per-operation metrics in a thread-safe manner. It is the
// live view of an in-progress run, fed from the engine's observer hook; the
// final report numbers come from the engine's own aggregation.
type Collector struct {
	mu           sync.Mutex
	hist         *hdrhistogram.Histogram
	successes    int64
	failures     int64
	units        int64
	minLatency   time.Duration
	maxLatency   time.Duration
	sumLatency   time.Duration
	errorsByType map[string]int64
	start        time.Time
}

// Snapshot represents live aggregated metrics at a point in time.
type Snapshot struct {
	Total       int64         `json:"total"`
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	Units       int64         `json:"units"`
	MinLatency  time.Duration `json:"-"`
	MaxLatency  time.Duration `json:"-"`
	MeanLatency time.Duration `json:"-"`
	P50Latency  time.Duration `json:"-"`
	P95Latency  time.Duration `json:"-"`
	P99Latency  time.Duration `json:"-"`
	Duration    time.Duration `json:"-"`
	OpsPerSec   float64       `json:"ops_per_sec"`
	UnitsPerSec float64       `json:"units_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64        `json:"min_latency_ms"`
	MaxLatencyMs  float64        `json:"max_latency_ms"`
	MeanLatencyMs float64        `json:"mean_latency_ms"`
	P50LatencyMs  float64        `json:"p50_latency_ms"`
	P95LatencyMs  float64        `json:"p95_latency_ms"`
	P99LatencyMs  float64        `json:"p99_latency_ms"`
	DurationMs    float64        `json:"duration_ms"`
	Errors        map[string]int `json:"errors,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		errorsByType: make(map[string]int64),
		start:        time.Now(),
	}
}

// RecordOperation records a single operation's latency, unit count, and
// error state. Safe to call from all lanes concurrently.
func (c *Collector) RecordOperation(latency time.Duration, units int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if err == nil {
		c.successes++
		c.units += int64(units)
	} else {
		c.failures++
		errorType := fmt.Sprintf("%T", err)
		if len(errorType) > 30 {
			errorType = errorType[len(errorType)-30:]
		}
		c.errorsByType[errorType]++
	}
}

// Stats computes and returns the current live snapshot.
func (c *Collector) Stats(elapsed time.Duration) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	snap := Snapshot{
		Total:      total,
		Successes:  c.successes,
		Failures:   c.failures,
		Units:      c.units,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if total > 0 {
		snap.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		snap.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		snap.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	snap.MinLatencyMs = float64(snap.MinLatency) / float64(time.Millisecond)
	snap.MaxLatencyMs = float64(snap.MaxLatency) / float64(time.Millisecond)
	snap.MeanLatencyMs = float64(snap.MeanLatency) / float64(time.Millisecond)
	snap.P50LatencyMs = float64(snap.P50Latency) / float64(time.Millisecond)
	snap.P95LatencyMs = float64(snap.P95Latency) / float64(time.Millisecond)
	snap.P99LatencyMs = float64(snap.P99Latency) / float64(time.Millisecond)

	snap.Duration = elapsed
	snap.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 && total > 0 {
		snap.OpsPerSec = float64(total) / elapsed.Seconds()
		snap.UnitsPerSec = float64(c.units) / elapsed.Seconds()
	}

	if len(c.errorsByType) > 0 {
		snap.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			snap.Errors[k] = int(v)
		}
	}

	return snap
}

// GetErrorBreakdown returns a map of error types to their counts.
func (c *Collector) GetErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]int)
	for k, v := range c.errorsByType {
		result[k] = int(v)
	}
	return result
}
