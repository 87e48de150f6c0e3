package engine

import (
	"time"
)

// Record captures the outcome of one attempted operation. It is created
// once per index and never mutated afterwards.
type Record struct {
	Index       int           // 0-based operation index
	Lane        int           // lane that executed the operation
	Units       int           // units processed; 0 on failure
	Latency     time.Duration // wall-clock time around the backend call
	Err         error         // nil iff the operation succeeded
	CompletedAt time.Time
}

// Success reports whether the operation completed without error.
func (r Record) Success() bool { return r.Err == nil }

// LatencyMs returns the operation latency in milliseconds.
func (r Record) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// Result is the aggregate outcome of a run. It is constructed exactly once,
// at run completion, and is immutable thereafter. The millisecond and rate
// field names are stable; external reporting depends on them verbatim.
type Result struct {
	RunID          string        `json:"run_id"`
	TotalAttempted int           `json:"total_attempted"`
	SuccessCount   int           `json:"success_count"`
	ErrorCount     int           `json:"error_count"`
	TotalUnits     int64         `json:"total_units"`
	Rate           float64       `json:"rate"` // units per second
	WallClock      time.Duration `json:"-"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	AvgLatency     time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P95Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	WallClockMs  float64 `json:"wall_clock_ms"`
	MinLatencyMs float64 `json:"min_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`

	Errors map[string]int `json:"errors,omitempty"` // error message tally

	// Records holds every operation record, ordered by index.
	Records []Record `json:"-"`
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
