package engine

import (
	"sync"
	"time"
)

// aggregator accumulates records as lanes produce them and doubles as the
// run's completion detector: the run resolves exactly when every index has
// produced a record and no lane still has an operation in flight. That
// condition is checked as each record lands, never on a timer.
//
// Lanes are real goroutines, so all mutable state is mutex-protected.
type aggregator struct {
	mu sync.Mutex

	total    int
	produced int
	inFlight int

	successes  int
	errors     int
	units      int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration // successful operations only
	errorTally map[string]int

	records []Record // placed by index

	resolve sync.Once
	done    chan struct{}
}

func newAggregator(total int) *aggregator {
	return &aggregator{
		total:      total,
		records:    make([]Record, total),
		errorTally: make(map[string]int),
		done:       make(chan struct{}),
	}
}

// begin marks one operation as in flight.
func (a *aggregator) begin() {
	a.mu.Lock()
	a.inFlight++
	a.mu.Unlock()
}

// record accepts one operation record. Safe to call concurrently from all
// lanes, in whatever order they complete.
func (a *aggregator) record(rec Record) {
	a.mu.Lock()

	a.records[rec.Index] = rec
	a.produced++
	a.inFlight--

	if a.produced == 1 || rec.Latency < a.minLatency {
		a.minLatency = rec.Latency
	}
	if rec.Latency > a.maxLatency {
		a.maxLatency = rec.Latency
	}

	if rec.Err == nil {
		a.successes++
		a.units += int64(rec.Units)
		a.sumLatency += rec.Latency
	} else {
		a.errors++
		a.errorTally[errorKey(rec.Err)]++
	}

	complete := a.produced == a.total && a.inFlight == 0
	a.mu.Unlock()

	if complete {
		a.resolve.Do(func() { close(a.done) })
	}
}

// snapshot returns the produced and in-flight counters.
func (a *aggregator) snapshot() (produced, inFlight int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.produced, a.inFlight
}

// finalize builds the aggregate result from the accumulated state. Called
// once, after the completion condition holds.
func (a *aggregator) finalize(wall time.Duration) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := Result{
		TotalAttempted: a.produced,
		SuccessCount:   a.successes,
		ErrorCount:     a.errors,
		TotalUnits:     a.units,
		WallClock:      wall,
		MinLatency:     a.minLatency,
		MaxLatency:     a.maxLatency,
		Records:        a.records,
	}

	if a.successes > 0 {
		res.AvgLatency = a.sumLatency / time.Duration(a.successes)
	}

	wallMs := durationMs(wall)
	if wallMs > 0 {
		res.Rate = float64(a.units) / wallMs * 1000
	}

	latencies := make([]time.Duration, 0, a.successes)
	for _, rec := range a.records {
		if rec.Err == nil {
			latencies = append(latencies, rec.Latency)
		}
	}
	pct := ComputePercentiles(latencies)
	res.P50Latency = pct.P50
	res.P95Latency = pct.P95
	res.P99Latency = pct.P99

	res.WallClockMs = wallMs
	res.MinLatencyMs = durationMs(res.MinLatency)
	res.MaxLatencyMs = durationMs(res.MaxLatency)
	res.AvgLatencyMs = durationMs(res.AvgLatency)
	res.P50LatencyMs = durationMs(res.P50Latency)
	res.P95LatencyMs = durationMs(res.P95Latency)
	res.P99LatencyMs = durationMs(res.P99Latency)

	if len(a.errorTally) > 0 {
		res.Errors = make(map[string]int, len(a.errorTally))
		for k, v := range a.errorTally {
			res.Errors[k] = v
		}
	}

	return res
}

// errorKey buckets an error by message, truncated so unbounded backend
// messages cannot bloat the tally.
func errorKey(err error) string {
	msg := err.Error()
	if len(msg) > 80 {
		msg = msg[:80]
	}
	return msg
}
