package engine

import (
	"math"
	"sort"
	"time"
)

// Percentiles holds the rank-based latency percentiles of a run.
type Percentiles struct {
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// ComputePercentiles derives p50/p95/p99 from successful-operation
// latencies. The rank method is exact: sort ascending and take the value at
// index floor(n*p), clamped to [0, n-1]. No interpolation, so the same
// inputs always yield the same outputs, which reports and regression
// baselines rely on. All percentiles are zero when there are no successes.
func ComputePercentiles(latencies []time.Duration) Percentiles {
	if len(latencies) == 0 {
		return Percentiles{}
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return Percentiles{
		P50: rankValue(sorted, 0.50),
		P95: rankValue(sorted, 0.95),
		P99: rankValue(sorted, 0.99),
	}
}

func rankValue(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
