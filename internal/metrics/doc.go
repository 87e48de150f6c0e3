// Package metrics provides real-time metrics collection for in-progress
// benchmark runs.
//
// The [Collector] aggregates latency measurements, success/failure counts,
// and processed-unit totals as lanes report operations. It backs the live
// progress line and the terminal dashboard; the final report is computed by
// the engine itself, which uses exact rank percentiles rather than the
// collector's HdrHistogram approximation.
//
//	collector := metrics.NewCollector()
//
//	// Fed from the engine's observer hook:
//	collector.RecordOperation(rec.Latency, rec.Units, rec.Err)
//
//	// Sampled periodically:
//	snap := collector.Stats(elapsed)
//
// The Collector is safe for concurrent use from all lanes.
package metrics
