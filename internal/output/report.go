package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/stashbench/stashbench/internal/engine"
)

// PrintReport outputs a human-readable summary report for a completed run.
func PrintReport(w io.Writer, backend string, res engine.Result) {
	fmt.Fprintln(w, "\n--- Benchmark Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", res.RunID)
	fmt.Fprintf(w, "Backend:           %s\n", backend)
	fmt.Fprintf(w, "Operations:        %d\n", res.TotalAttempted)
	fmt.Fprintf(w, "Successful:        %d\n", res.SuccessCount)
	fmt.Fprintf(w, "Failed:            %d\n", res.ErrorCount)
	fmt.Fprintf(w, "Units Processed:   %d\n", res.TotalUnits)
	fmt.Fprintf(w, "Duration:          %s\n", res.WallClock)
	fmt.Fprintf(w, "Units/sec:         %.2f\n", res.Rate)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", res.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", res.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", res.AvgLatency)
	fmt.Fprintf(w, "  P50:             %s\n", res.P50Latency)
	fmt.Fprintf(w, "  P95:             %s\n", res.P95Latency)
	fmt.Fprintf(w, "  P99:             %s\n", res.P99Latency)

	if len(res.Errors) > 0 {
		fmt.Fprintln(w, "\nError Breakdown:")
		messages := make([]string, 0, len(res.Errors))
		for msg := range res.Errors {
			messages = append(messages, msg)
		}
		sort.Slice(messages, func(i, j int) bool {
			if res.Errors[messages[i]] == res.Errors[messages[j]] {
				return messages[i] < messages[j]
			}
			return res.Errors[messages[i]] > res.Errors[messages[j]]
		})
		for _, msg := range messages {
			fmt.Fprintf(w, "  - %s: %d\n", msg, res.Errors[msg])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, res engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
