package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/stashbench/stashbench/internal/engine"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "op_duration", "op_failed"
	Aggregate string  // e.g., "p95", "p99", "avg", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a completed run's result.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided run result.
func (e *Evaluator) Evaluate(res engine.Result) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, res))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func (e *Evaluator) evaluateOne(t Threshold, res engine.Result) Result {
	actual, err := extractMetricValue(t, res)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "op_duration:p95 < 200"    (latency percentile in ms)
// - "op_duration:avg < 50"     (average latency in ms)
// - "op_duration:max < 1000"   (max latency in ms)
// - "op_failed:rate < 0.01"    (failure rate as decimal)
// - "op_failed:count < 10"     (failure count)
// - "ops:rate > 100"           (operations per second)
// - "units:rate > 1000"        (units per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	// Pattern: metric:aggregate operator value
	// e.g., "op_duration:p95 < 200"
	pattern := regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'op_duration:p95 < 200')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: op_duration, op_failed, ops, units)", metric)
	}

	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: p50, p95, p99, avg, min, max, rate, count)", aggregate)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	valid := []string{"op_duration", "op_failed", "ops", "units"}
	for _, v := range valid {
		if metric == v {
			return true
		}
	}
	return false
}

func isValidAggregate(aggregate string) bool {
	valid := []string{"p50", "p95", "p99", "avg", "min", "max", "rate", "count"}
	for _, v := range valid {
		if aggregate == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, res engine.Result) (float64, error) {
	switch t.Metric {
	case "op_duration":
		return extractLatencyMetric(t.Aggregate, res)
	case "op_failed":
		return extractFailureMetric(t.Aggregate, res)
	case "ops":
		return extractOpsMetric(t.Aggregate, res)
	case "units":
		return extractUnitsMetric(t.Aggregate, res)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(aggregate string, res engine.Result) (float64, error) {
	switch aggregate {
	case "p50":
		return res.P50LatencyMs, nil
	case "p95":
		return res.P95LatencyMs, nil
	case "p99":
		return res.P99LatencyMs, nil
	case "avg":
		return res.AvgLatencyMs, nil
	case "min":
		return res.MinLatencyMs, nil
	case "max":
		return res.MaxLatencyMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for op_duration", aggregate)
	}
}

func extractFailureMetric(aggregate string, res engine.Result) (float64, error) {
	switch aggregate {
	case "count":
		return float64(res.ErrorCount), nil
	case "rate":
		if res.TotalAttempted == 0 {
			return 0, nil
		}
		return float64(res.ErrorCount) / float64(res.TotalAttempted), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for op_failed (use 'count' or 'rate')", aggregate)
	}
}

func extractOpsMetric(aggregate string, res engine.Result) (float64, error) {
	switch aggregate {
	case "count":
		return float64(res.TotalAttempted), nil
	case "rate":
		if res.WallClock <= 0 {
			return 0, nil
		}
		return float64(res.TotalAttempted) / res.WallClock.Seconds(), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for ops (use 'count' or 'rate')", aggregate)
	}
}

func extractUnitsMetric(aggregate string, res engine.Result) (float64, error) {
	switch aggregate {
	case "count":
		return float64(res.TotalUnits), nil
	case "rate":
		return res.Rate, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for units (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Floating point comparison uses a small epsilon for the
	// equality-bearing operators.
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
