package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Mode selects the operation shape a run drives.
type Mode string

const (
	ModeWrite Mode = "write"
	ModeRead  Mode = "read"
)

type Config struct {
	// Backend selection and connection.
	Backend  string `mapstructure:"backend"` // postgres, mysql, redis, badger
	DSN      string `mapstructure:"dsn"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	RedisDB  int    `mapstructure:"redis_db"`
	Path     string `mapstructure:"path"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`

	// Workload shape.
	Mode        Mode   `mapstructure:"mode"`
	Total       int    `mapstructure:"total"`
	Concurrency int    `mapstructure:"concurrency"`
	BatchSize   int    `mapstructure:"batch_size"`
	ReadLimit   int    `mapstructure:"read_limit"`
	PayloadSize int    `mapstructure:"payload_size"`
	SeedOps     int    `mapstructure:"seed_ops"`
	KeyPrefix   string `mapstructure:"key_prefix"`

	// Pacing and per-operation limits.
	Rate    int           `mapstructure:"rate"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Output and observability.
	JSONOutput bool          `mapstructure:"json_output"`
	Dashboard  bool          `mapstructure:"dashboard"`
	LogErrors  bool          `mapstructure:"log_errors"`
	Thresholds []string      `mapstructure:"thresholds"`
	Feeder     FeederConfig  `mapstructure:"feeder"`
	Tracing    TracingConfig `mapstructure:"tracing"`

	ConfigFile string `mapstructure:"-"`
}

type FeederConfig struct {
	Path     string `mapstructure:"path"`
	Type     string `mapstructure:"type"`      // "csv" or "json"
	KeyField string `mapstructure:"key_field"` // record field holding the lookup key
	Rewind   bool   `mapstructure:"rewind"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether a tracing endpoint is configured here or in the
// standard OTEL environment.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" ||
		os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string
	var warnings []string

	switch c.Backend {
	case "postgres", "mysql":
		if strings.TrimSpace(c.DSN) == "" {
			issues = append(issues, fmt.Sprintf("%s backend requires a dsn", c.Backend))
		}
	case "redis":
		if strings.TrimSpace(c.Addr) == "" {
			issues = append(issues, "redis backend requires an addr")
		}
	case "badger":
		if strings.TrimSpace(c.Path) == "" {
			issues = append(issues, "badger backend requires a path")
		}
	case "":
		issues = append(issues, "backend is required (use --help for usage information)")
	default:
		issues = append(issues, fmt.Sprintf("unknown backend %q", c.Backend))
	}

	switch c.Mode {
	case ModeWrite, ModeRead:
	default:
		issues = append(issues, fmt.Sprintf("mode must be %q or %q", ModeWrite, ModeRead))
	}

	if c.Concurrency > 500 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High concurrency configured (%d lanes). Ensure the target system can absorb the load.", c.Concurrency))
	}
	if c.Rate > 10000 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High pacing rate configured (%d ops/sec).", c.Rate))
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	if c.Total < 1 {
		issues = append(issues, "total must be >= 1")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.BatchSize < 1 {
		issues = append(issues, "batch-size must be >= 1")
	}
	if c.ReadLimit < 1 {
		issues = append(issues, "read-limit must be >= 1")
	}
	if c.PayloadSize < 1 {
		issues = append(issues, "payload-size must be >= 1")
	}
	if c.Mode == ModeRead && c.SeedOps < 1 && c.Feeder.Path == "" {
		issues = append(issues, "read mode requires seed-ops >= 1 or a feeder dataset")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Feeder.Path != "" {
		switch c.Feeder.Type {
		case "csv", "json":
		default:
			issues = append(issues, `feeder type must be "csv" or "json"`)
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
