package dashboard

import (
	"strings"
	"testing"
	"time"
)

func TestFormatErrorRows(t *testing.T) {
	rows := formatErrorRows(map[string]int{
		"connection refused": 3,
		"timeout":            1,
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !strings.Contains(rows[0], "connection refused") {
		t.Errorf("expected highest-count error first, got %s", rows[0])
	}
	if !strings.Contains(rows[0], "3") {
		t.Errorf("expected count in row, got %s", rows[0])
	}
}

func TestFormatErrorRowsEmpty(t *testing.T) {
	rows := formatErrorRows(nil)
	if len(rows) != 1 || !strings.Contains(rows[0], "No failures") {
		t.Fatalf("expected placeholder row, got %v", rows)
	}
}

func TestFormatErrorRowsCapped(t *testing.T) {
	errors := make(map[string]int)
	for i := 0; i < 15; i++ {
		errors[strings.Repeat("x", i+1)] = i + 1
	}
	rows := formatErrorRows(errors)
	if len(rows) != 10 {
		t.Errorf("expected 10 rows max, got %d", len(rows))
	}
}

func TestFormatRunParams(t *testing.T) {
	tests := []struct {
		name     string
		config   RunConfig
		contains []string
		excludes []string
	}{
		{
			name: "basic config",
			config: RunConfig{
				Mode:        "write",
				Concurrency: 10,
				Rate:        100,
				Total:       1000,
				BatchSize:   50,
			},
			contains: []string{"Lanes: 10", "Rate: 100/s", "Total: 1000", "Batch: 50"},
		},
		{
			name: "unlimited rate",
			config: RunConfig{
				Concurrency: 5,
				Rate:        0,
			},
			contains: []string{"Lanes: 5", "Rate: unlimited"},
		},
		{
			name: "batch hidden in read mode",
			config: RunConfig{
				Mode:        "read",
				Concurrency: 5,
				BatchSize:   50,
			},
			excludes: []string{"Batch:"},
		},
		{
			name: "with timeout",
			config: RunConfig{
				Concurrency: 5,
				Timeout:     10 * time.Second,
			},
			contains: []string{"Timeout: 10s"},
		},
		{
			name: "with config file",
			config: RunConfig{
				Concurrency: 5,
				ConfigFile:  "bench.yml",
			},
			contains: []string{"Config: bench.yml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatRunParams(tt.config)

			for _, s := range tt.contains {
				if !strings.Contains(result, s) {
					t.Errorf("expected result to contain %q, got %q", s, result)
				}
			}

			for _, s := range tt.excludes {
				if strings.Contains(result, s) {
					t.Errorf("expected result NOT to contain %q, got %q", s, result)
				}
			}
		})
	}
}
