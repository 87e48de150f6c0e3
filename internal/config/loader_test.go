package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeYAML(t *testing.T, settings map[string]interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(settings)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load([]string{"--backend", "badger", "--path", "/tmp/bench"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "badger" || cfg.Path != "/tmp/bench" {
		t.Fatalf("backend selection not applied: %+v", cfg)
	}
	if cfg.Mode != ModeWrite {
		t.Fatalf("default mode = %q, want write", cfg.Mode)
	}
	if cfg.Total != 1000 || cfg.Concurrency != 1 {
		t.Fatalf("defaults off: total=%d concurrency=%d", cfg.Total, cfg.Concurrency)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("default timeout = %s", cfg.Timeout)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeYAML(t, map[string]interface{}{
		"backend":     "postgres",
		"dsn":         "postgres://bench:pw@localhost:5432/bench",
		"mode":        "read",
		"total":       500,
		"concurrency": 8,
		"seed_ops":    50,
		"read_limit":  25,
		"thresholds":  []string{"op_duration:p95<200ms"},
		"feeder": map[string]interface{}{
			"path":      "keys.csv",
			"key_field": "id",
		},
		"tracing": map[string]interface{}{
			"endpoint":    "localhost:4317",
			"sample_rate": 0.25,
		},
	})

	cfg, err := NewLoader().Load([]string{"-f", path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "postgres" || cfg.Mode != ModeRead {
		t.Fatalf("file settings not applied: %+v", cfg)
	}
	if cfg.Total != 500 || cfg.Concurrency != 8 || cfg.SeedOps != 50 || cfg.ReadLimit != 25 {
		t.Fatalf("numeric settings off: %+v", cfg)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "op_duration:p95<200ms" {
		t.Fatalf("thresholds = %v", cfg.Thresholds)
	}
	if cfg.Feeder.Path != "keys.csv" || cfg.Feeder.KeyField != "id" {
		t.Fatalf("feeder = %+v", cfg.Feeder)
	}
	if cfg.Feeder.Type != "csv" {
		t.Fatalf("feeder type not inferred from extension: %q", cfg.Feeder.Type)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.SampleRate != 0.25 {
		t.Fatalf("tracing = %+v", cfg.Tracing)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeYAML(t, map[string]interface{}{
		"backend":     "badger",
		"path":        "/tmp/bench",
		"total":       100,
		"concurrency": 2,
	})
	cfg, err := NewLoader().Load([]string{"-f", path, "--total", "999", "-c", "16"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Total != 999 || cfg.Concurrency != 16 {
		t.Fatalf("flag overrides lost: total=%d concurrency=%d", cfg.Total, cfg.Concurrency)
	}
	if cfg.Backend != "badger" {
		t.Fatalf("file setting dropped: %+v", cfg)
	}
}

func TestLoadNoArgsShowsHelp(t *testing.T) {
	_, err := NewLoader().Load(nil)
	if !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("expected help, got %v", err)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := NewLoader().Load([]string{"-f", "/does/not/exist.yaml"}); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
