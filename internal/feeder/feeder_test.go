package feeder_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stashbench/stashbench/internal/backend"
	"github.com/stashbench/stashbench/internal/feeder"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCSVFeederParsesHeaderAndRows(t *testing.T) {
	path := writeFile(t, "keys.csv", "key,region\nuser:1,eu\nuser:2,us\n")
	f, err := feeder.NewCSVFeeder(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if f.Len() != 2 {
		t.Fatalf("len = %d, want 2", f.Len())
	}
	rec, err := f.At(1)
	if err != nil {
		t.Fatalf("at(1): %v", err)
	}
	if rec["key"] != "user:2" || rec["region"] != "us" {
		t.Fatalf("record = %v", rec)
	}
}

func TestCSVFeederExhaustionAndRewind(t *testing.T) {
	path := writeFile(t, "keys.csv", "key\na\nb\n")

	fixed, err := feeder.NewCSVFeeder(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := fixed.At(2); !errors.Is(err, feeder.ErrExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	looped, err := feeder.NewCSVFeeder(path, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec, err := looped.At(5)
	if err != nil {
		t.Fatalf("at(5) with rewind: %v", err)
	}
	if rec["key"] != "b" {
		t.Fatalf("index 5 should wrap to record 1, got %v", rec)
	}
}

func TestCSVFeederRejectsRaggedRows(t *testing.T) {
	path := writeFile(t, "bad.csv", "key,region\nonly-one-field\n")
	if _, err := feeder.NewCSVFeeder(path, false); err == nil {
		t.Fatal("expected an error for mismatched columns")
	}
}

func TestJSONFeederParsesArray(t *testing.T) {
	path := writeFile(t, "keys.json", `[{"key":"user:1","weight":2},{"key":"user:2","weight":5}]`)
	f, err := feeder.NewJSONFeeder(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if f.Len() != 2 {
		t.Fatalf("len = %d, want 2", f.Len())
	}
	rec, err := f.At(0)
	if err != nil {
		t.Fatalf("at(0): %v", err)
	}
	if rec["key"] != "user:1" || rec["weight"] != "2" {
		t.Fatalf("record = %v", rec)
	}
}

func TestJSONFeederRejectsNonArray(t *testing.T) {
	path := writeFile(t, "bad.json", `{"key":"user:1"}`)
	if _, err := feeder.NewJSONFeeder(path, false); err == nil {
		t.Fatal("expected an error for a non-array document")
	}
}

func TestReadSupplierBuildsQueries(t *testing.T) {
	path := writeFile(t, "keys.csv", "id\nuser:1\nuser:2\n")
	f, err := feeder.NewCSVFeeder(path, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	supplier := feeder.ReadSupplier(f, "id", 7)

	q := supplier(3).(backend.ReadQuery)
	if q.Key != "user:2" {
		t.Fatalf("index 3 wraps to record 1, got key %q", q.Key)
	}
	if q.Limit != 7 {
		t.Fatalf("limit = %d, want 7", q.Limit)
	}
}
