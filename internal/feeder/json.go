package feeder

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// JSONFeeder serves records from a JSON file containing an array of objects.
// It is safe for concurrent access.
type JSONFeeder struct {
	records []Record
	rewind  bool
}

// NewJSONFeeder creates a new JSON feeder from the given file path. The file
// must contain a JSON array of flat objects; nested values are flattened to
// their JSON string form.
func NewJSONFeeder(path string, rewind bool) (*JSONFeeder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read JSON file: %w", err)
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("JSON file must contain an array of objects")
	}

	var records []Record
	var parseErr error
	parsed.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			parseErr = fmt.Errorf("record %d is not an object", len(records))
			return false
		}
		record := make(Record)
		value.ForEach(func(key, field gjson.Result) bool {
			record[key.String()] = field.String()
			return true
		})
		if len(record) == 0 {
			parseErr = fmt.Errorf("record %d is empty", len(records))
			return false
		}
		records = append(records, record)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("JSON file contains empty array")
	}

	return &JSONFeeder{records: records, rewind: rewind}, nil
}

// At returns the record for an operation index.
func (f *JSONFeeder) At(index int) (Record, error) {
	i, err := rewindIndex(index, len(f.records), f.rewind)
	if err != nil {
		return nil, err
	}
	return f.records[i], nil
}

// Len returns the total number of records in the dataset.
func (f *JSONFeeder) Len() int { return len(f.records) }

// Close releases resources. For JSON feeder, this is a no-op.
func (f *JSONFeeder) Close() error { return nil }
