package feeder

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVFeeder serves records from a CSV file. The first row is the header
// containing field names. It is safe for concurrent access.
type CSVFeeder struct {
	records []Record
	rewind  bool
}

// NewCSVFeeder creates a new CSV feeder from the given file path.
func NewCSVFeeder(path string, rewind bool) (*CSVFeeder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least one header row and one data row")
	}

	header := rows[0]
	dataRows := rows[1:]

	records := make([]Record, 0, len(dataRows))
	for i, row := range dataRows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i+2, len(row), len(header))
		}

		record := make(Record)
		for j, field := range header {
			record[field] = row[j]
		}
		records = append(records, record)
	}

	return &CSVFeeder{records: records, rewind: rewind}, nil
}

// At returns the record for an operation index.
func (f *CSVFeeder) At(index int) (Record, error) {
	i, err := rewindIndex(index, len(f.records), f.rewind)
	if err != nil {
		return nil, err
	}
	return f.records[i], nil
}

// Len returns the total number of records in the dataset.
func (f *CSVFeeder) Len() int { return len(f.records) }

// Close releases resources. For CSV feeder, this is a no-op.
func (f *CSVFeeder) Close() error { return nil }
