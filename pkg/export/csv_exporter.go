package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders manifests into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Filename is the archive member name for CSV manifests.
func (e *CSVExporter) Filename() string {
	return "manifest.csv"
}

// Render produces CSV encoded bytes for the manifest.
func (e *CSVExporter) Render(m Manifest) ([]byte, error) {
	if len(m.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(m.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range m.Rows {
		if len(row) != len(m.Headers) {
			return nil, fmt.Errorf("csv row %d has %d columns, want %d", i, len(row), len(m.Headers))
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
