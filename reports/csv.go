package reports

import (
	"encoding/csv"
	"fmt"
	"io"
)

type CSVExporter struct {
	csvWriter *csv.Writer
	headers   []string
	hasHeader bool
}

func NewCSVExporter(w io.Writer) *CSVExporter {
	return &CSVExporter{csvWriter: csv.NewWriter(w)}
}

func (e *CSVExporter) WriteHeader(headers []string) error {
	if e.hasHeader {
		return fmt.Errorf("header has already been written")
	}
	if err := e.csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	e.headers = headers
	e.hasHeader = true
	return nil
}

func (e *CSVExporter) WriteData(data []string) error {
	if !e.hasHeader {
		return fmt.Errorf("header must be written before data")
	}
	if len(data) != len(e.headers) {
		return fmt.Errorf("data length (%d) does not match header length (%d)", len(data), len(e.headers))
	}
	if err := e.csvWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write data row: %w", err)
	}
	return nil
}

func (e *CSVExporter) Flush() error {
	e.csvWriter.Flush()
	if err := e.csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

func (e *CSVExporter) Headers() []string {
	return e.headers
}

func WriteCSV(w io.Writer, headers []string, data [][]string) error {
	exporter := NewCSVExporter(w)
	if err := exporter.WriteHeader(headers); err != nil {
		return err
	}
	for _, row := range data {
		if err := exporter.WriteData(row); err != nil {
			return err
		}
	}
	return exporter.Flush()
}
