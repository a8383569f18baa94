package reports

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExcelExporter_WriteAndRead(t *testing.T) {
	exporter, err := NewExcelExporter("")
	if err != nil {
		t.Fatalf("Failed to create exporter: %v", err)
	}
	defer exporter.Close()

	if err := exporter.WriteData([]string{"x"}, nil); err == nil {
		t.Error("Expected error when writing data before header")
	}
	if err := exporter.WriteHeader([]string{"Currency", "Rate"}, CreateHeaderStyle("#E0E0E0")); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	if err := exporter.WriteHeader([]string{"Currency", "Rate"}, nil); err == nil {
		t.Error("Expected error when writing header twice")
	}
	if err := exporter.WriteData([]string{"USD"}, nil); err == nil {
		t.Error("Expected error for wrong row length")
	}
	if err := exporter.WriteData([]string{"USD", "90.865385"}, CreateDataStyle(true)); err != nil {
		t.Fatalf("Failed to write data: %v", err)
	}
	if err := exporter.WriteData([]string{"GBP", "118.125"}, CreateDataStyle(false)); err != nil {
		t.Fatalf("Failed to write data: %v", err)
	}
	if err := exporter.SetColumnWidths(18); err != nil {
		t.Fatalf("Failed to set widths: %v", err)
	}
	if exporter.CurrentRow() != 4 {
		t.Errorf("Expected current row 4, got %d", exporter.CurrentRow())
	}

	var buf bytes.Buffer
	if _, err := exporter.WriteTo(&buf); err != nil {
		t.Fatalf("Failed to render workbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}
	defer f.Close()

	cells := map[string]string{"A1": "Currency", "B1": "Rate", "A2": "USD", "B2": "90.865385", "A3": "GBP"}
	for cell, want := range cells {
		got, err := f.GetCellValue(DefaultSheetName, cell)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("Cell %s: expected %q, got %q", cell, want, got)
		}
	}
}

func TestCreateHeaderStyle(t *testing.T) {
	style := CreateHeaderStyle("#FF5733")
	if style.Fill.Color[0] != "#FF5733" {
		t.Errorf("Expected fill color #FF5733, got %v", style.Fill.Color)
	}
	if !style.Font.Bold {
		t.Error("Expected bold header font")
	}
	if len(style.Border) != 4 {
		t.Errorf("Expected 4 borders, got %d", len(style.Border))
	}
}
