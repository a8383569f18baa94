package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const DefaultSheetName = "Rates"

type ExcelExporter struct {
	file      *excelize.File
	sheetName string
	headers   []string
	hasHeader bool
	rowIndex  int
	styles    map[*excelize.Style]int
}

// NewExcelExporter creates a workbook with a single sheet named sheetName, DefaultSheetName when empty.
func NewExcelExporter(sheetName string) (*ExcelExporter, error) {
	file := excelize.NewFile()
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	return &ExcelExporter{
		file:      file,
		sheetName: sheetName,
		rowIndex:  1,
		styles:    make(map[*excelize.Style]int),
	}, nil
}

func (e *ExcelExporter) WriteHeader(headers []string, style *excelize.Style) error {
	if e.hasHeader {
		return fmt.Errorf("header has already been written")
	}
	if err := e.writeRow(headers, style); err != nil {
		return err
	}

	e.headers = headers
	e.hasHeader = true
	return nil
}

func (e *ExcelExporter) WriteData(data []string, style *excelize.Style) error {
	if !e.hasHeader {
		return fmt.Errorf("header must be written before data")
	}
	if len(data) != len(e.headers) {
		return fmt.Errorf("data length (%d) does not match header length (%d)", len(data), len(e.headers))
	}
	return e.writeRow(data, style)
}

func (e *ExcelExporter) writeRow(values []string, style *excelize.Style) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, e.rowIndex)
		if err != nil {
			return err
		}
		if err := e.file.SetCellValue(e.sheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}

	if style != nil && len(values) > 0 {
		styleID, err := e.styleID(style)
		if err != nil {
			return err
		}
		start, _ := excelize.CoordinatesToCellName(1, e.rowIndex)
		end, _ := excelize.CoordinatesToCellName(len(values), e.rowIndex)
		if err := e.file.SetCellStyle(e.sheetName, start, end, styleID); err != nil {
			return fmt.Errorf("failed to apply style to row %d: %w", e.rowIndex, err)
		}
	}

	e.rowIndex++
	return nil
}

func (e *ExcelExporter) styleID(style *excelize.Style) (int, error) {
	if id, ok := e.styles[style]; ok {
		return id, nil
	}
	id, err := e.file.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("failed to create style: %w", err)
	}
	e.styles[style] = id
	return id, nil
}

func (e *ExcelExporter) SetColumnWidths(width float64) error {
	if len(e.headers) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(e.headers))
	if err != nil {
		return err
	}
	if err := e.file.SetColWidth(e.sheetName, "A", last, width); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func (e *ExcelExporter) WriteTo(w io.Writer) (int64, error) {
	return e.file.WriteTo(w)
}

func (e *ExcelExporter) Close() error {
	return e.file.Close()
}

func (e *ExcelExporter) CurrentRow() int {
	return e.rowIndex
}

func CreateHeaderStyle(backgroundColor string) *excelize.Style {
	return &excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{backgroundColor},
			Pattern: 1,
		},
		Font: &excelize.Font{
			Bold: true,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: cellBorders(),
	}
}

func CreateDataStyle(bold bool) *excelize.Style {
	return &excelize.Style{
		Font:   &excelize.Font{Bold: bold},
		Border: cellBorders(),
	}
}

func cellBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}
