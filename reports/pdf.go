package reports

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210.0
	pdfPageHeight = 297.0
	pdfMargin     = 10.0
	pdfRowHeight  = 7.0
)

type PDFExporter struct {
	pdf         *gofpdf.Fpdf
	headers     []string
	headerStyle *PDFStyle
	hasHeader   bool
	colWidths   []float64
	y           float64
}

func NewPDFExporter() *PDFExporter {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	return &PDFExporter{pdf: pdf, y: pdfMargin}
}

// WriteTitle prints a line above the table. Call it before WriteHeader.
func (e *PDFExporter) WriteTitle(title string) {
	e.pdf.SetFont("Arial", "B", 14)
	e.pdf.SetTextColor(0, 0, 0)
	e.pdf.SetXY(pdfMargin, e.y)
	e.pdf.CellFormat(pdfPageWidth-2*pdfMargin, 10, title, "", 0, "L", false, 0, "")
	e.y += 12
}

// SetColumnWidths sets relative widths; they are scaled to the printable width.
func (e *PDFExporter) SetColumnWidths(widths []float64) error {
	if e.hasHeader && len(widths) != len(e.headers) {
		return fmt.Errorf("widths length (%d) does not match header length (%d)", len(widths), len(e.headers))
	}
	e.colWidths = scaleWidths(widths)
	return nil
}

func (e *PDFExporter) WriteHeader(headers []string, style *PDFStyle) error {
	if e.hasHeader {
		return fmt.Errorf("header has already been written")
	}
	if e.colWidths != nil && len(e.colWidths) != len(headers) {
		return fmt.Errorf("previously set column widths length (%d) does not match header length (%d)", len(e.colWidths), len(headers))
	}
	if e.colWidths == nil {
		widths := make([]float64, len(headers))
		for i := range widths {
			widths[i] = 1
		}
		e.colWidths = scaleWidths(widths)
	}
	if style == nil {
		style = CreatePDFHeaderStyle(NewColor(224, 224, 224))
	}

	e.headers = headers
	e.headerStyle = style
	e.hasHeader = true
	e.drawRow(headers, style)
	return nil
}

func (e *PDFExporter) WriteData(data []string, style *PDFStyle) error {
	if !e.hasHeader {
		return fmt.Errorf("header must be written before data")
	}
	if len(data) != len(e.headers) {
		return fmt.Errorf("data length (%d) does not match header length (%d)", len(data), len(e.headers))
	}
	if style == nil {
		style = CreatePDFDataStyle()
	}

	if e.y+pdfRowHeight > pdfPageHeight-pdfMargin {
		e.pdf.AddPage()
		e.y = pdfMargin
		e.drawRow(e.headers, e.headerStyle)
	}
	e.drawRow(data, style)
	return nil
}

func (e *PDFExporter) drawRow(values []string, style *PDFStyle) {
	e.pdf.SetFont(style.FontFamily, style.FontStyle, style.FontSize)
	e.pdf.SetFillColor(style.BackgroundColor.R, style.BackgroundColor.G, style.BackgroundColor.B)
	e.pdf.SetTextColor(style.TextColor.R, style.TextColor.G, style.TextColor.B)

	e.pdf.SetXY(pdfMargin, e.y)
	for i, value := range values {
		e.pdf.CellFormat(e.colWidths[i], pdfRowHeight, value, "1", 0, "L", true, 0, "")
	}
	e.y += pdfRowHeight
}

func (e *PDFExporter) PageCount() int {
	return e.pdf.PageCount()
}

func (e *PDFExporter) WriteTo(w io.Writer) error {
	if err := e.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

func scaleWidths(widths []float64) []float64 {
	total := 0.0
	for _, w := range widths {
		total += w
	}
	available := pdfPageWidth - 2*pdfMargin
	scaled := make([]float64, len(widths))
	for i, w := range widths {
		scaled[i] = w / total * available
	}
	return scaled
}

type PDFStyle struct {
	FontFamily      string
	FontStyle       string
	FontSize        float64
	BackgroundColor Color
	TextColor       Color
}

type Color struct {
	R, G, B int
}

func NewColor(r, g, b int) Color {
	return Color{R: r, G: g, B: b}
}

func CreatePDFHeaderStyle(backgroundColor Color) *PDFStyle {
	return &PDFStyle{
		FontFamily:      "Arial",
		FontStyle:       "B",
		FontSize:        11,
		BackgroundColor: backgroundColor,
		TextColor:       Color{R: 0, G: 0, B: 0},
	}
}

func CreatePDFDataStyle() *PDFStyle {
	return &PDFStyle{
		FontFamily:      "Arial",
		FontSize:        10,
		BackgroundColor: Color{R: 255, G: 255, B: 255},
		TextColor:       Color{R: 0, G: 0, B: 0},
	}
}

// CreatePDFPinnedStyle highlights the pinned currencies.
func CreatePDFPinnedStyle() *PDFStyle {
	return &PDFStyle{
		FontFamily:      "Arial",
		FontStyle:       "B",
		FontSize:        10,
		BackgroundColor: Color{R: 248, G: 248, B: 248},
		TextColor:       Color{R: 0, G: 0, B: 0},
	}
}

func ParseHexColor(hex string) (Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid hex color: %s", hex)
	}

	r, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return Color{}, err
	}
	g, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return Color{}, err
	}
	b, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return Color{}, err
	}

	return Color{R: int(r), G: int(g), B: int(b)}, nil
}
