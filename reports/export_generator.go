package reports

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/infigaming-com/fxboard/board"
	"github.com/infigaming-com/fxboard/rate"
	"github.com/shopspring/decimal"
)

var ErrUnsupportedFormat = errors.New("unsupported report format")

type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts csv, excel, xlsx and pdf in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Table is a rendered report. Highlight marks rows to emphasise and may be shorter than Rows.
type Table struct {
	Title     string
	Headers   []string
	Rows      [][]string
	Highlight []bool
}

func (t Table) highlighted(i int) bool {
	return i < len(t.Highlight) && t.Highlight[i]
}

type ReportOptions struct {
	HeaderColor string // Hex color for both Excel and PDF (e.g., "#E0E0E0")
}

type ReportOption func(*ReportOptions)

func WithHeaderColor(color string) ReportOption {
	return func(opts *ReportOptions) {
		opts.HeaderColor = color
	}
}

func getDefaultOptions() *ReportOptions {
	return &ReportOptions{
		HeaderColor: "#E0E0E0",
	}
}

func GenerateCSVReport(table Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table.Headers, table.Rows); err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func GenerateExcelReport(table Table, opts ...ReportOption) ([]byte, error) {
	options := getDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	exporter, err := NewExcelExporter(DefaultSheetName)
	if err != nil {
		return nil, err
	}
	defer exporter.Close()

	if err := exporter.WriteHeader(table.Headers, CreateHeaderStyle(options.HeaderColor)); err != nil {
		return nil, fmt.Errorf("failed to write Excel headers: %w", err)
	}
	plain, bold := CreateDataStyle(false), CreateDataStyle(true)
	for i, row := range table.Rows {
		style := plain
		if table.highlighted(i) {
			style = bold
		}
		if err := exporter.WriteData(row, style); err != nil {
			return nil, fmt.Errorf("failed to write Excel data row: %w", err)
		}
	}
	if err := exporter.SetColumnWidths(18); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := exporter.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render Excel: %w", err)
	}
	return buf.Bytes(), nil
}

func GeneratePDFReport(table Table, opts ...ReportOption) ([]byte, error) {
	options := getDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	headerColor, err := ParseHexColor(options.HeaderColor)
	if err != nil {
		return nil, err
	}

	exporter := NewPDFExporter()
	if table.Title != "" {
		exporter.WriteTitle(table.Title)
	}
	if err := exporter.WriteHeader(table.Headers, CreatePDFHeaderStyle(headerColor)); err != nil {
		return nil, fmt.Errorf("failed to write PDF headers: %w", err)
	}
	plain, pinned := CreatePDFDataStyle(), CreatePDFPinnedStyle()
	for i, row := range table.Rows {
		style := plain
		if table.highlighted(i) {
			style = pinned
		}
		if err := exporter.WriteData(row, style); err != nil {
			return nil, fmt.Errorf("failed to write PDF data row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := exporter.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateReport renders table and returns the content with its file extension.
func GenerateReport(format Format, table Table, opts ...ReportOption) ([]byte, string, error) {
	var (
		content []byte
		err     error
	)
	switch format {
	case FormatCSV:
		content, err = GenerateCSVReport(table)
	case FormatExcel:
		content, err = GenerateExcelReport(table, opts...)
	case FormatPDF:
		content, err = GeneratePDFReport(table, opts...)
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, "", err
	}
	return content, format.Extension(), nil
}

const (
	GroupPinned = "pinned"
	GroupOther  = "other"
)

type boardRow struct {
	Currency     string           `json:"currency"`
	Denomination int64            `json:"denomination"`
	Rate         decimal.Decimal  `json:"rate"`
	Reference    *decimal.Decimal `json:"reference"`
	Group        string           `json:"group"`
}

// BoardTable lays out a board as Currency, Units, UnionPay, CBR, Group.
func BoardTable(b *board.Board) (Table, error) {
	rows := make([]boardRow, 0, len(b.Pinned)+len(b.Remainder))
	highlight := make([]bool, 0, cap(rows))
	for _, r := range b.Pinned {
		rows = append(rows, boardRow{r.Currency, r.Denomination, r.Rate, r.Reference, GroupPinned})
		highlight = append(highlight, true)
	}
	for _, r := range b.Remainder {
		rows = append(rows, boardRow{r.Currency, r.Denomination, r.Rate, r.Reference, GroupOther})
		highlight = append(highlight, false)
	}

	rateFormatter := &DecimalFormatter{DecimalPlaces: 6, TrimZeros: true}
	data, err := NewRowBuilder().
		Add("currency", nil).
		Add("denomination", nil).
		Add("rate", rateFormatter).
		Add("reference", rateFormatter).
		Add("group", &MapFormatter{Mappings: map[string]string{GroupPinned: "Pinned", GroupOther: "Other"}}).
		Build(rows)
	if err != nil {
		return Table{}, err
	}

	return Table{
		Title: boardTitle(b),
		Headers: []string{
			"Currency",
			"Units",
			fmt.Sprintf("UnionPay (%s)", b.Base),
			fmt.Sprintf("CBR (%s)", b.Base),
			"Group",
		},
		Rows:      data,
		Highlight: highlight,
	}, nil
}

func boardTitle(b *board.Board) string {
	title := fmt.Sprintf("Exchange rates in %s", b.Base)
	tf := &TimeFormatter{Layout: "2006-01-02 15:04 MST"}
	for _, source := range []rate.Source{rate.SourceUnionPay, rate.SourceCBR} {
		info, ok := b.Source(source)
		if !ok || info.UpdatedAt == nil {
			continue
		}
		updated, _ := tf.Format(info.UpdatedAt)
		title += fmt.Sprintf(", %s %s", source, updated)
	}
	return title
}

// GenerateBoardReport renders a board in the given format.
func GenerateBoardReport(format Format, b *board.Board, opts ...ReportOption) ([]byte, string, error) {
	table, err := BoardTable(b)
	if err != nil {
		return nil, "", err
	}
	return GenerateReport(format, table, opts...)
}
