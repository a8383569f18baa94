package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Formatter turns one cell value into its display text.
type Formatter interface {
	Format(value any) (string, error)
}

// DecimalFormatter prints rates with a fixed number of places and optional separators.
// Nil pointers print as Empty.
type DecimalFormatter struct {
	DecimalPlaces      int32
	TrimZeros          bool
	ThousandsSeparator string // e.g. "," for 100,000
	DecimalSeparator   string // e.g. "," for 0,25
	Empty              string
}

func (f *DecimalFormatter) Format(value any) (string, error) {
	var amount decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		if v == nil {
			return f.Empty, nil
		}
		amount = *v
	case string:
		var err error
		amount, err = decimal.NewFromString(v)
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("invalid decimal type: %T", value)
	}

	var formatted string
	if f.TrimZeros {
		formatted = amount.Round(f.DecimalPlaces).String()
	} else {
		formatted = amount.StringFixed(f.DecimalPlaces)
	}
	return withSeparators(formatted, f.ThousandsSeparator, f.DecimalSeparator), nil
}

func withSeparators(s string, thousandsSep, decimalSep string) string {
	if decimalSep == "" {
		decimalSep = "."
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && thousandsSep != "" && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousandsSep)
		}
		b.WriteRune(digit)
	}
	if hasFrac {
		b.WriteString(decimalSep)
		b.WriteString(fracPart)
	}
	return b.String()
}

// TimeFormatter prints times in Location, or in their own zone when unset.
type TimeFormatter struct {
	Location *time.Location
	Layout   string // defaults to "2006-01-02 15:04:05"
}

func (f *TimeFormatter) Format(value any) (string, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return "", nil
		}
		t = *v
	default:
		return "", fmt.Errorf("invalid time type: %T", value)
	}
	if t.IsZero() {
		return "", nil
	}

	if f.Location != nil {
		t = t.In(f.Location)
	}
	layout := f.Layout
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return t.Format(layout), nil
}

// MapFormatter maps values to display labels and passes unknown values through.
type MapFormatter struct {
	Mappings map[string]string
}

func (f *MapFormatter) Format(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("invalid value type: %T", value)
	}
	if mapped, ok := f.Mappings[s]; ok {
		return mapped, nil
	}
	return s, nil
}

// OriginalFormatter returns values as-is.
type OriginalFormatter struct{}

func (f *OriginalFormatter) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", value), nil
}
