package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DecimalFromLocaleString parses numbers written with a comma decimal separator, e.g. "126,0906".
// Spaces and non-breaking spaces used as thousands separators are dropped.
func DecimalFromLocaleString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	if s == "" {
		return decimal.Zero, NewUtilError(ErrCodeInvalidDecimal, "empty decimal value", nil, nil)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewUtilError(ErrCodeInvalidDecimal, "invalid decimal value", err, s)
	}
	return d, nil
}

// DecimalPtr rounds d to places and returns a pointer to the result.
func DecimalPtr(d decimal.Decimal, places int32) *decimal.Decimal {
	r := d.Round(places)
	return &r
}
