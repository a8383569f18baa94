package util

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecimalFromLocaleString(t *testing.T) {
	tcs := []struct {
		name        string
		value       string
		expectValue decimal.Decimal
		expectErr   bool
	}{
		{
			name:        "comma separator",
			value:       "126,0906",
			expectValue: decimal.RequireFromString("126.0906"),
		},
		{
			name:        "dot separator",
			value:       "90.5",
			expectValue: decimal.RequireFromString("90.5"),
		},
		{
			name:        "surrounding whitespace",
			value:       "  11,2345\n",
			expectValue: decimal.RequireFromString("11.2345"),
		},
		{
			name:        "thousands separator",
			value:       "1 234,5",
			expectValue: decimal.RequireFromString("1234.5"),
		},
		{
			name:      "empty",
			value:     "",
			expectErr: true,
		},
		{
			name:      "garbage",
			value:     "abc",
			expectErr: true,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := DecimalFromLocaleString(tc.value)
			if tc.expectErr {
				assert.Error(t, err)
				var utilErr *UtilError
				assert.ErrorAs(t, err, &utilErr)
				assert.Equal(t, int64(ErrCodeInvalidDecimal), utilErr.GetCode())
				return
			}
			assert.NoError(t, err)
			assert.True(t, tc.expectValue.Equal(actual), "got %s", actual)
		})
	}
}

func TestDecimalPtr(t *testing.T) {
	p := DecimalPtr(decimal.RequireFromString("0.1446428571"), 6)
	assert.Equal(t, "0.144643", p.String())
}
