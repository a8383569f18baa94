package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalFormatter(t *testing.T) {
	v := decimal.RequireFromString("1234567.5")
	tests := []struct {
		name      string
		formatter *DecimalFormatter
		value     any
		want      string
	}{
		{"fixed places", &DecimalFormatter{DecimalPlaces: 2}, v, "1234567.50"},
		{"trim zeros", &DecimalFormatter{DecimalPlaces: 6, TrimZeros: true}, v, "1234567.5"},
		{"separators", &DecimalFormatter{DecimalPlaces: 2, ThousandsSeparator: " ", DecimalSeparator: ","}, v, "1 234 567,50"},
		{"negative", &DecimalFormatter{DecimalPlaces: 0, ThousandsSeparator: ","}, decimal.RequireFromString("-1234"), "-1,234"},
		{"pointer", &DecimalFormatter{DecimalPlaces: 1}, &v, "1234567.5"},
		{"nil pointer", &DecimalFormatter{Empty: "n/a"}, (*decimal.Decimal)(nil), "n/a"},
		{"string", &DecimalFormatter{DecimalPlaces: 3}, "0.1", "0.100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.formatter.Format(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := (&DecimalFormatter{}).Format(42)
	assert.Error(t, err)
}

func TestTimeFormatter(t *testing.T) {
	ts := time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC)
	moscow := time.FixedZone("MSK", 3*3600)

	got, err := (&TimeFormatter{Location: moscow}).Format(ts)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 06:00:00", got)

	got, err = (&TimeFormatter{Layout: "02.01.2006"}).Format(&ts)
	require.NoError(t, err)
	assert.Equal(t, "05.03.2024", got)

	got, err = (&TimeFormatter{}).Format(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = (&TimeFormatter{}).Format("yesterday")
	assert.Error(t, err)
}

func TestRowBuilder(t *testing.T) {
	type row struct {
		Code  string `json:"code"`
		Units int64
		Skip  string `json:"-"`
	}

	rows, err := NewRowBuilder().
		Add("code", &MapFormatter{Mappings: map[string]string{"USD": "US Dollar"}}).
		Add("Units", nil).
		Build([]*row{{Code: "USD", Units: 1}, nil, {Code: "JPY", Units: 100}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"US Dollar", "1"}, {"", ""}, {"JPY", "100"}}, rows)

	_, err = NewRowBuilder().Add("missing", nil).Build([]row{{}})
	assert.Error(t, err)

	_, err = NewRowBuilder().Build(row{})
	assert.Error(t, err)

	_, err = NewRowBuilder().Build([]string{"x"})
	assert.Error(t, err)

	empty, err := NewRowBuilder().Add("code", nil).Build([]row{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
