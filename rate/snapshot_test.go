package rate

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewSnapshot(t *testing.T) {
	fetchedAt := time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC)
	s, err := NewSnapshot(SnapshotParams{
		Source:    SourceUnionPay,
		FetchedAt: fetchedAt,
		Rates: map[Pair]decimal.Decimal{
			{Base: "CNY", Target: "USD"}: d("7.0"),
			{Base: "CNY", Target: "RUB"}: d("0.078"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, SourceUnionPay, s.Source())
	assert.Equal(t, fetchedAt, s.FetchedAt())
	assert.Equal(t, []string{"CNY"}, s.Bases())
	assert.Equal(t, []string{"RUB", "USD"}, s.Targets())
	assert.True(t, s.IsBase("CNY"))
	assert.False(t, s.IsBase("USD"))
	assert.True(t, s.IsTarget("USD"))
	assert.Equal(t, 2, s.Len())

	r, ok := s.Rate("CNY", "USD")
	assert.True(t, ok)
	assert.True(t, r.Equal(d("7")))
	_, ok = s.Rate("USD", "CNY")
	assert.False(t, ok)
	_, ok = s.Nominal("USD")
	assert.False(t, ok)
}

func TestNewSnapshotCopiesInput(t *testing.T) {
	rates := map[Pair]decimal.Decimal{{Base: "CNY", Target: "USD"}: d("7")}
	s, err := NewSnapshot(SnapshotParams{Source: SourceUnionPay, FetchedAt: time.Now(), Rates: rates})
	require.NoError(t, err)

	rates[Pair{Base: "CNY", Target: "USD"}] = d("8")
	rates[Pair{Base: "CNY", Target: "EUR"}] = d("7.8")

	r, _ := s.Rate("CNY", "USD")
	assert.True(t, r.Equal(d("7")))
	assert.False(t, s.IsTarget("EUR"))
}

func TestNewSnapshotValidation(t *testing.T) {
	now := time.Now()
	tcs := []struct {
		name   string
		params SnapshotParams
	}{
		{
			name:   "unknown source",
			params: SnapshotParams{Source: "ecb", FetchedAt: now, Rates: map[Pair]decimal.Decimal{{Base: "CNY", Target: "USD"}: d("7")}},
		},
		{
			name:   "missing fetch time",
			params: SnapshotParams{Source: SourceCBR, Rates: map[Pair]decimal.Decimal{{Base: "RUB", Target: "USD"}: d("90")}},
		},
		{
			name:   "empty table",
			params: SnapshotParams{Source: SourceCBR, FetchedAt: now},
		},
		{
			name:   "zero rate",
			params: SnapshotParams{Source: SourceCBR, FetchedAt: now, Rates: map[Pair]decimal.Decimal{{Base: "RUB", Target: "USD"}: decimal.Zero}},
		},
		{
			name:   "negative rate",
			params: SnapshotParams{Source: SourceCBR, FetchedAt: now, Rates: map[Pair]decimal.Decimal{{Base: "RUB", Target: "USD"}: d("-1")}},
		},
		{
			name:   "empty code",
			params: SnapshotParams{Source: SourceCBR, FetchedAt: now, Rates: map[Pair]decimal.Decimal{{Base: "RUB", Target: ""}: d("1")}},
		},
		{
			name: "zero nominal",
			params: SnapshotParams{
				Source: SourceCBR, FetchedAt: now,
				Rates:    map[Pair]decimal.Decimal{{Base: "RUB", Target: "USD"}: d("90")},
				Nominals: map[string]int64{"USD": 0},
			},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewSnapshot(tc.params)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestSnapshotDigest(t *testing.T) {
	build := func(fetchedAt time.Time, usd string) *Snapshot {
		s, err := NewSnapshot(SnapshotParams{
			Source:    SourceCBR,
			FetchedAt: fetchedAt,
			Rates: map[Pair]decimal.Decimal{
				{Base: "RUB", Target: "USD"}: d(usd),
				{Base: "RUB", Target: "EUR"}: d("98.1"),
			},
			Nominals: map[string]int64{"USD": 1, "EUR": 1},
		})
		require.NoError(t, err)
		return s
	}

	a := build(time.Unix(100, 0), "90.5")
	b := build(time.Unix(200, 0), "90.50")
	c := build(time.Unix(100, 0), "90.6")

	assert.NotEmpty(t, a.Digest())
	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestSnapshotConcurrentReads(t *testing.T) {
	s, err := NewSnapshot(SnapshotParams{
		Source:    SourceUnionPay,
		FetchedAt: time.Now(),
		Rates:     map[Pair]decimal.Decimal{{Base: "CNY", Target: "USD"}: d("7")},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = s.Rate("CNY", "USD")
				_ = s.Targets()
			}
		}()
	}
	wg.Wait()
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource(" UnionPay ")
	require.NoError(t, err)
	assert.Equal(t, SourceUnionPay, src)

	_, err = ParseSource("ecb")
	assert.Error(t, err)
}
