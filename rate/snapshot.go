package rate

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SnapshotParams is the raw material for NewSnapshot. The maps are copied.
type SnapshotParams struct {
	Source        Source
	FetchedAt     time.Time
	EffectiveDate time.Time
	Rates         map[Pair]decimal.Decimal
	Nominals      map[string]int64
	Values        map[string]decimal.Decimal
}

// Snapshot is an immutable capture of one upstream rate table.
// All accessors are safe for concurrent use.
type Snapshot struct {
	source        Source
	fetchedAt     time.Time
	effectiveDate time.Time
	bases         map[string]struct{}
	targets       map[string]struct{}
	rates         map[Pair]decimal.Decimal
	nominals      map[string]int64
	values        map[string]decimal.Decimal
	digest        string
}

func NewSnapshot(p SnapshotParams) (*Snapshot, error) {
	if !p.Source.Valid() {
		return nil, ErrInvalidSnapshot.Wrap(fmt.Errorf("unknown source %q", p.Source))
	}
	if p.FetchedAt.IsZero() {
		return nil, ErrInvalidSnapshot.Wrap(fmt.Errorf("missing fetch time"))
	}
	if len(p.Rates) == 0 {
		return nil, ErrInvalidSnapshot.Wrap(fmt.Errorf("empty rate table"))
	}

	s := &Snapshot{
		source:        p.Source,
		fetchedAt:     p.FetchedAt,
		effectiveDate: p.EffectiveDate,
		bases:         make(map[string]struct{}),
		targets:       make(map[string]struct{}),
		rates:         make(map[Pair]decimal.Decimal, len(p.Rates)),
		nominals:      make(map[string]int64, len(p.Nominals)),
		values:        make(map[string]decimal.Decimal, len(p.Values)),
	}
	for pair, r := range p.Rates {
		if pair.Base == "" || pair.Target == "" {
			return nil, ErrInvalidSnapshot.Wrap(fmt.Errorf("empty currency code in pair %q", pair))
		}
		if !r.IsPositive() {
			return nil, ErrInvalidSnapshot.Wrap(fmt.Errorf("non-positive rate %s for %s", r, pair))
		}
		s.bases[pair.Base] = struct{}{}
		s.targets[pair.Target] = struct{}{}
		s.rates[pair] = r
	}
	for code, n := range p.Nominals {
		if n < 1 {
			return nil, ErrInvalidSnapshot.Wrap(fmt.Errorf("nominal %d for %s is below 1", n, code))
		}
		s.nominals[code] = n
	}
	for code, v := range p.Values {
		if !v.IsPositive() {
			return nil, ErrInvalidSnapshot.Wrap(fmt.Errorf("non-positive value %s for %s", v, code))
		}
		s.values[code] = v
	}
	s.digest = s.computeDigest()
	return s, nil
}

func (s *Snapshot) Source() Source {
	return s.source
}

func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// EffectiveDate is the publication date announced by the upstream, zero when it did not announce one.
func (s *Snapshot) EffectiveDate() time.Time {
	return s.effectiveDate
}

// Digest is a content hash of the rate data. It ignores the fetch time, so two
// fetches of the same upstream document share a digest.
func (s *Snapshot) Digest() string {
	return s.digest
}

func (s *Snapshot) Len() int {
	return len(s.rates)
}

// Bases returns the native base currencies in ascending order.
func (s *Snapshot) Bases() []string {
	return slices.Sorted(maps.Keys(s.bases))
}

// Targets returns the native target currencies in ascending order.
func (s *Snapshot) Targets() []string {
	return slices.Sorted(maps.Keys(s.targets))
}

func (s *Snapshot) IsBase(code string) bool {
	_, ok := s.bases[code]
	return ok
}

func (s *Snapshot) IsTarget(code string) bool {
	_, ok := s.targets[code]
	return ok
}

func (s *Snapshot) Rate(base, target string) (decimal.Decimal, bool) {
	r, ok := s.rates[Pair{Base: base, Target: target}]
	return r, ok
}

// Nominal is the upstream quoting unit for code (e.g. 100 for JPY on the CBR feed).
func (s *Snapshot) Nominal(code string) (int64, bool) {
	n, ok := s.nominals[code]
	return n, ok
}

// Value is the upstream quote for Nominal units of code.
func (s *Snapshot) Value(code string) (decimal.Decimal, bool) {
	v, ok := s.values[code]
	return v, ok
}

func (s *Snapshot) computeDigest() string {
	h := xxhash.New()
	_, _ = h.WriteString(string(s.source))
	_, _ = h.WriteString("|")
	if !s.effectiveDate.IsZero() {
		_, _ = h.WriteString(s.effectiveDate.Format(time.DateOnly))
	}

	pairs := lo.Keys(s.rates)
	slices.SortFunc(pairs, func(a, b Pair) int {
		if c := cmp.Compare(a.Base, b.Base); c != 0 {
			return c
		}
		return cmp.Compare(a.Target, b.Target)
	})
	for _, p := range pairs {
		_, _ = h.WriteString("|r:" + p.String() + "=" + s.rates[p].String())
	}
	for _, code := range slices.Sorted(maps.Keys(s.nominals)) {
		_, _ = h.WriteString("|n:" + code + "=" + strconv.FormatInt(s.nominals[code], 10))
	}
	for _, code := range slices.Sorted(maps.Keys(s.values)) {
		_, _ = h.WriteString("|v:" + code + "=" + s.values[code].String())
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
