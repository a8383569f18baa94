package crossrate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/infigaming-com/fxboard/errors"
	"github.com/infigaming-com/fxboard/rate"
	"github.com/infigaming-com/fxboard/util"
	"github.com/shopspring/decimal"
)

const (
	ErrCodeDataUnavailable = 23000 + iota
	ErrCodeUnsupportedBase
)

var (
	ErrDataUnavailable = errors.NewError(ErrCodeDataUnavailable, "rates unavailable", nil)
	ErrUnsupportedBase = errors.NewError(ErrCodeUnsupportedBase, "unsupported base currency", nil)
)

// DefaultPrecision is the number of decimal places kept for every derived rate.
const DefaultPrecision int32 = 6

var (
	DefaultPinned = []string{"CNY", "USD", "EUR", "TRY", "AED", "THB", "VND", "HKD", "JPY"}

	// DefaultDenominations override the reference nominal for display.
	DefaultDenominations = map[string]int64{"TRY": 1, "THB": 1, "VND": 1000}
)

// SnapshotReader is the read side of the rate store.
type SnapshotReader interface {
	Get(source rate.Source) (*rate.Snapshot, bool)
}

// Engine derives arbitrary-pair rates from the UnionPay table, whose native pairs all go through CNY.
// It never mutates snapshots and holds no per-request state.
type Engine struct {
	reader        SnapshotReader
	markup        Markup
	precision     int32
	pinned        []string
	denominations map[string]int64
}

type Option func(*Engine)

func WithMarkup(m Markup) Option {
	return func(e *Engine) {
		e.markup = m.clone()
	}
}

func WithPrecision(places int32) Option {
	return func(e *Engine) {
		if places >= 0 {
			e.precision = places
		}
	}
}

func WithPinned(codes []string) Option {
	return func(e *Engine) {
		e.pinned = make([]string, 0, len(codes))
		for _, c := range codes {
			if c = rate.NormalizeCode(c); c != "" && !slices.Contains(e.pinned, c) {
				e.pinned = append(e.pinned, c)
			}
		}
	}
}

func WithDenominations(denominations map[string]int64) Option {
	return func(e *Engine) {
		e.denominations = maps.Clone(denominations)
	}
}

func NewEngine(reader SnapshotReader, opts ...Option) *Engine {
	e := &Engine{
		reader:        reader,
		markup:        DefaultMarkup(),
		precision:     DefaultPrecision,
		pinned:        slices.Clone(DefaultPinned),
		denominations: maps.Clone(DefaultDenominations),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Markup() Markup {
	return e.markup.clone()
}

// Rate resolves base per one target against the current UnionPay snapshot.
// It returns ErrDataUnavailable when no snapshot was ever stored; ok is false when the pair cannot be derived.
func (e *Engine) Rate(base, target string) (value decimal.Decimal, ok bool, err error) {
	primary, loaded := e.reader.Get(rate.SourceUnionPay)
	if !loaded {
		return decimal.Zero, false, ErrDataUnavailable
	}
	value, ok = e.RateFrom(primary, base, target)
	return value, ok, nil
}

// RateFrom applies the derivation rules to a given snapshot:
//
//	base native base,   target native target: direct quote
//	base native target, target CNY:           ToCNY / q(CNY, base)
//	base native target, target native target: q(CNY, target) * Cross(target) / q(CNY, base)
//
// Derived rates are rounded to the engine precision; direct quotes are returned as published.
// Every other combination, or a missing CNY leg, has no rate.
func (e *Engine) RateFrom(primary *rate.Snapshot, base, target string) (decimal.Decimal, bool) {
	if primary == nil {
		return decimal.Zero, false
	}
	base, target = rate.NormalizeCode(base), rate.NormalizeCode(target)
	v, ok := e.rawRate(primary, base, target)
	if !ok {
		return decimal.Zero, false
	}
	if primary.IsBase(base) {
		return v, true
	}
	return v.Round(e.precision), true
}

func (e *Engine) rawRate(primary *rate.Snapshot, base, target string) (decimal.Decimal, bool) {
	switch {
	case primary.IsBase(base):
		if !primary.IsTarget(target) {
			return decimal.Zero, false
		}
		return primary.Rate(base, target)

	case primary.IsTarget(base):
		baseLeg, ok := primary.Rate(rate.CNY, base)
		if !ok {
			return decimal.Zero, false
		}
		if target == rate.CNY {
			return e.markup.ToCNY.Div(baseLeg), true
		}
		if !primary.IsTarget(target) {
			return decimal.Zero, false
		}
		targetLeg, ok := primary.Rate(rate.CNY, target)
		if !ok {
			return decimal.Zero, false
		}
		return targetLeg.Mul(e.markup.Cross(target)).Div(baseLeg), true
	}

	return decimal.Zero, false
}

// ExchangeRateList builds the presentation list for base from the current snapshots.
func (e *Engine) ExchangeRateList(base string) (*PresentationList, error) {
	primary, ok := e.reader.Get(rate.SourceUnionPay)
	if !ok {
		return nil, ErrDataUnavailable
	}
	reference, _ := e.reader.Get(rate.SourceCBR)
	return e.ListFrom(primary, reference, base)
}

// ListFrom builds the presentation list for base from explicit snapshots. reference may be nil.
// Every native target except base is priced; pairs without a rate are left out.
// Rows are priced per denomination before rounding, so small units like VND keep their precision.
func (e *Engine) ListFrom(primary, reference *rate.Snapshot, base string) (*PresentationList, error) {
	if primary == nil {
		return nil, ErrDataUnavailable
	}
	base = rate.NormalizeCode(base)
	if !primary.IsBase(base) && !primary.IsTarget(base) {
		return nil, ErrUnsupportedBase.Wrap(fmt.Errorf("%q is not quoted by %s", base, primary.Source()))
	}

	entries := make(map[string]CrossRate)
	for _, code := range primary.Targets() {
		if code == base {
			continue
		}
		r, ok := e.rawRate(primary, base, code)
		if !ok {
			continue
		}
		denomination := e.denomination(reference, code)
		d := decimal.NewFromInt(denomination)
		entry := CrossRate{
			Currency:     code,
			Denomination: denomination,
			Rate:         r.Mul(d).Round(e.precision),
		}
		if ref, ok := referenceRate(reference, base, code); ok {
			entry.Reference = util.DecimalPtr(ref.Mul(d), e.precision)
		}
		entries[code] = entry
	}

	list := &PresentationList{
		Base:      base,
		Pinned:    make([]CrossRate, 0, len(e.pinned)),
		Remainder: make([]CrossRate, 0, len(entries)),
	}
	for _, code := range e.pinned {
		if entry, ok := entries[code]; ok {
			list.Pinned = append(list.Pinned, entry)
			delete(entries, code)
		}
	}
	for _, code := range slices.Sorted(maps.Keys(entries)) {
		list.Remainder = append(list.Remainder, entries[code])
	}
	return list, nil
}

func (e *Engine) denomination(reference *rate.Snapshot, code string) int64 {
	if d, ok := e.denominations[code]; ok && d >= 1 {
		return d
	}
	if reference != nil {
		if n, ok := reference.Nominal(code); ok {
			return n
		}
	}
	return 1
}

// referenceRate quotes base per one code from the reference snapshot without markup.
// Bases other than the reference's own base are crossed through it.
func referenceRate(reference *rate.Snapshot, base, code string) (decimal.Decimal, bool) {
	if reference == nil {
		return decimal.Zero, false
	}
	if reference.IsBase(base) {
		return reference.Rate(base, code)
	}

	bases := reference.Bases()
	if len(bases) != 1 {
		return decimal.Zero, false
	}
	anchor := bases[0]
	baseUnit, ok := reference.Rate(anchor, base)
	if !ok {
		return decimal.Zero, false
	}
	if code == anchor {
		return decimal.NewFromInt(1).Div(baseUnit), true
	}
	codeUnit, ok := reference.Rate(anchor, code)
	if !ok {
		return decimal.Zero, false
	}
	return codeUnit.Div(baseUnit), true
}
