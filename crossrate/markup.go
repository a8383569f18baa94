package crossrate

import (
	"maps"

	"github.com/shopspring/decimal"
)

// Markup is the fee schedule applied to derived rates. Direct upstream quotes are never marked up.
type Markup struct {
	// ToCNY applies to a native target converted into CNY.
	ToCNY decimal.Decimal
	// General applies to cross pairs through CNY unless the target has an override.
	General decimal.Decimal
	// Overrides replace General for specific target currencies.
	Overrides map[string]decimal.Decimal
}

var (
	DefaultToCNYMarkup   = decimal.RequireFromString("1.0125")
	DefaultGeneralMarkup = decimal.RequireFromString("1.0125")
	DefaultEURMarkup     = decimal.RequireFromString("1.01")
)

func DefaultMarkup() Markup {
	return Markup{
		ToCNY:     DefaultToCNYMarkup,
		General:   DefaultGeneralMarkup,
		Overrides: map[string]decimal.Decimal{"EUR": DefaultEURMarkup},
	}
}

// Cross returns the markup for a cross pair ending in target.
func (m Markup) Cross(target string) decimal.Decimal {
	if o, ok := m.Overrides[target]; ok {
		return o
	}
	return m.General
}

func (m Markup) clone() Markup {
	m.Overrides = maps.Clone(m.Overrides)
	return m
}
