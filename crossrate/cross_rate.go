package crossrate

import "github.com/shopspring/decimal"

// CrossRate is one row of the rate table: Denomination units of Currency priced in the list's base.
type CrossRate struct {
	Currency     string           `json:"currency"`
	Denomination int64            `json:"denomination"`
	Rate         decimal.Decimal  `json:"rate"`
	Reference    *decimal.Decimal `json:"reference,omitempty"`
}

type PresentationList struct {
	Base      string      `json:"base"`
	Pinned    []CrossRate `json:"pinned"`
	Remainder []CrossRate `json:"remainder"`
}

// All returns pinned rows followed by the remainder.
func (l *PresentationList) All() []CrossRate {
	all := make([]CrossRate, 0, len(l.Pinned)+len(l.Remainder))
	all = append(all, l.Pinned...)
	return append(all, l.Remainder...)
}

func (l *PresentationList) Len() int {
	return len(l.Pinned) + len(l.Remainder)
}
