package board

import (
	"time"

	"github.com/infigaming-com/fxboard/crossrate"
	"github.com/infigaming-com/fxboard/rate"
	"github.com/shopspring/decimal"
)

// SourceInfo describes the snapshot a board was derived from. Times are in the source's own zone.
type SourceInfo struct {
	Source              rate.Source `json:"source"`
	Available           bool        `json:"available"`
	UpdatedAt           *time.Time  `json:"updatedAt,omitempty"`
	EffectiveDate       *time.Time  `json:"effectiveDate,omitempty"`
	Stale               bool        `json:"stale"`
	ConsecutiveFailures int         `json:"consecutiveFailures,omitempty"`
}

// Board is the rate table for one base currency together with the freshness of its inputs.
type Board struct {
	Base      string                `json:"base"`
	Pinned    []crossrate.CrossRate `json:"pinned"`
	Remainder []crossrate.CrossRate `json:"remainder"`
	Sources   []SourceInfo          `json:"sources"`
}

func (b *Board) Rows() []crossrate.CrossRate {
	rows := make([]crossrate.CrossRate, 0, len(b.Pinned)+len(b.Remainder))
	rows = append(rows, b.Pinned...)
	return append(rows, b.Remainder...)
}

func (b *Board) Source(source rate.Source) (SourceInfo, bool) {
	for _, info := range b.Sources {
		if info.Source == source {
			return info, true
		}
	}
	return SourceInfo{}, false
}

// Stale reports whether any input snapshot is missing or kept after a failed refresh.
func (b *Board) Stale() bool {
	for _, info := range b.Sources {
		if info.Stale {
			return true
		}
	}
	return false
}

// Quote is a single pair lookup.
type Quote struct {
	Base      string          `json:"base"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Stale     bool            `json:"stale"`
}
