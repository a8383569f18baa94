package rate

import (
	"fmt"
	"strings"
)

// Source identifies an upstream rate feed.
type Source string

const (
	// SourceUnionPay is the card-network feed; CNY is its only native base.
	SourceUnionPay Source = "unionpay"
	// SourceCBR is the Central Bank of Russia daily fixing; RUB is its only base.
	SourceCBR Source = "cbr"
)

const (
	CNY = "CNY"
	RUB = "RUB"
)

var Sources = []Source{SourceUnionPay, SourceCBR}

func (s Source) String() string {
	return string(s)
}

func (s Source) Valid() bool {
	return s == SourceUnionPay || s == SourceCBR
}

func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !src.Valid() {
		return "", fmt.Errorf("unknown rate source %q", s)
	}
	return src, nil
}

// Pair is a directed currency pair. The rate for a pair is the amount of Base per one unit of Target.
type Pair struct {
	Base   string
	Target string
}

func NewPair(base, target string) Pair {
	return Pair{Base: NormalizeCode(base), Target: NormalizeCode(target)}
}

func (p Pair) String() string {
	return p.Base + "_" + p.Target
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
