package rate

import (
	stderrors "errors"
	"fmt"

	"github.com/infigaming-com/fxboard/errors"
)

const (
	ErrCodeInvalidSnapshot = 20000 + iota
)

var ErrInvalidSnapshot = errors.NewError(ErrCodeInvalidSnapshot, "invalid rate snapshot", nil)

// Kind classifies why a fetch failed.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindUpstreamStatus
	KindUpstreamFormat
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUpstreamStatus:
		return "upstream_status"
	case KindUpstreamFormat:
		return "upstream_format"
	default:
		return "unknown"
	}
}

// FetchError is returned by providers for every failed fetch.
type FetchError struct {
	Source     Source
	Kind       Kind
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s fetch failed (%s)", e.Source, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(", status code: %d", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a *FetchError of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *FetchError
	return stderrors.As(err, &fe) && fe.Kind == kind
}

// KindOf returns the failure kind of err, or 0 when err is not a *FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if stderrors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
