package util

import (
	"fmt"
	"sync"
	"time"
)

var locations sync.Map // name -> *time.Location

// LoadLocation resolves a zone once per name and returns the same *time.Location afterwards.
func LoadLocation(name string) (*time.Location, error) {
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, NewUtilError(ErrCodeUnknownTimeZone, fmt.Sprintf("unknown time zone %q", name), err, nil)
	}
	actual, _ := locations.LoadOrStore(name, loc)
	return actual.(*time.Location), nil
}

// MustLoadLocation panics on an unknown zone; use only with compile-time constant names.
func MustLoadLocation(name string) *time.Location {
	loc, err := LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
