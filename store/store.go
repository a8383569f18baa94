package store

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/infigaming-com/fxboard/errors"
	"github.com/infigaming-com/fxboard/rate"
)

const (
	ErrCodeUnknownSource = 21000 + iota
	ErrCodeNilSnapshot
	ErrCodeSourceMismatch
)

var (
	ErrUnknownSource  = errors.NewError(ErrCodeUnknownSource, "unknown rate source", nil)
	ErrNilSnapshot    = errors.NewError(ErrCodeNilSnapshot, "nil snapshot", nil)
	ErrSourceMismatch = errors.NewError(ErrCodeSourceMismatch, "snapshot source does not match slot", nil)
)

// RateStore holds the latest snapshot of every source. It starts empty.
// Put swaps a whole snapshot in one atomic store, so readers never block and never see a partial table.
type RateStore struct {
	slots map[rate.Source]*atomic.Pointer[rate.Snapshot]
}

func NewRateStore() *RateStore {
	slots := make(map[rate.Source]*atomic.Pointer[rate.Snapshot], len(rate.Sources))
	for _, src := range rate.Sources {
		slots[src] = &atomic.Pointer[rate.Snapshot]{}
	}
	return &RateStore{slots: slots}
}

func (s *RateStore) slot(source rate.Source) (*atomic.Pointer[rate.Snapshot], error) {
	p, ok := s.slots[source]
	if !ok {
		return nil, ErrUnknownSource.Wrap(fmt.Errorf("%q", source))
	}
	return p, nil
}

// Get returns the current snapshot, or false if the source was never loaded or is unknown.
func (s *RateStore) Get(source rate.Source) (*rate.Snapshot, bool) {
	p, err := s.slot(source)
	if err != nil {
		return nil, false
	}
	snap := p.Load()
	return snap, snap != nil
}

func (s *RateStore) Put(source rate.Source, snapshot *rate.Snapshot) error {
	p, err := s.slot(source)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return ErrNilSnapshot
	}
	if snapshot.Source() != source {
		return ErrSourceMismatch.Wrap(fmt.Errorf("slot %q, snapshot %q", source, snapshot.Source()))
	}
	p.Store(snapshot)
	return nil
}

func (s *RateStore) LastFetchedAt(source rate.Source) (time.Time, bool) {
	snap, ok := s.Get(source)
	if !ok {
		return time.Time{}, false
	}
	return snap.FetchedAt(), true
}
