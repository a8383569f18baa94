package refresh

import (
	"fmt"
	"slices"
	"time"
)

// Policy decides whether a source needs a refresh. Implementations must be pure:
// the same (now, lastFetchedAt) always gives the same answer.
type Policy interface {
	Due(now, lastFetchedAt time.Time) bool
}

// Checkpoint is a local time of day after which new upstream data is expected.
type Checkpoint struct {
	Hour   int
	Minute int
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Checkpoint) minutes() int {
	return c.Hour*60 + c.Minute
}

// CheckpointPolicy is due once per checkpoint: when today's latest checkpoint at or before now
// is later than the last fetch. Before the first checkpoint of the day nothing is due.
type CheckpointPolicy struct {
	loc         *time.Location
	checkpoints []Checkpoint
}

func NewCheckpointPolicy(loc *time.Location, checkpoints ...Checkpoint) *CheckpointPolicy {
	cps := slices.Clone(checkpoints)
	slices.SortFunc(cps, func(a, b Checkpoint) int { return a.minutes() - b.minutes() })
	return &CheckpointPolicy{loc: loc, checkpoints: slices.Compact(cps)}
}

func (p *CheckpointPolicy) Location() *time.Location {
	return p.loc
}

func (p *CheckpointPolicy) Checkpoints() []Checkpoint {
	return slices.Clone(p.checkpoints)
}

// LatestCheckpoint returns today's most recent checkpoint instant not after now, or the zero
// time when no checkpoint has been crossed yet today.
func (p *CheckpointPolicy) LatestCheckpoint(now time.Time) time.Time {
	local := now.In(p.loc)
	y, m, d := local.Date()
	for i := len(p.checkpoints) - 1; i >= 0; i-- {
		c := p.checkpoints[i]
		at := time.Date(y, m, d, c.Hour, c.Minute, 0, 0, p.loc)
		if !at.After(local) {
			return at
		}
	}
	return time.Time{}
}

// NextCheckpoint returns the first checkpoint instant strictly after now.
func (p *CheckpointPolicy) NextCheckpoint(now time.Time) time.Time {
	if len(p.checkpoints) == 0 {
		return time.Time{}
	}
	local := now.In(p.loc)
	for dayOffset := 0; dayOffset <= 1; dayOffset++ {
		y, m, d := local.AddDate(0, 0, dayOffset).Date()
		for _, c := range p.checkpoints {
			at := time.Date(y, m, d, c.Hour, c.Minute, 0, 0, p.loc)
			if at.After(local) {
				return at
			}
		}
	}
	return time.Time{}
}

func (p *CheckpointPolicy) Due(now, lastFetchedAt time.Time) bool {
	if lastFetchedAt.IsZero() {
		return true
	}
	boundary := p.LatestCheckpoint(now)
	if boundary.IsZero() {
		return false
	}
	return lastFetchedAt.Before(boundary)
}

// IntervalPolicy is due once the last fetch is at least interval old.
// The zone only labels timestamps for display; it does not affect the elapsed-time test.
type IntervalPolicy struct {
	loc      *time.Location
	interval time.Duration
}

func NewIntervalPolicy(loc *time.Location, interval time.Duration) *IntervalPolicy {
	return &IntervalPolicy{loc: loc, interval: interval}
}

func (p *IntervalPolicy) Location() *time.Location {
	return p.loc
}

func (p *IntervalPolicy) Interval() time.Duration {
	return p.interval
}

func (p *IntervalPolicy) Due(now, lastFetchedAt time.Time) bool {
	if lastFetchedAt.IsZero() {
		return true
	}
	return now.Sub(lastFetchedAt) >= p.interval
}
