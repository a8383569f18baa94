package refresh

import (
	"time"

	"github.com/infigaming-com/fxboard/rate"
	"github.com/infigaming-com/fxboard/util"
)

var (
	// UnionPay publishes most currencies at 11:00 and European ones at 16:30 Beijing time.
	UnionPayCheckpoints = []Checkpoint{{Hour: 11, Minute: 0}, {Hour: 16, Minute: 30}}

	CBRInterval = time.Hour
)

func DefaultUnionPayPolicy() *CheckpointPolicy {
	return NewCheckpointPolicy(util.MustLoadLocation(rate.UnionPayTimeZone), UnionPayCheckpoints...)
}

func DefaultCBRPolicy() *IntervalPolicy {
	return NewIntervalPolicy(util.MustLoadLocation(rate.CBRTimeZone), CBRInterval)
}
