package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/infigaming-com/fxboard/cache"
	"github.com/infigaming-com/fxboard/crossrate"
	fxerrors "github.com/infigaming-com/fxboard/errors"
	"github.com/infigaming-com/fxboard/rate"
	"github.com/infigaming-com/fxboard/refresh"
	"github.com/infigaming-com/fxboard/util"
	"go.uber.org/zap"
)

const (
	ErrCodePairUnavailable = 24000 + iota
)

var ErrPairUnavailable = fxerrors.NewError(ErrCodePairUnavailable, "no rate for currency pair", nil)

var sourceZones = map[rate.Source]string{
	rate.SourceUnionPay: rate.UnionPayTimeZone,
	rate.SourceCBR:      rate.CBRTimeZone,
}

// Refresher brings snapshots up to date before a read.
type Refresher interface {
	EnsureAll(ctx context.Context, now time.Time) map[rate.Source]refresh.Outcome
	Status(source rate.Source) refresh.Status
}

type Service struct {
	lg        *zap.Logger
	refresher Refresher
	reader    crossrate.SnapshotReader
	engine    *crossrate.Engine
	cache     cache.Cache
	cacheTTL  time.Duration
	now       func() time.Time
	zones     map[rate.Source]*time.Location
}

type Option func(*Service)

func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.lg = lg
		}
	}
}

// WithCache stores derived tables keyed by base and snapshot digests.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(refresher Refresher, reader crossrate.SnapshotReader, engine *crossrate.Engine, opts ...Option) *Service {
	s := &Service{
		lg:        zap.L(),
		refresher: refresher,
		reader:    reader,
		engine:    engine,
		now:       time.Now,
		zones:     make(map[rate.Source]*time.Location, len(sourceZones)),
	}
	for source, zone := range sourceZones {
		s.zones[source] = util.MustLoadLocation(zone)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Board refreshes whatever is due and returns the rate table for base.
// It fails with crossrate.ErrDataUnavailable until the first UnionPay snapshot has been stored.
func (s *Service) Board(ctx context.Context, base string) (*Board, error) {
	s.refresher.EnsureAll(ctx, s.now())

	primary, ok := s.reader.Get(rate.SourceUnionPay)
	if !ok {
		return nil, crossrate.ErrDataUnavailable
	}
	reference, _ := s.reader.Get(rate.SourceCBR)
	base = rate.NormalizeCode(base)

	list, err := s.list(ctx, primary, reference, base)
	if err != nil {
		return nil, err
	}

	return &Board{
		Base:      list.Base,
		Pinned:    list.Pinned,
		Remainder: list.Remainder,
		Sources: []SourceInfo{
			s.sourceInfo(rate.SourceUnionPay, primary),
			s.sourceInfo(rate.SourceCBR, reference),
		},
	}, nil
}

// Rate refreshes whatever is due and returns base per one target.
func (s *Service) Rate(ctx context.Context, base, target string) (*Quote, error) {
	s.refresher.EnsureAll(ctx, s.now())

	primary, ok := s.reader.Get(rate.SourceUnionPay)
	if !ok {
		return nil, crossrate.ErrDataUnavailable
	}
	base, target = rate.NormalizeCode(base), rate.NormalizeCode(target)
	value, ok := s.engine.RateFrom(primary, base, target)
	if !ok {
		return nil, ErrPairUnavailable.Wrap(fmt.Errorf("%s per %s", base, target))
	}

	return &Quote{
		Base:      base,
		Target:    target,
		Rate:      value,
		UpdatedAt: s.inZone(rate.SourceUnionPay, primary.FetchedAt()),
		Stale:     s.refresher.Status(rate.SourceUnionPay).Stale(),
	}, nil
}

func (s *Service) list(ctx context.Context, primary, reference *rate.Snapshot, base string) (*crossrate.PresentationList, error) {
	if s.cache == nil {
		return s.engine.ListFrom(primary, reference, base)
	}

	key := cacheKey(base, primary, reference)
	cached, err := cache.GetTyped[*crossrate.PresentationList](ctx, s.cache, key)
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil && !errors.Is(err, cache.ErrKeyNotFound) {
		s.lg.Warn("[BOARD] cache read failed", zap.String("key", key), zap.Error(err))
	}

	list, err := s.engine.ListFrom(primary, reference, base)
	if err != nil {
		return nil, err
	}
	if err := cache.SetTyped(ctx, s.cache, key, list, s.cacheTTL); err != nil {
		s.lg.Warn("[BOARD] cache write failed", zap.String("key", key), zap.Error(err))
	}
	return list, nil
}

func (s *Service) sourceInfo(source rate.Source, snap *rate.Snapshot) SourceInfo {
	status := s.refresher.Status(source)
	info := SourceInfo{
		Source:              source,
		Available:           snap != nil,
		Stale:               snap == nil || status.Stale(),
		ConsecutiveFailures: status.ConsecutiveFailures,
	}
	if snap == nil {
		return info
	}

	updatedAt := s.inZone(source, snap.FetchedAt())
	info.UpdatedAt = &updatedAt
	if effective := snap.EffectiveDate(); !effective.IsZero() {
		effective = s.inZone(source, effective)
		info.EffectiveDate = &effective
	}
	return info
}

func (s *Service) inZone(source rate.Source, t time.Time) time.Time {
	if loc, ok := s.zones[source]; ok {
		return t.In(loc)
	}
	return t
}

// cacheKey changes whenever either snapshot's content changes.
func cacheKey(base string, primary, reference *rate.Snapshot) string {
	refDigest := "-"
	if reference != nil {
		refDigest = reference.Digest()
	}
	return fmt.Sprintf("board:%s:%s:%s", base, primary.Digest(), refDigest)
}
