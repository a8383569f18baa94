package refresh

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/infigaming-com/fxboard/errors"
	"github.com/infigaming-com/fxboard/rate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	ErrCodeUnknownSource = 22000 + iota
	ErrCodeDuplicateSource
)

var (
	ErrUnknownSource   = errors.NewError(ErrCodeUnknownSource, "source is not registered with the scheduler", nil)
	ErrDuplicateSource = errors.NewError(ErrCodeDuplicateSource, "source is already registered", nil)
)

// Outcome is what one EnsureFresh call did.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeRefreshed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store is the part of the rate store the scheduler needs.
type Store interface {
	Put(source rate.Source, snapshot *rate.Snapshot) error
	LastFetchedAt(source rate.Source) (time.Time, bool)
}

// Recorder receives refresh telemetry. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordFetch(ctx context.Context, source rate.Source, outcome string, failure string, duration time.Duration)
	RecordSnapshot(ctx context.Context, source rate.Source, fetchedAt time.Time, size int)
}

// Hook runs after a snapshot was stored. Hooks must not block for long; they run on the refreshing goroutine.
type Hook func(ctx context.Context, source rate.Source, snapshot *rate.Snapshot)

// Status describes the last refresh attempt of a source.
type Status struct {
	LastAttemptAt       time.Time
	LastSuccessAt       time.Time
	LastError           error
	ConsecutiveFailures int
}

// Stale reports whether the most recent attempt failed, so the stored snapshot may be out of date.
func (s Status) Stale() bool {
	return s.LastError != nil
}

type registration struct {
	provider rate.Provider
	policy   Policy
}

type Scheduler struct {
	lg           *zap.Logger
	store        Store
	recorder     Recorder
	hooks        []Hook
	fetchTimeout time.Duration
	now          func() time.Time

	sources map[rate.Source]registration
	group   singleflight.Group

	mu     sync.RWMutex
	status map[rate.Source]Status
}

type Option func(*Scheduler)

func WithLogger(lg *zap.Logger) Option {
	return func(s *Scheduler) {
		if lg != nil {
			s.lg = lg
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Scheduler) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

func WithRefreshHook(hook Hook) Option {
	return func(s *Scheduler) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}

// WithFetchTimeout bounds a single provider fetch, including the UnionPay fallback.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithClock sets the clock used by Run.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func NewScheduler(store Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		lg:           zap.L(),
		store:        store,
		recorder:     nopRecorder{},
		fetchTimeout: 30 * time.Second,
		now:          time.Now,
		sources:      make(map[rate.Source]registration),
		status:       make(map[rate.Source]Status),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register binds a provider and its policy. Call it before the scheduler is shared.
func (s *Scheduler) Register(provider rate.Provider, policy Policy) error {
	source := provider.Source()
	if _, ok := s.sources[source]; ok {
		return ErrDuplicateSource.Wrap(fmt.Errorf("%q", source))
	}
	s.sources[source] = registration{provider: provider, policy: policy}
	return nil
}

func (s *Scheduler) Sources() []rate.Source {
	return slices.Sorted(maps.Keys(s.sources))
}

func (s *Scheduler) Status(source rate.Source) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[source]
}

// EnsureFresh fetches source when it has no snapshot yet or its policy says a refresh is due.
// Fetch failures are logged and reported through the outcome only; the stored snapshot is
// left as it was. The error is non-nil only for an unregistered source.
func (s *Scheduler) EnsureFresh(ctx context.Context, source rate.Source, now time.Time) (Outcome, error) {
	reg, ok := s.sources[source]
	if !ok {
		return OutcomeSkipped, ErrUnknownSource.Wrap(fmt.Errorf("%q", source))
	}
	if !s.due(source, reg, now) {
		return OutcomeSkipped, nil
	}

	v, _, _ := s.group.Do(string(source), func() (any, error) {
		// a concurrent caller may have refreshed while we waited for the flight
		if !s.due(source, reg, now) {
			return OutcomeSkipped, nil
		}
		return s.refresh(ctx, source, reg, now), nil
	})
	return v.(Outcome), nil
}

// EnsureAll runs EnsureFresh for every registered source in parallel.
func (s *Scheduler) EnsureAll(ctx context.Context, now time.Time) map[rate.Source]Outcome {
	sources := s.Sources()
	outcomes := make([]Outcome, len(sources))

	var g errgroup.Group
	for i, source := range sources {
		g.Go(func() error {
			outcome, err := s.EnsureFresh(ctx, source, now)
			outcomes[i] = outcome
			return err
		})
	}
	_ = g.Wait()

	result := make(map[rate.Source]Outcome, len(sources))
	for i, source := range sources {
		result[source] = outcomes[i]
	}
	return result
}

// Run refreshes all sources immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.EnsureAll(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EnsureAll(ctx, s.now())
		}
	}
}

func (s *Scheduler) due(source rate.Source, reg registration, now time.Time) bool {
	last, ok := s.store.LastFetchedAt(source)
	if !ok {
		return true
	}
	return reg.policy.Due(now, last)
}

func (s *Scheduler) refresh(ctx context.Context, source rate.Source, reg registration, now time.Time) Outcome {
	// the fetch is shared by every caller waiting on the flight, so one caller
	// going away must not cancel it
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
	defer cancel()

	start := time.Now()
	snapshot, err := reg.provider.Fetch(fetchCtx)
	if err == nil {
		err = s.store.Put(source, snapshot)
	}
	duration := time.Since(start)

	if err != nil {
		_, hasPrevious := s.store.LastFetchedAt(source)
		kind := rate.KindOf(err)
		s.lg.Error("[REFRESH] fetch failed, keeping previous snapshot",
			zap.String("source", source.String()),
			zap.String("kind", kind.String()),
			zap.Bool("hasPrevious", hasPrevious),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		s.setStatus(source, func(st *Status) {
			st.LastAttemptAt = now
			st.LastError = err
			st.ConsecutiveFailures++
		})
		s.recorder.RecordFetch(ctx, source, OutcomeFailed.String(), kind.String(), duration)
		return OutcomeFailed
	}

	s.lg.Info("[REFRESH] snapshot replaced",
		zap.String("source", source.String()),
		zap.Int("rates", snapshot.Len()),
		zap.String("digest", snapshot.Digest()),
		zap.Time("effectiveDate", snapshot.EffectiveDate()),
		zap.Duration("duration", duration),
	)
	s.setStatus(source, func(st *Status) {
		st.LastAttemptAt = now
		st.LastSuccessAt = now
		st.LastError = nil
		st.ConsecutiveFailures = 0
	})
	s.recorder.RecordFetch(ctx, source, OutcomeRefreshed.String(), "", duration)
	s.recorder.RecordSnapshot(ctx, source, snapshot.FetchedAt(), snapshot.Len())
	for _, hook := range s.hooks {
		hook(ctx, source, snapshot)
	}
	return OutcomeRefreshed
}

func (s *Scheduler) setStatus(source rate.Source, update func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[source]
	update(&st)
	s.status[source] = st
}

type nopRecorder struct{}

func (nopRecorder) RecordFetch(context.Context, rate.Source, string, string, time.Duration) {}

func (nopRecorder) RecordSnapshot(context.Context, rate.Source, time.Time, int) {}
