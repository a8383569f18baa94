package rate

import (
	"context"
	"time"

	"github.com/infigaming-com/fxboard/request"
	"go.uber.org/zap"
)

// Provider fetches a full snapshot from one upstream source.
// Implementations perform a single logical fetch and never retry on their own beyond
// source-specific fallbacks.
type Provider interface {
	Source() Source
	Fetch(ctx context.Context) (*Snapshot, error)
}

type providerOptions struct {
	lg             *zap.Logger
	now            func() time.Time
	requestOptions []request.Option
}

type ProviderOption func(*providerOptions)

func defaultProviderOptions() *providerOptions {
	return &providerOptions{
		lg:  zap.L(),
		now: time.Now,
	}
}

func WithLogger(lg *zap.Logger) ProviderOption {
	return func(o *providerOptions) {
		if lg != nil {
			o.lg = lg
		}
	}
}

// WithClock overrides the wall clock used for date-stamped URLs and fetch timestamps.
func WithClock(now func() time.Time) ProviderOption {
	return func(o *providerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRequestOptions forwards options to every upstream HTTP call.
func WithRequestOptions(opts ...request.Option) ProviderOption {
	return func(o *providerOptions) {
		o.requestOptions = append(o.requestOptions, opts...)
	}
}

func applyProviderOptions(opts []ProviderOption) *providerOptions {
	o := defaultProviderOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
