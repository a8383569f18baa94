package metrics

import (
	"context"
	"time"

	"github.com/infigaming-com/fxboard/rate"
	"go.uber.org/zap"
)

const (
	MetricRefreshFetches   = "fxboard.refresh.fetches"
	MetricRefreshDuration  = "fxboard.refresh.duration"
	MetricSnapshotFetched  = "fxboard.snapshot.fetched_at"
	MetricSnapshotSize     = "fxboard.snapshot.size"
	attributeSource        = "source"
	attributeOutcome       = "outcome"
	attributeFailureReason = "failure"
)

// Recorder receives refresh telemetry. It matches the scheduler's recorder hook.
type Recorder interface {
	RecordFetch(ctx context.Context, source rate.Source, outcome string, failure string, duration time.Duration)
	RecordSnapshot(ctx context.Context, source rate.Source, fetchedAt time.Time, size int)
}

// OTelRecorder reports refresh activity through a MetricExporter. Export errors are logged, never returned.
type OTelRecorder struct {
	lg       *zap.Logger
	exporter *MetricExporter
}

func NewOTelRecorder(lg *zap.Logger, exporter *MetricExporter) *OTelRecorder {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &OTelRecorder{lg: lg, exporter: exporter}
}

func (r *OTelRecorder) RecordFetch(ctx context.Context, source rate.Source, outcome string, failure string, duration time.Duration) {
	attrs := map[string]string{attributeSource: source.String(), attributeOutcome: outcome}
	if failure != "" {
		attrs[attributeFailureReason] = failure
	}
	if err := r.exporter.RecordCounter(ctx, MetricRefreshFetches, "Upstream fetch attempts", "{fetch}", 1, attrs); err != nil {
		r.lg.Warn("failed to record fetch counter", zap.Error(err))
	}

	if err := r.exporter.RecordHistogram(ctx, MetricRefreshDuration, "Upstream fetch duration", "s", duration.Seconds(),
		map[string]string{attributeSource: source.String(), attributeOutcome: outcome}); err != nil {
		r.lg.Warn("failed to record fetch duration", zap.Error(err))
	}
}

func (r *OTelRecorder) RecordSnapshot(ctx context.Context, source rate.Source, fetchedAt time.Time, size int) {
	attrs := map[string]string{attributeSource: source.String()}
	if err := r.exporter.RecordGauge(ctx, MetricSnapshotFetched, "Fetch time of the stored snapshot", "s", float64(fetchedAt.Unix()), attrs); err != nil {
		r.lg.Warn("failed to record snapshot time", zap.Error(err))
	}
	if err := r.exporter.RecordGauge(ctx, MetricSnapshotSize, "Number of rates in the stored snapshot", "{rate}", float64(size), attrs); err != nil {
		r.lg.Warn("failed to record snapshot size", zap.Error(err))
	}
}

// MultiRecorder fans telemetry out to several recorders.
type MultiRecorder []Recorder

func NewMultiRecorder(recorders ...Recorder) MultiRecorder {
	out := make(MultiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m MultiRecorder) RecordFetch(ctx context.Context, source rate.Source, outcome string, failure string, duration time.Duration) {
	for _, r := range m {
		r.RecordFetch(ctx, source, outcome, failure, duration)
	}
}

func (m MultiRecorder) RecordSnapshot(ctx context.Context, source rate.Source, fetchedAt time.Time, size int) {
	for _, r := range m {
		r.RecordSnapshot(ctx, source, fetchedAt, size)
	}
}
