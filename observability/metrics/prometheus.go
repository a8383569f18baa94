package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/infigaming-com/fxboard/rate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exposes refresh telemetry for scraping.
type PrometheusRecorder struct {
	registry  *prometheus.Registry
	fetches   *prometheus.CounterVec
	durations *prometheus.HistogramVec
	fetchedAt *prometheus.GaugeVec
	size      *prometheus.GaugeVec
}

// NewPrometheusRecorder registers its collectors on registry, or on a fresh registry when nil.
func NewPrometheusRecorder(registry *prometheus.Registry) *PrometheusRecorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &PrometheusRecorder{
		registry: registry,
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fxboard_refresh_total",
			Help: "Upstream fetch attempts by source and outcome.",
		}, []string{attributeSource, attributeOutcome, attributeFailureReason}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fxboard_refresh_duration_seconds",
			Help:    "Upstream fetch duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{attributeSource, attributeOutcome}),
		fetchedAt: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fxboard_snapshot_fetched_timestamp_seconds",
			Help: "Unix time the stored snapshot was fetched.",
		}, []string{attributeSource}),
		size: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fxboard_snapshot_rates",
			Help: "Number of rates in the stored snapshot.",
		}, []string{attributeSource}),
	}
}

func (p *PrometheusRecorder) RecordFetch(_ context.Context, source rate.Source, outcome string, failure string, duration time.Duration) {
	p.fetches.WithLabelValues(source.String(), outcome, failure).Inc()
	p.durations.WithLabelValues(source.String(), outcome).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) RecordSnapshot(_ context.Context, source rate.Source, fetchedAt time.Time, size int) {
	p.fetchedAt.WithLabelValues(source.String()).Set(float64(fetchedAt.Unix()))
	p.size.WithLabelValues(source.String()).Set(float64(size))
}

func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
