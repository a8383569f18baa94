package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/infigaming-com/fxboard/rate"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestOTelRecorder(t *testing.T) {
	exporter, reader := newTestExporter(t)
	r := NewOTelRecorder(zap.NewNop(), exporter)
	ctx := context.Background()

	r.RecordFetch(ctx, rate.SourceUnionPay, "refreshed", "", 150*time.Millisecond)
	r.RecordFetch(ctx, rate.SourceUnionPay, "failed", "network", time.Second)
	r.RecordSnapshot(ctx, rate.SourceUnionPay, time.Unix(1709607600, 0), 42)

	got := collect(t, reader)

	fetches := got[MetricRefreshFetches].Data.(metricdata.Sum[int64])
	require.Len(t, fetches.DataPoints, 2)
	failures := 0
	for _, dp := range fetches.DataPoints {
		assert.Equal(t, "unionpay", attrValue(dp.Attributes, attributeSource))
		if attrValue(dp.Attributes, attributeOutcome) == "failed" {
			failures++
			assert.Equal(t, "network", attrValue(dp.Attributes, attributeFailureReason))
		}
	}
	assert.Equal(t, 1, failures)

	durations := got[MetricRefreshDuration].Data.(metricdata.Histogram[float64])
	assert.Len(t, durations.DataPoints, 2)

	size := got[MetricSnapshotSize].Data.(metricdata.Gauge[float64])
	require.Len(t, size.DataPoints, 1)
	assert.Equal(t, 42.0, size.DataPoints[0].Value)

	fetchedAt := got[MetricSnapshotFetched].Data.(metricdata.Gauge[float64])
	require.Len(t, fetchedAt.DataPoints, 1)
	assert.Equal(t, 1709607600.0, fetchedAt.DataPoints[0].Value)
}

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheusRecorder(nil)
	ctx := context.Background()

	r.RecordFetch(ctx, rate.SourceCBR, "refreshed", "", 200*time.Millisecond)
	r.RecordFetch(ctx, rate.SourceCBR, "refreshed", "", 100*time.Millisecond)
	r.RecordFetch(ctx, rate.SourceCBR, "failed", "upstream_status", time.Second)
	r.RecordSnapshot(ctx, rate.SourceCBR, time.Unix(1709607600, 0), 43)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("cbr", "refreshed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("cbr", "failed", "upstream_status")))
	assert.Equal(t, 43.0, testutil.ToFloat64(r.size.WithLabelValues("cbr")))
	assert.Equal(t, 1709607600.0, testutil.ToFloat64(r.fetchedAt.WithLabelValues("cbr")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "fxboard_refresh_total{"), body)
	assert.Contains(t, body, `outcome="failed"`)
	assert.Contains(t, body, "fxboard_refresh_duration_seconds_count")
}

func TestMultiRecorder(t *testing.T) {
	a := NewPrometheusRecorder(nil)
	b := NewPrometheusRecorder(nil)
	m := NewMultiRecorder(a, nil, b)
	require.Len(t, m, 2)

	m.RecordFetch(context.Background(), rate.SourceUnionPay, "skipped", "", 0)
	m.RecordSnapshot(context.Background(), rate.SourceUnionPay, time.Unix(10, 0), 1)

	for _, r := range []*PrometheusRecorder{a, b} {
		assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("unionpay", "skipped", "")))
		assert.Equal(t, 1.0, testutil.ToFloat64(r.size.WithLabelValues("unionpay")))
	}
}
