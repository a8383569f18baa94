package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestExporter(t *testing.T) (*MetricExporter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	exporter, closeFn, err := NewMetricExporter(WithServiceName("fxboard-test"), WithReader(reader))
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return exporter, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func attrValue(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.AsString()
}

func TestNewMetricExporter(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name:    "HTTP endpoint",
			opts:    []Option{WithServiceName("fxboard"), WithOTLPEndpoint("localhost:4318"), WithEnvironment("test")},
			wantErr: false,
		},
		{
			name:    "gRPC endpoint",
			opts:    []Option{WithServiceName("fxboard"), WithOTLPGRPCEndpoint("localhost:4317")},
			wantErr: false,
		},
		{
			name:    "gRPC without HTTP",
			opts:    []Option{WithOTLPEndpoint(""), WithOTLPGRPCEndpoint("localhost:4317")},
			wantErr: false,
		},
		{
			name:    "no endpoint",
			opts:    []Option{WithOTLPEndpoint("")},
			wantErr: true,
		},
		{
			name:    "manual reader needs no endpoint",
			opts:    []Option{WithOTLPEndpoint(""), WithReader(sdkmetric.NewManualReader())},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, closeFn, err := NewMetricExporter(tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, exporter)
			closeFn()
		})
	}
}

func TestMetricExporter_Counter(t *testing.T) {
	exporter, reader := newTestExporter(t)
	ctx := context.Background()

	attrs := map[string]string{"source": "cbr"}
	require.NoError(t, exporter.RecordCounter(ctx, "test.counter", "test", "1", 2, attrs))
	require.NoError(t, exporter.RecordCounter(ctx, "test.counter", "test", "1", 3, attrs))

	m, ok := collect(t, reader)["test.counter"]
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
	assert.Equal(t, "cbr", attrValue(sum.DataPoints[0].Attributes, "source"))
}

func TestMetricExporter_GaugeKeepsLastValue(t *testing.T) {
	exporter, reader := newTestExporter(t)
	ctx := context.Background()

	require.NoError(t, exporter.RecordGauge(ctx, "test.gauge", "test", "1", 10, nil))
	require.NoError(t, exporter.RecordGauge(ctx, "test.gauge", "test", "1", 4, nil))

	m, ok := collect(t, reader)["test.gauge"]
	require.True(t, ok)
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 4.0, gauge.DataPoints[0].Value)
}

func TestMetricExporter_Histogram(t *testing.T) {
	exporter, reader := newTestExporter(t)
	ctx := context.Background()

	for _, v := range []float64{0.1, 0.2, 0.3} {
		require.NoError(t, exporter.RecordHistogram(ctx, "test.histogram", "test", "s", v, nil))
	}

	m, ok := collect(t, reader)["test.histogram"]
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(3), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.6, hist.DataPoints[0].Sum, 1e-9)
}

func TestMetricExporter_ConcurrentUse(t *testing.T) {
	exporter, reader := newTestExporter(t)
	ctx := context.Background()

	done := make(chan struct{})
	for range 10 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 10 {
				_ = exporter.RecordCounter(ctx, "test.concurrent", "test", "1", 1, nil)
			}
		}()
	}
	for range 10 {
		<-done
	}

	sum := collect(t, reader)["test.concurrent"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(100), sum.DataPoints[0].Value)
}
