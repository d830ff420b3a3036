package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

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

func TestRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	rec, err := NewRecorder(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rec.RecordVerdict(ctx, "CALL", "VALID")
	rec.RecordVerdict(ctx, "CALL", "VALID")
	rec.RecordVerdict(ctx, "CALL", "HALLUCINATION")
	rec.RecordResolution(ctx, "exact", 1.0)
	rec.RecordResolution(ctx, "", 0)
	rec.RecordMalformed(ctx, "subject")
	rec.RecordBatch(ctx, 3, 250*time.Millisecond)

	metrics := collect(t, reader)

	t.Run("Verdicts by attribute", func(t *testing.T) {
		sum, ok := metrics["callproof_verdicts_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		counts := map[string]int64{}
		for _, dp := range sum.DataPoints {
			v, _ := dp.Attributes.Value(attribute.Key("verdict"))
			counts[v.AsString()] = dp.Value
		}
		assert.Equal(t, map[string]int64{"VALID": 2, "HALLUCINATION": 1}, counts)
	})

	t.Run("Unresolved names are counted but not histogrammed", func(t *testing.T) {
		sum, ok := metrics["callproof_resolutions_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, sum.DataPoints, 2)

		hist, ok := metrics["callproof_resolution_confidence"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	})

	t.Run("Batch", func(t *testing.T) {
		sum, ok := metrics["callproof_claims_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(3), sum.DataPoints[0].Value)

		hist, ok := metrics["callproof_batch_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.InDelta(t, 0.25, hist.DataPoints[0].Sum, 1e-9)
	})
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	ctx := context.Background()
	assert.NotPanics(t, func() {
		rec.RecordVerdict(ctx, "CALL", "VALID")
		rec.RecordResolution(ctx, "exact", 1)
		rec.RecordMalformed(ctx, "object")
		rec.RecordBatch(ctx, 1, time.Second)
	})
}

func TestDefault(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestSetupStdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := SetupStdout(&buf, "test")
	require.NoError(t, err)

	rec, err := Default()
	require.NoError(t, err)
	rec.RecordVerdict(context.Background(), "CALL", "VALID")

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "callproof")
}
