package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "callproof"

// Recorder records verification metrics. A nil *Recorder is a no-op.
type Recorder struct {
	claimsTotal          metric.Int64Counter
	verdictsTotal        metric.Int64Counter
	resolutionsTotal     metric.Int64Counter
	resolutionConfidence metric.Float64Histogram
	batchDuration        metric.Float64Histogram
	malformedTotal       metric.Int64Counter
}

// NewRecorder creates the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	var err error

	r.claimsTotal, err = meter.Int64Counter(
		"callproof_claims_total",
		metric.WithDescription("Claims submitted for verification"),
	)
	if err != nil {
		return nil, err
	}

	r.verdictsTotal, err = meter.Int64Counter(
		"callproof_verdicts_total",
		metric.WithDescription("Verdicts by claim kind and verdict"),
	)
	if err != nil {
		return nil, err
	}

	r.resolutionsTotal, err = meter.Int64Counter(
		"callproof_resolutions_total",
		metric.WithDescription("Entity resolutions by winning strategy"),
	)
	if err != nil {
		return nil, err
	}

	r.resolutionConfidence, err = meter.Float64Histogram(
		"callproof_resolution_confidence",
		metric.WithDescription("Confidence of the best resolution candidate"),
		metric.WithExplicitBucketBoundaries(0.5, 0.6, 0.7, 0.8, 0.89, 0.9, 0.95, 1.0),
	)
	if err != nil {
		return nil, err
	}

	r.batchDuration, err = meter.Float64Histogram(
		"callproof_batch_duration_seconds",
		metric.WithDescription("Wall time of one verification batch"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	r.malformedTotal, err = meter.Int64Counter(
		"callproof_malformed_claims_total",
		metric.WithDescription("Claims rejected as malformed"),
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
	defaultErr      error
)

// Default returns a recorder bound to the global meter provider. Safe to
// call multiple times.
func Default() (*Recorder, error) {
	defaultOnce.Do(func() {
		defaultRecorder, defaultErr = NewRecorder(otel.Meter(instrumentationName))
	})
	return defaultRecorder, defaultErr
}

func (r *Recorder) RecordVerdict(ctx context.Context, kind, verdict string) {
	if r == nil {
		return
	}
	r.verdictsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("verdict", verdict),
	))
}

// RecordResolution records the winning strategy and best confidence of one
// resolution. An empty strategy records an unresolved name.
func (r *Recorder) RecordResolution(ctx context.Context, strategy string, confidence float64) {
	if r == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	r.resolutionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
	if strategy != "none" {
		r.resolutionConfidence.Record(ctx, confidence, metric.WithAttributes(attribute.String("strategy", strategy)))
	}
}

func (r *Recorder) RecordMalformed(ctx context.Context, field string) {
	if r == nil {
		return
	}
	r.malformedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

func (r *Recorder) RecordBatch(ctx context.Context, claims int, d time.Duration) {
	if r == nil {
		return
	}
	r.claimsTotal.Add(ctx, int64(claims))
	r.batchDuration.Record(ctx, d.Seconds())
}
