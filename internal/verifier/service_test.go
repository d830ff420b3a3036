package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"callproof/internal/claim"
	"callproof/internal/graph"
	"callproof/internal/telemetry"
)

func TestService_VerifyBatchPreservesOrder(t *testing.T) {
	g := calculatorGraph()

	var claims []claim.Claim
	var want []Verdict
	for i := 0; i < 40; i++ {
		switch i % 4 {
		case 0:
			claims = append(claims, claim.New("main", claim.KindCall, "process"))
			want = append(want, Valid)
		case 1:
			claims = append(claims, claim.New("main", claim.KindCall, "save"))
			want = append(want, Hallucination)
		case 2:
			claims = append(claims, claim.New("process", claim.KindCall, fmt.Sprintf("ghost_%03d_zz", i)))
			want = append(want, Unverifiable)
		case 3:
			claims = append(claims, claim.NewPath("main", "process", "Cart.add"))
			want = append(want, PartiallyValid)
		}
	}

	svc := NewService(g, WithWorkers(8))
	results, err := svc.VerifyBatch(context.Background(), claims)
	require.NoError(t, err)
	require.Len(t, results, len(claims))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, claims[i], r.Claim)
		assert.Equal(t, want[i], r.Verdict, "claim %d", i)
	}

	sequential, err := NewService(g).VerifyBatch(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, sequential, results)
}

func TestService_VerifyBatchCollectsClaimErrors(t *testing.T) {
	claims := []claim.Claim{
		claim.New("main", claim.KindCall, "process"),
		{Subject: "main", Kind: claim.KindCall, Object: "process"},
		claim.New("main", claim.KindCall, ""),
		claim.New("process", claim.KindCall, "save"),
	}

	results, err := NewService(calculatorGraph(), WithWorkers(2)).VerifyBatch(context.Background(), claims)
	require.Error(t, err)
	require.Len(t, results, 4)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)

	var first *claim.MalformedClaimError
	require.True(t, errors.As(merr.Errors[0], &first))
	assert.Equal(t, 1, first.Index)
	assert.ErrorIs(t, merr.Errors[0], claim.ErrNotNormalized)

	var second *claim.MalformedClaimError
	require.True(t, errors.As(merr.Errors[1], &second))
	assert.Equal(t, 2, second.Index)
	assert.Equal(t, "object", second.Field)

	assert.Equal(t, Valid, results[0].Verdict)
	assert.Empty(t, results[1].Verdict)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, Valid, results[3].Verdict)
}

func TestService_VerifyBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewService(calculatorGraph()).VerifyBatch(ctx, []claim.Claim{
		claim.New("main", claim.KindCall, "process"),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestService_EmptyGraphWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(graph.NewGraph(), WithLogger(zap.New(core)))

	results, err := svc.VerifyBatch(context.Background(), []claim.Claim{
		claim.New("main", claim.KindCall, "process"),
		claim.New("a", claim.KindCall, "b"),
	})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, Unverifiable, r.Verdict)
	}
	assert.Equal(t, 1, logs.FilterMessageSnippet("call graph is empty").Len())

	_, err = NewService(nil).VerifyBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilGraph)
}

// countingGraph counts full symbol listings.
type countingGraph struct {
	*graph.Graph
	listings atomic.Int32
}

func (g *countingGraph) Symbols() []*graph.Symbol {
	g.listings.Add(1)
	return g.Graph.Symbols()
}

func TestService_ListsSymbolsOncePerBatch(t *testing.T) {
	g := &countingGraph{Graph: calculatorGraph()}

	var claims []claim.Claim
	for i := 0; i < 25; i++ {
		claims = append(claims, claim.New("main", claim.KindCall, "process"))
	}
	results, err := NewService(g, WithWorkers(4)).VerifyBatch(context.Background(), claims)
	require.NoError(t, err)
	require.Len(t, results, 25)
	assert.Equal(t, int32(1), g.listings.Load())

	empty := &countingGraph{Graph: graph.NewGraph()}
	res, err := Verify(claim.New("main", claim.KindCall, "process"), empty)
	require.NoError(t, err)
	assert.Equal(t, Unverifiable, res.Verdict)
	assert.Equal(t, int32(1), empty.listings.Load())
}

func TestService_RecordsTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	rec, err := telemetry.NewRecorder(provider.Meter("test"))
	require.NoError(t, err)

	svc := NewService(calculatorGraph(), WithRecorder(rec), WithWorkers(2))
	_, err = svc.VerifyBatch(context.Background(), []claim.Claim{
		claim.New("main", claim.KindCall, "process"),
		claim.New("main", claim.KindCall, "save"),
		claim.New("main", claim.KindCall, "ghost_xyz"),
	})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var verdicts int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "callproof_verdicts_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				verdicts += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), verdicts)
}
