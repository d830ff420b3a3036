package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"callproof/internal/claim"
	"callproof/internal/graph"
	"callproof/internal/resolver"
	"callproof/internal/telemetry"
)

// Service verifies batches of claims against one graph.
type Service struct {
	graph    graph.Querier
	verifier *Verifier
	logger   *zap.Logger
	recorder *telemetry.Recorder
	workers  int
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRecorder(r *telemetry.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithWorkers bounds how many claims are verified concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithVerifier(v *Verifier) Option {
	return func(s *Service) {
		if v != nil {
			s.verifier = v
		}
	}
}

func NewService(g graph.Querier, opts ...Option) *Service {
	s := &Service{
		graph:    g,
		verifier: defaultVerifier,
		logger:   zap.NewNop(),
		workers:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyBatch verifies claims in input order. Every batch gets its own
// resolution cache. Per-claim failures are collected into one multierror
// while the remaining results are still returned; the failed entries carry
// only Claim, Index and Error. Context cancellation aborts the batch.
func (s *Service) VerifyBatch(ctx context.Context, claims []claim.Claim) ([]Result, error) {
	if s.graph == nil {
		return nil, ErrNilGraph
	}
	start := time.Now()

	if s.graph.IsEmpty() {
		s.logger.Warn("call graph is empty; every claim will be unverifiable", zap.Int("claims", len(claims)))
	}
	cache := resolver.NewCache(s.verifier.resolver, s.graph.Symbols())

	results := make([]Result, len(claims))
	errs := make([]error, len(claims))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for i, c := range claims {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r, err := s.verifier.verify(c, s.graph, cache)
			r.Index = i
			if err != nil {
				err = withIndex(err, i)
				r.Error = err.Error()
			}
			results[i] = r
			errs[i] = err
			s.observe(egCtx, r, err)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	elapsed := time.Since(start)
	s.recorder.RecordBatch(ctx, len(claims), elapsed)
	hits, misses := cache.Stats()
	s.logger.Info("verified claim batch",
		zap.Int("claims", len(claims)),
		zap.Int("errors", len(merr.WrappedErrors())),
		zap.Any("verdicts", countVerdicts(results)),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses),
		zap.Duration("elapsed", elapsed),
	)

	return results, merr.ErrorOrNil()
}

func (s *Service) observe(ctx context.Context, r Result, err error) {
	if err != nil {
		field := ""
		var malformed *claim.MalformedClaimError
		if errors.As(err, &malformed) {
			field = malformed.Field
		}
		s.recorder.RecordMalformed(ctx, field)
		s.logger.Debug("claim rejected", zap.Int("index", r.Index), zap.Error(err))
		return
	}

	s.recorder.RecordVerdict(ctx, string(r.Claim.Kind), string(r.Verdict))
	for _, res := range []resolver.Resolution{r.Trace.Subject, r.Trace.Object} {
		if res.Raw == "" {
			continue
		}
		best, ok := res.Best()
		if !ok {
			s.recorder.RecordResolution(ctx, "", 0)
			continue
		}
		s.recorder.RecordResolution(ctx, string(best.Strategy), best.Confidence)
	}
	s.logger.Debug("claim verified",
		zap.Int("index", r.Index),
		zap.Stringer("claim", r.Claim),
		zap.String("verdict", string(r.Verdict)),
		zap.Float64("confidence", r.Confidence),
		zap.Bool("ambiguous", r.Trace.Ambiguous),
		zap.String("reason", r.Reason),
	)
}

func withIndex(err error, index int) error {
	var malformed *claim.MalformedClaimError
	if errors.As(err, &malformed) {
		cp := *malformed
		cp.Index = index
		return &cp
	}
	return fmt.Errorf("claim #%d: %w", index, err)
}

func countVerdicts(results []Result) map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, r := range results {
		if r.Verdict != "" {
			counts[r.Verdict]++
		}
	}
	return counts
}
