package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"callproof/internal/claim"
	"callproof/internal/graph"
	"callproof/internal/index"
	"callproof/internal/metrics"
	"callproof/internal/report"
	"callproof/internal/resolver"
	"callproof/internal/telemetry"
	"callproof/internal/verifier"
)

var (
	claimsPath  string
	sourcePath  string
	graphPath   string
	reportPath  string
	saveRun     bool
	printAsJSON bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify call claims against the ground-truth call graph",
	Long: `Loads claims from a YAML or JSON file, resolves the names they mention
against the call graph and reports a verdict per claim together with
precision, recall and hallucination rate.

The graph is built from --source, read from a JSON snapshot given with
--graph, or loaded from the store filled by "callproof scan".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd.Context())
	},
}

func init() {
	verifyCmd.Flags().StringVar(&claimsPath, "claims", "", "YAML or JSON file with the claims to verify")
	verifyCmd.Flags().StringVar(&sourcePath, "source", "", "Build the graph from this source tree instead of the store")
	verifyCmd.Flags().StringVar(&graphPath, "graph", "", "Read the graph from a JSON snapshot written by scan --json")
	verifyCmd.Flags().StringVar(&reportPath, "report", "", "Write the full JSON report to this file")
	verifyCmd.Flags().BoolVar(&saveRun, "save", false, "Store the run and its verdicts in the database")
	verifyCmd.Flags().BoolVar(&printAsJSON, "json", false, "Print the report as JSON instead of text")
	_ = verifyCmd.MarkFlagRequired("claims")
	verifyCmd.MarkFlagsMutuallyExclusive("source", "graph")
}

func runVerify(ctx context.Context) error {
	rec, err := telemetry.Default()
	if err != nil {
		return err
	}

	rep := report.New(sourcePath, claimsPath)

	// 1. Ground truth
	h := rep.BeginStage("graph")
	var g *graph.Graph
	if graphPath != "" {
		g, err = index.LoadGraph(graphPath)
	} else {
		g, err = loadGraph(ctx, sourcePath)
	}
	if err != nil {
		rep.EndStage(h, nil, err)
		return fmt.Errorf("failed to load graph: %w", err)
	}
	st := g.Stats()
	rep.EndStage(h, map[string]float64{
		"symbols":    float64(st.Symbols),
		"edges":      float64(st.Edges),
		"unresolved": float64(st.Unresolved),
	}, nil)

	// 2. Claims
	h = rep.BeginStage("normalize")
	raws, err := claim.LoadFile(claimsPath)
	if err != nil {
		rep.EndStage(h, nil, err)
		return err
	}
	batch := claim.NormalizeBatch(raws)
	for _, rej := range batch.Rejected {
		rec.RecordMalformed(ctx, rej.Field)
		logger.Warn("claim rejected", zap.Int("index", rej.Index), zap.String("field", rej.Field), zap.String("reason", rej.Reason))
	}
	if len(batch.Rejected) > 0 {
		rep.AddSignal("claims_rejected", "normalize", report.SeverityWarning,
			fmt.Sprintf("%d of %d claims were rejected before verification", len(batch.Rejected), len(raws)),
			float64(len(batch.Rejected)))
	}
	rep.EndStage(h, map[string]float64{
		"raw":        float64(len(raws)),
		"claims":     float64(len(batch.Claims)),
		"rejected":   float64(len(batch.Rejected)),
		"duplicates": float64(batch.Duplicates),
	}, nil)

	// 3. Verdicts
	h = rep.BeginStage("verify")
	v := verifier.New(resolver.New(resolverOptions()), cfg.Verifier.PathEvidenceHops)
	svc := verifier.NewService(g,
		verifier.WithVerifier(v),
		verifier.WithWorkers(cfg.Verifier.Workers),
		verifier.WithLogger(logger),
		verifier.WithRecorder(rec),
	)
	results, err := svc.VerifyBatch(ctx, batch.Claims)
	var merr *multierror.Error
	if err != nil && !errors.As(err, &merr) {
		rep.EndStage(h, nil, err)
		return fmt.Errorf("verification failed: %w", err)
	}
	if merr != nil {
		logger.Warn("some claims could not be verified", zap.Error(merr))
	}
	rep.EndStage(h, map[string]float64{"results": float64(len(results))}, nil)

	// 4. Metrics and output
	rep.SetResults(results, metrics.Summarize(g.EdgeKeys(), results))

	if reportPath != "" {
		if err := rep.Save(reportPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("report written", zap.String("path", reportPath))
	}

	if saveRun {
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()
		rep.Finalize()
		if err := store.SaveRun(ctx, rep.Run()); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info("run saved", zap.String("run_id", rep.RunID))
	}

	if printAsJSON {
		return rep.WriteJSON(os.Stdout)
	}
	return rep.WriteText(os.Stdout)
}
