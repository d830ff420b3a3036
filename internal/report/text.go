package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText renders a human-readable summary: one row per claim followed by
// the batch metrics, signals and recommendations.
func (r *Report) WriteText(w io.Writer) error {
	r.Finalize()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run %s\n", r.RunID)
	if r.Source != "" {
		fmt.Fprintf(tw, "Source:\t%s\n", r.Source)
	}
	if r.ClaimsFile != "" {
		fmt.Fprintf(tw, "Claims:\t%s\n", r.ClaimsFile)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "#\tVERDICT\tCONF\tCLAIM\tREASON")
	for _, res := range r.Results {
		if res.Error != "" {
			fmt.Fprintf(tw, "%d\tERROR\t-\t%s\t%s\n", res.Index, res.Claim, res.Error)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", res.Index, res.Verdict, res.Confidence, res.Claim, res.Reason)
	}
	fmt.Fprintln(tw)

	m := r.Metrics
	fmt.Fprintf(tw, "Valid:\t%d\n", m.Valid)
	fmt.Fprintf(tw, "Partially valid:\t%d\n", m.PartiallyValid)
	fmt.Fprintf(tw, "Hallucination:\t%d\n", m.Hallucination)
	fmt.Fprintf(tw, "Unverifiable:\t%d\n", m.Unverifiable)
	if m.Errors > 0 {
		fmt.Fprintf(tw, "Errors:\t%d\n", m.Errors)
	}
	fmt.Fprintf(tw, "Precision:\t%.1f%%\n", m.Precision)
	fmt.Fprintf(tw, "Recall:\t%.1f%%\n", m.Recall)
	fmt.Fprintf(tw, "F1:\t%.1f%%\n", m.F1)
	fmt.Fprintf(tw, "Hallucination rate:\t%.1f%%\n", m.HallucinationRate)
	fmt.Fprintf(tw, "Coverage:\t%.1f%% of %d edges\n", m.Coverage, m.GroundTruthEdges)
	fmt.Fprintf(tw, "Assessment:\t%s\n", strings.ToUpper(string(r.Assessment)))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Signals) > 0 {
		fmt.Fprintln(w, "\nSignals:")
		for _, s := range r.Signals {
			fmt.Fprintf(w, "  [%s] %s: %s\n", s.Severity, s.Code, s.Message)
		}
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	return nil
}
