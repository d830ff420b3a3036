package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"callproof/internal/resolver"
)

var resolveSource string

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME",
	Short: "Show how a name resolves against the call graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGraph(cmd.Context(), resolveSource)
		if err != nil {
			return fmt.Errorf("failed to load graph: %w", err)
		}

		res := resolver.New(resolverOptions()).Resolve(args[0], g.Symbols())

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Name:\t%q\n", res.Raw)
		for _, st := range res.Stages {
			fmt.Fprintf(tw, "Stage %s:\t%d matched\n", st.Strategy, st.Matched)
		}
		if res.Empty() {
			fmt.Fprintln(tw, "Result:\tunresolved")
			return tw.Flush()
		}
		if res.Ambiguous() {
			fmt.Fprintf(tw, "Result:\tambiguous (%d tied)\n", len(res.Top()))
		}
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "SYMBOL\tCONF\tSTRATEGY\tLOCATION\tCALLERS\tCALLEES")
		for _, c := range res.Candidates {
			strategy := string(c.Strategy)
			if c.Via != "" {
				strategy += "/" + string(c.Via)
			}
			callers, callees := neighbours(g, c.Symbol.ID)
			fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s:%d\t%s\t%s\n",
				c.Symbol.Name, c.Confidence, strategy, c.Symbol.Filepath, c.Symbol.StartLine, callers, callees)
		}
		return tw.Flush()
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveSource, "source", "", "Build the graph from this source tree instead of the store")
}
