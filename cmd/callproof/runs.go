package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [RUN_ID]",
	Short: "List stored verification runs, or the verdicts of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if len(args) == 1 {
			rows, err := store.LoadVerdicts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "#\tVERDICT\tCONF\tCLAIM\tREASON")
			for _, r := range rows {
				verdict := r.Verdict
				if r.Error != "" {
					verdict, r.Reason = "ERROR", r.Error
				}
				fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", r.Index, verdict, r.Confidence, r.Claim, r.Reason)
			}
			return tw.Flush()
		}

		runs, err := store.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "RUN\tSTARTED\tCLAIMS\tPRECISION\tRECALL\tHALLUCINATION")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f%%\t%.1f%%\t%.1f%%\n",
				r.ID, r.StartedAt.Local().Format(time.DateTime), r.Claims, r.Precision, r.Recall, r.HallucinationRate)
		}
		return tw.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
}
