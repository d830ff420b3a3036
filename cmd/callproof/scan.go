package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"callproof/internal/index"
)

var scanJSONPath string

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Build the call graph of a project and save it to the store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}

		fmt.Printf("Scanning directory: %s\n", root)
		g, err := buildGraph(root)
		if err != nil {
			return err
		}

		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SaveGraph(cmd.Context(), g); err != nil {
			return fmt.Errorf("failed to save graph: %w", err)
		}
		if scanJSONPath != "" {
			if err := index.SaveGraph(g, scanJSONPath); err != nil {
				return err
			}
			logger.Info("graph snapshot written", zap.String("path", scanJSONPath))
		}

		st := g.Stats()
		fmt.Printf("Symbols: %d (%d functions, %d methods)\n", st.Symbols, st.Functions, st.Methods)
		fmt.Printf("Call edges: %d\n", st.Edges)
		fmt.Printf("Unresolved calls: %d\n", st.Unresolved)
		fmt.Printf("Saved to %s\n", cfg.Storage.DBPath)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanJSONPath, "json", "", "Also write the graph as JSON to this file")
}
