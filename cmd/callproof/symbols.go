package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"callproof/internal/graph"
)

var (
	symbolsSource string
	symbolsFile   string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [NAME]",
	Short: "List symbols by name or by file, with their callers and callees",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && symbolsFile == "" {
			return errors.New("a symbol name or --file is required")
		}

		var (
			g    *graph.Graph
			syms []*graph.Symbol
			err  error
		)
		if symbolsFile != "" {
			store, err := initStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if g, err = store.LoadGraph(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load graph: %w", err)
			}
			if syms, err = store.FindSymbolsByFile(cmd.Context(), symbolsFile); err != nil {
				return err
			}
			if len(args) == 1 {
				syms = filterNamed(syms, args[0])
			}
		} else {
			if g, err = loadGraph(cmd.Context(), symbolsSource); err != nil {
				return fmt.Errorf("failed to load graph: %w", err)
			}
			syms = g.SymbolsNamed(args[0])
		}

		return writeSymbols(os.Stdout, g, syms)
	},
}

func init() {
	symbolsCmd.Flags().StringVar(&symbolsSource, "source", "", "Build the graph from this source tree instead of the store")
	symbolsCmd.Flags().StringVar(&symbolsFile, "file", "", "List the stored symbols defined in this file")
	symbolsCmd.MarkFlagsMutuallyExclusive("source", "file")
}

func filterNamed(syms []*graph.Symbol, name string) []*graph.Symbol {
	var out []*graph.Symbol
	for _, s := range syms {
		if s.Name == name || s.BaseName == name {
			out = append(out, s)
		}
	}
	return out
}

func writeSymbols(w io.Writer, g *graph.Graph, syms []*graph.Symbol) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(syms) == 0 {
		fmt.Fprintln(tw, "No symbols found.")
		return tw.Flush()
	}
	fmt.Fprintln(tw, "SYMBOL\tKIND\tLOCATION\tCALLERS\tCALLEES")
	for _, s := range syms {
		callers, callees := neighbours(g, s.ID)
		fmt.Fprintf(tw, "%s\t%s\t%s:%d\t%s\t%s\n", s.Name, s.Kind, s.Filepath, s.StartLine, callers, callees)
	}
	return tw.Flush()
}

// neighbours renders the direct callers and callees of a symbol.
func neighbours(g *graph.Graph, id string) (callers, callees string) {
	return joinNames(g.GetDependents(id)), joinNames(g.GetDependencies(id))
}

func joinNames(syms []*graph.Symbol) string {
	if len(syms) == 0 {
		return "-"
	}
	names := make([]string, 0, len(syms))
	for _, s := range syms {
		names = append(names, s.Name)
	}
	return strings.Join(names, ",")
}
