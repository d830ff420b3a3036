package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"callproof/internal/crawler"
	"callproof/internal/extractor"
	"callproof/internal/graph"
)

// Indexer orchestrates codebase indexing and graph management.
type Indexer struct {
	crawler *crawler.Crawler
	logger  *zap.Logger
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		crawler: c,
		logger:  logger,
	}
}

// BuildGraph scans the project root and constructs the call graph.
func (i *Indexer) BuildGraph(root string) (*graph.Graph, error) {
	g := graph.NewGraph()

	files := 0
	err := i.crawler.ScanProject(root, func(res *extractor.FileResult) {
		files++
		for _, s := range res.Symbols {
			g.AddSymbol(s)
		}
		for _, cs := range res.Calls {
			g.AddCallSite(cs)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	// Resolve call sites after all symbols are loaded
	g.Link()

	st := g.Stats()
	i.logger.Info("call graph built",
		zap.String("root", root),
		zap.Int("files", files),
		zap.Int("symbols", st.Symbols),
		zap.Int("edges", st.Edges),
		zap.Int("unresolved", st.Unresolved),
	)
	return g, nil
}

// SaveGraph persists the graph to a JSON file.
func SaveGraph(g *graph.Graph, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create graph directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// LoadGraph loads a graph from a JSON file.
func LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g := graph.NewGraph()
	decoder := json.NewDecoder(f)
	if err := decoder.Decode(g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	// Rebuild internal indices that aren't serialized
	g.RebuildIndices()

	return g, nil
}
