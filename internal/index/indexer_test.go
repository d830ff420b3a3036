package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callproof/internal/crawler"
	"callproof/internal/extractor"
	"callproof/internal/graph"
)

func buildCalc(t *testing.T) *graph.Graph {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "extractor", "testdata", "calc.py"))
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "calc.py"), src, 0o644))

	exts, err := extractor.NewExtractors("python")
	require.NoError(t, err)

	g, err := NewIndexer(crawler.NewCrawler(exts), nil).BuildGraph(root)
	require.NoError(t, err)
	return g
}

func id(name string, line int) string {
	return graph.SymbolID("app/calc.py", name, line)
}

func TestIndexer_BuildGraph(t *testing.T) {
	g := buildCalc(t)

	t.Run("Edges", func(t *testing.T) {
		want := []graph.EdgeKey{
			{From: id("Calculator.add", 8), To: id("Calculator._round", 12)},
			{From: id("process", 25), To: id("Calculator.__init__", 5)},
			{From: id("process", 25), To: id("Calculator.add", 8)},
			{From: id("process", 25), To: id("Cart.add", 17)},
			{From: id("process", 25), To: id("save_result", 37)},
			{From: id("process", 25), To: id("process.inner", 31)},
			{From: id("process.inner", 31), To: id("helper", 21)},
			{From: id(graph.ModuleSymbolName, 1), To: id("process", 25)},
		}
		assert.ElementsMatch(t, want, g.EdgeKeys())
	})

	t.Run("Builtins stay unresolved", func(t *testing.T) {
		assert.Len(t, g.Unresolved, 4)
		assert.Equal(t, 4, g.UnresolvedReasonCounts()[graph.ReasonNoCandidate])
		for _, u := range g.Unresolved {
			assert.Contains(t, []string{"round", "sqrt", "print"}, u.Target)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		st := g.Stats()
		assert.Equal(t, 9, st.Symbols)
		assert.Equal(t, 4, st.Methods)
		assert.Equal(t, 4, st.Functions)
		assert.Equal(t, 8, st.Edges)
	})

	assert.True(t, g.ContainsSymbol("Calculator.add"))
	assert.True(t, g.ContainsSymbol("save_result"))
}

func TestSaveLoadGraph(t *testing.T) {
	g := buildCalc(t)
	path := filepath.Join(t.TempDir(), "out", "graph.json")

	require.NoError(t, SaveGraph(g, path))

	loaded, err := LoadGraph(path)
	require.NoError(t, err)

	assert.ElementsMatch(t, g.EdgeKeys(), loaded.EdgeKeys())
	assert.Equal(t, g.Len(), loaded.Len())
	assert.True(t, loaded.HasEdge(id("process", 25), id("save_result", 37)))
	assert.Len(t, loaded.SymbolsNamed("add"), 2)

	_, err = LoadGraph(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
