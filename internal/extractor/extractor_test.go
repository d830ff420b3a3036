package extractor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callproof/internal/graph"
)

func symbolsByName(res *FileResult) map[string]*graph.Symbol {
	out := make(map[string]*graph.Symbol)
	for _, s := range res.Symbols {
		out[s.Name] = s
	}
	return out
}

func callsFrom(res *FileResult, from string) []graph.CallSite {
	var out []graph.CallSite
	for _, cs := range res.Calls {
		if cs.From == from {
			out = append(out, cs)
		}
	}
	return out
}

func TestExtractor_Python(t *testing.T) {
	testFile := filepath.Join("testdata", "calc.py")

	ext, err := NewExtractor("python")
	require.NoError(t, err)

	res, err := ext.ExtractFromFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "python", res.Language)

	byName := symbolsByName(res)

	t.Run("Symbols", func(t *testing.T) {
		assert.Len(t, res.Symbols, 9)
		for _, name := range []string{
			"Calculator.__init__", "Calculator.add", "Calculator._round", "Cart.add",
			"helper", "process", "process.inner", "save_result", graph.ModuleSymbolName,
		} {
			assert.Contains(t, byName, name)
		}
	})

	t.Run("Methods", func(t *testing.T) {
		add := byName["Calculator.add"]
		require.NotNil(t, add)
		assert.Equal(t, graph.KindMethod, add.Kind)
		assert.Equal(t, "Calculator", add.Scope)
		assert.Equal(t, "add", add.BaseName)
		assert.Equal(t, graph.SymbolID(testFile, "Calculator.add", 8), add.ID)
		assert.Equal(t, 8, add.StartLine)
		assert.Equal(t, 10, add.EndLine)
		assert.Equal(t, testFile, add.Filepath)
	})

	t.Run("Nested function", func(t *testing.T) {
		inner := byName["process.inner"]
		require.NotNil(t, inner)
		assert.Equal(t, graph.KindFunction, inner.Kind)
		assert.Equal(t, "process", inner.Scope)
	})

	t.Run("Self calls", func(t *testing.T) {
		calls := callsFrom(res, byName["Calculator.add"].ID)
		require.Len(t, calls, 1)
		assert.Equal(t, "_round", calls[0].Target)
		assert.Equal(t, "self", calls[0].Receiver)
		assert.Equal(t, 9, calls[0].Evidence.StartLine)
	})

	t.Run("Function calls", func(t *testing.T) {
		var targets []string
		for _, cs := range callsFrom(res, byName["process"].ID) {
			targets = append(targets, cs.Target)
		}
		assert.ElementsMatch(t, []string{"Calculator", "add", "save_result", "inner"}, targets)

		inner := callsFrom(res, byName["process.inner"].ID)
		require.Len(t, inner, 1)
		assert.Equal(t, "helper", inner[0].Target)
	})

	t.Run("Module level calls", func(t *testing.T) {
		mod := byName[graph.ModuleSymbolName]
		require.NotNil(t, mod)
		assert.Equal(t, graph.KindModule, mod.Kind)
		calls := callsFrom(res, mod.ID)
		require.Len(t, calls, 1)
		assert.Equal(t, "process", calls[0].Target)
	})

	assert.Len(t, res.Calls, 11)
}

func TestExtractor_Go(t *testing.T) {
	testFile := filepath.Join("testdata", "shapes.go")

	ext, err := NewExtractor("go")
	require.NoError(t, err)

	res, err := ext.ExtractFromFile(testFile)
	require.NoError(t, err)

	byName := symbolsByName(res)
	assert.Len(t, res.Symbols, 5)

	t.Run("Generic pointer receiver", func(t *testing.T) {
		push := byName["Stack.Push"]
		require.NotNil(t, push)
		assert.Equal(t, graph.KindMethod, push.Kind)
		assert.Equal(t, "Stack", push.Scope)
		assert.Equal(t, graph.SymbolID(testFile, "Stack.Push", 9), push.ID)

		calls := callsFrom(res, push.ID)
		require.Len(t, calls, 2)
		assert.Equal(t, "append", calls[0].Target)
		assert.Equal(t, "grow", calls[1].Target)
		assert.Equal(t, "self", calls[1].Receiver)
	})

	t.Run("Value receiver", func(t *testing.T) {
		log := byName["Logger.Log"]
		require.NotNil(t, log)
		calls := callsFrom(res, log.ID)
		require.Len(t, calls, 1)
		assert.Equal(t, "Println", calls[0].Target)
		assert.Equal(t, "fmt", calls[0].Receiver)
	})

	t.Run("Function calls", func(t *testing.T) {
		run := byName["Run"]
		require.NotNil(t, run)
		assert.Equal(t, graph.KindFunction, run.Kind)

		var targets []string
		for _, cs := range callsFrom(res, run.ID) {
			targets = append(targets, cs.Target)
		}
		// The call inside the func literal belongs to Run.
		assert.ElementsMatch(t, []string{"NewStack", "Push", "Log", "NewStack"}, targets)
	})

	// Package-level initializers are skipped.
	assert.Len(t, res.Calls, 7)
}

func TestExtractor_ExtractSource(t *testing.T) {
	ext, err := NewExtractor("py")
	require.NoError(t, err)

	res, err := ext.ExtractSource(context.Background(), "inline.py", []byte("def a():\n    b()\n\ndef b():\n    pass\n"))
	require.NoError(t, err)
	require.Len(t, res.Symbols, 2)
	require.Len(t, res.Calls, 1)
	assert.Equal(t, "inline.py:a:1", res.Calls[0].From)
	assert.Equal(t, "b", res.Calls[0].Target)
}

func TestForFile(t *testing.T) {
	e, err := ForFile("pkg/main.go")
	require.NoError(t, err)
	assert.Equal(t, "go", e.Language())

	e, err = ForFile("scripts/run.py")
	require.NoError(t, err)
	assert.Equal(t, "python", e.Language())
	assert.True(t, e.Handles("x.py"))
	assert.False(t, e.Handles("x.go"))

	_, err = ForFile("README.md")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = NewExtractor("rust")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}
