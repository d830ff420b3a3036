package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Link(t *testing.T) {
	g := NewGraph()

	mod := &Symbol{ID: "m.py:<module>:0", Name: ModuleSymbolName, Scope: "m", Kind: KindModule}
	main := &Symbol{ID: "m.py:main:1", Name: "main", Scope: "m", Kind: KindFunction}
	process := &Symbol{ID: "m.py:process:5", Name: "process", Scope: "m", Kind: KindFunction}
	ctor := NewSymbol("m.py:Calculator.__init__:10", "Calculator.__init__", KindMethod)
	add := NewSymbol("m.py:Calculator.add:12", "Calculator.add", KindMethod)
	validate := NewSymbol("m.py:Calculator._validate:16", "Calculator._validate", KindMethod)
	otherAdd := NewSymbol("m.py:Cart.add:30", "Cart.add", KindMethod)

	for _, s := range []*Symbol{mod, main, process, ctor, add, validate, otherAdd} {
		g.AddSymbol(s)
	}

	g.AddCallSite(CallSite{From: mod.ID, Target: "main"})
	g.AddCallSite(CallSite{From: main.ID, Target: "process"})
	g.AddCallSite(CallSite{From: main.ID, Target: "print"})
	g.AddCallSite(CallSite{From: process.ID, Target: "Calculator"})
	g.AddCallSite(CallSite{From: process.ID, Target: "add", Receiver: "calc"})
	g.AddCallSite(CallSite{From: add.ID, Target: "_validate", Receiver: "self"})
	g.AddCallSite(CallSite{From: add.ID, Target: "_validate", Receiver: "self"})
	g.AddCallSite(CallSite{From: "missing", Target: "main"})

	g.Link()

	t.Run("Plain function calls", func(t *testing.T) {
		assert.True(t, g.HasEdge(mod.ID, main.ID))
		assert.True(t, g.HasEdge(main.ID, process.ID))
	})

	t.Run("Constructor call binds to initializer", func(t *testing.T) {
		assert.True(t, g.HasEdge(process.ID, ctor.ID))
	})

	t.Run("Unknown receiver links every same-named method", func(t *testing.T) {
		assert.Equal(t, []string{add.ID, otherAdd.ID},g.CalleesOf(process.ID)[1:])
	})

	t.Run("Self call stays in scope and collapses duplicates", func(t *testing.T) {
		assert.Equal(t, []string{validate.ID}, g.CalleesOf(add.ID))
		assert.Equal(t, []string{add.ID}, g.CallersOf(validate.ID))
	})

	t.Run("Unresolved reasons", func(t *testing.T) {
		counts := g.UnresolvedReasonCounts()
		assert.Equal(t, 1, counts[ReasonNoCandidate])
		assert.Equal(t, 1, counts[ReasonSourceMissing])
	})

	t.Run("Dependents", func(t *testing.T) {
		dependents := g.GetDependents(process.ID)
		require.Len(t, dependents, 1)
		assert.Equal(t, "main", dependents[0].Name)
	})
}

func TestGraph_AddEdgeSetSemantics(t *testing.T) {
	g := FromNames([]string{"main", "process"}, nil)

	assert.True(t, g.AddEdge("main", "process", Evidence{}))
	assert.False(t, g.AddEdge("main", "process", Evidence{}))
	assert.False(t, g.AddEdge("main", "ghost", Evidence{}))
	assert.Len(t, g.Edges, 1)
	assert.Equal(t, []EdgeKey{{From: "main", To: "process"}}, g.EdgeKeys())
}

func TestGraph_ContainsSymbol(t *testing.T) {
	g := FromNames([]string{"Calculator.add", "main"}, nil)

	assert.True(t, g.ContainsSymbol("Calculator.add"))
	assert.True(t, g.ContainsSymbol("add"))
	assert.True(t, g.ContainsSymbol("main"))
	assert.False(t, g.ContainsSymbol("Add"))
	assert.False(t, g.IsEmpty())
	assert.True(t, NewGraph().IsEmpty())
}

func TestGraph_FindPath(t *testing.T) {
	g := FromNames(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "c"}},
	)

	assert.Equal(t, []string{"a", "c", "d"}, g.FindPath("a", "d", 3))
	assert.Nil(t, g.FindPath("a", "d", 1))
	assert.Nil(t, g.FindPath("d", "a", 5))
	assert.Nil(t, g.FindPath("a", "ghost", 5))
}

func TestGraph_JSONRoundTripRebuildsIndices(t *testing.T) {
	g := FromNames([]string{"main", "Worker.run"}, [][2]string{{"main", "Worker.run"}})
	g.Edges = append(g.Edges, Edge{From: "main", To: "Worker.run", Kind: RelationCalls})

	data, err := json.Marshal(g)
	require.NoError(t, err)

	loaded := NewGraph()
	require.NoError(t, json.Unmarshal(data, loaded))
	loaded.RebuildIndices()

	assert.Len(t, loaded.Edges, 1)
	assert.True(t, loaded.HasEdge("main", "Worker.run"))
	assert.True(t, loaded.ContainsSymbol("run"))
	assert.Equal(t, []string{"main"}, loaded.CallersOf("Worker.run"))
}

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		in        string
		qualifier string
		base      string
	}{
		{"main", "", "main"},
		{"Calculator.add", "Calculator", "add"},
		{"pkg.Type.Method", "pkg.Type", "Method"},
		{"ns::Type::run", "ns::Type", "run"},
		{"Widget#render", "Widget", "render"},
		{"obj->call", "obj", "call"},
		{".hidden", "", ".hidden"},
		{"trailing.", "", "trailing."},
		{ModuleSymbolName, "", ModuleSymbolName},
	}
	for _, tt := range tests {
		q, b := SplitQualified(tt.in)
		assert.Equal(t, tt.qualifier, q, tt.in)
		assert.Equal(t, tt.base, b, tt.in)
	}
}
