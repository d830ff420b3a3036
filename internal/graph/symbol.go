package graph

import "fmt"

// NewSymbol builds a symbol from a qualified name, deriving the base name
// and scope. Methods take their scope from the qualifier.
func NewSymbol(id, qualifiedName string, kind SymbolKind) *Symbol {
	scope, base := SplitQualified(qualifiedName)
	return &Symbol{
		ID:       id,
		Name:     qualifiedName,
		BaseName: base,
		Scope:    scope,
		Kind:     kind,
	}
}

// SymbolID creates the location-based identifier used for extracted symbols.
func SymbolID(filepath, name string, line int) string {
	return fmt.Sprintf("%s:%s:%d", filepath, name, line)
}

// FromNames builds a graph from qualified names and caller/callee pairs.
// Names containing a qualifier become methods, the rest functions; the
// qualified name doubles as the ID. It is meant for fixtures and for
// collaborators that already hold a name-level call list.
func FromNames(names []string, calls [][2]string) *Graph {
	g := NewGraph()
	for _, n := range names {
		kind := KindFunction
		if HasQualifier(n) {
			kind = KindMethod
		}
		if n == ModuleSymbolName {
			kind = KindModule
		}
		g.AddSymbol(NewSymbol(n, n, kind))
	}
	for _, c := range calls {
		g.AddEdge(c[0], c[1], Evidence{})
	}
	return g
}
