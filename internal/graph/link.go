package graph

import "sort"

// constructorNames are the base names treated as a type's initializer when a
// call targets the type itself (e.g. `Calculator()`).
var constructorNames = []string{"__init__", "__new__"}

// Link binds every recorded call site to symbol IDs and rebuilds the edge set.
// Call sites that match no symbol (builtins, library calls) are kept as
// Unresolved and never become edges.
func (g *Graph) Link() {
	g.Edges = []Edge{}
	g.out = make(map[string]map[string]struct{})
	g.in = make(map[string]map[string]struct{})
	g.Unresolved = nil

	for _, cs := range g.CallSites {
		source, ok := g.Nodes[cs.From]
		if !ok {
			g.Unresolved = append(g.Unresolved, UnresolvedRelation{
				From: cs.From, Target: cs.Target, Kind: RelationCalls,
				Reason: ReasonSourceMissing, Evidence: cs.Evidence,
			})
			continue
		}

		targets := g.resolveTarget(cs, source)
		if len(targets) == 0 {
			g.Unresolved = append(g.Unresolved, UnresolvedRelation{
				From: cs.From, Target: cs.Target, Kind: RelationCalls,
				Reason: ReasonNoCandidate, Evidence: cs.Evidence,
			})
			continue
		}
		for _, id := range targets {
			g.AddEdge(cs.From, id, cs.Evidence)
		}
	}
}

// resolveTarget finds the symbols a call site may refer to.
func (g *Graph) resolveTarget(cs CallSite, source *Symbol) []string {
	named := g.byBaseName(cs.Target)

	switch cs.Receiver {
	case "self":
		// 1. Methods of the caller's own type.
		if ids := filterIDs(named, func(s *Symbol) bool { return s.Kind == KindMethod && s.Scope == source.Scope }); len(ids) > 0 {
			return ids
		}
		return filterIDs(named, func(s *Symbol) bool { return s.Kind == KindMethod })
	case "":
		// 2. Plain function calls: same scope first, then anywhere.
		funcs := filterIDs(named, func(s *Symbol) bool { return s.Kind == KindFunction })
		if local := filterIDs(named, func(s *Symbol) bool { return s.Kind == KindFunction && s.Scope == source.Scope }); len(local) > 0 {
			return local
		}
		if len(funcs) > 0 {
			return funcs
		}
		// 3. Calling a type constructs it.
		return g.constructorsOf(cs.Target)
	default:
		// 4. Receiver names a type directly (static or qualified call).
		if ids := filterIDs(named, func(s *Symbol) bool { return s.Scope == cs.Receiver }); len(ids) > 0 {
			return ids
		}
		// 5. Receiver is a value of unknown type: any method with that name.
		return filterIDs(named, func(s *Symbol) bool { return s.Kind == KindMethod })
	}
}

func (g *Graph) byBaseName(name string) []*Symbol {
	var out []*Symbol
	for _, id := range g.nameIndex[name] {
		if s := g.Nodes[id]; s != nil && s.BaseName == name {
			out = append(out, s)
		}
	}
	return out
}

func (g *Graph) constructorsOf(typeName string) []string {
	var ids []string
	for _, ctor := range constructorNames {
		ids = append(ids, filterIDs(g.byBaseName(ctor), func(s *Symbol) bool { return s.Scope == typeName })...)
	}
	return ids
}

func filterIDs(symbols []*Symbol, keep func(*Symbol) bool) []string {
	var ids []string
	for _, s := range symbols {
		if keep(s) {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
