package graph

import (
	"sort"
	"strings"
)

// Querier is the read-only query surface the verification core consumes.
type Querier interface {
	IsEmpty() bool
	ContainsSymbol(name string) bool
	Symbol(id string) (*Symbol, bool)
	Symbols() []*Symbol
	CalleesOf(id string) []string
	CallersOf(id string) []string
	HasEdge(from, to string) bool
	FindPath(from, to string, maxHops int) []string
}

// Graph manages symbols and the call edges between them.
// It is built single-threaded and is safe for concurrent reads afterwards.
type Graph struct {
	Nodes      map[string]*Symbol   `json:"nodes"`
	Edges      []Edge               `json:"edges"`
	CallSites  []CallSite           `json:"call_sites,omitempty"`
	Unresolved []UnresolvedRelation `json:"unresolved,omitempty"`

	// Name -> []ID, keyed by both qualified and base name.
	nameIndex map[string][]string
	out       map[string]map[string]struct{}
	in        map[string]map[string]struct{}
}

var _ Querier = (*Graph)(nil)

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[string]*Symbol),
		Edges:     []Edge{},
		nameIndex: make(map[string][]string),
		out:       make(map[string]map[string]struct{}),
		in:        make(map[string]map[string]struct{}),
	}
}

// AddSymbol adds a symbol and indexes it. Symbols without an ID are ignored.
func (g *Graph) AddSymbol(s *Symbol) {
	if s == nil || s.ID == "" {
		return
	}
	if s.BaseName == "" {
		s.BaseName = BaseName(s.Name)
	}
	if prev, ok := g.Nodes[s.ID]; ok {
		g.unindex(prev)
	}
	g.Nodes[s.ID] = s
	g.index(s)
}

func (g *Graph) index(s *Symbol) {
	g.nameIndex[s.Name] = appendUnique(g.nameIndex[s.Name], s.ID)
	if s.BaseName != s.Name {
		g.nameIndex[s.BaseName] = appendUnique(g.nameIndex[s.BaseName], s.ID)
	}
}

func (g *Graph) unindex(s *Symbol) {
	for _, key := range []string{s.Name, s.BaseName} {
		ids := g.nameIndex[key]
		for i, id := range ids {
			if id == s.ID {
				g.nameIndex[key] = append(ids[:i:i], ids[i+1:]...)
				break
			}
		}
		if len(g.nameIndex[key]) == 0 {
			delete(g.nameIndex, key)
		}
	}
}

// AddCallSite records a raw call to be bound by Link.
func (g *Graph) AddCallSite(cs CallSite) {
	g.CallSites = append(g.CallSites, cs)
}

// AddEdge adds a call edge between two known symbols.
// It reports false when either endpoint is unknown or the edge already exists.
func (g *Graph) AddEdge(from, to string, ev Evidence) bool {
	if _, ok := g.Nodes[from]; !ok {
		return false
	}
	if _, ok := g.Nodes[to]; !ok {
		return false
	}
	if g.HasEdge(from, to) {
		return false
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: RelationCalls, Evidence: ev})
	g.addAdjacency(from, to)
	return true
}

func (g *Graph) addAdjacency(from, to string) {
	if g.out[from] == nil {
		g.out[from] = make(map[string]struct{})
	}
	g.out[from][to] = struct{}{}
	if g.in[to] == nil {
		g.in[to] = make(map[string]struct{})
	}
	g.in[to][from] = struct{}{}
}

// RebuildIndices restores the unexported indices after decoding a graph.
// Duplicate edges collapse to one.
func (g *Graph) RebuildIndices() {
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Symbol)
	}
	g.nameIndex = make(map[string][]string)
	g.out = make(map[string]map[string]struct{})
	g.in = make(map[string]map[string]struct{})

	for _, s := range g.Nodes {
		if s.BaseName == "" {
			s.BaseName = BaseName(s.Name)
		}
		g.index(s)
	}
	for _, ids := range g.nameIndex {
		sort.Strings(ids)
	}

	edges := g.Edges
	g.Edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		if g.HasEdge(e.From, e.To) {
			continue
		}
		g.Edges = append(g.Edges, Edge{From: e.From, To: e.To, Kind: RelationCalls, Evidence: e.Evidence})
		g.addAdjacency(e.From, e.To)
	}
}

// Len returns the number of symbols.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// IsEmpty reports whether the graph holds no symbols.
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}

// ContainsSymbol reports whether a symbol with the given qualified or base name exists.
func (g *Graph) ContainsSymbol(name string) bool {
	return len(g.nameIndex[name]) > 0
}

// SymbolsNamed returns symbols whose qualified or base name equals name, ordered by ID.
func (g *Graph) SymbolsNamed(name string) []*Symbol {
	ids := append([]string(nil), g.nameIndex[name]...)
	sort.Strings(ids)
	out := make([]*Symbol, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Nodes[id])
	}
	return out
}

func (g *Graph) Symbol(id string) (*Symbol, bool) {
	s, ok := g.Nodes[id]
	return s, ok
}

// Symbols returns a fresh slice of all symbols ordered by ID.
func (g *Graph) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(g.Nodes))
	for _, s := range g.Nodes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *Graph) CalleesOf(id string) []string {
	return sortedSet(g.out[id])
}

func (g *Graph) CallersOf(id string) []string {
	return sortedSet(g.in[id])
}

func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.out[from][to]
	return ok
}

// EdgeKeys returns the ground-truth edge set ordered by (From, To).
func (g *Graph) EdgeKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(g.Edges))
	for _, e := range g.Edges {
		keys = append(keys, e.Key())
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})
	return keys
}

// GetDependencies returns the symbols the given symbol calls.
func (g *Graph) GetDependencies(id string) []*Symbol {
	return g.lookup(g.CalleesOf(id))
}

// GetDependents returns the symbols that call the given symbol.
func (g *Graph) GetDependents(id string) []*Symbol {
	return g.lookup(g.CallersOf(id))
}

func (g *Graph) lookup(ids []string) []*Symbol {
	var out []*Symbol
	for _, id := range ids {
		if s, ok := g.Nodes[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// BaseName returns the trailing component of a qualified name.
func BaseName(name string) string {
	_, base := SplitQualified(name)
	return base
}

// SplitQualified splits "Scope.name" style names on the last qualifier separator.
// Names without a separator return an empty qualifier.
func SplitQualified(name string) (qualifier, base string) {
	best := -1
	sepLen := 0
	for _, sep := range qualifierSeparators {
		if i := strings.LastIndex(name, sep); i > best {
			best = i
			sepLen = len(sep)
		}
	}
	if best <= 0 || best+sepLen >= len(name) {
		return "", name
	}
	return name[:best], name[best+sepLen:]
}

// HasQualifier reports whether name contains a qualifier separator.
func HasQualifier(name string) bool {
	q, _ := SplitQualified(name)
	return q != ""
}

var qualifierSeparators = []string{".", "::", "#", "->"}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
