package graph

type RelationKind string

const (
	RelationCalls RelationKind = "calls"
)

type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindMethod   SymbolKind = "method"
	// KindModule is the pseudo-symbol that owns top-level statements.
	KindModule SymbolKind = "module"
)

type UnresolvedReason string

const (
	ReasonNoCandidate   UnresolvedReason = "no_candidate"
	ReasonSourceMissing UnresolvedReason = "source_missing"
)

// ModuleSymbolName is the qualified name given to top-level code.
const ModuleSymbolName = "<module>"

// Symbol is a named, addressable unit of the ground-truth graph.
// Symbols are immutable once the graph is linked.
type Symbol struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`      // qualified, e.g. "Calculator.add"
	BaseName  string     `json:"base_name"` // trailing component, e.g. "add"
	Scope     string     `json:"scope,omitempty"`
	Kind      SymbolKind `json:"kind"`
	Language  string     `json:"language,omitempty"`
	Filepath  string     `json:"filepath,omitempty"`
	StartLine int        `json:"start_line,omitempty"`
	EndLine   int        `json:"end_line,omitempty"`
}

type Evidence struct {
	Filepath  string `json:"filepath,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// CallSite is a call observed in source before it is bound to a symbol.
type CallSite struct {
	From     string   `json:"from"`
	Target   string   `json:"target"`
	Receiver string   `json:"receiver,omitempty"` // "self" when bound to the caller's own scope
	Evidence Evidence `json:"evidence,omitempty"`
}

// Edge is a directed call relation between two symbol IDs.
type Edge struct {
	From     string       `json:"from"`
	To       string       `json:"to"`
	Kind     RelationKind `json:"kind"`
	Evidence Evidence     `json:"evidence,omitempty"`
}

// EdgeKey identifies an edge irrespective of evidence; edges have set semantics.
type EdgeKey struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (e Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

type UnresolvedRelation struct {
	From     string           `json:"from"`
	Target   string           `json:"target"`
	Kind     RelationKind     `json:"kind"`
	Reason   UnresolvedReason `json:"reason"`
	Evidence Evidence         `json:"evidence,omitempty"`
}
