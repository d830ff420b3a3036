package graph

func (g *Graph) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	if g == nil {
		return counts
	}
	for _, u := range g.Unresolved {
		reason := u.Reason
		if reason == "" {
			reason = ReasonNoCandidate
		}
		counts[reason]++
	}
	return counts
}

// Stats summarizes graph size for logs and reports.
type Stats struct {
	Symbols    int `json:"symbols"`
	Functions  int `json:"functions"`
	Methods    int `json:"methods"`
	Edges      int `json:"edges"`
	Unresolved int `json:"unresolved"`
}

func (g *Graph) Stats() Stats {
	st := Stats{Symbols: len(g.Nodes), Edges: len(g.Edges), Unresolved: len(g.Unresolved)}
	for _, s := range g.Nodes {
		switch s.Kind {
		case KindFunction:
			st.Functions++
		case KindMethod:
			st.Methods++
		}
	}
	return st
}
