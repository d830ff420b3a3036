package resolver

import "callproof/internal/graph"

// Strategy names the resolution stage that produced a candidate.
type Strategy string

const (
	StrategyExact           Strategy = "exact"
	StrategyCaseInsensitive Strategy = "case-insensitive"
	StrategyAlias           Strategy = "alias"
	StrategyFuzzy           Strategy = "fuzzy"
	StrategyPartial         Strategy = "partial"
	StrategyBaseName        Strategy = "base-name"
)

// Priority orders strategies from most to least precise; lower wins.
func (s Strategy) Priority() int {
	switch s {
	case StrategyExact:
		return 0
	case StrategyCaseInsensitive:
		return 1
	case StrategyAlias:
		return 2
	case StrategyFuzzy:
		return 3
	case StrategyPartial:
		return 4
	case StrategyBaseName:
		return 5
	default:
		return 6
	}
}

// Candidate is one symbol a raw name may refer to.
type Candidate struct {
	Symbol     *graph.Symbol `json:"symbol"`
	Confidence float64       `json:"confidence"`
	Strategy   Strategy      `json:"strategy"`
	// Via is the inner stage of a base-name match.
	Via Strategy `json:"via,omitempty"`
}

// Resolution is the ordered outcome of resolving one raw name.
type Resolution struct {
	Raw        string      `json:"raw"`
	Candidates []Candidate `json:"candidates,omitempty"`
	// Stages lists every stage consulted, the winning one last.
	Stages []StageResult `json:"stages,omitempty"`
}

// StageResult records how many candidates a stage produced at or above the floor.
type StageResult struct {
	Strategy Strategy `json:"strategy"`
	Matched  int      `json:"matched"`
}

// Empty reports whether nothing resolved at or above the floor.
func (r Resolution) Empty() bool { return len(r.Candidates) == 0 }

// Best returns the top candidate, if any.
func (r Resolution) Best() (Candidate, bool) {
	if len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Top returns every candidate tied at the highest confidence.
func (r Resolution) Top() []Candidate {
	if len(r.Candidates) == 0 {
		return nil
	}
	best := r.Candidates[0].Confidence
	n := 1
	for n < len(r.Candidates) && sameConfidence(r.Candidates[n].Confidence, best) {
		n++
	}
	return r.Candidates[:n]
}

// Ambiguous reports whether more than one candidate ties at the top.
func (r Resolution) Ambiguous() bool { return len(r.Top()) > 1 }

func (r Resolution) clone() Resolution {
	out := r
	out.Candidates = append([]Candidate(nil), r.Candidates...)
	out.Stages = append([]StageResult(nil), r.Stages...)
	return out
}

const confidenceEpsilon = 1e-9

func sameConfidence(a, b float64) bool {
	d := a - b
	return d < confidenceEpsilon && d > -confidenceEpsilon
}
