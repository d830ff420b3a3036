package resolver

import (
	"strings"

	"callproof/internal/graph"
)

const (
	exactConfidence = 1.0
	foldConfidence  = 0.95
	aliasConfidence = 0.9
	fuzzyCap        = 0.89
	baseNameCap     = 0.9

	partialBase     = 0.5
	partialSpan     = 0.2
	minPartialRunes = 3
)

// Stage is one rung of the resolution ladder. Match returns every symbol the
// stage relates to raw; the chain applies the confidence floor. With
// baseOnly set, only unqualified symbol names are considered.
type Stage interface {
	Strategy() Strategy
	Match(raw string, pool []*graph.Symbol, baseOnly bool) []Candidate
}

// Chain runs stages in order and stops at the first one that yields a
// candidate at or above the floor.
type Chain struct {
	stages []Stage
	floor  float64
}

func NewChain(floor float64, stages ...Stage) *Chain {
	return &Chain{stages: stages, floor: floor}
}

// NewDefaultChain builds exact, case-insensitive, alias, fuzzy and partial stages.
func NewDefaultChain(opts Options) *Chain {
	return NewChain(opts.MinConfidence,
		exactStage{},
		foldStage{},
		aliasStage{table: opts.Aliases},
		fuzzyStage{threshold: opts.FuzzyThreshold},
		partialStage{ratio: opts.PartialRatio},
	)
}

func (c *Chain) Run(raw string, pool []*graph.Symbol, baseOnly bool) ([]Candidate, []StageResult) {
	var trace []StageResult
	for _, s := range c.stages {
		var kept []Candidate
		for _, cand := range s.Match(raw, pool, baseOnly) {
			if cand.Confidence >= c.floor {
				kept = append(kept, cand)
			}
		}
		trace = append(trace, StageResult{Strategy: s.Strategy(), Matched: len(kept)})
		if len(kept) > 0 {
			return kept, trace
		}
	}
	return nil, trace
}

type exactStage struct{}

func (exactStage) Strategy() Strategy { return StrategyExact }

func (exactStage) Match(raw string, pool []*graph.Symbol, baseOnly bool) []Candidate {
	return matchEach(pool, func(s *graph.Symbol) (float64, bool) {
		if raw == s.BaseName || (!baseOnly && raw == s.Name) {
			return exactConfidence, true
		}
		return 0, false
	}, StrategyExact)
}

type foldStage struct{}

func (foldStage) Strategy() Strategy { return StrategyCaseInsensitive }

func (foldStage) Match(raw string, pool []*graph.Symbol, baseOnly bool) []Candidate {
	return matchEach(pool, func(s *graph.Symbol) (float64, bool) {
		if strings.EqualFold(raw, s.BaseName) || (!baseOnly && strings.EqualFold(raw, s.Name)) {
			return foldConfidence, true
		}
		return 0, false
	}, StrategyCaseInsensitive)
}

type aliasStage struct {
	table *AliasTable
}

func (aliasStage) Strategy() Strategy { return StrategyAlias }

func (a aliasStage) Match(raw string, pool []*graph.Symbol, baseOnly bool) []Candidate {
	targets := a.table.Targets(raw)
	if len(targets) == 0 {
		return nil
	}
	return matchEach(pool, func(s *graph.Symbol) (float64, bool) {
		if contains(targets, s.BaseName) || (!baseOnly && contains(targets, s.Name)) {
			return aliasConfidence, true
		}
		return 0, false
	}, StrategyAlias)
}

type fuzzyStage struct {
	threshold float64
}

func (fuzzyStage) Strategy() Strategy { return StrategyFuzzy }

func (f fuzzyStage) Match(raw string, pool []*graph.Symbol, baseOnly bool) []Candidate {
	lower := strings.ToLower(raw)
	qualified := !baseOnly && graph.HasQualifier(raw)
	return matchEach(pool, func(s *graph.Symbol) (float64, bool) {
		name, ok := comparableName(s, qualified)
		if !ok {
			return 0, false
		}
		sim := Similarity(lower, strings.ToLower(name))
		if sim < f.threshold {
			return 0, false
		}
		if sim > fuzzyCap {
			sim = fuzzyCap
		}
		return sim, true
	}, StrategyFuzzy)
}

// partialStage relates names where one contains the other or their word
// tokens share a prefix, provided the shorter is at least ratio of the longer.
type partialStage struct {
	ratio float64
}

func (partialStage) Strategy() Strategy { return StrategyPartial }

func (p partialStage) Match(raw string, pool []*graph.Symbol, baseOnly bool) []Candidate {
	lower := strings.ToLower(raw)
	qualified := !baseOnly && graph.HasQualifier(raw)
	return matchEach(pool, func(s *graph.Symbol) (float64, bool) {
		name, ok := comparableName(s, qualified)
		if !ok {
			return 0, false
		}
		return partialScore(lower, strings.ToLower(name), p.ratio)
	}, StrategyPartial)
}

// comparableName picks the symbol name to score a raw name against. A
// qualified raw name is only compared with qualified names; unqualified
// symbols are left to the base-name fallback.
func comparableName(s *graph.Symbol, qualified bool) (string, bool) {
	if !qualified {
		return s.BaseName, true
	}
	if !graph.HasQualifier(s.Name) {
		return "", false
	}
	return s.Name, true
}

func matchEach(pool []*graph.Symbol, score func(*graph.Symbol) (float64, bool), strategy Strategy) []Candidate {
	var out []Candidate
	for _, s := range pool {
		if s == nil {
			continue
		}
		if conf, ok := score(s); ok {
			out = append(out, Candidate{Symbol: s, Confidence: conf, Strategy: strategy})
		}
	}
	return out
}
