package resolver

import (
	"sort"
	"strings"

	"callproof/internal/graph"
)

// Options holds the resolution thresholds.
type Options struct {
	// MinConfidence is the floor below which a candidate is discarded.
	MinConfidence float64
	// FuzzyThreshold is the minimum edit-distance similarity for a fuzzy match.
	FuzzyThreshold float64
	// PartialRatio is the minimum shorter/longer length ratio for a partial
	// (substring or token-prefix) match.
	PartialRatio float64
	// AcceptThreshold is the weakest endpoint confidence a verifier accepts
	// as evidence for a VALID verdict.
	AcceptThreshold float64
	Aliases         *AliasTable
}

func DefaultOptions() Options {
	return Options{
		MinConfidence:   0.5,
		FuzzyThreshold:  0.7,
		PartialRatio:    0.6,
		AcceptThreshold: 0.5,
		Aliases:         DefaultAliases(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinConfidence <= 0 {
		o.MinConfidence = d.MinConfidence
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = d.FuzzyThreshold
	}
	if o.PartialRatio <= 0 {
		o.PartialRatio = d.PartialRatio
	}
	if o.AcceptThreshold <= 0 {
		o.AcceptThreshold = d.AcceptThreshold
	}
	if o.Aliases == nil {
		o.Aliases = d.Aliases
	}
	return o
}

// Resolver maps model-stated names onto graph symbols. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	opts  Options
	chain *Chain
}

func New(opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{opts: opts, chain: NewDefaultChain(opts)}
}

var defaultResolver = New(DefaultOptions())

// Resolve resolves raw against pool with the default options.
func Resolve(raw string, pool []*graph.Symbol) Resolution {
	return defaultResolver.Resolve(raw, pool)
}

func (r *Resolver) Options() Options { return r.opts }

// Resolve returns the candidates for raw, best first. Only the first stage
// producing a candidate at or above the floor contributes; a qualified raw
// name that matches nothing is retried on its trailing component.
func (r *Resolver) Resolve(raw string, pool []*graph.Symbol) Resolution {
	raw = strings.TrimSpace(raw)
	res := Resolution{Raw: raw}
	if raw == "" || len(pool) == 0 {
		return res
	}

	cands, trace := r.chain.Run(raw, pool, false)
	res.Stages = trace

	if len(cands) == 0 && graph.HasQualifier(raw) {
		cands = r.resolveBaseName(raw, pool)
		res.Stages = append(res.Stages, StageResult{Strategy: StrategyBaseName, Matched: len(cands)})
	}

	sortCandidates(cands)
	res.Candidates = cands
	return res
}

func (r *Resolver) resolveBaseName(raw string, pool []*graph.Symbol) []Candidate {
	qualifier, base := graph.SplitQualified(raw)
	inner, _ := r.chain.Run(base, pool, true)
	if len(inner) == 0 {
		return nil
	}

	var scoped []Candidate
	for i := range inner {
		c := &inner[i]
		c.Via = c.Strategy
		c.Strategy = StrategyBaseName
		if c.Confidence > baseNameCap {
			c.Confidence = baseNameCap
		}
		if scopeMatches(c.Symbol.Scope, qualifier) {
			scoped = append(scoped, *c)
		}
	}
	if len(scoped) > 0 {
		return scoped
	}
	return inner
}

// scopeMatches compares a symbol scope with a stated qualifier, also
// accepting a match on their trailing components ("pkg.Type" vs "Type").
func scopeMatches(scope, qualifier string) bool {
	if scope == "" || qualifier == "" {
		return false
	}
	return strings.EqualFold(scope, qualifier) ||
		strings.EqualFold(graph.BaseName(scope), graph.BaseName(qualifier))
}

// sortCandidates orders by confidence, strategy priority, shorter qualified
// name, then name and ID.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if !sameConfidence(a.Confidence, b.Confidence) {
			return a.Confidence > b.Confidence
		}
		if pa, pb := a.Strategy.Priority(), b.Strategy.Priority(); pa != pb {
			return pa < pb
		}
		if len(a.Symbol.Name) != len(b.Symbol.Name) {
			return len(a.Symbol.Name) < len(b.Symbol.Name)
		}
		if a.Symbol.Name != b.Symbol.Name {
			return a.Symbol.Name < b.Symbol.Name
		}
		return a.Symbol.ID < b.Symbol.ID
	})
}
