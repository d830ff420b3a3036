package verifier

import (
	"errors"
	"fmt"

	"callproof/internal/claim"
	"callproof/internal/graph"
	"callproof/internal/resolver"
)

// ErrNilGraph is returned when verification is attempted without a graph.
var ErrNilGraph = errors.New("verifier: nil graph")

// DefaultPathEvidenceHops bounds the indirect-path search recorded for
// hallucinated calls.
const DefaultPathEvidenceHops = 4

// Verifier classifies claims against a call graph. It is stateless and safe
// for concurrent use.
type Verifier struct {
	resolver *resolver.Resolver
	pathHops int
}

func New(r *resolver.Resolver, pathHops int) *Verifier {
	if r == nil {
		r = resolver.New(resolver.DefaultOptions())
	}
	if pathHops <= 0 {
		pathHops = DefaultPathEvidenceHops
	}
	return &Verifier{resolver: r, pathHops: pathHops}
}

var defaultVerifier = New(nil, 0)

// Verify classifies c against g with default options.
func Verify(c claim.Claim, g graph.Querier) (Result, error) {
	return defaultVerifier.Verify(c, g)
}

// Verify classifies a single claim. Resolutions are memoized only for the
// duration of this call.
func (v *Verifier) Verify(c claim.Claim, g graph.Querier) (Result, error) {
	if g == nil {
		return Result{Index: -1, Claim: c}, ErrNilGraph
	}
	return v.verify(c, g, resolver.NewCache(v.resolver, g.Symbols()))
}

func (v *Verifier) verify(c claim.Claim, g graph.Querier, cache *resolver.Cache) (Result, error) {
	res := Result{Index: -1, Claim: c}
	if g == nil {
		return res, ErrNilGraph
	}
	if err := c.Validate(); err != nil {
		res.Error = err.Error()
		return res, err
	}

	if c.Kind != claim.KindCall {
		res.Verdict = Unverifiable
		res.Reason = fmt.Sprintf("%s claims are not checked against the call graph", c.Kind)
		return res, nil
	}
	if g.IsEmpty() {
		res.Verdict = Unverifiable
		res.Reason = "call graph has no symbols"
		return res, nil
	}

	if c.IsPath() {
		return v.verifyPath(c, g, cache), nil
	}

	h := v.verifyHop(c.Subject, c.Object, g, cache)
	res.Verdict = h.verdict
	res.Confidence = h.confidence
	res.Reason = h.reason
	res.Trace = Trace{
		Subject:      h.subject,
		Object:       h.object,
		Pairing:      h.pairing,
		Ambiguous:    h.ambiguous,
		PairsTried:   h.pairsTried,
		IndirectPath: h.indirect,
	}
	if h.verdict == Valid {
		res.MatchedEdges = []graph.EdgeKey{*h.pairing}
	}
	return res, nil
}

type hop struct {
	verdict    Verdict
	confidence float64
	reason     string
	subject    resolver.Resolution
	object     resolver.Resolution
	pairing    *graph.EdgeKey
	ambiguous  bool
	pairsTried int
	indirect   []string
}

// verifyHop decides one (caller, callee) assertion. Every pairing of tied
// top candidates is tried; any edge is enough for VALID.
func (v *Verifier) verifyHop(caller, callee string, g graph.Querier, cache *resolver.Cache) hop {
	h := hop{
		subject: cache.Resolve(caller),
		object:  cache.Resolve(callee),
	}

	switch {
	case h.subject.Empty() && h.object.Empty():
		h.verdict = Unverifiable
		h.reason = fmt.Sprintf("no symbol matches %q or %q", caller, callee)
		return h
	case h.subject.Empty():
		h.verdict = Unverifiable
		h.reason = fmt.Sprintf("no symbol matches %q", caller)
		return h
	case h.object.Empty():
		h.verdict = Unverifiable
		h.reason = fmt.Sprintf("no symbol matches %q", callee)
		return h
	}

	froms, tos := h.subject.Top(), h.object.Top()
	h.ambiguous = len(froms) > 1 || len(tos) > 1
	h.confidence = min(froms[0].Confidence, tos[0].Confidence)
	accept := v.resolver.Options().AcceptThreshold

	for _, from := range froms {
		for _, to := range tos {
			h.pairsTried++
			if !g.HasEdge(from.Symbol.ID, to.Symbol.ID) {
				continue
			}
			h.pairing = &graph.EdgeKey{From: from.Symbol.ID, To: to.Symbol.ID}
			if h.confidence < accept {
				h.verdict = Unverifiable
				h.reason = fmt.Sprintf("%s calls %s, but resolution confidence %.2f is below %.2f",
					from.Symbol.Name, to.Symbol.Name, h.confidence, accept)
				return h
			}
			h.verdict = Valid
			h.reason = fmt.Sprintf("%s calls %s", from.Symbol.Name, to.Symbol.Name)
			if h.ambiguous {
				h.reason += fmt.Sprintf(" (1 of %d candidate pairings)", len(froms)*len(tos))
			}
			return h
		}
	}

	if h.confidence < accept {
		h.verdict = Unverifiable
		h.reason = fmt.Sprintf("resolution confidence %.2f is below %.2f", h.confidence, accept)
		return h
	}

	h.verdict = Hallucination
	h.reason = fmt.Sprintf("%s does not call %s", froms[0].Symbol.Name, tos[0].Symbol.Name)
	if h.ambiguous {
		h.reason = fmt.Sprintf("none of %d candidate pairings for %q -> %q is a call", h.pairsTried, caller, callee)
	}
	for _, from := range froms {
		for _, to := range tos {
			if path := g.FindPath(from.Symbol.ID, to.Symbol.ID, v.pathHops); path != nil {
				h.indirect = path
				h.reason += fmt.Sprintf(" directly; reachable in %d calls", len(path)-1)
				return h
			}
		}
	}
	return h
}

// verifyPath checks every hop of a multi-hop claim.
func (v *Verifier) verifyPath(c claim.Claim, g graph.Querier, cache *resolver.Cache) Result {
	res := Result{Index: -1, Claim: c}
	res.Trace.Subject = cache.Resolve(c.Subject)
	res.Trace.Object = cache.Resolve(c.Object)

	var valid, hallucinated int
	res.Confidence = 1
	resolved := false
	for _, pair := range c.Hops() {
		h := v.verifyHop(pair[0], pair[1], g, cache)
		res.Trace.Hops = append(res.Trace.Hops, HopResult{
			Caller:     pair[0],
			Callee:     pair[1],
			Verdict:    h.verdict,
			Confidence: h.confidence,
			Pairing:    h.pairing,
			Reason:     h.reason,
		})
		res.Trace.PairsTried += h.pairsTried
		res.Trace.Ambiguous = res.Trace.Ambiguous || h.ambiguous
		if !h.subject.Empty() && !h.object.Empty() {
			resolved = true
			res.Confidence = min(res.Confidence, h.confidence)
		}
		switch h.verdict {
		case Valid:
			valid++
			res.MatchedEdges = append(res.MatchedEdges, *h.pairing)
		case Hallucination:
			hallucinated++
		}
	}
	if !resolved {
		res.Confidence = 0
	}

	total := len(res.Trace.Hops)
	switch {
	case valid == total:
		res.Verdict = Valid
		res.Reason = fmt.Sprintf("all %d calls in the path exist", total)
	case valid > 0:
		res.Verdict = PartiallyValid
		res.Reason = fmt.Sprintf("%d of %d calls in the path exist", valid, total)
	case hallucinated > 0:
		res.Verdict = Hallucination
		res.Reason = fmt.Sprintf("%d of %d calls in the path do not exist", hallucinated, total)
	default:
		res.Verdict = Unverifiable
		res.Reason = "no call in the path could be verified"
	}
	return res
}
