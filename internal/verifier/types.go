package verifier

import (
	"callproof/internal/claim"
	"callproof/internal/graph"
	"callproof/internal/resolver"
)

type Verdict string

const (
	Valid          Verdict = "VALID"
	Hallucination  Verdict = "HALLUCINATION"
	Unverifiable   Verdict = "UNVERIFIABLE"
	PartiallyValid Verdict = "PARTIALLY_VALID"
)

// Verdicts lists every verdict in report order.
var Verdicts = []Verdict{Valid, PartiallyValid, Hallucination, Unverifiable}

// Trace explains how a verdict was reached.
type Trace struct {
	Subject resolver.Resolution `json:"subject"`
	Object  resolver.Resolution `json:"object"`
	// Pairing is the (caller, callee) symbol pair that decided the verdict.
	Pairing    *graph.EdgeKey `json:"pairing,omitempty"`
	Ambiguous  bool           `json:"ambiguous,omitempty"`
	PairsTried int            `json:"pairs_tried,omitempty"`
	// IndirectPath is a call chain linking the endpoints of a hallucinated
	// direct call. It is informational and never changes the verdict.
	IndirectPath []string    `json:"indirect_path,omitempty"`
	Hops         []HopResult `json:"hops,omitempty"`
}

// HopResult is the outcome of one link of a multi-hop path claim.
type HopResult struct {
	Caller     string         `json:"caller"`
	Callee     string         `json:"callee"`
	Verdict    Verdict        `json:"verdict"`
	Confidence float64        `json:"confidence"`
	Pairing    *graph.EdgeKey `json:"pairing,omitempty"`
	Reason     string         `json:"reason"`
}

// Result is the verdict for one claim.
type Result struct {
	Index   int         `json:"index"`
	Claim   claim.Claim `json:"claim"`
	Verdict Verdict     `json:"verdict,omitempty"`
	// Confidence is the weaker endpoint confidence of the deciding pairing.
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
	Trace      Trace   `json:"trace"`
	// MatchedEdges are the ground-truth edges that verified hops matched.
	MatchedEdges []graph.EdgeKey `json:"matched_edges,omitempty"`
	// Error is set when the claim could not be verified at all.
	Error string `json:"error,omitempty"`
}
