// Package metrics reduces a batch of verdicts to precision/recall style
// statistics against the ground-truth call edges.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"callproof/internal/claim"
	"callproof/internal/graph"
	"callproof/internal/verifier"
)

// Snapshot is the summary of one verification batch. Rates are percentages
// on a 0-100 scale and are not rounded.
type Snapshot struct {
	Claims         int `json:"claims"`
	Valid          int `json:"valid"`
	PartiallyValid int `json:"partially_valid"`
	Hallucination  int `json:"hallucination"`
	Unverifiable   int `json:"unverifiable"`
	Errors         int `json:"errors"`

	GroundTruthEdges int `json:"ground_truth_edges"`
	TruePositives    int `json:"true_positives"`
	FalsePositives   int `json:"false_positives"`
	FalseNegatives   int `json:"false_negatives"`

	Precision         float64 `json:"precision"`
	Recall            float64 `json:"recall"`
	F1                float64 `json:"f1"`
	HallucinationRate float64 `json:"hallucination_rate"`
	Coverage          float64 `json:"coverage"`
	// ValidityRate is the share of verified claims that are VALID.
	ValidityRate float64 `json:"validity_rate"`

	ByKind     map[claim.Kind]Breakdown `json:"by_kind,omitempty"`
	ByStep     map[int]Breakdown        `json:"by_step,omitempty"`
	Confidence Distribution             `json:"confidence"`
}

// Breakdown counts verdicts for one slice of the batch.
type Breakdown struct {
	Total             int     `json:"total"`
	Valid             int     `json:"valid"`
	PartiallyValid    int     `json:"partially_valid"`
	Hallucination     int     `json:"hallucination"`
	Unverifiable      int     `json:"unverifiable"`
	ValidityRate      float64 `json:"validity_rate"`
	HallucinationRate float64 `json:"hallucination_rate"`
}

// Distribution describes the verdict confidences of a batch.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Low    int     `json:"low"`    // < 0.3
	Medium int     `json:"medium"` // [0.3, 0.7)
	High   int     `json:"high"`   // >= 0.7
}

// Summarize reduces results against the ground-truth edge set. A ground-truth
// edge counts as a true positive once, however many VALID results match it.
// PARTIALLY_VALID results contribute neither true nor false positives. The
// order of results does not affect the snapshot.
//
// True positives are counted per edge and false positives per claim: a VALID
// path claim contributes every distinct edge along it, while a hallucinated
// path claim is one false positive whatever its hop count. Precision over
// multi-hop paths therefore favours correct paths.
func Summarize(groundTruth []graph.EdgeKey, results []verifier.Result) Snapshot {
	truth := make(map[graph.EdgeKey]struct{}, len(groundTruth))
	for _, e := range groundTruth {
		truth[e] = struct{}{}
	}

	s := Snapshot{
		Claims:           len(results),
		GroundTruthEdges: len(truth),
		ByKind:           make(map[claim.Kind]Breakdown),
		ByStep:           make(map[int]Breakdown),
	}

	matched := make(map[graph.EdgeKey]struct{})
	var confidences []float64
	for _, r := range results {
		if r.Verdict == "" {
			s.Errors++
			continue
		}
		switch r.Verdict {
		case verifier.Valid:
			s.Valid++
			for _, e := range r.MatchedEdges {
				if _, ok := truth[e]; ok {
					matched[e] = struct{}{}
				}
			}
		case verifier.PartiallyValid:
			s.PartiallyValid++
		case verifier.Hallucination:
			s.Hallucination++
		case verifier.Unverifiable:
			s.Unverifiable++
		}
		s.ByKind[r.Claim.Kind] = s.ByKind[r.Claim.Kind].add(r.Verdict)
		s.ByStep[r.Claim.Step] = s.ByStep[r.Claim.Step].add(r.Verdict)
		confidences = append(confidences, r.Confidence)
	}

	s.TruePositives = len(matched)
	s.FalsePositives = s.Hallucination
	s.FalseNegatives = s.GroundTruthEdges - s.TruePositives

	s.Precision = percent(s.TruePositives, s.TruePositives+s.FalsePositives)
	s.Recall = percent(s.TruePositives, s.TruePositives+s.FalseNegatives)
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	s.HallucinationRate = percent(s.FalsePositives, s.TruePositives+s.FalsePositives)
	s.Coverage = percent(s.TruePositives, s.GroundTruthEdges)
	s.ValidityRate = percent(s.Valid, s.Claims-s.Errors)

	for k, b := range s.ByKind {
		s.ByKind[k] = b.withRates()
	}
	for k, b := range s.ByStep {
		s.ByStep[k] = b.withRates()
	}
	s.Confidence = distribution(confidences)
	return s
}

func (b Breakdown) add(v verifier.Verdict) Breakdown {
	b.Total++
	switch v {
	case verifier.Valid:
		b.Valid++
	case verifier.PartiallyValid:
		b.PartiallyValid++
	case verifier.Hallucination:
		b.Hallucination++
	case verifier.Unverifiable:
		b.Unverifiable++
	}
	return b
}

func (b Breakdown) withRates() Breakdown {
	b.ValidityRate = percent(b.Valid, b.Total)
	b.HallucinationRate = percent(b.Hallucination, b.Total)
	return b
}

// distribution sorts a copy first so that floating-point sums do not depend
// on input order.
func distribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	d := Distribution{Count: len(sorted)}
	d.Mean, d.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		d.StdDev = 0
	}
	d.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	for _, v := range sorted {
		switch {
		case v < 0.3:
			d.Low++
		case v < 0.7:
			d.Medium++
		default:
			d.High++
		}
	}
	return d
}

func percent(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return 100 * float64(num) / float64(den)
}
