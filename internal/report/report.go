// Package report collects one verification run (stages, verdicts, metrics)
// into a document that can be saved as JSON, rendered as text or stored.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"callproof/internal/claim"
	"callproof/internal/metrics"
	"callproof/internal/storage"
	"callproof/internal/verifier"
)

const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

type Assessment string

const (
	AssessmentExcellent Assessment = "excellent"
	AssessmentGood      Assessment = "good"
	AssessmentFair      Assessment = "fair"
	AssessmentPoor      Assessment = "poor"
	AssessmentNone      Assessment = "none"
)

type Signal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type Summary struct {
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

type Report struct {
	Version         string            `json:"version"`
	RunID           string            `json:"run_id"`
	Source          string            `json:"source,omitempty"`
	ClaimsFile      string            `json:"claims_file,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Stages          []StageMetric     `json:"stages"`
	Results         []verifier.Result `json:"results"`
	Metrics         metrics.Snapshot  `json:"metrics"`
	Signals         []Signal          `json:"signals,omitempty"`
	Assessment      Assessment        `json:"assessment"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Summary         Summary           `json:"summary"`

	now func() time.Time
}

type StageHandle struct {
	name    string
	started time.Time
}

// New starts a report for one run with a fresh run ID.
func New(source, claimsFile string) *Report {
	r := &Report{
		Version:    "v1",
		RunID:      uuid.NewString(),
		Source:     source,
		ClaimsFile: claimsFile,
		Stages:     []StageMetric{},
		Results:    []verifier.Result{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	r.StartedAt = r.now()
	return r
}

func (r *Report) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: r.now()}
}

// EndStage records a finished stage. A non-nil err marks it failed.
func (r *Report) EndStage(h StageHandle, counters map[string]float64, err error) {
	if r == nil || h.name == "" {
		return
	}
	finished := r.now()
	m := StageMetric{
		Name:       h.name,
		Status:     "ok",
		StartedAt:  h.started,
		FinishedAt: finished,
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
	}
	if err != nil {
		m.Status = "error"
		m.Error = err.Error()
	}
	r.Stages = append(r.Stages, m)
}

func (r *Report) AddSignal(code, stage, severity, message string, value float64) {
	if r == nil {
		return
	}
	s := Signal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

// SetResults attaches the verdicts and their snapshot and derives signals,
// the assessment and recommendations from them.
func (r *Report) SetResults(results []verifier.Result, snap metrics.Snapshot) {
	r.Results = results
	r.Metrics = snap
	r.evaluate()
}

func (r *Report) evaluate() {
	s := r.Metrics
	switch {
	case s.HallucinationRate > 30:
		r.AddSignal("hallucination_rate_high", "verify", SeverityCritical,
			fmt.Sprintf("%.1f%% of decided call claims name an edge that does not exist", s.HallucinationRate), s.HallucinationRate)
	case s.HallucinationRate > 10:
		r.AddSignal("hallucination_rate_elevated", "verify", SeverityWarning,
			fmt.Sprintf("%.1f%% of decided call claims name an edge that does not exist", s.HallucinationRate), s.HallucinationRate)
	}

	verified := s.Claims - s.Errors
	if share := percent(s.Unverifiable, verified); share > 50 {
		r.AddSignal("unverifiable_share_high", "verify", SeverityWarning,
			fmt.Sprintf("%.1f%% of claims could not be checked against the graph", share), share)
	}
	if s.Errors > 0 {
		r.AddSignal("malformed_claims", "normalize", SeverityWarning,
			fmt.Sprintf("%d claims were rejected as malformed", s.Errors), float64(s.Errors))
	}

	for _, kind := range sortedKinds(s.ByKind) {
		if b := s.ByKind[kind]; b.HallucinationRate > 40 {
			r.AddSignal("kind_hallucination_"+strings.ToLower(string(kind)), "verify", SeverityWarning,
				fmt.Sprintf("%s claims are hallucinated at %.1f%%", kind, b.HallucinationRate), b.HallucinationRate)
		}
	}

	r.Assessment = assess(s)
	r.Recommendations = recommend(s)
}

func assess(s metrics.Snapshot) Assessment {
	if s.Claims-s.Errors == 0 {
		return AssessmentNone
	}
	switch {
	case s.HallucinationRate < 10 && s.ValidityRate > 80:
		return AssessmentExcellent
	case s.HallucinationRate < 20 && s.ValidityRate > 60:
		return AssessmentGood
	case s.HallucinationRate < 30:
		return AssessmentFair
	default:
		return AssessmentPoor
	}
}

func recommend(s metrics.Snapshot) []string {
	if s.Claims-s.Errors == 0 {
		return nil
	}
	var out []string
	switch {
	case s.HallucinationRate > 30:
		out = append(out, "High hallucination rate: do not act on these call claims without review.")
	case s.HallucinationRate > 10:
		out = append(out, "Moderate hallucination rate: check call claims by hand before relying on them.")
	}
	if s.ValidityRate < 50 {
		out = append(out, "Low validity rate: most claims could not be confirmed against the call graph.")
	}
	if s.GroundTruthEdges > 0 && s.Coverage < 50 {
		out = append(out, "Low coverage: the claims describe less than half of the call graph.")
	}
	for _, kind := range sortedKinds(s.ByKind) {
		if s.ByKind[kind].HallucinationRate > 40 {
			out = append(out, fmt.Sprintf("%s claims fail often: verify them individually.", kind))
		}
	}
	if len(out) == 0 {
		out = append(out, "Claims look reliable. Spot-check the ones critical decisions depend on.")
	}
	return out
}

// Finalize sorts signals by severity and fills the summary.
func (r *Report) Finalize() {
	if r == nil {
		return
	}
	r.GeneratedAt = r.now()
	severityCount := map[string]int{
		SeverityCritical: 0,
		SeverityWarning:  0,
		SeverityInfo:     0,
	}
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi := signalPriority(r.Signals[i].Severity)
		pj := signalPriority(r.Signals[j].Severity)
		if pi == pj {
			if r.Signals[i].Stage == r.Signals[j].Stage {
				return r.Signals[i].Code < r.Signals[j].Code
			}
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}
	r.Summary = Summary{
		StageCount:        len(r.Stages),
		FailedStages:      failed,
		SignalsBySeverity: severityCount,
	}
}

// WriteJSON finalizes the report and writes it as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	r.Finalize()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Save writes the JSON report to path, creating parent directories.
func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return r.WriteJSON(f)
}

// Run converts the report to its stored form.
func (r *Report) Run() *storage.Run {
	finished := r.GeneratedAt
	if finished.IsZero() {
		finished = r.now()
	}
	return &storage.Run{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: finished,
		Source:     r.Source,
		ClaimsFile: r.ClaimsFile,
		Snapshot:   r.Metrics,
		Results:    r.Results,
	}
}

func signalPriority(severity string) int {
	switch severity {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

func sortedKinds(m map[claim.Kind]metrics.Breakdown) []claim.Kind {
	kinds := make([]claim.Kind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func cleanCounters(raw map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func percent(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return 100 * float64(num) / float64(den)
}
