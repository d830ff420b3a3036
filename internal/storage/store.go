package storage

import (
	"context"
	"time"

	"callproof/internal/graph"
	"callproof/internal/metrics"
	"callproof/internal/verifier"
)

// Store combines graph and verification-run storage.
type Store interface {
	GraphStore
	RunStore
	Close() error
}

// GraphStore defines operations for persisting the ground-truth call graph.
type GraphStore interface {
	// SaveGraph replaces the stored graph with g.
	SaveGraph(ctx context.Context, g *graph.Graph) error

	// LoadGraph returns the stored graph with indices rebuilt.
	LoadGraph(ctx context.Context) (*graph.Graph, error)

	// FindSymbolsByFile retrieves all symbols defined in a specific file.
	FindSymbolsByFile(ctx context.Context, filepath string) ([]*graph.Symbol, error)
}

// RunStore keeps the history of verification runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	LoadVerdicts(ctx context.Context, runID string) ([]VerdictRow, error)
}

// Run is one verification batch as persisted.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string
	ClaimsFile string
	Snapshot   metrics.Snapshot
	Results    []verifier.Result
}

type RunSummary struct {
	ID                string    `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	Source            string    `json:"source"`
	ClaimsFile        string    `json:"claims_file"`
	Claims            int       `json:"claims"`
	Precision         float64   `json:"precision"`
	Recall            float64   `json:"recall"`
	HallucinationRate float64   `json:"hallucination_rate"`
}

type VerdictRow struct {
	RunID      string  `json:"run_id"`
	Index      int     `json:"index"`
	Claim      string  `json:"claim"`
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Error      string  `json:"error,omitempty"`
}
