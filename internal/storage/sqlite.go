package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"callproof/internal/graph"

	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database, creating its directory
// if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			id TEXT PRIMARY KEY,
			name TEXT,
			base_name TEXT,
			scope TEXT,
			kind TEXT,
			language TEXT,
			filepath TEXT,
			start_line INTEGER,
			end_line INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			from_id TEXT,
			to_id TEXT,
			kind TEXT,
			filepath TEXT,
			line INTEGER,
			PRIMARY KEY (from_id, to_id)
		);`,
		`CREATE TABLE IF NOT EXISTS unresolved (
			from_id TEXT,
			target TEXT,
			kind TEXT,
			reason TEXT,
			filepath TEXT,
			line INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP,
			finished_at TIMESTAMP,
			source TEXT,
			claims_file TEXT,
			claims INTEGER,
			precision REAL,
			recall REAL,
			hallucination_rate REAL,
			snapshot JSON
		);`,
		`CREATE TABLE IF NOT EXISTS verdicts (
			run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
			idx INTEGER,
			claim TEXT,
			verdict TEXT,
			confidence REAL,
			reason TEXT,
			error TEXT,
			trace JSON,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(filepath);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- GraphStore Implementation ---

// SaveGraph has snapshot semantics: symbols, edges and unresolved calls not
// in g are removed.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"symbols", "edges", "unresolved"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// 1. Save Symbols
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (id, name, base_name, scope, kind, language, filepath, start_line, end_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sym := range g.Symbols() {
		if _, err := stmt.ExecContext(ctx, sym.ID, sym.Name, sym.BaseName, sym.Scope, sym.Kind, sym.Language, sym.Filepath, sym.StartLine, sym.EndLine); err != nil {
			return fmt.Errorf("failed to save symbol %s: %w", sym.ID, err)
		}
	}

	// 2. Save Edges
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (from_id, to_id, kind, filepath, line) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(from_id, to_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for _, edge := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, edge.From, edge.To, edge.Kind, edge.Evidence.Filepath, edge.Evidence.StartLine); err != nil {
			return fmt.Errorf("failed to save edge %s -> %s: %w", edge.From, edge.To, err)
		}
	}

	// 3. Save Unresolved calls
	unresolvedStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unresolved (from_id, target, kind, reason, filepath, line) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer unresolvedStmt.Close()

	for _, u := range g.Unresolved {
		if _, err := unresolvedStmt.ExecContext(ctx, u.From, u.Target, u.Kind, u.Reason, u.Evidence.Filepath, u.Evidence.StartLine); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.NewGraph()

	// 1. Load Symbols
	syms, err := s.querySymbols(ctx, "SELECT id, name, base_name, scope, kind, language, filepath, start_line, end_line FROM symbols")
	if err != nil {
		return nil, err
	}
	for _, sym := range syms {
		g.Nodes[sym.ID] = sym
	}

	// 2. Load Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_id, to_id, kind, filepath, line FROM edges ORDER BY from_id, to_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var edge graph.Edge
		if err := edgeRows.Scan(&edge.From, &edge.To, &edge.Kind, &edge.Evidence.Filepath, &edge.Evidence.StartLine); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge.Evidence.EndLine = edge.Evidence.StartLine
		g.Edges = append(g.Edges, edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	// 3. Load Unresolved calls
	uRows, err := s.db.QueryContext(ctx, "SELECT from_id, target, kind, reason, filepath, line FROM unresolved")
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved calls: %w", err)
	}
	defer uRows.Close()

	for uRows.Next() {
		var u graph.UnresolvedRelation
		if err := uRows.Scan(&u.From, &u.Target, &u.Kind, &u.Reason, &u.Evidence.Filepath, &u.Evidence.StartLine); err != nil {
			return nil, fmt.Errorf("failed to scan unresolved call: %w", err)
		}
		u.Evidence.EndLine = u.Evidence.StartLine
		g.Unresolved = append(g.Unresolved, u)
	}
	if err := uRows.Err(); err != nil {
		return nil, err
	}

	// Rebuild name index and adjacency for lookups
	g.RebuildIndices()

	return g, nil
}

func (s *SQLiteStore) FindSymbolsByFile(ctx context.Context, filepath string) ([]*graph.Symbol, error) {
	return s.querySymbols(ctx, "SELECT id, name, base_name, scope, kind, language, filepath, start_line, end_line FROM symbols WHERE filepath = ? ORDER BY start_line", filepath)
}

func (s *SQLiteStore) querySymbols(ctx context.Context, query string, args ...any) ([]*graph.Symbol, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var out []*graph.Symbol
	for rows.Next() {
		var sym graph.Symbol
		if err := rows.Scan(&sym.ID, &sym.Name, &sym.BaseName, &sym.Scope, &sym.Kind, &sym.Language, &sym.Filepath, &sym.StartLine, &sym.EndLine); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		out = append(out, &sym)
	}
	return out, rows.Err()
}

// --- RunStore Implementation ---

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	snapshot, err := json.Marshal(run.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, source, claims_file, claims, precision, recall, hallucination_rate, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at=excluded.started_at,
			finished_at=excluded.finished_at,
			source=excluded.source,
			claims_file=excluded.claims_file,
			claims=excluded.claims,
			precision=excluded.precision,
			recall=excluded.recall,
			hallucination_rate=excluded.hallucination_rate,
			snapshot=excluded.snapshot
	`, run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Source, run.ClaimsFile, run.Snapshot.Claims,
		run.Snapshot.Precision, run.Snapshot.Recall, run.Snapshot.HallucinationRate, snapshot)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM verdicts WHERE run_id = ?", run.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verdicts (run_id, idx, claim, verdict, confidence, reason, error, trace)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range run.Results {
		trace, err := json.Marshal(r.Trace)
		if err != nil {
			return fmt.Errorf("failed to encode trace for claim %d: %w", r.Index, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, r.Index, r.Claim.String(), string(r.Verdict), r.Confidence, r.Reason, r.Error, trace); err != nil {
			return fmt.Errorf("failed to save verdict %d: %w", r.Index, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first. limit <= 0 means all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, source, claims_file, claims, precision, recall, hallucination_rate
		FROM runs ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Source, &r.ClaimsFile, &r.Claims, &r.Precision, &r.Recall, &r.HallucinationRate); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LoadVerdicts(ctx context.Context, runID string) ([]VerdictRow, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM runs WHERE id = ?", runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, claim, verdict, confidence, reason, error
		FROM verdicts WHERE run_id = ? ORDER BY idx
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var out []VerdictRow
	for rows.Next() {
		var v VerdictRow
		if err := rows.Scan(&v.RunID, &v.Index, &v.Claim, &v.Verdict, &v.Confidence, &v.Reason, &v.Error); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
