// Package store handles SQLite persistence of crack history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/sentinel/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for crack runs.
type Store struct {
	db *sql.DB
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			family TEXT NOT NULL,
			method TEXT NOT NULL,
			key TEXT NOT NULL,
			ciphertext TEXT NOT NULL,
			plaintext TEXT NOT NULL,
			confidence REAL NOT NULL,
			attempts INTEGER NOT NULL,
			insufficient INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_candidates (
			run_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			key TEXT NOT NULL,
			score REAL NOT NULL,
			confidence REAL NOT NULL,
			plaintext TEXT NOT NULL,
			PRIMARY KEY (run_id, rank)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_family ON runs(family);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a run and its ranked candidates. An empty run ID is
// replaced by a new one; the stored ID is returned.
func (s *Store) InsertRun(ctx context.Context, run model.Run, candidates []model.RunCandidate) (id string, err error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	insufficient := 0
	if run.InsufficientData {
		insufficient = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, family, method, key, ciphertext, plaintext, confidence, attempts, insufficient, seed, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(run.Family),
		string(run.Method),
		run.Key,
		run.Ciphertext,
		run.Plaintext,
		run.Confidence,
		run.Attempts,
		insufficient,
		run.Seed,
		run.DurationMs,
	)
	if err != nil {
		return "", err
	}

	if len(candidates) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_candidates (run_id, rank, key, score, confidence, plaintext)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, c := range candidates {
			rank := c.Rank
			if rank == 0 {
				rank = i + 1
			}
			if _, err = stmt.ExecContext(ctx, run.ID, rank, c.Key, c.Score, c.Confidence, c.Plaintext); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

const runColumns = `id, created_at, family, method, key, ciphertext, plaintext, confidence, attempts, insufficient, seed, duration_ms`

// GetRun loads a run by ID. The boolean is false when no run matches.
func (s *Store) GetRun(ctx context.Context, id string) (model.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return model.Run{}, false, nil
	}
	if err != nil {
		return model.Run{}, false, err
	}
	return run, true, nil
}

// ListRuns returns runs filtered by cfg, oldest first. cfg.Last keeps only the
// most recent runs.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.Run, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Family != "" {
		clauses = append(clauses, "family = ?")
		args = append(args, string(cfg.Family))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT %s FROM runs WHERE %s ORDER BY created_at ASC, id ASC`,
		runColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(runs) > cfg.Last {
		runs = runs[len(runs)-cfg.Last:]
	}
	return runs, nil
}

// ListCandidates returns the stored candidates of a run in rank order.
func (s *Store) ListCandidates(ctx context.Context, runID string) ([]model.RunCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, rank, key, score, confidence, plaintext
		 FROM run_candidates WHERE run_id = ? ORDER BY rank ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RunCandidate
	for rows.Next() {
		var c model.RunCandidate
		if err := rows.Scan(&c.RunID, &c.Rank, &c.Key, &c.Score, &c.Confidence, &c.Plaintext); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MethodAggregates summarizes runs per method for the given run IDs.
func (s *Store) MethodAggregates(ctx context.Context, runIDs []string) ([]model.MethodAggregate, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT method, COUNT(*), SUM(insufficient), SUM(attempts), AVG(confidence)
		FROM runs
		WHERE id IN (%s)
		GROUP BY method
		ORDER BY method`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.MethodAggregate
	for rows.Next() {
		var agg model.MethodAggregate
		var method string
		if err := rows.Scan(&method, &agg.Runs, &agg.Insufficient, &agg.Attempts, &agg.AvgConfidence); err != nil {
			return nil, err
		}
		agg.Method = model.Method(method)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.Run, error) {
	var run model.Run
	var createdAt, family, method string
	var insufficient int
	if err := row.Scan(&run.ID, &createdAt, &family, &method, &run.Key, &run.Ciphertext, &run.Plaintext,
		&run.Confidence, &run.Attempts, &insufficient, &run.Seed, &run.DurationMs); err != nil {
		return model.Run{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Run{}, err
	}
	run.CreatedAt = parsed
	run.Family = model.Family(family)
	run.Method = model.Method(method)
	run.InsufficientData = insufficient != 0
	return run, nil
}
