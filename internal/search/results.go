package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/saaga0h/jeeves-occupancy/internal/light"
	"github.com/saaga0h/jeeves-occupancy/pkg/config"
	"github.com/saaga0h/jeeves-occupancy/pkg/postgres"
)

// ErrNoResults is returned when no search run has been stored
var ErrNoResults = errors.New("no search results")

// Dialect selects placeholder and type syntax for a result database
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// OpenSQLite opens (creating if needed) a SQLite result database
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return db, nil
}

// ResultStore persists search runs and their evaluations
type ResultStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewResultStore creates a result store over an open database
func NewResultStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *ResultStore {
	return &ResultStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With("component", "result_store"),
	}
}

// rebind rewrites ? placeholders to $n for Postgres
func (s *ResultStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save stores a run and all its evaluations in one transaction
func (s *ResultStore) Save(ctx context.Context, r *Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO search_runs (
		run_id, started_at, completed_at, total_combinations, evaluated, skipped,
		best_dbn_prior_weight, best_final_prior_weight, best_final_predicted_weight,
		best_final_posterior_weight, best_threshold, best_cost
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.RunID.String(), r.StartedAt.UTC(), r.CompletedAt.UTC(), r.Total, r.Evaluated, r.Skipped,
		r.Best.DBNPriorWeight, r.Best.FinalPriorWeight, r.Best.FinalPredictedWeight,
		r.Best.FinalPosteriorWeight, r.Best.Threshold, r.BestCost)
	if err != nil {
		return fmt.Errorf("failed to insert search run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO search_evaluations (
		run_id, idx, dbn_prior_weight, final_prior_weight, final_predicted_weight,
		final_posterior_weight, threshold, cost, steps, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare evaluation insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.Evaluations {
		w := e.Weights
		if _, err := stmt.ExecContext(ctx, r.RunID.String(), e.Index,
			w.DBNPriorWeight, w.FinalPriorWeight, w.FinalPredictedWeight, w.FinalPosteriorWeight, w.Threshold,
			e.Cost, e.Steps, e.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("failed to insert evaluation %d: %w", e.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit search run: %w", err)
	}

	s.logger.Info("Stored search run",
		"run_id", r.RunID,
		"evaluations", len(r.Evaluations))
	return nil
}

// StoredBest is the best configuration of a stored run
type StoredBest struct {
	RunID   uuid.UUID
	Weights light.WeightConfiguration
	Cost    float64
}

// LatestBest returns the best configuration of the most recently completed run
func (s *ResultStore) LatestBest(ctx context.Context) (*StoredBest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id,
		best_dbn_prior_weight, best_final_prior_weight, best_final_predicted_weight,
		best_final_posterior_weight, best_threshold, best_cost
		FROM search_runs ORDER BY completed_at DESC LIMIT 1`)

	var (
		id   string
		best StoredBest
	)
	w := &best.Weights
	err := row.Scan(&id, &w.DBNPriorWeight, &w.FinalPriorWeight, &w.FinalPredictedWeight,
		&w.FinalPosteriorWeight, &w.Threshold, &best.Cost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest search run: %w", err)
	}

	best.RunID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	return &best, nil
}

// EvaluationCount returns the number of evaluations stored for a run
func (s *ResultStore) EvaluationCount(ctx context.Context, runID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM search_evaluations WHERE run_id = ?`), runID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return n, nil
}

// OpenResultStore connects to the configured result backend and migrates it.
// The returned function closes the connection.
func OpenResultStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ResultStore, func() error, error) {
	switch cfg.ResultsBackend {
	case "sqlite":
		db, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store := NewResultStore(db, DialectSQLite, logger)
		if err := store.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil

	case "postgres":
		client := postgres.NewClient(cfg, logger)
		if err := client.Connect(ctx); err != nil {
			return nil, nil, err
		}
		if status, err := client.HealthCheck(ctx); err == nil {
			logger.Info("Result database ready",
				"database", status.Database,
				"server_version", status.ServerVersion)
		}
		store := NewResultStore(client.DB(), DialectPostgres, logger)
		if err := store.Migrate(); err != nil {
			client.Disconnect()
			return nil, nil, err
		}
		return store, client.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("unknown results backend %q", cfg.ResultsBackend)
}
