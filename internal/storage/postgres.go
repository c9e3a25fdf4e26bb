package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

var (
	resultWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kb_result_writes_total",
		Help: "Total number of inference result writes",
	}, []string{"status"})

	resultWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kb_result_write_duration_seconds",
		Help:    "Duration of inference result writes",
		Buckets: prometheus.DefBuckets,
	})
)

const resultsSchema = `
CREATE TABLE IF NOT EXISTS inference_results (
	id            TEXT PRIMARY KEY,
	symbol        TEXT NOT NULL,
	action        TEXT NOT NULL,
	conflict      BOOLEAN NOT NULL,
	truncated     BOOLEAN NOT NULL,
	fired_rules   JSONB NOT NULL,
	chain         JSONB NOT NULL,
	truth         JSONB NOT NULL,
	derived_facts JSONB NOT NULL,
	evaluated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inference_results_symbol_time
	ON inference_results (symbol, evaluated_at DESC);
`

// PostgresResultStorage persists inference results in Postgres
type PostgresResultStorage struct {
	db *sql.DB
}

// NewPostgresResultStorage connects to Postgres, ensures the results
// schema exists and returns a ready storage
func NewPostgresResultStorage(connStr string) (*PostgresResultStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure results schema: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to Postgres result storage")

	return &PostgresResultStorage{db: db}, nil
}

// SaveResult persists a single inference result
func (s *PostgresResultStorage) SaveResult(ctx context.Context, symbol string, result *models.InferenceResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}

	start := time.Now()

	firedRules, err := json.Marshal(result.FiredRules)
	if err != nil {
		return fmt.Errorf("failed to marshal fired rules: %w", err)
	}
	chain, err := json.Marshal(result.Chain)
	if err != nil {
		return fmt.Errorf("failed to marshal chain: %w", err)
	}
	truth, err := json.Marshal(result.Truth)
	if err != nil {
		return fmt.Errorf("failed to marshal truth assignment: %w", err)
	}
	derived, err := json.Marshal(result.DerivedFacts)
	if err != nil {
		return fmt.Errorf("failed to marshal derived facts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inference_results
			(id, symbol, action, conflict, truncated, fired_rules, chain, truth, derived_facts, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.ID, symbol, string(result.Action), result.Conflict, result.Truncated,
		firedRules, chain, truth, derived, result.EvaluatedAt,
	)

	resultWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		resultWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to insert result %s: %w", result.ID, err)
	}
	resultWrites.WithLabelValues("success").Inc()

	return nil
}

// GetResult retrieves a result by its ID
func (s *PostgresResultStorage) GetResult(ctx context.Context, id string) (*models.InferenceResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, action, conflict, truncated, fired_rules, chain, truth, derived_facts, evaluated_at
		FROM inference_results
		WHERE id = $1`, id)

	result, err := scanResult(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("result not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get result %s: %w", id, err)
	}
	return result, nil
}

// GetRecentResults retrieves the most recent results for a symbol,
// newest first
func (s *PostgresResultStorage) GetRecentResults(ctx context.Context, symbol string, limit int) ([]*models.InferenceResult, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, conflict, truncated, fired_rules, chain, truth, derived_facts, evaluated_at
		FROM inference_results
		WHERE symbol = $1
		ORDER BY evaluated_at DESC
		LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for %s: %w", symbol, err)
	}
	defer rows.Close()

	var results []*models.InferenceResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return results, nil
}

// Close closes the database connection
func (s *PostgresResultStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (*models.InferenceResult, error) {
	var (
		result     models.InferenceResult
		action     string
		firedRules []byte
		chain      []byte
		truth      []byte
		derived    []byte
	)

	err := row.Scan(&result.ID, &action, &result.Conflict, &result.Truncated,
		&firedRules, &chain, &truth, &derived, &result.EvaluatedAt)
	if err != nil {
		return nil, err
	}

	result.Action = models.Action(action)
	if err := json.Unmarshal(firedRules, &result.FiredRules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fired rules: %w", err)
	}
	if err := json.Unmarshal(chain, &result.Chain); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chain: %w", err)
	}
	if err := json.Unmarshal(truth, &result.Truth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal truth assignment: %w", err)
	}
	if err := json.Unmarshal(derived, &result.DerivedFacts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal derived facts: %w", err)
	}

	return &result, nil
}
