package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/types"
)

// Weight bounds for learned category preferences. A user can at most
// double a category's pull or halve it; the neutral weight is 1.0.
const (
	minCategoryWeight     = 0.5
	maxCategoryWeight     = 2.0
	neutralCategoryWeight = 1.0
)

// PostgresStore implements ActionStore, PreferenceStore and
// HistoryStore on a single Postgres database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database and verifies connectivity.
func NewPostgresStore(cfg *config.PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Initialize creates the schema if it does not exist.
func (ps *PostgresStore) Initialize(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			steps TEXT[] NOT NULL,
			duration_seconds INTEGER NOT NULL,
			category TEXT NOT NULL,
			tags TEXT[] NOT NULL DEFAULT '{}',
			why TEXT NOT NULL DEFAULT '',
			energy TEXT NOT NULL DEFAULT '',
			embedding FLOAT8[],
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_category_weights (
			user_id TEXT NOT NULL,
			category TEXT NOT NULL,
			weight FLOAT8 NOT NULL DEFAULT 1.0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, category)
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			action_id TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_user_time ON executions (user_id, executed_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := ps.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logging.Info("Postgres schema initialized")
	return nil
}

// GetActionsByIDs fetches actions by ID, preserving the input order.
// Unknown IDs are dropped without error.
func (ps *PostgresStore) GetActionsByIDs(ctx context.Context, ids []string) ([]types.Action, error) {
	if len(ids) == 0 {
		return []types.Action{}, nil
	}

	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, title, steps, duration_seconds, category, tags, why, energy, embedding
		FROM actions
		WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]types.Action, len(ids))
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		byID[action.ID] = action
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}

	actions := make([]types.Action, 0, len(ids))
	for _, id := range ids {
		if action, ok := byID[id]; ok {
			actions = append(actions, action)
		}
	}
	return actions, nil
}

// GetAllActionsWithEmbeddings returns every action holding an
// embedding, ordered by ID for deterministic fallback scans.
func (ps *PostgresStore) GetAllActionsWithEmbeddings(ctx context.Context) ([]types.Action, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, title, steps, duration_seconds, category, tags, why, energy, embedding
		FROM actions
		WHERE embedding IS NOT NULL
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var actions []types.Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}
	return actions, nil
}

// InsertAction adds a catalog action. The embedding may be nil and set
// later through SetActionEmbedding.
func (ps *PostgresStore) InsertAction(ctx context.Context, action *types.Action) error {
	if err := action.Validate(); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	var embedding interface{}
	if len(action.Embedding) > 0 {
		embedding = pq.Float64Array(action.Embedding)
	}

	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO actions (id, title, steps, duration_seconds, category, tags, why, energy, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			steps = EXCLUDED.steps,
			duration_seconds = EXCLUDED.duration_seconds,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			why = EXCLUDED.why,
			energy = EXCLUDED.energy,
			embedding = COALESCE(EXCLUDED.embedding, actions.embedding)`,
		action.ID, action.Title, pq.Array(action.Steps), action.DurationSeconds,
		action.Category, pq.Array(action.Tags), action.Why, string(action.Energy), embedding)
	if err != nil {
		return fmt.Errorf("failed to insert action %s: %w", action.ID, err)
	}
	return nil
}

// SetActionEmbedding stores an action's embedding.
func (ps *PostgresStore) SetActionEmbedding(ctx context.Context, actionID string, embedding []float64) error {
	if len(embedding) == 0 {
		return fmt.Errorf("embedding cannot be empty")
	}

	result, err := ps.db.ExecContext(ctx,
		`UPDATE actions SET embedding = $1 WHERE id = $2`,
		pq.Float64Array(embedding), actionID)
	if err != nil {
		return fmt.Errorf("failed to set embedding for %s: %w", actionID, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("action %s not found", actionID)
	}
	return nil
}

// GetCategoryWeights returns the user's learned category weights.
// Users and categories without a row read as neutral via the caller.
func (ps *PostgresStore) GetCategoryWeights(ctx context.Context, userID string) (map[string]float64, error) {
	rows, err := ps.db.QueryContext(ctx,
		`SELECT category, weight FROM user_category_weights WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category weights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	weights := make(map[string]float64)
	for rows.Next() {
		var category string
		var weight float64
		if err := rows.Scan(&category, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan weight row: %w", err)
		}
		weights[category] = clampWeight(weight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate weights: %w", err)
	}
	return weights, nil
}

// UpsertCategoryWeight applies delta to the user's weight for a
// category, clamping into [0.5, 2.0], and returns the new weight.
func (ps *PostgresStore) UpsertCategoryWeight(ctx context.Context, userID, category string, delta float64) (float64, error) {
	var weight float64
	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO user_category_weights (user_id, category, weight, updated_at)
		VALUES ($1, $2, LEAST($4, GREATEST($5, $6 + $3)), NOW())
		ON CONFLICT (user_id, category) DO UPDATE SET
			weight = LEAST($4, GREATEST($5, user_category_weights.weight + $3)),
			updated_at = NOW()
		RETURNING weight`,
		userID, category, delta, maxCategoryWeight, minCategoryWeight, neutralCategoryWeight).Scan(&weight)
	if err != nil {
		return 0, fmt.Errorf("failed to update category weight: %w", err)
	}
	return weight, nil
}

// GetRecentActionCounts counts each action's occurrences among the
// user's last window executions.
func (ps *PostgresStore) GetRecentActionCounts(ctx context.Context, userID string, window int) (map[string]int, error) {
	if window <= 0 {
		return map[string]int{}, nil
	}

	rows, err := ps.db.QueryContext(ctx, `
		SELECT action_id FROM executions
		WHERE user_id = $1
		ORDER BY executed_at DESC
		LIMIT $2`,
		userID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var actionID string
		if err := rows.Scan(&actionID); err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}
		counts[actionID]++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate executions: %w", err)
	}
	return counts, nil
}

// RecordExecution appends an execution record.
func (ps *PostgresStore) RecordExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if record.UserID == "" || record.ActionID == "" {
		return fmt.Errorf("execution record requires user_id and action_id")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.ExecutedAt.IsZero() {
		record.ExecutedAt = time.Now().UTC()
	}

	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO executions (id, user_id, action_id, completed, executed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.UserID, record.ActionID, record.Completed, record.ExecutedAt)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (ps *PostgresStore) HealthCheck(ctx context.Context) error {
	if err := ps.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func clampWeight(w float64) float64 {
	if w < minCategoryWeight {
		return minCategoryWeight
	}
	if w > maxCategoryWeight {
		return maxCategoryWeight
	}
	return w
}

func scanAction(rows *sql.Rows) (types.Action, error) {
	var action types.Action
	var steps, tags pq.StringArray
	var embedding pq.Float64Array
	var energy string

	if err := rows.Scan(&action.ID, &action.Title, &steps, &action.DurationSeconds,
		&action.Category, &tags, &action.Why, &energy, &embedding); err != nil {
		return types.Action{}, fmt.Errorf("failed to scan action row: %w", err)
	}

	action.Steps = []string(steps)
	action.Tags = []string(tags)
	action.Energy = types.EnergyLevel(energy)
	action.Embedding = []float64(embedding)
	return action, nil
}
