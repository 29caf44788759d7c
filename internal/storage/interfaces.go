// Package storage provides the vector index client, the brute-force
// in-memory fallback, and the Postgres-backed catalog, preference and
// history stores.
package storage

import (
	"context"
	"errors"
	"fmt"

	"heartpet-recommender/internal/types"
)

// IndexUnavailableError marks a vector index failure that the caller
// can recover from by falling back to local search. An empty result
// set is not an error and never produces this type.
type IndexUnavailableError struct {
	Op    string
	Cause error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("vector index unavailable during %s: %v", e.Op, e.Cause)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Cause }

// IsIndexUnavailable reports whether err (or anything it wraps) is an
// index availability failure.
func IsIndexUnavailable(err error) bool {
	var unavailable *IndexUnavailableError
	return errors.As(err, &unavailable)
}

// VectorIndex is the approximate nearest-neighbor index over action
// embeddings.
type VectorIndex interface {
	// Initialize connects and ensures the collection exists.
	Initialize(ctx context.Context) error

	// Search returns up to limit hits ordered by similarity. Zero hits
	// with a nil error means the index answered and found nothing.
	// An *IndexUnavailableError means the index could not answer.
	Search(ctx context.Context, vector []float64, limit int) ([]types.SearchHit, error)

	// Upsert writes or replaces an action's vector and payload.
	Upsert(ctx context.Context, action *types.Action) error

	// HealthCheck verifies the index is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// ActionStore provides access to the action catalog.
type ActionStore interface {
	// GetActionsByIDs fetches actions by ID, preserving input order and
	// silently dropping unknown IDs.
	GetActionsByIDs(ctx context.Context, ids []string) ([]types.Action, error)

	// GetAllActionsWithEmbeddings returns every catalog action that has
	// a stored embedding, for the brute-force fallback path.
	GetAllActionsWithEmbeddings(ctx context.Context) ([]types.Action, error)

	// InsertAction adds a new catalog action.
	InsertAction(ctx context.Context, action *types.Action) error

	// SetActionEmbedding stores or replaces an action's embedding.
	SetActionEmbedding(ctx context.Context, actionID string, embedding []float64) error
}

// PreferenceStore holds per-user learned category weights.
type PreferenceStore interface {
	// GetCategoryWeights returns the user's weight per category.
	// Missing users and missing categories read as the neutral 1.0.
	GetCategoryWeights(ctx context.Context, userID string) (map[string]float64, error)

	// UpsertCategoryWeight applies a delta to one category weight and
	// clamps the result into [0.5, 2.0].
	UpsertCategoryWeight(ctx context.Context, userID, category string, delta float64) (float64, error)
}

// HistoryStore records action executions and serves recency queries.
type HistoryStore interface {
	// GetRecentActionCounts counts occurrences of each action ID among
	// the user's last window executions.
	GetRecentActionCounts(ctx context.Context, userID string, window int) (map[string]int, error)

	// RecordExecution appends an execution record.
	RecordExecution(ctx context.Context, record *types.ExecutionRecord) error
}
