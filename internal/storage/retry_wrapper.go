package storage

import (
	"context"
	"strings"
	"time"

	"heartpet-recommender/internal/retry"
	"heartpet-recommender/internal/types"
)

// RetryableIndex wraps a VectorIndex with bounded retry. Index calls
// sit on the request path, so a failed search is retried at most once
// before the unavailability surfaces to the caller.
type RetryableIndex struct {
	index   VectorIndex
	retrier *retry.Retrier
}

// NewRetryableIndex creates a retrying index wrapper.
func NewRetryableIndex(index VectorIndex, config *retry.Config) VectorIndex {
	if config == nil {
		config = defaultIndexRetryConfig()
	}
	return &RetryableIndex{
		index:   index,
		retrier: retry.New(config),
	}
}

func defaultIndexRetryConfig() *retry.Config {
	return &retry.Config{
		MaxAttempts:     2,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        1 * time.Second,
		Multiplier:      1.0,
		RandomizeFactor: 0.2,
		RetryIf:         isRetryableIndexError,
	}
}

func isRetryableIndexError(err error) bool {
	if err == nil {
		return false
	}
	if !IsIndexUnavailable(err) {
		// Validation errors and the like; retrying cannot help.
		return false
	}

	errStr := strings.ToLower(err.Error())
	nonRetryable := []string{
		"not initialized",
		"unauthenticated",
		"permission denied",
		"invalid argument",
	}
	for _, pattern := range nonRetryable {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}
	return true
}

// Initialize is not retried; startup failures should surface directly.
func (r *RetryableIndex) Initialize(ctx context.Context) error {
	return r.index.Initialize(ctx)
}

// Search performs a vector search with retry.
func (r *RetryableIndex) Search(ctx context.Context, vector []float64, limit int) ([]types.SearchHit, error) {
	var hits []types.SearchHit

	result := r.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		hits, err = r.index.Search(ctx, vector, limit)
		return err
	})

	if result.Err != nil {
		return nil, result.Err
	}
	return hits, nil
}

// Upsert writes a vector with retry.
func (r *RetryableIndex) Upsert(ctx context.Context, action *types.Action) error {
	result := r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.index.Upsert(ctx, action)
	})
	return result.Err
}

// HealthCheck checks the underlying index once.
func (r *RetryableIndex) HealthCheck(ctx context.Context) error {
	return r.index.HealthCheck(ctx)
}

// Close closes the underlying index.
func (r *RetryableIndex) Close() error {
	return r.index.Close()
}
