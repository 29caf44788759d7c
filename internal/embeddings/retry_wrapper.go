package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heartpet-recommender/internal/retry"
)

// RetryableService wraps a Service with bounded retry. The embedding
// call sits on the user-facing request path, so it is retried at most
// once with a short fixed backoff.
type RetryableService struct {
	service Service
	retrier *retry.Retrier
}

// NewRetryableService creates a retrying embedding service.
func NewRetryableService(service Service, config *retry.Config) Service {
	if config == nil {
		config = defaultEmbeddingRetryConfig()
	}
	return &RetryableService{
		service: service,
		retrier: retry.New(config),
	}
}

func defaultEmbeddingRetryConfig() *retry.Config {
	return &retry.Config{
		MaxAttempts:     2,
		InitialDelay:    300 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		Multiplier:      1.0,
		RandomizeFactor: 0.2,
		RetryIf:         isRetryableEmbeddingError,
	}
}

// isRetryableEmbeddingError determines if an embedding error should be retried.
func isRetryableEmbeddingError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	nonRetryablePatterns := []string{
		"invalid api key",
		"unauthorized",
		"forbidden",
		"insufficient_quota",
		"invalid_request_error",
		"model not found",
		"context length exceeded",
	}
	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}

	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"i/o timeout",
		"eof",
		"429",
		"500",
		"502",
		"503",
		"504",
		"rate limit",
		"overloaded",
		"temporarily unavailable",
		"server_error",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// GenerateEmbedding generates an embedding with retry.
func (r *RetryableService) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64

	result := r.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		embedding, err = r.service.GenerateEmbedding(ctx, text)
		return err
	})

	if result.Err != nil {
		return nil, fmt.Errorf("failed to generate embedding after %d attempts: %w", result.Attempts, result.Err)
	}
	return embedding, nil
}

// GenerateBatchEmbeddings generates multiple embeddings with retry.
func (r *RetryableService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	var embeddings [][]float64

	result := r.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = r.service.GenerateBatchEmbeddings(ctx, texts)
		return err
	})

	if result.Err != nil {
		return nil, fmt.Errorf("failed to generate batch embeddings after %d attempts: %w", result.Attempts, result.Err)
	}
	return embeddings, nil
}

// GetDimension returns the embedding dimension (no retry needed).
func (r *RetryableService) GetDimension() int {
	return r.service.GetDimension()
}

// GetModel returns the model name (no retry needed).
func (r *RetryableService) GetModel() string {
	return r.service.GetModel()
}

// HealthCheck performs a health check with retry.
func (r *RetryableService) HealthCheck(ctx context.Context) error {
	result := r.retrier.Do(ctx, func(ctx context.Context) error {
		return r.service.HealthCheck(ctx)
	})
	if result.Err != nil {
		return fmt.Errorf("health check failed after %d attempts: %w", result.Attempts, result.Err)
	}
	return nil
}
