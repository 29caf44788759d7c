// Package embeddings wraps the external embedding service used to turn
// check-in queries and action texts into fixed-length vectors.
package embeddings

import "context"

// Service defines the interface for generating embeddings.
type Service interface {
	// GenerateEmbedding embeds a single text.
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)

	// GenerateBatchEmbeddings embeds multiple texts in one call.
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error)

	// GetDimension returns the dimension of vectors produced by this service.
	GetDimension() int

	// GetModel returns the model name.
	GetModel() string

	// HealthCheck verifies the service is reachable.
	HealthCheck(ctx context.Context) error
}
