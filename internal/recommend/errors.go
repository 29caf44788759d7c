// Package recommend implements the retrieval-and-ranking core: query
// building, candidate retrieval with fallback, affinity scoring,
// ranking, and generative variant composition.
package recommend

import (
	"errors"
	"fmt"
)

// ErrNoActionsAvailable is returned when retrieval plus fallback yield
// an empty candidate set. The caller cannot recover; the catalog is
// empty or unreachable.
var ErrNoActionsAvailable = errors.New("no actions available to recommend")

// InvalidRequestError reports a malformed recommendation request. It
// is raised before any external call is made.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// IsInvalidRequest reports whether err is a request validation failure.
func IsInvalidRequest(err error) bool {
	var invalid *InvalidRequestError
	return errors.As(err, &invalid)
}

// EmbeddingError reports that the embedding service failed after
// retries. Without a query vector no retrieval path exists, so this
// aborts the recommendation.
type EmbeddingError struct {
	Cause error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding service failed: %v", e.Cause)
}

func (e *EmbeddingError) Unwrap() error { return e.Cause }

// IsEmbeddingError reports whether err is an embedding service failure.
func IsEmbeddingError(err error) bool {
	var embErr *EmbeddingError
	return errors.As(err, &embErr)
}
