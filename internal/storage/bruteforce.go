package storage

import (
	"context"
	"fmt"
	"math"
	"sort"

	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/types"
)

// cosineEpsilon guards the denominator so zero vectors score ~0
// instead of dividing by zero.
const cosineEpsilon = 1e-9

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths are an error, never a silent truncation.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + cosineEpsilon), nil
}

// BruteForceSearcher scores the full catalog with exact cosine
// similarity. It serves as the fallback when the vector index is
// unavailable; results rank identically to the index for catalogs
// small enough to scan.
type BruteForceSearcher struct {
	actions ActionStore
	dim     int
}

// NewBruteForceSearcher creates a fallback searcher over the catalog.
func NewBruteForceSearcher(actions ActionStore, dim int) *BruteForceSearcher {
	if dim <= 0 {
		dim = vectorSize
	}
	return &BruteForceSearcher{actions: actions, dim: dim}
}

// Search scans all embedded actions and returns the top limit hits by
// cosine similarity, ties broken by action ID for a stable order.
// Actions with missing or mis-sized embeddings are skipped, not
// scored as zero.
func (bf *BruteForceSearcher) Search(ctx context.Context, vector []float64, limit int) ([]types.SearchHit, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", limit)
	}
	if len(vector) != bf.dim {
		return nil, fmt.Errorf("query vector dimension %d does not match catalog dimension %d", len(vector), bf.dim)
	}

	actions, err := bf.actions.GetAllActionsWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for fallback search: %w", err)
	}

	hits := make([]types.SearchHit, 0, len(actions))
	skipped := 0
	for i := range actions {
		action := &actions[i]
		if !action.HasValidEmbedding(bf.dim) {
			skipped++
			continue
		}
		score, err := CosineSimilarity(vector, action.Embedding)
		if err != nil {
			skipped++
			continue
		}
		hits = append(hits, types.SearchHit{
			ActionID: action.ID,
			Category: action.Category,
			Score:    score,
		})
	}

	if skipped > 0 {
		logging.Warn("Fallback search skipped actions with invalid embeddings", "skipped", skipped)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ActionID < hits[j].ActionID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
