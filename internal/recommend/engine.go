package recommend

import (
	"context"
	"fmt"
	"math"

	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/embeddings"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/storage"
	"heartpet-recommender/internal/types"
)

// Engine orchestrates one recommendation: validate, embed, retrieve
// with fallback, personalize, rank, compose.
type Engine struct {
	embeddings embeddings.Service
	index      storage.VectorIndex
	fallback   *storage.BruteForceSearcher
	actions    storage.ActionStore
	prefs      storage.PreferenceStore
	history    storage.HistoryStore
	ranker     *Ranker
	composer   *VariantComposer
	cfg        *config.RecommendConfig
	logger     logging.Logger
}

// NewEngine wires the recommendation pipeline.
func NewEngine(
	embeddingService embeddings.Service,
	index storage.VectorIndex,
	fallback *storage.BruteForceSearcher,
	actions storage.ActionStore,
	prefs storage.PreferenceStore,
	history storage.HistoryStore,
	composer *VariantComposer,
	cfg *config.RecommendConfig,
) *Engine {
	return &Engine{
		embeddings: embeddingService,
		index:      index,
		fallback:   fallback,
		actions:    actions,
		prefs:      prefs,
		history:    history,
		ranker:     NewRanker(),
		composer:   composer,
		cfg:        cfg,
		logger:     logging.WithComponent("engine"),
	}
}

// Recommend produces the single best action for the request.
//
// Failure behavior is deliberately uneven across stages: a bad request
// or a dead embedding service aborts, an unavailable index silently
// degrades to the exact local scan, and a failed composition serves
// the base action. Only an empty candidate set after both retrieval
// paths surfaces ErrNoActionsAvailable.
func (e *Engine) Recommend(ctx context.Context, reqCtx *types.RequestContext) (*types.Recommendation, error) {
	if err := reqCtx.Validate(); err != nil {
		return nil, &InvalidRequestError{Reason: err.Error()}
	}

	query := BuildQuery(reqCtx)
	vector, err := e.embeddings.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Cause: err}
	}

	hits, err := e.retrieve(ctx, vector)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, ErrNoActionsAvailable
	}

	weights, err := e.prefs.GetCategoryWeights(ctx, reqCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category weights: %w", err)
	}

	recentCounts, err := e.history.GetRecentActionCounts(ctx, reqCtx.UserID, e.cfg.RecentWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent executions: %w", err)
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ActionID)
	}
	actions, err := e.actions.GetActionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate actions: %w", err)
	}

	candidates := e.ranker.Rank(reqCtx, hits, actions, weights, recentCounts)
	best, err := e.ranker.SelectBest(candidates)
	if err != nil {
		return nil, err
	}

	variant := Variant{
		Title:    best.Action.Title,
		Steps:    best.Action.Steps,
		Seconds:  best.Action.DurationSeconds,
		Composed: false,
	}
	if e.cfg.ComposeEnabled && e.composer != nil {
		variant = e.composer.Compose(ctx, &best.Action, reqCtx)
	}

	e.logger.InfoContext(ctx, "Recommendation produced",
		"user_id", reqCtx.UserID,
		"action_id", best.Action.ID,
		"category", best.Action.Category,
		"score", round(best.FinalScore, 3),
		"candidates", len(candidates),
		"composed", variant.Composed)

	return &types.Recommendation{
		ActionID:        best.Action.ID,
		Title:           variant.Title,
		Steps:           variant.Steps,
		DurationSeconds: variant.Seconds,
		Category:        best.Action.Category,
		Tags:            best.Action.Tags,
		Why:             best.Action.Why,
		Explain: types.Explanation{
			Similarity:      round(best.Similarity, 3),
			Weight:          round(best.CategoryWeight, 2),
			EnergyFit:       best.EnergyFit,
			Novelty:         round(best.Novelty, 2),
			WeatherAffinity: round(best.WeatherAffinity, 3),
		},
		Composed: variant.Composed,
	}, nil
}

// retrieve asks the vector index first and falls back to the exact
// catalog scan when the index cannot answer or answers empty. The two
// cases are logged apart; only the first is an index failure.
func (e *Engine) retrieve(ctx context.Context, vector []float64) ([]types.SearchHit, error) {
	hits, err := e.index.Search(ctx, vector, e.cfg.TopK)
	if err != nil {
		if !storage.IsIndexUnavailable(err) {
			return nil, err
		}
		e.logger.WarnContext(ctx, "Vector index unavailable, using brute-force fallback", "error", err)
		return e.fallback.Search(ctx, vector, e.cfg.TopK)
	}

	if len(hits) == 0 {
		e.logger.InfoContext(ctx, "Vector index returned no hits, scanning catalog directly")
		return e.fallback.Search(ctx, vector, e.cfg.TopK)
	}
	return hits, nil
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
