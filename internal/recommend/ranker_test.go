package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartpet-recommender/internal/types"
)

func TestFitEnergy(t *testing.T) {
	tests := []struct {
		user     types.EnergyLevel
		action   types.EnergyLevel
		expected float64
	}{
		{types.EnergyLow, types.EnergyLow, 1.0},
		{types.EnergyMedium, types.EnergyMedium, 1.0},
		{types.EnergyHigh, types.EnergyHigh, 1.0},
		{types.EnergyLow, types.EnergyMedium, 0.5},
		{types.EnergyMedium, types.EnergyLow, 0.5},
		{types.EnergyMedium, types.EnergyHigh, 0.5},
		{types.EnergyHigh, types.EnergyMedium, 0.5},
		{types.EnergyLow, types.EnergyHigh, 0},
		{types.EnergyHigh, types.EnergyLow, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FitEnergy(tt.user, tt.action),
			"user=%s action=%s", tt.user, tt.action)
	}
}

func TestFitEnergyUnsetActionFitsEveryone(t *testing.T) {
	for _, user := range []types.EnergyLevel{types.EnergyLow, types.EnergyMedium, types.EnergyHigh} {
		assert.Equal(t, 1.0, FitEnergy(user, ""))
	}
}

func TestNovelty(t *testing.T) {
	assert.Equal(t, 1.0, Novelty(0))
	assert.Equal(t, 0.5, Novelty(1))
	assert.Equal(t, 0.0, Novelty(2))
	assert.Equal(t, 0.0, Novelty(7))
}

func TestNoveltyMonotonic(t *testing.T) {
	prev := Novelty(0)
	for n := 1; n <= 10; n++ {
		cur := Novelty(n)
		assert.LessOrEqual(t, cur, prev, "novelty must not increase with repetition count")
		prev = cur
	}
}

func rankRequest(energy types.EnergyLevel) *types.RequestContext {
	return &types.RequestContext{
		UserID: "u1",
		Text:   "stressed",
		Mood:   "sensitive",
		Energy: energy,
		Focus:  []string{"soothe"},
	}
}

func TestRankOrdersByFinalScore(t *testing.T) {
	ranker := NewRanker()

	actions := []types.Action{
		{ID: "a", Title: "A", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
		{ID: "b", Title: "B", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategoryReset},
	}
	hits := []types.SearchHit{
		{ActionID: "a", Category: types.CategorySoothe, Score: 0.9},
		{ActionID: "b", Category: types.CategoryReset, Score: 0.5},
	}

	candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, nil, nil)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].Action.ID)
	assert.Greater(t, candidates[0].FinalScore, candidates[1].FinalScore)
}

func TestRankCategoryWeightCanFlipOrder(t *testing.T) {
	ranker := NewRanker()

	actions := []types.Action{
		{ID: "a", Title: "A", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
		{ID: "b", Title: "B", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategoryReset},
	}
	hits := []types.SearchHit{
		{ActionID: "a", Category: types.CategorySoothe, Score: 0.80},
		{ActionID: "b", Category: types.CategoryReset, Score: 0.75},
	}
	weights := map[string]float64{
		types.CategorySoothe: 0.5,
		types.CategoryReset:  2.0,
	}

	candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, weights, nil)
	require.Len(t, candidates, 2)
	assert.Equal(t, "b", candidates[0].Action.ID,
		"a strongly preferred category should outrank a slightly better similarity")
}

func TestRankNoveltyDemotesRecentRepeats(t *testing.T) {
	ranker := NewRanker()

	actions := []types.Action{
		{ID: "fresh", Title: "F", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
		{ID: "stale", Title: "S", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
	}
	hits := []types.SearchHit{
		{ActionID: "fresh", Category: types.CategorySoothe, Score: 0.80},
		{ActionID: "stale", Category: types.CategorySoothe, Score: 0.81},
	}
	recent := map[string]int{"stale": 2}

	candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, nil, recent)
	require.Len(t, candidates, 2)
	assert.Equal(t, "fresh", candidates[0].Action.ID)
	assert.Equal(t, 0.0, candidates[1].Novelty)
	assert.Equal(t, 2, candidates[1].RecentCount)
}

func TestRankEnergyFitScenario(t *testing.T) {
	ranker := NewRanker()

	actions := []types.Action{
		{ID: "calm", Title: "C", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe, Energy: types.EnergyLow},
		{ID: "sprint", Title: "S", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe, Energy: types.EnergyHigh},
	}
	hits := []types.SearchHit{
		{ActionID: "calm", Category: types.CategorySoothe, Score: 0.80},
		{ActionID: "sprint", Category: types.CategorySoothe, Score: 0.82},
	}

	candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, nil, nil)
	require.Len(t, candidates, 2)
	assert.Equal(t, "calm", candidates[0].Action.ID)
	assert.Equal(t, 1.0, candidates[0].EnergyFit)
	assert.Equal(t, 0.0, candidates[1].EnergyFit)
}

func TestRankDropsHitsMissingFromCatalog(t *testing.T) {
	ranker := NewRanker()

	actions := []types.Action{
		{ID: "a", Title: "A", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
	}
	hits := []types.SearchHit{
		{ActionID: "a", Category: types.CategorySoothe, Score: 0.5},
		{ActionID: "ghost", Category: types.CategorySoothe, Score: 0.99},
	}

	candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, nil, nil)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a", candidates[0].Action.ID)
}

func TestRankStableTieBreak(t *testing.T) {
	ranker := NewRanker()

	actions := []types.Action{
		{ID: "b", Title: "B", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
		{ID: "a", Title: "A", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
	}
	hits := []types.SearchHit{
		{ActionID: "b", Category: types.CategorySoothe, Score: 0.7},
		{ActionID: "a", Category: types.CategorySoothe, Score: 0.7},
	}

	for i := 0; i < 20; i++ {
		candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, nil, nil)
		require.Len(t, candidates, 2)
		assert.Equal(t, "a", candidates[0].Action.ID, "equal scores must break ties by ID")
	}
}

func TestRankTieBreakPrefersHigherSimilarity(t *testing.T) {
	ranker := NewRanker()

	// b's category weight lifts its final score to exactly a's, but a
	// earned its score through raw similarity and must rank first.
	actions := []types.Action{
		{ID: "a", Title: "A", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
		{ID: "b", Title: "B", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategoryReset},
	}
	hits := []types.SearchHit{
		{ActionID: "a", Category: types.CategorySoothe, Score: 0.80},
		{ActionID: "b", Category: types.CategoryReset, Score: 0.70},
	}
	weights := map[string]float64{
		types.CategorySoothe: 1.0,
		types.CategoryReset:  1.26,
	}

	candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, weights, nil)
	require.Len(t, candidates, 2)
	assert.InDelta(t, candidates[0].FinalScore, candidates[1].FinalScore, 1e-9)
	assert.Equal(t, "a", candidates[0].Action.ID,
		"equal final scores must prefer the higher raw similarity")
}

func TestRankTieBreakPrefersFewerRecentRuns(t *testing.T) {
	ranker := NewRanker()

	// Both counts are past the novelty floor, so scores and
	// similarities tie exactly; the less-repeated action must win even
	// though its ID sorts higher.
	actions := []types.Action{
		{ID: "a", Title: "A", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
		{ID: "b", Title: "B", Steps: []string{"s"}, DurationSeconds: 60, Category: types.CategorySoothe},
	}
	hits := []types.SearchHit{
		{ActionID: "a", Category: types.CategorySoothe, Score: 0.7},
		{ActionID: "b", Category: types.CategorySoothe, Score: 0.7},
	}
	recent := map[string]int{"a": 5, "b": 2}

	candidates := ranker.Rank(rankRequest(types.EnergyLow), hits, actions, nil, recent)
	require.Len(t, candidates, 2)
	assert.Equal(t, candidates[0].FinalScore, candidates[1].FinalScore)
	assert.Equal(t, "b", candidates[0].Action.ID,
		"candidate with fewer recent executions must win the tie")
}

func TestSelectBest(t *testing.T) {
	ranker := NewRanker()

	t.Run("empty set", func(t *testing.T) {
		best, err := ranker.SelectBest(nil)
		assert.Nil(t, best)
		assert.ErrorIs(t, err, ErrNoActionsAvailable)
	})

	t.Run("returns top candidate", func(t *testing.T) {
		candidates := []types.Candidate{
			{Action: types.Action{ID: "top"}, FinalScore: 0.9},
			{Action: types.Action{ID: "second"}, FinalScore: 0.5},
		}
		best, err := ranker.SelectBest(candidates)
		require.NoError(t, err)
		assert.Equal(t, "top", best.Action.ID)
	})
}
