package recommend

import (
	"math"
	"sort"

	"heartpet-recommender/internal/types"
)

// Ranking weights. Similarity dominates; the learned category weight
// is the strongest personal signal; energy fit and novelty are gentle
// nudges. Weather affinity is additive on top rather than weighted.
const (
	simWeight      = 0.65
	categoryWeight = 0.25
	energyWeight   = 0.07
	noveltyWeight  = 0.03
)

// noveltyHalfCount is the recent-occurrence count at which novelty
// reaches 0.5; at twice this count it bottoms out at 0.
const noveltyHalfCount = 2.0

// scoreTolerance is the range within which two final scores count as
// tied, absorbing float accumulation noise across the weighted terms.
const scoreTolerance = 1e-9

// FitEnergy scores how well an action's natural energy matches the
// user's current level on the low < medium < high ordinal scale:
// 1.0 for an exact match, 0.5 for adjacent levels, 0 for opposites.
// Actions without an energy affinity fit everyone.
func FitEnergy(user, action types.EnergyLevel) float64 {
	if action == "" {
		return 1.0
	}
	diff := user.Ordinal() - action.Ordinal()
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1.0
	case 1:
		return 0.5
	default:
		return 0
	}
}

// Novelty maps how often an action appeared in the user's recent
// history to a freshness score: 1 when unseen, 0.5 after one recent
// run, 0 at two or more.
func Novelty(recentCount int) float64 {
	return math.Max(0, 1-math.Min(1, float64(recentCount)/noveltyHalfCount))
}

// Ranker scores and orders retrieval candidates.
type Ranker struct{}

// NewRanker creates a ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank joins search hits with their catalog actions and per-user
// signals, scores each candidate, and returns them ordered best-first.
// Tied scores prefer the higher raw similarity, then the action the
// user repeated less recently, then the lower action ID so the order
// is stable across calls. Hits whose action is missing from the
// catalog are dropped.
func (r *Ranker) Rank(reqCtx *types.RequestContext, hits []types.SearchHit, actions []types.Action,
	weights map[string]float64, recentCounts map[string]int) []types.Candidate {

	actionByID := make(map[string]*types.Action, len(actions))
	for i := range actions {
		actionByID[actions[i].ID] = &actions[i]
	}

	candidates := make([]types.Candidate, 0, len(hits))
	for _, hit := range hits {
		action, ok := actionByID[hit.ActionID]
		if !ok {
			continue
		}

		weight, ok := weights[action.Category]
		if !ok {
			weight = 1.0
		}

		recentCount := recentCounts[action.ID]

		candidate := types.Candidate{
			Action:          *action,
			Similarity:      hit.Score,
			CategoryWeight:  weight,
			EnergyFit:       FitEnergy(reqCtx.Energy, action.Energy),
			Novelty:         Novelty(recentCount),
			WeatherAffinity: WeatherAffinity(action.Tags, &reqCtx.Cues),
			RecentCount:     recentCount,
		}
		candidate.FinalScore = simWeight*candidate.Similarity +
			categoryWeight*candidate.CategoryWeight +
			energyWeight*candidate.EnergyFit +
			noveltyWeight*candidate.Novelty +
			candidate.WeatherAffinity
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if math.Abs(a.FinalScore-b.FinalScore) > scoreTolerance {
			return a.FinalScore > b.FinalScore
		}
		if math.Abs(a.Similarity-b.Similarity) > scoreTolerance {
			return a.Similarity > b.Similarity
		}
		if a.RecentCount != b.RecentCount {
			return a.RecentCount < b.RecentCount
		}
		return a.Action.ID < b.Action.ID
	})

	return candidates
}

// SelectBest returns the top-ranked candidate, or ErrNoActionsAvailable
// when the candidate set is empty.
func (r *Ranker) SelectBest(candidates []types.Candidate) (*types.Candidate, error) {
	if len(candidates) == 0 {
		return nil, ErrNoActionsAvailable
	}
	return &candidates[0], nil
}
