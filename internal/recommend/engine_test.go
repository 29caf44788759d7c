package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/storage"
	"heartpet-recommender/internal/types"
)

type fakeEmbedder struct {
	vector []float64
	err    error
}

func (f *fakeEmbedder) GenerateEmbedding(context.Context, string) ([]float64, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) GenerateBatchEmbeddings(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, f.err
}

func (f *fakeEmbedder) GetDimension() int                 { return len(f.vector) }
func (f *fakeEmbedder) GetModel() string                  { return "fake" }
func (f *fakeEmbedder) HealthCheck(context.Context) error { return f.err }

type fakeIndex struct {
	hits []types.SearchHit
	err  error
}

func (f *fakeIndex) Initialize(context.Context) error { return nil }
func (f *fakeIndex) Search(context.Context, []float64, int) ([]types.SearchHit, error) {
	return f.hits, f.err
}
func (f *fakeIndex) Upsert(context.Context, *types.Action) error { return nil }
func (f *fakeIndex) HealthCheck(context.Context) error           { return nil }
func (f *fakeIndex) Close() error                                { return nil }

type fakeStore struct {
	actions      []types.Action
	weights      map[string]float64
	recentCounts map[string]int
}

func (f *fakeStore) GetActionsByIDs(_ context.Context, ids []string) ([]types.Action, error) {
	byID := make(map[string]types.Action)
	for _, a := range f.actions {
		byID[a.ID] = a
	}
	out := make([]types.Action, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAllActionsWithEmbeddings(context.Context) ([]types.Action, error) {
	var out []types.Action
	for _, a := range f.actions {
		if len(a.Embedding) > 0 {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertAction(context.Context, *types.Action) error { return nil }
func (f *fakeStore) SetActionEmbedding(context.Context, string, []float64) error {
	return nil
}

func (f *fakeStore) GetCategoryWeights(context.Context, string) (map[string]float64, error) {
	if f.weights == nil {
		return map[string]float64{}, nil
	}
	return f.weights, nil
}

func (f *fakeStore) UpsertCategoryWeight(context.Context, string, string, float64) (float64, error) {
	return 1.0, nil
}

func (f *fakeStore) GetRecentActionCounts(context.Context, string, int) (map[string]int, error) {
	if f.recentCounts == nil {
		return map[string]int{}, nil
	}
	return f.recentCounts, nil
}

func (f *fakeStore) RecordExecution(context.Context, *types.ExecutionRecord) error { return nil }

func testConfig() *config.RecommendConfig {
	return &config.RecommendConfig{
		TopK:           8,
		RecentWindow:   5,
		ComposeEnabled: false,
	}
}

func validRequest() *types.RequestContext {
	return &types.RequestContext{
		UserID: "u1",
		Text:   "feeling tense",
		Mood:   "sensitive",
		Energy: types.EnergyLow,
		Focus:  []string{"soothe"},
	}
}

func testActions() []types.Action {
	return []types.Action{
		{
			ID: "a1", Title: "Breathe", Steps: []string{"s"}, DurationSeconds: 60,
			Category: types.CategorySoothe, Embedding: []float64{1, 0, 0},
		},
		{
			ID: "a2", Title: "Walk", Steps: []string{"s"}, DurationSeconds: 120,
			Category: types.CategoryReset, Embedding: []float64{0, 1, 0},
		},
	}
}

func newTestEngine(embedder *fakeEmbedder, index storage.VectorIndex, store *fakeStore) *Engine {
	fallback := storage.NewBruteForceSearcher(store, len(embedder.vector))
	return NewEngine(embedder, index, fallback, store, store, store, nil, testConfig())
}

func TestRecommendHappyPath(t *testing.T) {
	store := &fakeStore{actions: testActions()}
	index := &fakeIndex{hits: []types.SearchHit{
		{ActionID: "a1", Category: types.CategorySoothe, Score: 0.9},
		{ActionID: "a2", Category: types.CategoryReset, Score: 0.4},
	}}
	engine := newTestEngine(&fakeEmbedder{vector: []float64{1, 0, 0}}, index, store)

	rec, err := engine.Recommend(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "a1", rec.ActionID)
	assert.Equal(t, "Breathe", rec.Title)
	assert.False(t, rec.Composed)
	assert.InDelta(t, 0.9, rec.Explain.Similarity, 0.001)
}

func TestRecommendInvalidRequest(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{vector: []float64{1, 0, 0}}, &fakeIndex{}, &fakeStore{})

	tests := []struct {
		name   string
		mutate func(*types.RequestContext)
	}{
		{"empty user", func(r *types.RequestContext) { r.UserID = "" }},
		{"empty text", func(r *types.RequestContext) { r.Text = "" }},
		{"bad energy", func(r *types.RequestContext) { r.Energy = "hyper" }},
		{"no focus", func(r *types.RequestContext) { r.Focus = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			rec, err := engine.Recommend(context.Background(), req)
			assert.Nil(t, rec)
			assert.True(t, IsInvalidRequest(err), "expected invalid request, got %v", err)
		})
	}
}

func TestRecommendEmbeddingFailureAborts(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("service down")}
	engine := newTestEngine(embedder, &fakeIndex{}, &fakeStore{actions: testActions()})

	rec, err := engine.Recommend(context.Background(), validRequest())
	assert.Nil(t, rec)
	assert.True(t, IsEmbeddingError(err), "expected embedding error, got %v", err)
}

func TestRecommendFallsBackWhenIndexUnavailable(t *testing.T) {
	store := &fakeStore{actions: testActions()}
	index := &fakeIndex{err: &storage.IndexUnavailableError{Op: "search", Cause: errors.New("connection refused")}}
	engine := newTestEngine(&fakeEmbedder{vector: []float64{1, 0, 0}}, index, store)

	rec, err := engine.Recommend(context.Background(), validRequest())
	require.NoError(t, err)
	// Brute force cosine against {1,0,0} picks a1 exactly.
	assert.Equal(t, "a1", rec.ActionID)
	assert.InDelta(t, 1.0, rec.Explain.Similarity, 0.001)
}

func TestRecommendFallsBackOnEmptyIndexAnswer(t *testing.T) {
	store := &fakeStore{actions: testActions()}
	engine := newTestEngine(&fakeEmbedder{vector: []float64{0, 1, 0}}, &fakeIndex{hits: nil}, store)

	rec, err := engine.Recommend(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "a2", rec.ActionID)
}

func TestRecommendNoActionsAnywhere(t *testing.T) {
	store := &fakeStore{} // empty catalog
	index := &fakeIndex{err: &storage.IndexUnavailableError{Op: "search", Cause: errors.New("down")}}
	engine := newTestEngine(&fakeEmbedder{vector: []float64{1, 0, 0}}, index, store)

	rec, err := engine.Recommend(context.Background(), validRequest())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoActionsAvailable)
}

func TestRecommendComposeFailureStillSucceeds(t *testing.T) {
	store := &fakeStore{actions: testActions()}
	index := &fakeIndex{hits: []types.SearchHit{
		{ActionID: "a1", Category: types.CategorySoothe, Score: 0.9},
	}}

	cfg := testConfig()
	cfg.ComposeEnabled = true
	composer := NewVariantComposer(&stubChat{err: errors.New("model unavailable")})
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	fallback := storage.NewBruteForceSearcher(store, 3)
	engine := NewEngine(embedder, index, fallback, store, store, store, composer, cfg)

	rec, err := engine.Recommend(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, rec.Composed)
	assert.Equal(t, "Breathe", rec.Title)
}

func TestRecommendComposedVariantServed(t *testing.T) {
	store := &fakeStore{actions: testActions()}
	index := &fakeIndex{hits: []types.SearchHit{
		{ActionID: "a1", Category: types.CategorySoothe, Score: 0.9},
	}}

	cfg := testConfig()
	cfg.ComposeEnabled = true
	composer := NewVariantComposer(&stubChat{response: `{"title":"Calm Quest","steps":["Breathe in","Breathe out"],"seconds":75}`})
	embedder := &fakeEmbedder{vector: []float64{1, 0, 0}}
	fallback := storage.NewBruteForceSearcher(store, 3)
	engine := NewEngine(embedder, index, fallback, store, store, store, composer, cfg)

	rec, err := engine.Recommend(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, rec.Composed)
	assert.Equal(t, "Calm Quest", rec.Title)
	assert.Equal(t, 75, rec.DurationSeconds)
	assert.Equal(t, "a1", rec.ActionID, "identity stays the base action")
}
