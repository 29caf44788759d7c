package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartpet-recommender/internal/types"
)

type stubStores struct {
	actions    []types.Action
	actionsErr error

	recorded  []*types.ExecutionRecord
	recordErr error

	weight     float64
	weightErr  error
	lastUserID string
	lastCat    string
	lastDelta  float64
}

func (s *stubStores) GetActionsByIDs(context.Context, []string) ([]types.Action, error) {
	return s.actions, s.actionsErr
}
func (s *stubStores) GetAllActionsWithEmbeddings(context.Context) ([]types.Action, error) {
	return s.actions, s.actionsErr
}
func (s *stubStores) InsertAction(context.Context, *types.Action) error { return nil }
func (s *stubStores) SetActionEmbedding(context.Context, string, []float64) error {
	return nil
}

func (s *stubStores) GetCategoryWeights(context.Context, string) (map[string]float64, error) {
	return nil, nil
}

func (s *stubStores) UpsertCategoryWeight(_ context.Context, userID, category string, delta float64) (float64, error) {
	s.lastUserID = userID
	s.lastCat = category
	s.lastDelta = delta
	return s.weight, s.weightErr
}

func (s *stubStores) GetRecentActionCounts(context.Context, string, int) (map[string]int, error) {
	return nil, nil
}

func (s *stubStores) RecordExecution(_ context.Context, record *types.ExecutionRecord) error {
	s.recorded = append(s.recorded, record)
	return s.recordErr
}

func postFeedback(t *testing.T, handler *FeedbackHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestFeedbackRecordsExecution(t *testing.T) {
	stores := &stubStores{}
	handler := NewFeedbackHandler(stores, stores, stores)

	rec := postFeedback(t, handler, `{"userId":"u1","actionId":"a1","completed":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, stores.recorded, 1)
	assert.Equal(t, "u1", stores.recorded[0].UserID)
	assert.Equal(t, "a1", stores.recorded[0].ActionID)
	assert.True(t, stores.recorded[0].Completed)
	assert.Empty(t, stores.lastCat, "no helpful flag means no weight update")
}

func TestFeedbackHelpfulAdjustsWeight(t *testing.T) {
	stores := &stubStores{
		actions: []types.Action{{ID: "a1", Category: types.CategorySoothe}},
		weight:  1.1,
	}
	handler := NewFeedbackHandler(stores, stores, stores)

	rec := postFeedback(t, handler, `{"userId":"u1","actionId":"a1","completed":true,"helpful":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, types.CategorySoothe, stores.lastCat)
	assert.InDelta(t, 0.1, stores.lastDelta, 1e-9)

	var resp FeedbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.NotNil(t, resp.Weight)
	assert.InDelta(t, 1.1, *resp.Weight, 1e-9)
}

func TestFeedbackUnhelpfulUsesSmallerDelta(t *testing.T) {
	stores := &stubStores{
		actions: []types.Action{{ID: "a1", Category: types.CategoryReset}},
		weight:  0.95,
	}
	handler := NewFeedbackHandler(stores, stores, stores)

	rec := postFeedback(t, handler, `{"userId":"u1","actionId":"a1","completed":false,"helpful":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, -0.05, stores.lastDelta, 1e-9)

	require.Len(t, stores.recorded, 1)
	assert.False(t, stores.recorded[0].Completed,
		"an abandoned action must be recorded as not completed")
}

func TestFeedbackValidation(t *testing.T) {
	stores := &stubStores{}
	handler := NewFeedbackHandler(stores, stores, stores)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing user", `{"actionId":"a1"}`, http.StatusBadRequest},
		{"missing action", `{"userId":"u1"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postFeedback(t, handler, tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestFeedbackUnknownActionIs404(t *testing.T) {
	stores := &stubStores{actions: []types.Action{}}
	handler := NewFeedbackHandler(stores, stores, stores)

	rec := postFeedback(t, handler, `{"userId":"u1","actionId":"ghost","helpful":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedbackStorageFailureIs500(t *testing.T) {
	stores := &stubStores{recordErr: errors.New("db down")}
	handler := NewFeedbackHandler(stores, stores, stores)

	rec := postFeedback(t, handler, `{"userId":"u1","actionId":"a1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
