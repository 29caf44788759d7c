package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"heartpet-recommender/internal/api/response"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/storage"
	"heartpet-recommender/internal/types"
)

// Weight deltas applied on feedback. Helpful feedback pulls a category
// up faster than unhelpful feedback pushes it down, so one bad day
// does not erase a learned preference.
const (
	helpfulDelta   = 0.1
	unhelpfulDelta = -0.05
)

// FeedbackRequest is the body of POST /api/v1/feedback.
type FeedbackRequest struct {
	UserID    string `json:"userId"`
	ActionID  string `json:"actionId"`
	Completed bool   `json:"completed"`
	Helpful   *bool  `json:"helpful,omitempty"`
}

// FeedbackResponse reports the outcome, including the new category
// weight when feedback adjusted one.
type FeedbackResponse struct {
	OK       bool     `json:"ok"`
	Category string   `json:"category,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
}

// FeedbackHandler records executions and adjusts category weights.
type FeedbackHandler struct {
	actions storage.ActionStore
	prefs   storage.PreferenceStore
	history storage.HistoryStore
	logger  logging.Logger
}

// NewFeedbackHandler creates a feedback handler.
func NewFeedbackHandler(actions storage.ActionStore, prefs storage.PreferenceStore, history storage.HistoryStore) *FeedbackHandler {
	return &FeedbackHandler{
		actions: actions,
		prefs:   prefs,
		history: history,
		logger:  logging.WithComponent("feedback_handler"),
	}
}

// ServeHTTP handles the feedback request.
func (h *FeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid JSON body", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.ActionID) == "" {
		response.WriteBadRequest(w, "userId and actionId are required")
		return
	}

	ctx := r.Context()

	record := &types.ExecutionRecord{
		UserID:    req.UserID,
		ActionID:  req.ActionID,
		Completed: req.Completed,
	}
	if err := h.history.RecordExecution(ctx, record); err != nil {
		h.logger.ErrorContext(ctx, "Failed to record execution", "error", err)
		response.WriteInternalError(w, "Failed to record execution")
		return
	}

	resp := FeedbackResponse{OK: true}

	if req.Helpful != nil {
		actions, err := h.actions.GetActionsByIDs(ctx, []string{req.ActionID})
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to load action for feedback", "error", err)
			response.WriteInternalError(w, "Failed to apply feedback")
			return
		}
		if len(actions) == 0 {
			response.WriteNotFound(w, "Unknown action", req.ActionID)
			return
		}

		delta := unhelpfulDelta
		if *req.Helpful {
			delta = helpfulDelta
		}

		weight, err := h.prefs.UpsertCategoryWeight(ctx, req.UserID, actions[0].Category, delta)
		if err != nil {
			h.logger.ErrorContext(ctx, "Failed to update category weight", "error", err)
			response.WriteInternalError(w, "Failed to apply feedback")
			return
		}
		resp.Category = actions[0].Category
		resp.Weight = &weight
	}

	response.WriteJSON(w, http.StatusOK, resp)
}
