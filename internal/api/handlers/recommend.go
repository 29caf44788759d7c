// Package handlers implements the HTTP handlers for the recommendation
// API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"heartpet-recommender/internal/api/response"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/recommend"
	"heartpet-recommender/internal/types"
)

// RecommendHandler serves POST /api/v1/recommend.
type RecommendHandler struct {
	engine *recommend.Engine
	logger logging.Logger
}

// NewRecommendHandler creates a recommend handler.
func NewRecommendHandler(engine *recommend.Engine) *RecommendHandler {
	return &RecommendHandler{
		engine: engine,
		logger: logging.WithComponent("recommend_handler"),
	}
}

// ServeHTTP handles the recommendation request.
func (h *RecommendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var reqCtx types.RequestContext
	if err := json.NewDecoder(r.Body).Decode(&reqCtx); err != nil {
		response.WriteBadRequest(w, "Invalid JSON body", err.Error())
		return
	}

	rec, err := h.engine.Recommend(r.Context(), &reqCtx)
	if err != nil {
		h.writeRecommendError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, rec)
}

func (h *RecommendHandler) writeRecommendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case recommend.IsInvalidRequest(err):
		response.WriteBadRequest(w, "Invalid recommendation request", err.Error())
	case recommend.IsEmbeddingError(err):
		h.logger.ErrorContext(r.Context(), "Embedding service failed", "error", err)
		response.WriteServiceUnavailable(w, "Embedding service unavailable")
	case errors.Is(err, recommend.ErrNoActionsAvailable):
		h.logger.ErrorContext(r.Context(), "No actions available", "error", err)
		response.WriteServiceUnavailable(w, "No actions available to recommend")
	default:
		h.logger.ErrorContext(r.Context(), "Recommendation failed", "error", err)
		response.WriteInternalError(w, "Failed to produce recommendation")
	}
}
