package handlers

import (
	"net/http"
	"strconv"

	"heartpet-recommender/internal/api/response"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/weather"
)

// WeatherHandler serves GET /api/v1/weather, returning context cues
// derived from current conditions at the given coordinates.
type WeatherHandler struct {
	client *weather.Client
	logger logging.Logger
}

// NewWeatherHandler creates a weather handler.
func NewWeatherHandler(client *weather.Client) *WeatherHandler {
	return &WeatherHandler{
		client: client,
		logger: logging.WithComponent("weather_handler"),
	}
}

// ServeHTTP handles the weather cue request.
func (h *WeatherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		response.WriteBadRequest(w, "Missing or invalid lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		response.WriteBadRequest(w, "Missing or invalid lon parameter")
		return
	}

	cues, err := h.client.CuesFor(r.Context(), lat, lon)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Weather lookup failed", "error", err)
		response.WriteServiceUnavailable(w, "Weather service unavailable")
		return
	}

	response.WriteJSON(w, http.StatusOK, cues)
}
