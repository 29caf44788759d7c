// Package weather derives context cues from current conditions using
// the Open-Meteo forecast API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"heartpet-recommender/internal/types"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Conditions are the raw observations cue derivation runs on.
type Conditions struct {
	TempC    float64
	Precip   bool
	Daylight bool
}

// DeriveCues maps observed conditions onto the cue vocabulary the
// recommender scores against. The three affordance flags partition
// conditions: a short outdoor break, a sheltered outdoor moment, or
// window-side nature when neither works.
func DeriveCues(c Conditions) types.ContextCues {
	t := math.Round(c.TempC)

	tag := "clear"
	switch {
	case !c.Daylight:
		tag = "night"
	case c.Precip:
		tag = "rain"
	case t <= 8:
		tag = "cold"
	case t >= 29:
		tag = "hot"
	}

	goodOutdoorBrief := c.Daylight && !c.Precip && t >= 8 && t <= 30
	goodOutdoorSheltered := c.Daylight && c.Precip && t >= 5
	goodWindowNature := !c.Daylight || c.Precip || t < 8 || t > 30

	precip := c.Precip
	daylight := c.Daylight
	return types.ContextCues{
		Weather:              tag,
		TempC:                &t,
		Precip:               &precip,
		Daylight:             &daylight,
		GoodOutdoorBrief:     &goodOutdoorBrief,
		GoodOutdoorSheltered: &goodOutdoorSheltered,
		GoodWindowNature:     &goodWindowNature,
	}
}

// Client fetches current conditions from Open-Meteo.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a weather client. baseURL is overridable for tests;
// empty means the public Open-Meteo endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		Precipitation float64 `json:"precipitation"`
		IsDay         int     `json:"is_day"`
	} `json:"current"`
}

// Current fetches conditions at the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (Conditions, error) {
	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,precipitation,is_day",
		c.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Conditions{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather service returned status %d", resp.StatusCode)
	}

	var forecast forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return Conditions{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	return Conditions{
		TempC:    forecast.Current.Temperature,
		Precip:   forecast.Current.Precipitation > 0,
		Daylight: forecast.Current.IsDay == 1,
	}, nil
}

// CuesFor fetches current conditions and derives cues in one call.
func (c *Client) CuesFor(ctx context.Context, lat, lon float64) (types.ContextCues, error) {
	conditions, err := c.Current(ctx, lat, lon)
	if err != nil {
		return types.ContextCues{}, err
	}
	return DeriveCues(conditions), nil
}
