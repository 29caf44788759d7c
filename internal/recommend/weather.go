package recommend

import (
	"strings"

	"heartpet-recommender/internal/types"
)

// Weather affinity bounds. Every rule delta is small relative to the
// similarity term so weather nudges the ranking without dominating it.
// The bare-outdoor penalty sits above boostOutdoorBrief: suggesting an
// exposed outdoor action in bad conditions must cost more than a
// favorable one gains.
const (
	boostOutdoorBrief     = 0.04
	boostOutdoorDaylight  = 0.02
	boostOutdoorSheltered = 0.05
	boostWindowNature     = 0.04
	penaltyOutdoorBad     = 0.05
	penaltySunlightNight  = 0.03
	penaltyOutdoorRain    = 0.04
)

// WeatherAffinity scores how well an action's tags suit the current
// conditions. With no cues set it is exactly 0 for every action so a
// cueless request ranks purely on the other factors. Unknown cue keys
// never contribute.
func WeatherAffinity(tags []string, cues *types.ContextCues) float64 {
	if cues == nil || cues.IsEmpty() {
		return 0
	}

	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[strings.ToLower(t)] = true
	}

	score := 0.0

	briefOK := cues.GoodOutdoorBrief != nil && *cues.GoodOutdoorBrief
	shelteredOK := cues.GoodOutdoorSheltered != nil && *cues.GoodOutdoorSheltered
	windowOK := cues.GoodWindowNature != nil && *cues.GoodWindowNature

	if briefOK && (set["outdoor"] || set["brief"]) {
		score += boostOutdoorBrief
	}
	if briefOK && (set["sunlight"] || set["nature"] || set["look_far"]) {
		score += boostOutdoorDaylight
	}
	if shelteredOK && set["outdoor"] && (set["sheltered"] || set["doorway"] || set["porch"] || set["rain_listen"]) {
		score += boostOutdoorSheltered
	}
	if windowOK && (set["window_nature"] || set["indoor"] || set["light"]) {
		score += boostWindowNature
	}

	if !briefOK && set["outdoor"] && !set["sheltered"] {
		score -= penaltyOutdoorBad
	}
	if cues.Weather == "night" && set["sunlight"] {
		score -= penaltySunlightNight
	}
	if cues.Weather == "rain" && set["outdoor"] && !set["sheltered"] {
		score -= penaltyOutdoorRain
	}

	return score
}
