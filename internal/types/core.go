// Package types provides the core domain types for the HeartPet
// recommendation engine: actions, request contexts, context cues,
// ranking candidates, and the recommendation result shape.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EnergyLevel represents the three-level ordinal energy scale.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// Validate ensures the energy level is one of the known values.
func (e EnergyLevel) Validate() error {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return nil
	default:
		return fmt.Errorf("energy must be one of low, medium, high, got %q", string(e))
	}
}

// Ordinal returns the position on the low<medium<high scale, or -1 if unknown.
func (e EnergyLevel) Ordinal() int {
	switch e {
	case EnergyLow:
		return 0
	case EnergyMedium:
		return 1
	case EnergyHigh:
		return 2
	default:
		return -1
	}
}

// String returns the string representation.
func (e EnergyLevel) String() string {
	return string(e)
}

// Category labels for the fixed action taxonomy.
const (
	CategorySoothe   = "Soothe"
	CategoryConnect  = "Connect"
	CategoryNourish  = "Nourish"
	CategoryReset    = "Reset"
	CategoryTidy     = "Tidy"
	CategoryEnergize = "Energize"
	CategoryCreative = "Creative"
)

// Action is a candidate recommendation unit: a short wellness activity
// with ordered steps, a duration, and context-fit tags.
type Action struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Steps           []string    `json:"steps"`
	DurationSeconds int         `json:"seconds"`
	Category        string      `json:"category"`
	Tags            []string    `json:"tags"`
	Why             string      `json:"why"`
	Energy          EnergyLevel `json:"energy,omitempty"`
	Embedding       []float64   `json:"embedding,omitempty"`
}

// Validate checks the structural invariants of an action.
func (a *Action) Validate() error {
	if a.ID == "" {
		return errors.New("action id cannot be empty")
	}
	if a.Title == "" {
		return errors.New("action title cannot be empty")
	}
	if len(a.Steps) == 0 {
		return errors.New("action must have at least one step")
	}
	if a.DurationSeconds <= 0 {
		return fmt.Errorf("action duration must be positive, got %d", a.DurationSeconds)
	}
	if a.Category == "" {
		return errors.New("action category cannot be empty")
	}
	return nil
}

// HasValidEmbedding reports whether the action carries an embedding of
// the expected dimension. Actions failing this check never participate
// in ranking.
func (a *Action) HasValidEmbedding(dim int) bool {
	return len(a.Embedding) == dim
}

// TagSet returns the action's tags as a lowercase lookup set.
func (a *Action) TagSet() map[string]bool {
	set := make(map[string]bool, len(a.Tags))
	for _, t := range a.Tags {
		set[strings.ToLower(t)] = true
	}
	return set
}

// ContextCues is the typed, open-extensible bag of ambient signals
// attached to a recommendation request. Recognized keys are modeled as
// fields; anything else lands in Extra and is ignored by scoring but
// still serialized into the embedding query.
type ContextCues struct {
	Weather              string   `json:"weather,omitempty"` // clear|cloudy|rain|cold|hot|night|day
	TempC                *float64 `json:"temp_c,omitempty"`
	Precip               *bool    `json:"precip,omitempty"`
	Daylight             *bool    `json:"daylight,omitempty"`
	GoodOutdoorBrief     *bool    `json:"good_outdoor_brief,omitempty"`
	GoodOutdoorSheltered *bool    `json:"good_outdoor_sheltered,omitempty"`
	GoodWindowNature     *bool    `json:"good_window_nature,omitempty"`

	// Extra holds unrecognized cue keys (vision-derived signals and the
	// like). Scoring ignores them; the query builder does not.
	Extra map[string]string `json:"-"`
}

// cueFieldNames are the JSON keys handled by the typed fields above.
var cueFieldNames = map[string]bool{
	"weather":                true,
	"temp_c":                 true,
	"precip":                 true,
	"daylight":               true,
	"good_outdoor_brief":     true,
	"good_outdoor_sheltered": true,
	"good_window_nature":     true,
}

// UnmarshalJSON decodes recognized keys into typed fields and collects
// everything else into Extra as strings.
func (c *ContextCues) UnmarshalJSON(data []byte) error {
	type alias ContextCues
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	*c = ContextCues(known)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		if cueFieldNames[key] {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		var s string
		if err := json.Unmarshal(val, &s); err == nil {
			c.Extra[key] = s
			continue
		}
		c.Extra[key] = strings.Trim(string(val), `"`)
	}
	return nil
}

// IsEmpty reports whether no cue at all is set.
func (c *ContextCues) IsEmpty() bool {
	return c.Weather == "" &&
		c.TempC == nil &&
		c.Precip == nil &&
		c.Daylight == nil &&
		c.GoodOutdoorBrief == nil &&
		c.GoodOutdoorSheltered == nil &&
		c.GoodWindowNature == nil &&
		len(c.Extra) == 0
}

// Pairs returns every set cue as "key:value" strings in canonical
// (lexicographic) key order. The query builder depends on this order
// being stable across calls.
func (c *ContextCues) Pairs() []string {
	kv := make(map[string]string)
	if c.Weather != "" {
		kv["weather"] = c.Weather
	}
	if c.TempC != nil {
		kv["temp_c"] = strconv.FormatFloat(*c.TempC, 'f', -1, 64)
	}
	if c.Precip != nil {
		kv["precip"] = strconv.FormatBool(*c.Precip)
	}
	if c.Daylight != nil {
		kv["daylight"] = strconv.FormatBool(*c.Daylight)
	}
	if c.GoodOutdoorBrief != nil {
		kv["good_outdoor_brief"] = strconv.FormatBool(*c.GoodOutdoorBrief)
	}
	if c.GoodOutdoorSheltered != nil {
		kv["good_outdoor_sheltered"] = strconv.FormatBool(*c.GoodOutdoorSheltered)
	}
	if c.GoodWindowNature != nil {
		kv["good_window_nature"] = strconv.FormatBool(*c.GoodWindowNature)
	}
	for k, v := range c.Extra {
		if _, shadowed := kv[k]; !shadowed {
			kv[k] = v
		}
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+kv[k])
	}
	return pairs
}

// RequestContext is the ephemeral input to one recommendation call.
// It is constructed per call and never persisted by the engine.
type RequestContext struct {
	UserID string      `json:"userId"`
	Text   string      `json:"text"`
	Mood   string      `json:"mood"`
	Energy EnergyLevel `json:"energy"`
	Focus  []string    `json:"focus"`
	Cues   ContextCues `json:"cues"`
}

// Validate rejects malformed requests before any external call is made.
func (r *RequestContext) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("userId cannot be empty")
	}
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text cannot be empty")
	}
	if err := r.Energy.Validate(); err != nil {
		return err
	}
	if len(r.Focus) == 0 {
		return errors.New("focus must contain at least one tag")
	}
	return nil
}

// SearchHit is one nearest-neighbor result from the vector index or the
// brute-force fallback, highest score first.
type SearchHit struct {
	ActionID string  `json:"action_id"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Candidate is the transient ranking unit. It exists only for the
// duration of one ranking call.
type Candidate struct {
	Action          Action
	Similarity      float64
	CategoryWeight  float64
	EnergyFit       float64
	Novelty         float64
	WeatherAffinity float64
	FinalScore      float64
	RecentCount     int
}

// Explanation breaks the final score into its components. Callers and
// tests depend on being able to audit each factor.
type Explanation struct {
	Similarity      float64 `json:"similarity"`
	Weight          float64 `json:"weight"`
	EnergyFit       float64 `json:"energy_fit"`
	Novelty         float64 `json:"novelty"`
	WeatherAffinity float64 `json:"weather_affinity"`
}

// Recommendation is the final result returned to the caller. Composed
// reports whether the variant composer rephrased the base action.
type Recommendation struct {
	ActionID        string      `json:"action_id"`
	Title           string      `json:"title"`
	Steps           []string    `json:"steps"`
	DurationSeconds int         `json:"seconds"`
	Category        string      `json:"category"`
	Tags            []string    `json:"tags"`
	Why             string      `json:"why"`
	Explain         Explanation `json:"explain"`
	Composed        bool        `json:"composed"`
}

// ExecutionRecord is a historical completion fact used for novelty
// scoring.
type ExecutionRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ActionID   string    `json:"action_id"`
	Completed  bool      `json:"completed"`
	ExecutedAt time.Time `json:"executed_at"`
}
