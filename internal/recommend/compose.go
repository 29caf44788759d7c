package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/types"
)

// composeSystemPrompt instructs the model to produce a short variant
// of the base action tuned to current context. The response contract
// is strict JSON; anything else falls back to the base action.
const composeSystemPrompt = `You are HeartPet's playful micro-coach. Given a base action template and current context,
compose a 1-3 minute micro-quest with a friendly title and 3-5 tiny steps.
Rules:
- Respect weather affordances: if outdoor is feasible use "brief" or "sheltered" ideas; otherwise offer a creative "window-nature" or indoor alternate.
- Use clear, low-friction instructions. Avoid medical claims. Keep it non-clinical and kind.
- Return STRICT JSON: { title: string, steps: string[], seconds: number } only.`

// ChatClient generates a chat completion for a system and user prompt.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Variant is the presentation form of a recommended action. Composed
// reports whether the model produced it; false means the base action's
// own title and steps are being served.
type Variant struct {
	Title    string
	Steps    []string
	Seconds  int
	Composed bool
}

// VariantComposer turns a chosen base action into a context-tuned
// variant. Composition is best-effort: any model failure, malformed
// response, or invalid content yields the base action unchanged, never
// an error to the caller.
type VariantComposer struct {
	chat   ChatClient
	logger logging.Logger
}

// NewVariantComposer creates a composer. A nil chat client disables
// composition entirely; Compose then always returns the base action.
func NewVariantComposer(chat ChatClient) *VariantComposer {
	return &VariantComposer{
		chat:   chat,
		logger: logging.WithComponent("composer"),
	}
}

type composeInput struct {
	BaseAction string             `json:"base_action"`
	BaseSteps  []string           `json:"base_steps"`
	Context    string             `json:"context"`
	Weather    *types.ContextCues `json:"weather,omitempty"`
}

type composeOutput struct {
	Title   string   `json:"title"`
	Steps   []string `json:"steps"`
	Seconds int      `json:"seconds"`
}

// Compose produces a variant of action for the given request context.
func (vc *VariantComposer) Compose(ctx context.Context, action *types.Action, reqCtx *types.RequestContext) Variant {
	fallback := Variant{
		Title:    action.Title,
		Steps:    action.Steps,
		Seconds:  action.DurationSeconds,
		Composed: false,
	}

	if vc.chat == nil {
		return fallback
	}

	input := composeInput{
		BaseAction: action.Title,
		BaseSteps:  action.Steps,
		Context:    fmt.Sprintf("User feeling: %s, energy: %s, focus: %s", reqCtx.Mood, reqCtx.Energy, strings.Join(reqCtx.Focus, ", ")),
	}
	if !reqCtx.Cues.IsEmpty() {
		input.Weather = &reqCtx.Cues
	}

	userPrompt, err := json.Marshal(input)
	if err != nil {
		vc.logger.Warn("Failed to marshal compose input, serving base action", "action_id", action.ID, "error", err)
		return fallback
	}

	raw, err := vc.chat.Complete(ctx, composeSystemPrompt, string(userPrompt))
	if err != nil {
		vc.logger.Warn("Variant composition failed, serving base action", "action_id", action.ID, "error", err)
		return fallback
	}

	variant, err := parseVariant(raw)
	if err != nil {
		vc.logger.Warn("Variant response rejected, serving base action", "action_id", action.ID, "error", err)
		return fallback
	}

	return variant
}

// parseVariant validates the model's response against the contract.
func parseVariant(raw string) (Variant, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var out composeOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return Variant{}, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if strings.TrimSpace(out.Title) == "" {
		return Variant{}, fmt.Errorf("variant title is empty")
	}
	if len(out.Steps) == 0 {
		return Variant{}, fmt.Errorf("variant has no steps")
	}
	for i, step := range out.Steps {
		if strings.TrimSpace(step) == "" {
			return Variant{}, fmt.Errorf("variant step %d is empty", i)
		}
	}
	if out.Seconds < 15 || out.Seconds > 600 {
		return Variant{}, fmt.Errorf("variant duration %ds out of range", out.Seconds)
	}

	return Variant{
		Title:    strings.TrimSpace(out.Title),
		Steps:    out.Steps,
		Seconds:  out.Seconds,
		Composed: true,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence if the
// model ignored the strict-JSON instruction.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
