package recommend

import (
	"strings"

	"heartpet-recommender/internal/types"
)

// BuildQuery flattens a request context into the text embedded for
// retrieval. The layout is fixed: check-in text, focus tags, mood and
// energy, then context cues in canonical key order. Identical inputs
// always produce identical strings, so embedding caches stay warm.
func BuildQuery(reqCtx *types.RequestContext) string {
	focusTags := make([]string, 0, len(reqCtx.Focus))
	for _, f := range reqCtx.Focus {
		focusTags = append(focusTags, "focus:"+f)
	}

	lines := []string{
		reqCtx.Text,
		strings.Join(focusTags, " "),
		"mood:" + reqCtx.Mood + " energy:" + string(reqCtx.Energy),
		strings.Join(reqCtx.Cues.Pairs(), " "),
	}
	return strings.Join(lines, "\n")
}
