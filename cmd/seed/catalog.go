package main

import (
	"github.com/google/uuid"

	"heartpet-recommender/internal/types"
)

// actionID derives a stable UUID from a human-readable slug so
// re-running the seeder upserts instead of duplicating, and Qdrant
// gets the UUID point IDs it requires.
func actionID(slug string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("heartpet-action:"+slug)).String()
}

// starterCatalog is the initial micro-action catalog. Tags drive
// weather affinity; energy drives the ordinal fit score.
func starterCatalog() []types.Action {
	return []types.Action{
		{
			ID:    actionID("connect-heart-message"),
			Title: "Send a Heart Message",
			Steps: []string{
				"Think of someone who makes you smile",
				"Send them a quick \"thinking of you\" message",
				"Notice how it feels to reach out",
			},
			DurationSeconds: 90,
			Category:        types.CategoryConnect,
			Tags:            []string{"indoor", "social"},
			Why:             "Connection nourishes both you and others",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("connect-gratitude"),
			Title: "Gratitude Check-in",
			Steps: []string{
				"Name 3 things you appreciate right now",
				"Take a moment to really feel each one",
				"Let the gratitude settle in",
			},
			DurationSeconds: 120,
			Category:        types.CategoryConnect,
			Tags:            []string{"indoor", "reflective"},
			Why:             "Gratitude shifts perspective and opens the heart",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("tidy-clear-surface"),
			Title: "Clear One Surface",
			Steps: []string{
				"Pick one small area (desk, bedside table)",
				"Remove 3 things that don't belong",
				"Notice the sense of order",
			},
			DurationSeconds: 90,
			Category:        types.CategoryTidy,
			Tags:            []string{"indoor", "hands"},
			Why:             "External order creates internal calm",
			Energy:          types.EnergyMedium,
		},
		{
			ID:    actionID("tidy-digital-declutter"),
			Title: "Digital Declutter",
			Steps: []string{
				"Close 5 browser tabs you don't need",
				"Delete 3 old photos from your camera roll",
				"Feel the digital space opening up",
			},
			DurationSeconds: 120,
			Category:        types.CategoryTidy,
			Tags:            []string{"indoor", "screen"},
			Why:             "Digital clutter affects mental clarity",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("nourish-hydration"),
			Title: "Hydration Pause",
			Steps: []string{
				"Pour yourself a glass of water",
				"Take 3 slow sips",
				"Feel the water nourishing your body",
			},
			DurationSeconds: 60,
			Category:        types.CategoryNourish,
			Tags:            []string{"indoor"},
			Why:             "Hydration supports every cell in your body",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("nourish-vitamin-d"),
			Title: "Vitamin D Break",
			Steps: []string{
				"Step outside for 2 minutes",
				"Feel the sun on your skin",
				"Take 3 deep breaths of fresh air",
			},
			DurationSeconds: 120,
			Category:        types.CategoryNourish,
			Tags:            []string{"outdoor", "brief", "sunlight"},
			Why:             "Sunlight and fresh air are natural mood boosters",
			Energy:          types.EnergyMedium,
		},
		{
			ID:    actionID("soothe-hand-massage"),
			Title: "Gentle Hand Massage",
			Steps: []string{
				"Rub lotion or oil into your hands",
				"Massage each finger slowly",
				"Feel the tension releasing",
			},
			DurationSeconds: 90,
			Category:        types.CategorySoothe,
			Tags:            []string{"indoor", "touch"},
			Why:             "Touch releases oxytocin and reduces stress",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("soothe-rain-listen"),
			Title: "Rain Listening",
			Steps: []string{
				"Stand in a doorway or by a porch",
				"Close your eyes and listen to the rain",
				"Count five different sounds",
			},
			DurationSeconds: 120,
			Category:        types.CategorySoothe,
			Tags:            []string{"outdoor", "sheltered", "doorway", "rain_listen"},
			Why:             "Rain sounds settle a busy nervous system",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("soothe-window-nature"),
			Title: "Window Nature Watch",
			Steps: []string{
				"Find a window with any sky or greenery",
				"Watch for one full minute",
				"Name three things that move",
			},
			DurationSeconds: 90,
			Category:        types.CategorySoothe,
			Tags:            []string{"indoor", "window_nature", "light"},
			Why:             "Nature views restore attention, even through glass",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("reset-power-pose"),
			Title: "Power Pose",
			Steps: []string{
				"Stand with feet apart, hands on hips",
				"Take 3 deep breaths",
				"Feel your confidence growing",
			},
			DurationSeconds: 60,
			Category:        types.CategoryReset,
			Tags:            []string{"indoor", "posture"},
			Why:             "Body posture affects brain chemistry and confidence",
			Energy:          types.EnergyMedium,
		},
		{
			ID:    actionID("reset-quick-walk"),
			Title: "Quick Walk",
			Steps: []string{
				"Step out and walk for 2 minutes",
				"Notice how your body feels",
				"Let movement clear your mind",
			},
			DurationSeconds: 120,
			Category:        types.CategoryReset,
			Tags:            []string{"outdoor", "brief", "nature"},
			Why:             "Movement increases blood flow and mental clarity",
			Energy:          types.EnergyHigh,
		},
		{
			ID:    actionID("reset-cold-water"),
			Title: "Fresh Start",
			Steps: []string{
				"Splash cold water on your face",
				"Take 3 energizing breaths",
				"Feel refreshed and ready",
			},
			DurationSeconds: 60,
			Category:        types.CategoryReset,
			Tags:            []string{"indoor"},
			Why:             "Cold water activates your nervous system",
			Energy:          types.EnergyHigh,
		},
		{
			ID:    actionID("energize-shoulder-shrugs"),
			Title: "Shoulder Shrugs",
			Steps: []string{
				"Lift your shoulders toward your ears",
				"Hold for 3 seconds",
				"Release and feel the tension drop",
			},
			DurationSeconds: 60,
			Category:        types.CategoryEnergize,
			Tags:            []string{"indoor", "movement"},
			Why:             "Releases shoulder tension and stress",
			Energy:          types.EnergyMedium,
		},
		{
			ID:    actionID("energize-distance-focus"),
			Title: "Distance Focus",
			Steps: []string{
				"Look at something far away",
				"Hold your gaze for 20 seconds",
				"Blink naturally",
			},
			DurationSeconds: 45,
			Category:        types.CategoryEnergize,
			Tags:            []string{"look_far", "window_nature"},
			Why:             "Reduces eye strain from close work",
			Energy:          types.EnergyLow,
		},
		{
			ID:    actionID("creative-breathing-box"),
			Title: "Box Breathing",
			Steps: []string{
				"Inhale for 4 counts",
				"Hold for 4 counts",
				"Exhale for 4 counts, hold for 4",
			},
			DurationSeconds: 120,
			Category:        types.CategoryCreative,
			Tags:            []string{"indoor", "breath"},
			Why:             "Steady breathing steadies the mind",
			Energy:          types.EnergyLow,
		},
	}
}
