package analysis

import (
	"fmt"
	"strings"
)

// Feedback is generated axis by axis: each axis owns a small rule table
// (descending threshold, phrase) and the applicable phrases are joined in a
// fixed order. Keeping the tables flat makes every axis testable on its own.

type tierRule struct {
	min    float64
	phrase string
}

// firstTier returns the phrase of the first rule whose threshold the value
// meets. Tables end with a catch-all min of negative infinity semantics via
// a zero (or lower) threshold.
func firstTier(rules []tierRule, value float64) string {
	for _, r := range rules {
		if value >= r.min {
			return r.phrase
		}
	}
	return ""
}

var pronunciationTiers = []tierRule{
	{90, "Excellent! Your pronunciation is nearly perfect."},
	{80, "Very good! A little more practice and it will be flawless."},
	{70, "Good! Keep practicing and it will keep improving."},
	{60, "Not bad. Try speaking a bit more slowly and deliberately."},
	{-1, "More practice needed. Try pronouncing one syllable at a time."},
}

// lowWordCallout names up to three words scoring below 70, in their spoken
// order. Deterministic for a given word list.
func lowWordCallout(words []WordScore) string {
	var low []string
	for _, w := range words {
		if w.Score < 70 {
			low = append(low, fmt.Sprintf("'%s'", w.Word))
		}
		if len(low) == 3 {
			break
		}
	}
	if len(low) == 0 {
		return ""
	}
	return fmt.Sprintf(" Pay special attention to the pronunciation of %s.", strings.Join(low, ", "))
}

// pronunciationFeedback maps the overall score to a tier phrase and appends
// the low-word call-out.
func pronunciationFeedback(pronunciationScore float64, words []WordScore) string {
	return firstTier(pronunciationTiers, pronunciationScore) + lowWordCallout(words)
}

// Resonance axes, concatenated in fixed order: overall tier, F1 position,
// F2 position, stability.

var resonanceTiers = []tierRule{
	{80, "Your resonance is rich and stable!"},
	{60, "Your resonance is in good shape."},
	{-1, "Your resonance needs some work."},
}

func resonanceFeedback(meanF1, meanF2, stability, resonance float64) string {
	parts := []string{firstTier(resonanceTiers, resonance)}

	// F1 tracks mouth opening.
	if meanF1 < 300 {
		parts = append(parts, "Try opening your mouth a little wider.")
	} else if meanF1 > 800 {
		parts = append(parts, "You don't need to open your mouth quite so wide.")
	}

	// F2 tracks tongue position.
	if meanF2 < 1000 {
		parts = append(parts, "Try placing your tongue slightly further forward.")
	} else if meanF2 > 2500 {
		parts = append(parts, "Your tongue sits too far forward. Let it relax.")
	}

	if stability < 50 {
		parts = append(parts, "Try to keep your articulation steadier.")
	} else if stability >= 80 {
		parts = append(parts, "Your articulation is very steady.")
	}

	return strings.Join(parts, " ")
}

// Tone axes, concatenated in fixed order: overall tier, stability cause,
// clarity, intonation, pitch register.

var toneTiers = []tierRule{
	{80, "Your voice sounds great!"},
	{60, "Your voice is in good shape."},
	{-1, "Your voice needs some work."},
}

func toneFeedback(meanPitch, pitchRange, jitter, shimmer float64, stability, clarity, intonation float64) string {
	overall := (stability + clarity + intonation) / 3
	parts := []string{firstTier(toneTiers, overall)}

	if stability < 50 {
		if jitter > 2 {
			parts = append(parts, "Your voice wavers a little. Try to relax.")
		}
		if shimmer > 5 {
			parts = append(parts, "Your volume is uneven. Try to keep it constant.")
		}
	} else if stability >= 80 {
		parts = append(parts, "Your voice is steady.")
	}

	if clarity < 50 {
		parts = append(parts, "Your voice sounds rough. Drink some water and try again.")
	} else if clarity >= 80 {
		parts = append(parts, "Your voice is clear and bright.")
	}

	if intonation < 50 {
		if pitchRange < meanPitch*0.2 {
			parts = append(parts, "Your intonation is flat. Try speaking with more life.")
		}
	} else if intonation >= 80 {
		parts = append(parts, "Your intonation sounds natural.")
	}

	if meanPitch > 0 {
		register := "high"
		if meanPitch < 150 {
			register = "low"
		} else if meanPitch < 250 {
			register = "medium"
		}
		parts = append(parts, fmt.Sprintf("Your voice sits in the %s register.", register))
	}

	return strings.Join(parts, " ")
}
