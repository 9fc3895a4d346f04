package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPronunciationFeedbackTiers(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  string
	}{
		{"excellent", 95, "Excellent! Your pronunciation is nearly perfect."},
		{"very good at boundary", 90, "Excellent! Your pronunciation is nearly perfect."},
		{"very good", 85, "Very good! A little more practice and it will be flawless."},
		{"good", 72, "Good! Keep practicing and it will keep improving."},
		{"not bad", 65, "Not bad. Try speaking a bit more slowly and deliberately."},
		{"needs practice", 30, "More practice needed. Try pronouncing one syllable at a time."},
		{"zero", 0, "More practice needed. Try pronouncing one syllable at a time."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pronunciationFeedback(tt.score, nil))
		})
	}
}

func TestLowWordCalloutNamesAtMostThree(t *testing.T) {
	words := []WordScore{
		{Word: "alpha", Score: 50},
		{Word: "bravo", Score: 90},
		{Word: "charlie", Score: 60},
		{Word: "delta", Score: 40},
		{Word: "echo", Score: 30},
	}

	got := lowWordCallout(words)
	assert.Equal(t, " Pay special attention to the pronunciation of 'alpha', 'charlie', 'delta'.", got)
	assert.NotContains(t, got, "echo")
	assert.NotContains(t, got, "bravo")

	// Same word list, same ordered call-out.
	assert.Equal(t, got, lowWordCallout(words))
}

func TestLowWordCalloutEmptyWhenAllGood(t *testing.T) {
	words := []WordScore{{Word: "alpha", Score: 70}, {Word: "bravo", Score: 99}}
	assert.Empty(t, lowWordCallout(words))
}

func TestResonanceFeedbackAxisOrder(t *testing.T) {
	// Low F1, high F2, low stability: every axis fires, in fixed order.
	got := resonanceFeedback(250, 2600, 40, 65)

	wantOrder := []string{
		"Your resonance is in good shape.",
		"Try opening your mouth a little wider.",
		"Your tongue sits too far forward. Let it relax.",
		"Try to keep your articulation steadier.",
	}
	assert.Equal(t, strings.Join(wantOrder, " "), got)
}

func TestResonanceFeedbackQuietAxes(t *testing.T) {
	// Mid-range measurements leave only the overall tier and the steady
	// articulation note.
	got := resonanceFeedback(500, 1500, 85, 90)
	assert.Equal(t, "Your resonance is rich and stable! Your articulation is very steady.", got)
}

func TestToneFeedbackFlatIntonation(t *testing.T) {
	// Intonation below 50 with a range under 20% of the mean names the flat
	// delivery.
	got := toneFeedback(200, 10, 0.4, 1.0, 100, 100, 40)
	assert.Contains(t, got, "Your intonation is flat. Try speaking with more life.")
	assert.Contains(t, got, "Your voice sits in the medium register.")
}

func TestToneFeedbackRegisters(t *testing.T) {
	assert.Contains(t, toneFeedback(120, 60, 0.4, 1.0, 90, 90, 90), "low register")
	assert.Contains(t, toneFeedback(200, 80, 0.4, 1.0, 90, 90, 90), "medium register")
	assert.Contains(t, toneFeedback(300, 120, 0.4, 1.0, 90, 90, 90), "high register")
	assert.NotContains(t, toneFeedback(0, 0, 0.4, 1.0, 90, 90, 90), "register")
}

func TestToneFeedbackUnstableCauses(t *testing.T) {
	got := toneFeedback(200, 80, 3.0, 6.0, 30, 90, 90)
	assert.Contains(t, got, "Your voice wavers a little. Try to relax.")
	assert.Contains(t, got, "Your volume is uneven. Try to keep it constant.")
}
