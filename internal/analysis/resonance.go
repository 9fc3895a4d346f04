package analysis

import (
	"math"
	"math/rand"

	"github.com/windfall/truevoice/internal/acoustic"
	"github.com/windfall/truevoice/internal/audio"
)

// ResonanceScorer derives formant-based resonance quality and stability
// scores from a canonical waveform.
type ResonanceScorer struct {
	analyze func(*audio.Waveform) *acoustic.FormantTrack
}

// NewResonanceScorer creates a scorer backed by the built-in formant
// toolkit.
func NewResonanceScorer() *ResonanceScorer {
	return &ResonanceScorer{analyze: acoustic.AnalyzeFormants}
}

// Score extracts the formant track and computes the resonance composites.
// Failures are reported in the result, never raised: unreadable audio (for
// example bytes the normalizer passed through unconverted) and silent
// recordings both come back with Success=false and a descriptive message.
func (s *ResonanceScorer) Score(wavBytes []byte) *ResonanceResult {
	waveform, err := audio.DecodeWAV(wavBytes)
	if err != nil {
		return &ResonanceResult{
			Success:  false,
			Error:    err.Error(),
			Feedback: "The audio could not be read for resonance analysis.",
		}
	}

	track := s.analyze(waveform)
	if len(track.Samples) == 0 {
		return &ResonanceResult{
			Success:  false,
			Error:    "no valid formant samples",
			Feedback: "No resonance could be measured. Try speaking louder, closer to the microphone.",
		}
	}

	var f1s, f2s, f3s []float64
	for _, sample := range track.Samples {
		f1s = append(f1s, sample.F1)
		f2s = append(f2s, sample.F2)
		f3s = append(f3s, sample.F3)
	}

	meanF1, stdF1 := meanStd(f1s)
	meanF2, stdF2 := meanStd(f2s)
	meanF3, stdF3 := meanStd(f3s)

	// Saturating penalties: an F1 deviation of 200 Hz (400 Hz for F2,
	// 500 Hz for F3) zeroes the per-formant stability.
	stabilityF1 := math.Max(0, 100-stdF1/2)
	stabilityF2 := math.Max(0, 100-stdF2/4)
	stabilityF3 := math.Max(0, 100-stdF3/5)
	stability := stabilityF1*0.4 + stabilityF2*0.4 + stabilityF3*0.2

	resonance := resonanceComposite(meanF1, meanF2, stability)

	return &ResonanceResult{
		Success:        true,
		MeanF1:         round1(meanF1),
		MeanF2:         round1(meanF2),
		MeanF3:         round1(meanF3),
		StabilityF1:    round1(stabilityF1),
		StabilityF2:    round1(stabilityF2),
		StabilityF3:    round1(stabilityF3),
		StabilityScore: round1(stability),
		ResonanceScore: round1(resonance),
		FormantTrack:   track.Samples,
		Feedback:       resonanceFeedback(meanF1, meanF2, stability, resonance),
	}
}

// resonanceComposite builds the resonance-quality score from a base of 50:
// range-membership bonuses for F1 and F2, a bonus for a vowel-like F2/F1
// ratio, and a small stability contribution. Clamped to [0, 100].
func resonanceComposite(meanF1, meanF2, stability float64) float64 {
	score := 50.0

	switch {
	case meanF1 >= 250 && meanF1 <= 900:
		score += 15
	case meanF1 >= 200 && meanF1 <= 1000:
		score += 10
	default:
		score -= 10
	}

	switch {
	case meanF2 >= 700 && meanF2 <= 2800:
		score += 15
	case meanF2 >= 600 && meanF2 <= 3000:
		score += 10
	default:
		score -= 10
	}

	ratio := 0.0
	if meanF1 > 0 {
		ratio = meanF2 / meanF1
	}
	switch {
	case ratio >= 1.5 && ratio <= 4.0:
		score += 10
	case ratio >= 1.2 && ratio <= 5.0:
		score += 5
	}

	score += stability * 0.1

	return clamp(score)
}

func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}

// OfflineResonance synthesizes a plausible resonance result, driving the
// sampled measurements through the real composite and feedback logic.
func OfflineResonance(rng *rand.Rand) *ResonanceResult {
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	meanF1 := uniform(400, 700)
	meanF2 := uniform(1200, 1800)
	meanF3 := uniform(2400, 3000)
	stability := uniform(60, 90)
	resonance := resonanceComposite(meanF1, meanF2, stability)

	track := make([]acoustic.FormantSample, 0, 20)
	for i := 0; i < 20; i++ {
		track = append(track, acoustic.FormantSample{
			Time: math.Round(float64(i)*0.05*1000) / 1000,
			F1:   round1(meanF1 + uniform(-50, 50)),
			F2:   round1(meanF2 + uniform(-100, 100)),
			F3:   round1(meanF3 + uniform(-150, 150)),
		})
	}

	return &ResonanceResult{
		Success:        true,
		MeanF1:         round1(meanF1),
		MeanF2:         round1(meanF2),
		MeanF3:         round1(meanF3),
		StabilityF1:    round1(uniform(70, 95)),
		StabilityF2:    round1(uniform(65, 90)),
		StabilityF3:    round1(uniform(60, 85)),
		StabilityScore: round1(stability),
		ResonanceScore: round1(resonance),
		FormantTrack:   track,
		Feedback:       resonanceFeedback(meanF1, meanF2, stability, resonance),
	}
}
