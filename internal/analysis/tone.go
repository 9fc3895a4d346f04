package analysis

import (
	"math"
	"math/rand"

	"github.com/windfall/truevoice/internal/acoustic"
	"github.com/windfall/truevoice/internal/audio"
)

// ToneScorer derives pitch and voice-quality scores from a canonical
// waveform.
type ToneScorer struct {
	analyze func(*audio.Waveform) *acoustic.PitchAnalysis
}

// NewToneScorer creates a scorer backed by the built-in pitch toolkit.
func NewToneScorer() *ToneScorer {
	return &ToneScorer{analyze: acoustic.AnalyzePitch}
}

// Score measures pitch statistics, jitter, shimmer and HNR and computes the
// tone composites. Measurements undefined for the signal (no voiced frames)
// arrive already floored to zero from the toolkit; only unreadable audio
// produces a failure result.
func (s *ToneScorer) Score(wavBytes []byte) *ToneResult {
	waveform, err := audio.DecodeWAV(wavBytes)
	if err != nil {
		return &ToneResult{
			Success:  false,
			Error:    err.Error(),
			Feedback: "The audio could not be read for tone analysis.",
		}
	}

	pitch := s.analyze(waveform)

	pitchRange := 0.0
	if pitch.MinPitch > 0 {
		pitchRange = pitch.MaxPitch - pitch.MinPitch
	}

	stability := stabilityComposite(pitch.Jitter, pitch.Shimmer)
	clarity := clarityComposite(pitch.HNR)
	intonation := intonationComposite(pitchRange, pitch.MeanPitch)
	tone := clamp(stability*0.3 + clarity*0.4 + intonation*0.3)

	return &ToneResult{
		Success:         true,
		MeanPitch:       round1(pitch.MeanPitch),
		MinPitch:        round1(pitch.MinPitch),
		MaxPitch:        round1(pitch.MaxPitch),
		PitchRange:      round1(pitchRange),
		PitchStd:        round1(pitch.PitchStd),
		Jitter:          math.Round(pitch.Jitter*100) / 100,
		Shimmer:         math.Round(pitch.Shimmer*100) / 100,
		HNR:             round1(pitch.HNR),
		StabilityScore:  round1(stability),
		ClarityScore:    round1(clarity),
		IntonationScore: round1(intonation),
		ToneScore:       round1(tone),
		Feedback:        toneFeedback(pitch.MeanPitch, pitchRange, pitch.Jitter, pitch.Shimmer, stability, clarity, intonation),
	}
}

// stabilityComposite sums independent piecewise scores for jitter and
// shimmer, capped at 100. Jitter under 1% and shimmer under 3% are normal
// voice quality.
func stabilityComposite(jitter, shimmer float64) float64 {
	var jitterScore float64
	switch {
	case jitter < 0.5:
		jitterScore = 50
	case jitter < 1.0:
		jitterScore = 40
	case jitter < 2.0:
		jitterScore = 25
	default:
		jitterScore = math.Max(0, 50-jitter*10)
	}

	var shimmerScore float64
	switch {
	case shimmer < 2:
		shimmerScore = 50
	case shimmer < 4:
		shimmerScore = 40
	case shimmer < 6:
		shimmerScore = 25
	default:
		shimmerScore = math.Max(0, 50-shimmer*5)
	}

	return math.Min(100, jitterScore+shimmerScore)
}

// clarityComposite interpolates HNR across quality bands: 20 dB and above
// is perfectly clear, below 5 dB scores proportionally.
func clarityComposite(hnr float64) float64 {
	switch {
	case hnr >= 20:
		return 100
	case hnr >= 15:
		return 80 + (hnr-15)*4
	case hnr >= 10:
		return 60 + (hnr-10)*4
	case hnr >= 5:
		return 40 + (hnr-5)*4
	default:
		return math.Max(0, hnr*8)
	}
}

// intonationComposite rewards a pitch range between 30% and 80% of the mean
// pitch; narrower reads as monotone, wider as erratic.
func intonationComposite(pitchRange, meanPitch float64) float64 {
	if meanPitch == 0 {
		return 50
	}

	ratio := pitchRange / meanPitch
	switch {
	case ratio >= 0.3 && ratio <= 0.8:
		return 100
	case ratio >= 0.2 && ratio <= 1.0:
		return 80
	case ratio >= 0.1 && ratio <= 1.2:
		return 60
	case ratio < 0.1:
		return 40
	default:
		return 50
	}
}

// OfflineTone synthesizes a plausible tone result, driving the sampled
// measurements through the real composite and feedback logic.
func OfflineTone(rng *rand.Rand) *ToneResult {
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	meanPitch := uniform(100, 250)
	pitchRange := uniform(30, 100)
	jitter := uniform(0.3, 1.5)
	shimmer := uniform(1.5, 4.5)
	hnr := uniform(12, 22)

	stability := stabilityComposite(jitter, shimmer)
	clarity := clarityComposite(hnr)
	intonation := intonationComposite(pitchRange, meanPitch)
	tone := clamp(stability*0.3 + clarity*0.4 + intonation*0.3)

	return &ToneResult{
		Success:         true,
		MeanPitch:       round1(meanPitch),
		MinPitch:        round1(meanPitch - pitchRange/2),
		MaxPitch:        round1(meanPitch + pitchRange/2),
		PitchRange:      round1(pitchRange),
		PitchStd:        round1(pitchRange / 3),
		Jitter:          math.Round(jitter*100) / 100,
		Shimmer:         math.Round(shimmer*100) / 100,
		HNR:             round1(hnr),
		StabilityScore:  round1(stability),
		ClarityScore:    round1(clarity),
		IntonationScore: round1(intonation),
		ToneScore:       round1(tone),
		Feedback:        toneFeedback(meanPitch, pitchRange, jitter, shimmer, stability, clarity, intonation),
	}
}
