package acoustic

import (
	"math"

	"github.com/windfall/truevoice/internal/audio"
)

// Pitch analysis parameters. The 75–600 Hz search band covers adult speech;
// frames outside it are treated as unvoiced.
const (
	pitchFloorHz   = 75.0
	pitchCeilHz    = 600.0
	pitchWindowSec = 0.040
	pitchStepSec   = 0.010

	// Minimum normalized autocorrelation for a frame to count as voiced.
	voicingThreshold = 0.45
	pitchEnergyFloor = 0.01
)

// PitchAnalysis carries fundamental-frequency statistics and voice-quality
// measurements over the voiced portion of a waveform. Every field is floored
// to zero when no voiced signal was detected.
type PitchAnalysis struct {
	MeanPitch float64
	MinPitch  float64
	MaxPitch  float64
	PitchStd  float64

	Jitter  float64 // cycle-to-cycle period perturbation, percent
	Shimmer float64 // cycle-to-cycle amplitude perturbation, percent
	HNR     float64 // harmonic-to-noise ratio, dB

	VoicedFrames int
}

// voicedFrame is one voiced analysis frame.
type voicedFrame struct {
	index     int     // frame index in the hop grid
	f0        float64 // fundamental frequency, Hz
	amplitude float64 // peak amplitude in the frame
	harmonic  float64 // normalized autocorrelation at the pitch lag
}

// AnalyzePitch measures pitch statistics, jitter, shimmer and HNR from a
// canonical waveform using normalized autocorrelation per frame.
func AnalyzePitch(w *audio.Waveform) *PitchAnalysis {
	frameLen := int(pitchWindowSec * float64(w.SampleRate))
	step := int(pitchStepSec * float64(w.SampleRate))
	result := &PitchAnalysis{}

	if frameLen < 2 || step < 1 || len(w.Samples) < frameLen {
		return result
	}

	minLag := int(float64(w.SampleRate) / pitchCeilHz)
	maxLag := int(float64(w.SampleRate) / pitchFloorHz)
	if maxLag >= frameLen {
		maxLag = frameLen - 1
	}
	if minLag < 2 {
		minLag = 2
	}

	var voiced []voicedFrame
	frameIdx := 0
	for start := 0; start+frameLen <= len(w.Samples); start += step {
		frame := w.Samples[start : start+frameLen]
		if vf, ok := analyzeVoicedFrame(frame, w.SampleRate, minLag, maxLag); ok {
			vf.index = frameIdx
			voiced = append(voiced, vf)
		}
		frameIdx++
	}

	if len(voiced) == 0 {
		return result
	}
	result.VoicedFrames = len(voiced)

	// Pitch statistics over voiced frames.
	minP, maxP := voiced[0].f0, voiced[0].f0
	var sum float64
	for _, vf := range voiced {
		sum += vf.f0
		minP = math.Min(minP, vf.f0)
		maxP = math.Max(maxP, vf.f0)
	}
	mean := sum / float64(len(voiced))

	var variance float64
	for _, vf := range voiced {
		d := vf.f0 - mean
		variance += d * d
	}
	variance /= float64(len(voiced))

	result.MeanPitch = mean
	result.MinPitch = minP
	result.MaxPitch = maxP
	result.PitchStd = math.Sqrt(variance)
	result.Jitter = cycleJitter(voiced)
	result.Shimmer = cycleShimmer(voiced)
	result.HNR = meanHNR(voiced)

	return result
}

// analyzeVoicedFrame returns the pitch measurement for one frame, or
// ok=false when the frame is silent or aperiodic.
func analyzeVoicedFrame(frame []float64, sampleRate, minLag, maxLag int) (voicedFrame, bool) {
	if rms(frame) < pitchEnergyFloor {
		return voicedFrame{}, false
	}

	var energy float64
	peak := 0.0
	for _, s := range frame {
		energy += s * s
		peak = math.Max(peak, math.Abs(s))
	}
	if energy == 0 {
		return voicedFrame{}, false
	}

	// Normalized autocorrelation peak inside the lag band.
	bestLag, bestR := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		r := normalizedAC(frame, lag)
		if r > bestR {
			bestR = r
			bestLag = lag
		}
	}

	if bestLag == 0 || bestR < voicingThreshold {
		return voicedFrame{}, false
	}

	// Octave-error guard: a lag of 2T correlates as well as the true
	// period T, so prefer a submultiple whose correlation is nearly as
	// strong.
	for bestLag/2 >= minLag {
		half := bestLag / 2
		r := normalizedAC(frame, half)
		if r < 0.9*bestR || r < voicingThreshold {
			break
		}
		bestLag = half
		bestR = r
	}

	return voicedFrame{
		f0:        float64(sampleRate) / float64(bestLag),
		amplitude: peak,
		harmonic:  bestR,
	}, true
}

// normalizedAC is the normalized autocorrelation of frame at the given lag.
func normalizedAC(frame []float64, lag int) float64 {
	var ac, e1, e2 float64
	for i := lag; i < len(frame); i++ {
		ac += frame[i] * frame[i-lag]
		e1 += frame[i] * frame[i]
		e2 += frame[i-lag] * frame[i-lag]
	}
	denom := math.Sqrt(e1 * e2)
	if denom == 0 {
		return 0
	}
	return ac / denom
}

// cycleJitter approximates local jitter: mean absolute difference between
// consecutive pitch periods over the mean period, as a percentage. Only
// adjacent voiced frames contribute.
func cycleJitter(voiced []voicedFrame) float64 {
	var diffSum, periodSum float64
	pairs := 0
	for i := 1; i < len(voiced); i++ {
		if voiced[i].index != voiced[i-1].index+1 {
			continue
		}
		t0 := 1 / voiced[i-1].f0
		t1 := 1 / voiced[i].f0
		diffSum += math.Abs(t1 - t0)
		periodSum += t0
		pairs++
	}
	if pairs == 0 || periodSum == 0 {
		return 0
	}
	meanPeriod := periodSum / float64(pairs)
	return (diffSum / float64(pairs)) / meanPeriod * 100
}

// cycleShimmer approximates local shimmer: mean absolute difference between
// consecutive peak amplitudes over the mean amplitude, as a percentage.
func cycleShimmer(voiced []voicedFrame) float64 {
	var diffSum, ampSum float64
	pairs := 0
	for i := 1; i < len(voiced); i++ {
		if voiced[i].index != voiced[i-1].index+1 {
			continue
		}
		diffSum += math.Abs(voiced[i].amplitude - voiced[i-1].amplitude)
		ampSum += voiced[i-1].amplitude
		pairs++
	}
	if pairs == 0 || ampSum == 0 {
		return 0
	}
	meanAmp := ampSum / float64(pairs)
	return (diffSum / float64(pairs)) / meanAmp * 100
}

// meanHNR converts each voiced frame's normalized autocorrelation r into
// 10*log10(r/(1-r)) and averages, the standard harmonicity estimate.
func meanHNR(voiced []voicedFrame) float64 {
	var sum float64
	for _, vf := range voiced {
		r := vf.harmonic
		if r > 0.999 {
			r = 0.999
		}
		if r <= 0 {
			continue
		}
		sum += 10 * math.Log10(r/(1-r))
	}
	hnr := sum / float64(len(voiced))
	if hnr < 0 || math.IsNaN(hnr) {
		return 0
	}
	return hnr
}
