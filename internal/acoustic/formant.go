package acoustic

import (
	"math"

	"github.com/windfall/truevoice/internal/audio"
)

// Formant extraction parameters. Frame geometry follows the usual praat
// defaults: 25 ms analysis window sampled every 10 ms, envelope fitted up to
// 5.5 kHz.
const (
	formantWindowSec = 0.025
	formantStepSec   = 0.010
	formantMaxFreq   = 5500.0
	formantMinFreq   = 150.0
	preEmphasisCoeff = 0.97
	envelopeBins     = 256

	// Frames quieter than this RMS carry no reliable formant structure.
	formantEnergyFloor = 0.01
)

// FormantSample is one time step of the formant track.
type FormantSample struct {
	Time float64 `json:"time"`
	F1   float64 `json:"f1"`
	F2   float64 `json:"f2"`
	F3   float64 `json:"f3"`
}

// FormantTrack is the sequence of valid formant samples across a waveform.
// Frames where any of the first three formants is undefined (silence,
// unvoiced consonants) are absent from Samples.
type FormantTrack struct {
	Samples []FormantSample
}

// AnalyzeFormants extracts an F1/F2/F3 track from a canonical waveform using
// linear-prediction envelope peak picking per frame.
func AnalyzeFormants(w *audio.Waveform) *FormantTrack {
	frameLen := int(formantWindowSec * float64(w.SampleRate))
	step := int(formantStepSec * float64(w.SampleRate))
	track := &FormantTrack{}

	if frameLen < 2 || step < 1 || len(w.Samples) < frameLen {
		return track
	}

	order := 2 + w.SampleRate/1000

	for start := 0; start+frameLen <= len(w.Samples); start += step {
		frame := make([]float64, frameLen)
		copy(frame, w.Samples[start:start+frameLen])

		if rms(frame) < formantEnergyFloor {
			continue
		}

		frame = hammingWindow(preEmphasize(frame, preEmphasisCoeff))

		r := autocorrelate(frame, order)
		lpc := levinsonDurbin(r, order)
		if lpc == nil {
			continue
		}

		env := lpcEnvelope(lpc, w.SampleRate, formantMaxFreq, envelopeBins)
		peaks := peakFrequencies(env, formantMaxFreq)

		formants := selectFormants(peaks)
		if formants == nil {
			continue
		}

		track.Samples = append(track.Samples, FormantSample{
			Time: round3(float64(start) / float64(w.SampleRate)),
			F1:   round1(formants[0]),
			F2:   round1(formants[1]),
			F3:   round1(formants[2]),
		})
	}

	return track
}

// selectFormants maps envelope peaks to F1/F2/F3, or nil when fewer than
// three plausible resonances are present.
func selectFormants(peaks []float64) []float64 {
	var formants []float64
	for _, p := range peaks {
		if p < formantMinFreq {
			continue
		}
		formants = append(formants, p)
		if len(formants) == 3 {
			return formants
		}
	}
	return nil
}

func rms(frame []float64) float64 {
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
