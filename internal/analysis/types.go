// Package analysis implements the three scoring engines of the
// pronunciation analysis pipeline: pronunciation assessment, formant-based
// resonance scoring and pitch-based tone scoring, plus the shared feedback
// generator they report through.
package analysis

import (
	"math"

	"github.com/windfall/truevoice/internal/acoustic"
)

// WordScore is the per-word detail of a pronunciation assessment.
type WordScore struct {
	Word      string  `json:"word"`
	Score     float64 `json:"score"`
	ErrorType string  `json:"error_type,omitempty"`
}

// PronunciationResult is the outcome of the mandatory pronunciation
// dimension. When Success is false every score field carries zero and must
// not be read as a measurement; only Feedback and Error are meaningful.
type PronunciationResult struct {
	AccuracyScore      float64     `json:"accuracy_score"`
	FluencyScore       float64     `json:"fluency_score"`
	CompletenessScore  float64     `json:"completeness_score"`
	PronunciationScore float64     `json:"pronunciation_score"`
	Words              []WordScore `json:"words"`
	Feedback           string      `json:"feedback"`
	Success            bool        `json:"success"`
	Error              string      `json:"error,omitempty"`
}

// ResonanceResult is the outcome of the optional resonance dimension.
type ResonanceResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	MeanF1 float64 `json:"mean_f1"`
	MeanF2 float64 `json:"mean_f2"`
	MeanF3 float64 `json:"mean_f3"`

	// Per-formant stability, 0-100; lower deviation scores higher.
	StabilityF1 float64 `json:"stability_f1"`
	StabilityF2 float64 `json:"stability_f2"`
	StabilityF3 float64 `json:"stability_f3"`

	StabilityScore float64 `json:"stability_score"`
	ResonanceScore float64 `json:"resonance_score"`

	FormantTrack []acoustic.FormantSample `json:"formant_track,omitempty"`

	Feedback string `json:"feedback"`
}

// ToneResult is the outcome of the optional tone dimension.
type ToneResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	MeanPitch  float64 `json:"mean_pitch"`
	MinPitch   float64 `json:"min_pitch"`
	MaxPitch   float64 `json:"max_pitch"`
	PitchRange float64 `json:"pitch_range"`
	PitchStd   float64 `json:"pitch_std"`

	Jitter  float64 `json:"jitter"`
	Shimmer float64 `json:"shimmer"`
	HNR     float64 `json:"hnr"`

	StabilityScore  float64 `json:"stability_score"`
	ClarityScore    float64 `json:"clarity_score"`
	IntonationScore float64 `json:"intonation_score"`
	ToneScore       float64 `json:"tone_score"`

	Feedback string `json:"feedback"`
}

// clamp bounds a composite score to [0, 100].
func clamp(score float64) float64 {
	return math.Min(100, math.Max(0, score))
}

// round1 applies the one-decimal convention used for every persisted score.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
