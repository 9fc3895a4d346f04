package analysis

import (
	"context"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/truevoice/internal/client"
)

// Provider is the external pronunciation-assessment capability. The Azure
// adapter implements it; tests and offline operation substitute fakes behind
// the same contract.
type Provider interface {
	AssessPronunciation(ctx context.Context, audioData []byte, referenceText string) (*client.PronunciationAssessment, error)
}

// PronunciationScorer produces the mandatory pronunciation dimension.
type PronunciationScorer interface {
	Assess(ctx context.Context, audioData []byte, referenceText string) *PronunciationResult
}

// ProviderScorer scores pronunciation through the external provider.
type ProviderScorer struct {
	provider Provider
	log      zerolog.Logger
}

// NewProviderScorer creates a scorer over the given provider. A nil provider
// means no credential was configured; every assessment then short-circuits
// to a failure result without attempting a call.
func NewProviderScorer(provider Provider, log zerolog.Logger) *ProviderScorer {
	return &ProviderScorer{
		provider: provider,
		log:      log,
	}
}

// Assess runs the provider and folds its three outcomes into a
// PronunciationResult. Failures never panic or error out; they come back as
// zero-scored results with a human-readable message.
func (s *ProviderScorer) Assess(ctx context.Context, audioData []byte, referenceText string) *PronunciationResult {
	if s.provider == nil {
		return pronunciationFailure(
			"Pronunciation assessment is not configured.",
			"assessment provider credential not configured",
		)
	}

	assessment, err := s.provider.AssessPronunciation(ctx, audioData, referenceText)
	if err != nil {
		s.log.Error().Err(err).Msg("Pronunciation provider call failed")
		return pronunciationFailure(
			"Something went wrong while assessing your pronunciation.",
			err.Error(),
		)
	}

	switch assessment.Outcome {
	case client.OutcomeRecognized:
		words := make([]WordScore, 0, len(assessment.Words))
		for _, w := range assessment.Words {
			errorType := w.ErrorType
			if errorType == "None" {
				errorType = ""
			}
			words = append(words, WordScore{
				Word:      w.Word,
				Score:     round1(w.AccuracyScore),
				ErrorType: errorType,
			})
		}

		return &PronunciationResult{
			AccuracyScore:      round1(assessment.AccuracyScore),
			FluencyScore:       round1(assessment.FluencyScore),
			CompletenessScore:  round1(assessment.CompletenessScore),
			PronunciationScore: round1(assessment.PronunciationScore),
			Words:              words,
			Feedback:           pronunciationFeedback(assessment.PronunciationScore, words),
			Success:            true,
		}

	case client.OutcomeNoMatch:
		return pronunciationFailure(
			"We couldn't recognize any speech. Please speak louder and more clearly.",
			"no speech recognized",
		)

	default:
		return pronunciationFailure(
			"Something went wrong while recognizing your speech.",
			"cancelled: "+assessment.Reason,
		)
	}
}

func pronunciationFailure(feedback, reason string) *PronunciationResult {
	return &PronunciationResult{
		Feedback: feedback,
		Success:  false,
		Error:    reason,
	}
}

// OfflineScorer synthesizes a realistic assessment without any provider.
// Per-word scores are sampled independently in a plausible band and driven
// through the same feedback generator, so downstream consumers see an
// identical contract with or without connectivity.
type OfflineScorer struct {
	rng *rand.Rand
}

// NewOfflineScorer creates an offline scorer seeded from src.
func NewOfflineScorer(src rand.Source) *OfflineScorer {
	return &OfflineScorer{rng: rand.New(src)}
}

// Assess synthesizes a successful assessment for the reference text.
// Completeness is always 100 and the overall pronunciation score is the
// arithmetic mean of the per-word scores.
func (s *OfflineScorer) Assess(_ context.Context, _ []byte, referenceText string) *PronunciationResult {
	tokens := strings.Fields(referenceText)
	if len(tokens) == 0 {
		tokens = []string{referenceText}
	}

	words := make([]WordScore, 0, len(tokens))
	var sum float64
	for _, token := range tokens {
		score := round1(s.uniform(75, 98))
		sum += score
		words = append(words, WordScore{Word: token, Score: score})
	}
	pronunciation := round1(sum / float64(len(words)))

	return &PronunciationResult{
		AccuracyScore:      round1(s.uniform(80, 95)),
		FluencyScore:       round1(s.uniform(85, 98)),
		CompletenessScore:  100.0,
		PronunciationScore: pronunciation,
		Words:              words,
		Feedback:           pronunciationFeedback(pronunciation, words),
		Success:            true,
	}
}

func (s *OfflineScorer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
