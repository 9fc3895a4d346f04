package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/windfall/truevoice/internal/errors"
)

// AssessmentOutcome classifies what the provider did with the audio.
type AssessmentOutcome string

const (
	// OutcomeRecognized means speech was recognized and scored.
	OutcomeRecognized AssessmentOutcome = "recognized"
	// OutcomeNoMatch means no intelligible speech was detected.
	OutcomeNoMatch AssessmentOutcome = "no_match"
	// OutcomeCancelled means the provider aborted with a reason.
	OutcomeCancelled AssessmentOutcome = "cancelled"
)

// WordAssessment is the per-word detail of a recognized utterance.
type WordAssessment struct {
	Word          string  `json:"Word"`
	AccuracyScore float64 `json:"AccuracyScore"`
	ErrorType     string  `json:"ErrorType"`
}

// PronunciationAssessment is the provider's verdict on one utterance.
// Score fields are only meaningful when Outcome is OutcomeRecognized.
type PronunciationAssessment struct {
	Outcome            AssessmentOutcome
	AccuracyScore      float64
	FluencyScore       float64
	CompletenessScore  float64
	PronunciationScore float64
	Words              []WordAssessment
	Reason             string
}

// azureResponse mirrors the detailed-format response of the short-audio
// recognition endpoint.
type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		AccuracyScore     float64          `json:"AccuracyScore"`
		FluencyScore      float64          `json:"FluencyScore"`
		CompletenessScore float64          `json:"CompletenessScore"`
		PronScore         float64          `json:"PronScore"`
		Words             []WordAssessment `json:"Words"`
	} `json:"NBest"`
}

// AzureSpeechClient wraps the Azure AI Speech pronunciation-assessment REST
// API.
type AzureSpeechClient struct {
	apiKey   string
	region   string
	language string
	client   *http.Client
}

// NewAzureSpeechClient creates a new Azure Speech client.
func NewAzureSpeechClient(apiKey, region, language string) *AzureSpeechClient {
	return &AzureSpeechClient{
		apiKey:   apiKey,
		region:   region,
		language: language,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AssessPronunciation sends canonical PCM audio plus the reference text to
// the short-audio recognition endpoint with pronunciation assessment enabled
// (hundred-mark grading, word granularity, miscue detection).
func (c *AzureSpeechClient) AssessPronunciation(ctx context.Context, audioData []byte, referenceText string) (*PronunciationAssessment, error) {
	if c.apiKey == "" || c.region == "" {
		return nil, errors.New(errors.ErrProvider, "Azure Speech credentials not configured")
	}

	// Short Audio API (REST)
	// Docs: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/rest-speech-to-text-short
	u := url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%s.stt.speech.microsoft.com", c.region),
		Path:   "/speech/recognition/conversation/cognitiveservices/v1",
	}

	q := u.Query()
	q.Set("language", c.language)
	q.Set("format", "detailed")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(audioData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The assessment config travels base64-encoded in a dedicated header.
	pronAssessmentParams := map[string]interface{}{
		"ReferenceText": referenceText,
		"GradingSystem": "HundredMark",
		"Granularity":   "Word",
		"EnableMiscue":  true,
		"Dimension":     "Comprehensive",
	}

	jsonBytes, err := json.Marshal(pronAssessmentParams)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	req.Header.Set("Pronunciation-Assessment", base64.StdEncoding.EncodeToString(jsonBytes))
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json;text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure speech api error %d: %s", resp.StatusCode, string(body))
	}

	var raw azureResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return mapAssessment(&raw), nil
}

// mapAssessment converts the raw recognition status into one of the three
// provider outcomes.
func mapAssessment(raw *azureResponse) *PronunciationAssessment {
	switch raw.RecognitionStatus {
	case "Success":
		if len(raw.NBest) == 0 {
			return &PronunciationAssessment{
				Outcome: OutcomeCancelled,
				Reason:  "recognition succeeded but returned no hypotheses",
			}
		}
		best := raw.NBest[0]
		return &PronunciationAssessment{
			Outcome:            OutcomeRecognized,
			AccuracyScore:      best.AccuracyScore,
			FluencyScore:       best.FluencyScore,
			CompletenessScore:  best.CompletenessScore,
			PronunciationScore: best.PronScore,
			Words:              best.Words,
		}
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return &PronunciationAssessment{
			Outcome: OutcomeNoMatch,
			Reason:  raw.RecognitionStatus,
		}
	default:
		return &PronunciationAssessment{
			Outcome: OutcomeCancelled,
			Reason:  fmt.Sprintf("recognition status %q", raw.RecognitionStatus),
		}
	}
}
