package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/windfall/truevoice/internal/analysis"
	"github.com/windfall/truevoice/internal/audio"
	"github.com/windfall/truevoice/internal/client"
	"github.com/windfall/truevoice/internal/config"
	"github.com/windfall/truevoice/internal/errors"
	"github.com/windfall/truevoice/internal/repository"
)

const (
	// Redis key prefix for cached analysis results
	resultKeyPrefix = "result:"
	// TTL for cached results in Redis
	resultCacheTTL = 60 * time.Second
)

// AnalyzeRequest carries one analysis invocation.
type AnalyzeRequest struct {
	RecordingID    string
	ReferenceText  string
	IncludeFormant bool
	IncludeTone    bool
}

// DimensionStatus tags the outcome of one optional scoring dimension.
// Aggregation switches over the tag exhaustively, so an absent dimension can
// never be misread as a zero score.
type DimensionStatus string

const (
	DimensionOK      DimensionStatus = "ok"
	DimensionSkipped DimensionStatus = "skipped"
	DimensionFailed  DimensionStatus = "failed"
)

// DimensionOutcome is the tagged result of one optional dimension. Result is
// set only when Status is DimensionOK; Reason only when DimensionFailed.
type DimensionOutcome[T any] struct {
	Status DimensionStatus
	Reason string
	Result *T
}

func dimensionOK[T any](result *T) DimensionOutcome[T] {
	return DimensionOutcome[T]{Status: DimensionOK, Result: result}
}

func dimensionSkipped[T any]() DimensionOutcome[T] {
	return DimensionOutcome[T]{Status: DimensionSkipped}
}

func dimensionFailed[T any](reason string) DimensionOutcome[T] {
	return DimensionOutcome[T]{Status: DimensionFailed, Reason: reason}
}

// AnalyzeResponse is the full outcome of one analysis run. Resonance and
// Tone are present only when they were requested and succeeded; the
// mandatory pronunciation dimension is always present.
type AnalyzeResponse struct {
	Success       bool                          `json:"success"`
	ResultID      string                        `json:"result_id,omitempty"`
	Pronunciation *analysis.PronunciationResult `json:"pronunciation"`
	Resonance     *analysis.ResonanceResult     `json:"resonance,omitempty"`
	Tone          *analysis.ToneResult          `json:"tone,omitempty"`
	Error         string                        `json:"error,omitempty"`
}

// AnalysisService orchestrates the full analysis pipeline: recording
// lookup, audio retrieval and normalization, the three scoring dimensions,
// and result persistence.
type AnalysisService struct {
	mode          config.Mode
	recordings    repository.RecordingRepository
	results       repository.ResultRepository
	blobs         client.BlobStore
	normalizer    *audio.Normalizer
	pronunciation analysis.PronunciationScorer
	resonance     *analysis.ResonanceScorer
	tone          *analysis.ToneScorer
	redisClient   *client.RedisClient
	log           zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAnalysisService creates a new analysis service. In offline mode the
// blob store may be nil; the repositories must still be set (in-memory
// implementations suffice) so results remain retrievable.
func NewAnalysisService(
	mode config.Mode,
	recordings repository.RecordingRepository,
	results repository.ResultRepository,
	blobs client.BlobStore,
	normalizer *audio.Normalizer,
	pronunciation analysis.PronunciationScorer,
	redisClient *client.RedisClient,
	log zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		mode:          mode,
		recordings:    recordings,
		results:       results,
		blobs:         blobs,
		normalizer:    normalizer,
		pronunciation: pronunciation,
		resonance:     analysis.NewResonanceScorer(),
		tone:          analysis.NewToneScorer(),
		redisClient:   redisClient,
		log:           log,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Analyze runs the pipeline for one recording. Infrastructure failures
// (missing recording, download, persistence) return an error; scoring
// failures are reported inside the response. The recording's status always
// lands on completed or failed before a non-error return.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	if s.mode == config.ModeOffline {
		return s.analyzeOffline(ctx, req)
	}

	recording, err := s.recordings.GetByID(ctx, req.RecordingID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("recording")
		}
		return nil, errors.Wrap(errors.ErrPersistence, "failed to load recording", err)
	}

	if err := s.recordings.UpdateStatus(ctx, recording.ID, repository.RecordingStatusAnalyzing); err != nil {
		s.log.Warn().Err(err).Str("recording_id", recording.ID).Msg("Failed to mark recording as analyzing")
	}

	referenceText := req.ReferenceText
	if referenceText == "" {
		referenceText = recording.OriginalText
	}

	audioData, err := s.blobs.Download(ctx, recording.FilePath)
	if err != nil {
		s.markFailed(ctx, recording.ID)
		return nil, errors.Wrap(errors.ErrDownload, "failed to download recording audio", err)
	}

	format := audio.FormatFromPath(recording.FilePath)
	wavData := s.normalizer.Normalize(ctx, audioData, format)

	pron := s.pronunciation.Assess(ctx, wavData, referenceText)
	if !pron.Success {
		s.markFailed(ctx, recording.ID)
		return &AnalyzeResponse{
			Success:       false,
			Pronunciation: pron,
			Error:         pron.Error,
		}, nil
	}

	resp := &AnalyzeResponse{
		Success:       true,
		Pronunciation: pron,
	}
	s.aggregate(resp, req.RecordingID, s.scoreResonance(req, wavData), s.scoreTone(req, wavData))

	result, err := s.persist(ctx, recording.ID, resp)
	if err != nil {
		s.markFailed(ctx, recording.ID)
		return nil, errors.Wrap(errors.ErrPersistence, "failed to persist analysis result", err)
	}
	resp.ResultID = result.ID

	if err := s.recordings.UpdateStatus(ctx, recording.ID, repository.RecordingStatusCompleted); err != nil {
		s.log.Warn().Err(err).Str("recording_id", recording.ID).Msg("Failed to mark recording as completed")
	}

	s.log.Info().
		Str("recording_id", recording.ID).
		Str("result_id", result.ID).
		Float64("pronunciation_score", pron.PronunciationScore).
		Msg("Analysis completed")

	return resp, nil
}

// scoreResonance runs the optional resonance dimension and tags its outcome.
func (s *AnalysisService) scoreResonance(req *AnalyzeRequest, wavData []byte) DimensionOutcome[analysis.ResonanceResult] {
	if !req.IncludeFormant {
		return dimensionSkipped[analysis.ResonanceResult]()
	}
	result := s.resonance.Score(wavData)
	if !result.Success {
		return dimensionFailed[analysis.ResonanceResult](result.Error)
	}
	return dimensionOK(result)
}

// scoreTone runs the optional tone dimension and tags its outcome.
func (s *AnalysisService) scoreTone(req *AnalyzeRequest, wavData []byte) DimensionOutcome[analysis.ToneResult] {
	if !req.IncludeTone {
		return dimensionSkipped[analysis.ToneResult]()
	}
	result := s.tone.Score(wavData)
	if !result.Success {
		return dimensionFailed[analysis.ToneResult](result.Error)
	}
	return dimensionOK(result)
}

// aggregate folds the tagged optional outcomes into the response. A failed
// dimension is logged and left out of the aggregate; it never fails the run.
func (s *AnalysisService) aggregate(
	resp *AnalyzeResponse,
	recordingID string,
	resonance DimensionOutcome[analysis.ResonanceResult],
	tone DimensionOutcome[analysis.ToneResult],
) {
	switch resonance.Status {
	case DimensionOK:
		resp.Resonance = resonance.Result
	case DimensionFailed:
		s.log.Warn().Str("recording_id", recordingID).Str("reason", resonance.Reason).Msg("Resonance analysis omitted")
	case DimensionSkipped:
	}

	switch tone.Status {
	case DimensionOK:
		resp.Tone = tone.Result
	case DimensionFailed:
		s.log.Warn().Str("recording_id", recordingID).Str("reason", tone.Reason).Msg("Tone analysis omitted")
	case DimensionSkipped:
	}
}

// analyzeOffline produces a synthesized result without touching the
// recording store, blob storage or the assessment provider. The result is
// still persisted so it can be fetched afterwards.
func (s *AnalysisService) analyzeOffline(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	s.mu.Lock()
	pron := analysis.NewOfflineScorer(rand.NewSource(s.rng.Int63())).Assess(ctx, nil, req.ReferenceText)
	resonance := dimensionSkipped[analysis.ResonanceResult]()
	if req.IncludeFormant {
		resonance = dimensionOK(analysis.OfflineResonance(s.rng))
	}
	tone := dimensionSkipped[analysis.ToneResult]()
	if req.IncludeTone {
		tone = dimensionOK(analysis.OfflineTone(s.rng))
	}
	s.mu.Unlock()

	resp := &AnalyzeResponse{
		Success:       true,
		Pronunciation: pron,
	}
	s.aggregate(resp, req.RecordingID, resonance, tone)

	result, err := s.persist(ctx, req.RecordingID, resp)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPersistence, "failed to persist analysis result", err)
	}
	resp.ResultID = result.ID

	s.log.Info().
		Str("recording_id", req.RecordingID).
		Str("result_id", result.ID).
		Msg("Offline analysis completed")

	return resp, nil
}

// persist writes the run as a new immutable result row.
func (s *AnalysisService) persist(ctx context.Context, recordingID string, resp *AnalyzeResponse) (*repository.AnalysisResult, error) {
	result := &repository.AnalysisResult{
		RecordingID:        recordingID,
		AccuracyScore:      resp.Pronunciation.AccuracyScore,
		FluencyScore:       resp.Pronunciation.FluencyScore,
		CompletenessScore:  resp.Pronunciation.CompletenessScore,
		PronunciationScore: resp.Pronunciation.PronunciationScore,
		Feedback:           resp.Pronunciation.Feedback,
	}

	if resp.Resonance != nil {
		data, err := json.Marshal(resp.Resonance)
		if err != nil {
			return nil, err
		}
		result.FormantData = data
	}
	if resp.Tone != nil {
		data, err := json.Marshal(resp.Tone)
		if err != nil {
			return nil, err
		}
		result.ToneData = data
	}

	return s.results.Insert(ctx, result)
}

// GetResult fetches a stored analysis result, reading through the Redis
// cache when one is configured.
func (s *AnalysisService) GetResult(ctx context.Context, id string) (*repository.AnalysisResult, error) {
	cacheKey := resultKeyPrefix + id

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey)
		if err == nil {
			var result repository.AnalysisResult
			if err := json.Unmarshal(cached, &result); err == nil {
				return &result, nil
			}
			s.log.Warn().Str("result_id", id).Msg("Discarding malformed cached result")
		} else if err != client.ErrCacheMiss {
			s.log.Warn().Err(err).Msg("Result cache read failed")
		}
	}

	result, err := s.results.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFound("analysis result")
		}
		return nil, errors.Wrap(errors.ErrPersistence, "failed to load analysis result", err)
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.redisClient.Set(ctx, cacheKey, data, resultCacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("Result cache write failed")
			}
		}
	}

	return result, nil
}

func (s *AnalysisService) markFailed(ctx context.Context, recordingID string) {
	if err := s.recordings.UpdateStatus(ctx, recordingID, repository.RecordingStatusFailed); err != nil {
		s.log.Warn().Err(err).Str("recording_id", recordingID).Msg("Failed to mark recording as failed")
	}
}
