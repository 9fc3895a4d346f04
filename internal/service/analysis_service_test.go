package service

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/truevoice/internal/analysis"
	"github.com/windfall/truevoice/internal/audio"
	"github.com/windfall/truevoice/internal/config"
	"github.com/windfall/truevoice/internal/errors"
	"github.com/windfall/truevoice/internal/logger"
	"github.com/windfall/truevoice/internal/repository"
)

type fakeBlobStore struct {
	data map[string][]byte
	err  error
}

func (f *fakeBlobStore) Download(ctx context.Context, path string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[path]
	if !ok {
		return nil, stderrors.New("object not found")
	}
	return data, nil
}

type fakePronunciation struct {
	result *analysis.PronunciationResult
}

func (f *fakePronunciation) Assess(ctx context.Context, audioData []byte, referenceText string) *analysis.PronunciationResult {
	return f.result
}

func goodPronunciation() *analysis.PronunciationResult {
	return &analysis.PronunciationResult{
		AccuracyScore:      88.0,
		FluencyScore:       92.0,
		CompletenessScore:  100.0,
		PronunciationScore: 90.0,
		Words:              []analysis.WordScore{{Word: "hello", Score: 90.0}},
		Feedback:           "Excellent! Your pronunciation is nearly perfect.",
		Success:            true,
	}
}

func sineWAV() []byte {
	const rate = 16000
	samples := make([]float64, rate/2)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*200*float64(i)/rate)
	}
	return audio.EncodeWAV(samples, rate)
}

// testService wires an analysis service over in-memory collaborators.
func testService(mode config.Mode, blobs *fakeBlobStore, pron analysis.PronunciationScorer) (*AnalysisService, *repository.InMemoryRecordingRepository, *repository.InMemoryResultRepository) {
	recordings := repository.NewInMemoryRecordingRepository()
	results := repository.NewInMemoryResultRepository()
	svc := NewAnalysisService(
		mode, recordings, results, blobs,
		audio.NewNormalizer("ffmpeg", logger.NewNop()),
		pron, nil, logger.NewNop(),
	)
	return svc, recordings, results
}

func TestAnalyzeCompletesAndPersists(t *testing.T) {
	ctx := context.Background()
	blobs := &fakeBlobStore{data: map[string][]byte{"recordings/rec-1.wav": sineWAV()}}
	svc, recordings, _ := testService(config.ModeConnected, blobs, &fakePronunciation{result: goodPronunciation()})

	recordings.Put(&repository.Recording{
		ID:           "rec-1",
		FilePath:     "recordings/rec-1.wav",
		OriginalText: "hello",
		Status:       repository.RecordingStatusPending,
	})

	resp, err := svc.Analyze(ctx, &AnalyzeRequest{
		RecordingID: "rec-1",
		IncludeTone: true,
	})
	require.NoError(t, err)

	require.True(t, resp.Success)
	require.NotEmpty(t, resp.ResultID)
	assert.Equal(t, 90.0, resp.Pronunciation.PronunciationScore)
	require.NotNil(t, resp.Tone)
	assert.True(t, resp.Tone.Success)
	assert.Nil(t, resp.Resonance)

	rec, err := recordings.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, repository.RecordingStatusCompleted, rec.Status)

	stored, err := svc.GetResult(ctx, resp.ResultID)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", stored.RecordingID)
	assert.Equal(t, 90.0, stored.PronunciationScore)
	assert.Equal(t, resp.Pronunciation.Feedback, stored.Feedback)
	assert.NotEmpty(t, stored.ToneData)
	assert.Empty(t, stored.FormantData)
}

func TestAnalyzeRecordingNotFound(t *testing.T) {
	svc, _, _ := testService(config.ModeConnected, &fakeBlobStore{}, &fakePronunciation{result: goodPronunciation()})

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{RecordingID: "missing"})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestAnalyzeDownloadFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	blobs := &fakeBlobStore{err: stderrors.New("bucket unreachable")}
	svc, recordings, _ := testService(config.ModeConnected, blobs, &fakePronunciation{result: goodPronunciation()})

	recordings.Put(&repository.Recording{
		ID:       "rec-1",
		FilePath: "recordings/rec-1.wav",
		Status:   repository.RecordingStatusPending,
	})

	_, err := svc.Analyze(ctx, &AnalyzeRequest{RecordingID: "rec-1"})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrDownload, appErr.Code)

	rec, err := recordings.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, repository.RecordingStatusFailed, rec.Status)
}

func TestAnalyzePronunciationFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	blobs := &fakeBlobStore{data: map[string][]byte{"recordings/rec-1.wav": sineWAV()}}
	failed := &analysis.PronunciationResult{
		Success:  false,
		Error:    "no speech recognized",
		Feedback: "We couldn't recognize any speech. Please speak louder and more clearly.",
	}
	svc, recordings, _ := testService(config.ModeConnected, blobs, &fakePronunciation{result: failed})

	recordings.Put(&repository.Recording{
		ID:       "rec-1",
		FilePath: "recordings/rec-1.wav",
		Status:   repository.RecordingStatusPending,
	})

	resp, err := svc.Analyze(ctx, &AnalyzeRequest{RecordingID: "rec-1", IncludeTone: true})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Empty(t, resp.ResultID)
	assert.Equal(t, "no speech recognized", resp.Error)
	assert.Nil(t, resp.Tone)

	rec, err := recordings.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, repository.RecordingStatusFailed, rec.Status)
}

func TestAnalyzeOptionalDimensionFailureIsOmitted(t *testing.T) {
	ctx := context.Background()
	// The stored object is not decodable audio; the mandatory dimension is
	// faked to succeed, so only the optional dimensions fail.
	blobs := &fakeBlobStore{data: map[string][]byte{"recordings/rec-1.wav": []byte("not audio")}}
	svc, recordings, _ := testService(config.ModeConnected, blobs, &fakePronunciation{result: goodPronunciation()})

	recordings.Put(&repository.Recording{
		ID:       "rec-1",
		FilePath: "recordings/rec-1.wav",
		Status:   repository.RecordingStatusPending,
	})

	resp, err := svc.Analyze(ctx, &AnalyzeRequest{
		RecordingID:    "rec-1",
		IncludeFormant: true,
		IncludeTone:    true,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Nil(t, resp.Resonance)
	assert.Nil(t, resp.Tone)

	rec, err := recordings.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, repository.RecordingStatusCompleted, rec.Status)
}

func TestAnalyzeOfflineMode(t *testing.T) {
	ctx := context.Background()
	svc, recordings, _ := testService(config.ModeOffline, nil, nil)

	resp, err := svc.Analyze(ctx, &AnalyzeRequest{
		RecordingID:    "anything",
		ReferenceText:  "안녕 하세요",
		IncludeFormant: true,
		IncludeTone:    true,
	})
	require.NoError(t, err)

	require.True(t, resp.Success)
	require.NotEmpty(t, resp.ResultID)
	require.Len(t, resp.Pronunciation.Words, 2)
	assert.Equal(t, 100.0, resp.Pronunciation.CompletenessScore)
	require.NotNil(t, resp.Resonance)
	require.NotNil(t, resp.Tone)

	// The offline path never touches the recording store.
	_, err = recordings.GetByID(ctx, "anything")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := svc.GetResult(ctx, resp.ResultID)
	require.NoError(t, err)
	assert.Equal(t, "anything", stored.RecordingID)
	assert.NotEmpty(t, stored.FormantData)
	assert.NotEmpty(t, stored.ToneData)
}

func TestGetResultNotFound(t *testing.T) {
	svc, _, _ := testService(config.ModeConnected, &fakeBlobStore{}, &fakePronunciation{result: goodPronunciation()})

	_, err := svc.GetResult(context.Background(), "missing")

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}
