package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/truevoice/internal/config"
	"github.com/windfall/truevoice/internal/logger"
	"github.com/windfall/truevoice/internal/repository"
	"github.com/windfall/truevoice/internal/service"
	"github.com/windfall/truevoice/pkg/response"
)

// offlineHandler builds a handler over an offline-mode service, which needs
// no external collaborators.
func offlineHandler() *AnalysisHandler {
	svc := service.NewAnalysisService(
		config.ModeOffline,
		repository.NewInMemoryRecordingRepository(),
		repository.NewInMemoryResultRepository(),
		nil, nil, nil, nil,
		logger.NewNop(),
	)
	return NewAnalysisHandler(logger.NewNop(), svc)
}

func router(h *AnalysisHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/api/v1/analyze", h.Analyze)
	r.Get("/api/v1/results/{id}", h.GetResult)
	return r
}

func TestAnalyzeEndpoint(t *testing.T) {
	r := router(offlineHandler())

	body := bytes.NewBufferString(`{"recording_id":"rec-1","reference_text":"hello world"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                     `json:"success"`
		Data    *service.AnalyzeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NotNil(t, envelope.Data)
	assert.True(t, envelope.Data.Success)
	assert.NotEmpty(t, envelope.Data.ResultID)
	assert.Len(t, envelope.Data.Pronunciation.Words, 2)

	// Optional dimensions default to on when the flags are absent.
	assert.NotNil(t, envelope.Data.Resonance)
	assert.NotNil(t, envelope.Data.Tone)
}

func TestAnalyzeEndpointDisablesOptionalDimensions(t *testing.T) {
	r := router(offlineHandler())

	body := bytes.NewBufferString(`{"recording_id":"rec-1","reference_text":"hi","include_formant":false,"include_tone":false}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data *service.AnalyzeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	assert.Nil(t, envelope.Data.Resonance)
	assert.Nil(t, envelope.Data.Tone)
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	r := router(offlineHandler())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"recording_id"`},
		{"missing recording id", `{"reference_text":"hello"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var envelope response.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.False(t, envelope.Success)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
		})
	}
}

func TestGetResultEndpoint(t *testing.T) {
	h := offlineHandler()
	r := router(h)

	// Run one analysis so there is something to fetch.
	resp, err := h.analysisService.Analyze(context.Background(), &service.AnalyzeRequest{
		RecordingID:   "rec-1",
		ReferenceText: "hello",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/results/"+resp.ResultID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data *repository.AnalysisResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	assert.Equal(t, resp.ResultID, envelope.Data.ID)
	assert.Equal(t, "rec-1", envelope.Data.RecordingID)
}

func TestGetResultEndpointNotFound(t *testing.T) {
	r := router(offlineHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/results/does-not-exist", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
