package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/windfall/truevoice/internal/errors"
	"github.com/windfall/truevoice/internal/service"
	"github.com/windfall/truevoice/pkg/response"
)

// AnalysisHandler handles the analysis REST endpoints.
type AnalysisHandler struct {
	log             zerolog.Logger
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(log zerolog.Logger, analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log,
		analysisService: analysisService,
	}
}

// AnalyzeRequest represents the request body for analysis.
type AnalyzeRequest struct {
	RecordingID    string `json:"recording_id"`
	ReferenceText  string `json:"reference_text"`
	IncludeFormant *bool  `json:"include_formant"`
	IncludeTone    *bool  `json:"include_tone"`
}

// Analyze handles POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, errors.Validation("invalid request body"))
		return
	}

	if req.RecordingID == "" {
		h.handleError(w, errors.Validation("recording_id is required"))
		return
	}

	// Optional dimensions default to on when the field is absent.
	result, err := h.analysisService.Analyze(ctx, &service.AnalyzeRequest{
		RecordingID:    req.RecordingID,
		ReferenceText:  req.ReferenceText,
		IncludeFormant: req.IncludeFormant == nil || *req.IncludeFormant,
		IncludeTone:    req.IncludeTone == nil || *req.IncludeTone,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// GetResult handles GET /api/v1/results/{id}
func (h *AnalysisHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.handleError(w, errors.Validation("result id is required"))
		return
	}

	result, err := h.analysisService.GetResult(ctx, id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

func (h *AnalysisHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			h.log.Error().Err(appErr).Msg("Analysis request failed")
		}
		response.Error(w, appErr.HTTPStatus(), &response.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	h.log.Error().Err(err).Msg("Internal server error")
	response.Error(w, http.StatusInternalServerError, errors.Internal("internal server error"))
}
