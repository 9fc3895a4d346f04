package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/windfall/truevoice/internal/client"
)

// AnalysisResult represents a row in analysis_results. Results are immutable;
// re-running an analysis inserts a new row rather than updating an old one.
type AnalysisResult struct {
	ID                 string          `json:"id"`
	RecordingID        string          `json:"recording_id"`
	AccuracyScore      float64         `json:"accuracy_score"`
	FluencyScore       float64         `json:"fluency_score"`
	CompletenessScore  float64         `json:"completeness_score"`
	PronunciationScore float64         `json:"pronunciation_score"`
	Feedback           string          `json:"feedback"`
	FormantData        json.RawMessage `json:"formant_data,omitempty"`
	ToneData           json.RawMessage `json:"tone_data,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ResultRepository defines the interface for analysis result data access.
type ResultRepository interface {
	Insert(ctx context.Context, result *AnalysisResult) (*AnalysisResult, error)
	GetByID(ctx context.Context, id string) (*AnalysisResult, error)
}

// PostgresResultRepository implements ResultRepository.
type PostgresResultRepository struct {
	db *client.PostgresClient
}

// NewPostgresResultRepository creates a new PostgresResultRepository.
func NewPostgresResultRepository(db *client.PostgresClient) *PostgresResultRepository {
	return &PostgresResultRepository{db: db}
}

// Insert persists a new analysis result and returns it with the generated ID
// and timestamp filled in.
func (r *PostgresResultRepository) Insert(ctx context.Context, result *AnalysisResult) (*AnalysisResult, error) {
	query := `
		INSERT INTO analysis_results (recording_id, accuracy_score, fluency_score, completeness_score, pronunciation_score, feedback, formant_data, tone_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	stored := *result
	err := r.db.Pool.QueryRow(ctx, query,
		result.RecordingID, result.AccuracyScore, result.FluencyScore,
		result.CompletenessScore, result.PronunciationScore, result.Feedback,
		result.FormantData, result.ToneData,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert analysis result: %w", err)
	}
	return &stored, nil
}

// GetByID loads an analysis result by its ID.
func (r *PostgresResultRepository) GetByID(ctx context.Context, id string) (*AnalysisResult, error) {
	query := `
		SELECT id, recording_id, accuracy_score, fluency_score, completeness_score, pronunciation_score, feedback, formant_data, tone_data, created_at
		FROM analysis_results
		WHERE id = $1
	`
	var res AnalysisResult
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.RecordingID, &res.AccuracyScore, &res.FluencyScore,
		&res.CompletenessScore, &res.PronunciationScore, &res.Feedback,
		&res.FormantData, &res.ToneData, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query analysis result: %w", err)
	}
	return &res, nil
}

// InMemoryResultRepository is a map-backed ResultRepository for tests and
// disconnected operation.
type InMemoryResultRepository struct {
	mu   sync.RWMutex
	data map[string]*AnalysisResult
}

// NewInMemoryResultRepository creates an empty in-memory repository.
func NewInMemoryResultRepository() *InMemoryResultRepository {
	return &InMemoryResultRepository{data: make(map[string]*AnalysisResult)}
}

// Insert stores a new result under a generated UUID.
func (r *InMemoryResultRepository) Insert(ctx context.Context, result *AnalysisResult) (*AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *result
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now().UTC()
	r.data[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

// GetByID retrieves a result by ID.
func (r *InMemoryResultRepository) GetByID(ctx context.Context, id string) (*AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *res
	return &copied, nil
}
