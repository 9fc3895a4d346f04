package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/windfall/truevoice/internal/client"
)

// Recording lifecycle statuses.
const (
	RecordingStatusPending   = "pending"
	RecordingStatusAnalyzing = "analyzing"
	RecordingStatusCompleted = "completed"
	RecordingStatusFailed    = "failed"
)

// Recording represents a row in recordings.
type Recording struct {
	ID           string    `json:"id"`
	FilePath     string    `json:"file_path"`
	OriginalText string    `json:"original_text"`
	DurationMS   *int      `json:"duration_ms,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecordingRepository defines the interface for recording data access.
type RecordingRepository interface {
	GetByID(ctx context.Context, id string) (*Recording, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PostgresRecordingRepository implements RecordingRepository.
type PostgresRecordingRepository struct {
	db *client.PostgresClient
}

// NewPostgresRecordingRepository creates a new PostgresRecordingRepository.
func NewPostgresRecordingRepository(db *client.PostgresClient) *PostgresRecordingRepository {
	return &PostgresRecordingRepository{db: db}
}

// GetByID loads a recording by its ID.
func (r *PostgresRecordingRepository) GetByID(ctx context.Context, id string) (*Recording, error) {
	query := `
		SELECT id, file_path, original_text, duration_ms, status, created_at
		FROM recordings
		WHERE id = $1
	`
	var rec Recording
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.FilePath, &rec.OriginalText, &rec.DurationMS, &rec.Status, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query recording: %w", err)
	}
	return &rec, nil
}

// UpdateStatus moves a recording to a new lifecycle status.
func (r *PostgresRecordingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE recordings SET status = $1 WHERE id = $2`
	tag, err := r.db.Pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update recording status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InMemoryRecordingRepository is a map-backed RecordingRepository for tests
// and disconnected operation.
type InMemoryRecordingRepository struct {
	mu   sync.RWMutex
	data map[string]*Recording
}

// NewInMemoryRecordingRepository creates an empty in-memory repository.
func NewInMemoryRecordingRepository() *InMemoryRecordingRepository {
	return &InMemoryRecordingRepository{data: make(map[string]*Recording)}
}

// Put stores or replaces a recording.
func (r *InMemoryRecordingRepository) Put(rec *Recording) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *rec
	r.data[rec.ID] = &copied
}

// GetByID retrieves a recording by ID.
func (r *InMemoryRecordingRepository) GetByID(ctx context.Context, id string) (*Recording, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

// UpdateStatus moves a recording to a new lifecycle status.
func (r *InMemoryRecordingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	return nil
}
