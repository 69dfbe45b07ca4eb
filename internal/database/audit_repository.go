package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rankwell/siteaudit/internal/domain"
)

// ErrAuditNotFound is returned when the requested audit does not exist.
var ErrAuditNotFound = errors.New("audit not found")

// AuditRepository handles database operations for audits.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit in queued state.
func (r *AuditRepository) Create(ctx context.Context, audit *domain.Audit) error {
	query := `
		INSERT INTO audits (id, project_id, url, status, metadata, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		audit.ID,
		audit.ProjectID,
		audit.URL,
		audit.Status,
		audit.Metadata,
		audit.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create audit: %w", err)
	}

	return nil
}

// GetByID retrieves an audit by its ID.
func (r *AuditRepository) GetByID(ctx context.Context, id string) (*domain.Audit, error) {
	var audit domain.Audit
	query := `
		SELECT id, project_id, url, status, total_score, scores, error_message,
		       metadata, started_at, completed_at
		FROM audits
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &audit, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAuditNotFound, id)
		}
		return nil, fmt.Errorf("get audit: %w", err)
	}

	return &audit, nil
}

// List retrieves audits for a project, newest first.
func (r *AuditRepository) List(ctx context.Context, projectID string, limit, offset int) ([]*domain.Audit, error) {
	var audits []*domain.Audit
	query := `
		SELECT id, project_id, url, status, total_score, scores, error_message,
		       metadata, started_at, completed_at
		FROM audits
		WHERE project_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`

	err := r.db.SelectContext(ctx, &audits, query, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}

	if audits == nil {
		audits = []*domain.Audit{}
	}
	return audits, nil
}

// MarkRunning transitions a queued audit to running. Only a queued audit
// may transition, which keeps exactly one job attached to the record.
func (r *AuditRepository) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	query := `
		UPDATE audits
		SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, domain.AuditStatusRunning, startedAt, id, domain.AuditStatusQueued)
	if err != nil {
		return fmt.Errorf("mark audit running: %w", err)
	}

	return requireRowChanged(result, id)
}

// Complete finalizes a running audit with its scores and metadata.
func (r *AuditRepository) Complete(ctx context.Context, audit *domain.Audit) error {
	query := `
		UPDATE audits
		SET status = $1, total_score = $2, scores = $3, metadata = $4, completed_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		domain.AuditStatusCompleted,
		audit.TotalScore,
		audit.Scores,
		audit.Metadata,
		audit.CompletedAt,
		audit.ID,
		domain.AuditStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("complete audit: %w", err)
	}

	return requireRowChanged(result, audit.ID)
}

// Fail transitions a running audit to failed with a short error message.
func (r *AuditRepository) Fail(ctx context.Context, id, message string, completedAt time.Time) error {
	query := `
		UPDATE audits
		SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.ExecContext(
		ctx, query, domain.AuditStatusFailed, message, completedAt, id, domain.AuditStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("fail audit: %w", err)
	}

	return requireRowChanged(result, id)
}

// requireRowChanged converts a zero-row update into ErrAuditNotFound,
// which also surfaces illegal state transitions.
func requireRowChanged(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrAuditNotFound, id)
	}
	return nil
}
