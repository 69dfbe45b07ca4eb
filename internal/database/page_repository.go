package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rankwell/siteaudit/internal/domain"
)

// PageRepository handles database operations for page snapshots.
type PageRepository struct {
	db *sqlx.DB
}

// NewPageRepository creates a new page repository.
func NewPageRepository(db *sqlx.DB) *PageRepository {
	return &PageRepository{db: db}
}

// CreateBatch inserts an audit's page snapshots in one transaction.
// Raw HTML and headers are not persisted; only the extracted facts are.
func (r *PageRepository) CreateBatch(ctx context.Context, pages []*domain.PageSnapshot) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO pages (id, audit_id, url, status_code, content_type,
		                   load_time_ms, byte_size, facts, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, p := range pages {
		if _, execErr := tx.ExecContext(
			ctx,
			query,
			p.ID,
			p.AuditID,
			p.URL,
			p.StatusCode,
			p.ContentType,
			p.LoadTimeMs,
			p.ByteSize,
			p.Facts,
			p.FetchedAt,
		); execErr != nil {
			return fmt.Errorf("insert page %s: %w", p.URL, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pages: %w", err)
	}
	return nil
}

// ListByAudit retrieves the persisted snapshots of one audit.
func (r *PageRepository) ListByAudit(ctx context.Context, auditID string) ([]*domain.PageSnapshot, error) {
	var pages []*domain.PageSnapshot
	query := `
		SELECT id, audit_id, url, status_code, content_type, load_time_ms,
		       byte_size, facts, fetched_at
		FROM pages
		WHERE audit_id = $1
		ORDER BY fetched_at ASC
	`

	err := r.db.SelectContext(ctx, &pages, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	if pages == nil {
		pages = []*domain.PageSnapshot{}
	}
	return pages, nil
}
