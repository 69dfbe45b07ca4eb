package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rankwell/siteaudit/internal/domain"
)

// Store bundles the audit, page, and issue repositories behind the
// persistence interface the job runner consumes.
type Store struct {
	Audits *AuditRepository
	Pages  *PageRepository
	Issues *IssueRepository
}

// NewStore creates a store over one database connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Audits: NewAuditRepository(db),
		Pages:  NewPageRepository(db),
		Issues: NewIssueRepository(db),
	}
}

// MarkRunning transitions an audit to running.
func (s *Store) MarkRunning(ctx context.Context, auditID string, at time.Time) error {
	return s.Audits.MarkRunning(ctx, auditID, at)
}

// SavePages persists an audit's page snapshots.
func (s *Store) SavePages(ctx context.Context, pages []*domain.PageSnapshot) error {
	return s.Pages.CreateBatch(ctx, pages)
}

// SaveIssues persists an audit's issues.
func (s *Store) SaveIssues(ctx context.Context, issues []domain.Issue) error {
	return s.Issues.CreateBatch(ctx, issues)
}

// Complete finalizes an audit with its scores.
func (s *Store) Complete(ctx context.Context, audit *domain.Audit) error {
	return s.Audits.Complete(ctx, audit)
}

// Fail transitions an audit to failed.
func (s *Store) Fail(ctx context.Context, auditID, message string, at time.Time) error {
	return s.Audits.Fail(ctx, auditID, message, at)
}
