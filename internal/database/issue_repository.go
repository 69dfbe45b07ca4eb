package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rankwell/siteaudit/internal/domain"
)

// IssueRepository handles database operations for issues.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository creates a new issue repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// CreateBatch inserts an audit's issues in one transaction.
func (r *IssueRepository) CreateBatch(ctx context.Context, issues []domain.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO issues (id, audit_id, page_url, rule_id, severity,
		                    message, remediation, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i := range issues {
		issue := &issues[i]
		if _, execErr := tx.ExecContext(
			ctx,
			query,
			issue.ID,
			issue.AuditID,
			issue.PageURL,
			issue.RuleID,
			issue.Severity,
			issue.Message,
			issue.Remediation,
			issue.Metadata,
			issue.CreatedAt,
		); execErr != nil {
			return fmt.Errorf("insert issue for rule %s: %w", issue.RuleID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit issues: %w", err)
	}
	return nil
}

// ListByAudit retrieves an audit's issues ordered by rule id, severity
// order preserved within a rule by creation.
func (r *IssueRepository) ListByAudit(ctx context.Context, auditID string) ([]domain.Issue, error) {
	var issues []domain.Issue
	query := `
		SELECT id, audit_id, page_url, rule_id, severity, message,
		       remediation, metadata, created_at
		FROM issues
		WHERE audit_id = $1
		ORDER BY rule_id ASC, created_at ASC
	`

	err := r.db.SelectContext(ctx, &issues, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	if issues == nil {
		issues = []domain.Issue{}
	}
	return issues, nil
}
