package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/rankwell/siteaudit/internal/database"
	"github.com/rankwell/siteaudit/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestAuditRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)
	ctx := context.Background()

	audit := &domain.Audit{
		ID:        "a3f8c2d1-0000-0000-0000-000000000001",
		ProjectID: "proj-1",
		URL:       "https://example.com",
		Status:    domain.AuditStatusQueued,
		StartedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO audits").
		WithArgs(
			audit.ID,
			audit.ProjectID,
			audit.URL,
			audit.Status,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(ctx, audit); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAuditRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)
	ctx := context.Background()

	auditID := "a3f8c2d1-0000-0000-0000-000000000001"
	startedAt := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "project_id", "url", "status", "total_score", "scores",
		"error_message", "metadata", "started_at", "completed_at",
	}).AddRow(auditID, "proj-1", "https://example.com", "completed", 82,
		[]byte(`{"technical":90,"on_page":80,"structured_data":60,"performance":85,"local_seo":70}`),
		nil, nil, startedAt, startedAt.Add(time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM audits").
		WithArgs(auditID).
		WillReturnRows(rows)

	audit, err := repo.GetByID(ctx, auditID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if audit.Status != domain.AuditStatusCompleted {
		t.Errorf("expected status completed, got %s", audit.Status)
	}
	if audit.TotalScore == nil || *audit.TotalScore != 82 {
		t.Errorf("expected total score 82, got %v", audit.TotalScore)
	}
	if audit.Scores == nil || audit.Scores.Technical != 90 {
		t.Errorf("expected technical score 90, got %+v", audit.Scores)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAuditRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM audits").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, database.ErrAuditNotFound) {
		t.Fatalf("expected ErrAuditNotFound, got %v", err)
	}
}

func TestAuditRepository_MarkRunning(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)

	auditID := "a3f8c2d1-0000-0000-0000-000000000001"
	startedAt := time.Now()

	mock.ExpectExec("UPDATE audits").
		WithArgs(domain.AuditStatusRunning, startedAt, auditID, domain.AuditStatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkRunning(context.Background(), auditID, startedAt); err != nil {
		t.Fatalf("MarkRunning() error = %v", err)
	}
}

func TestAuditRepository_MarkRunning_WrongState(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)

	// Zero rows changed: the audit is missing or not queued.
	mock.ExpectExec("UPDATE audits").
		WithArgs(domain.AuditStatusRunning, sqlmock.AnyArg(), "already-running", domain.AuditStatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRunning(context.Background(), "already-running", time.Now())
	if !errors.Is(err, database.ErrAuditNotFound) {
		t.Fatalf("expected ErrAuditNotFound, got %v", err)
	}
}

func TestAuditRepository_Complete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)

	total := 82
	completedAt := time.Now()
	audit := &domain.Audit{
		ID:          "a3f8c2d1-0000-0000-0000-000000000001",
		Status:      domain.AuditStatusRunning,
		TotalScore:  &total,
		Scores:      &domain.AuditScores{Technical: 90},
		Metadata:    domain.JSONBMap{"pages_crawled": 12},
		CompletedAt: &completedAt,
	}

	mock.ExpectExec("UPDATE audits").
		WithArgs(
			domain.AuditStatusCompleted,
			audit.TotalScore,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			completedAt,
			audit.ID,
			domain.AuditStatusRunning,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Complete(context.Background(), audit); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestAuditRepository_Fail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)

	completedAt := time.Now()

	mock.ExpectExec("UPDATE audits").
		WithArgs(
			domain.AuditStatusFailed,
			"target site could not be reached",
			completedAt,
			"audit-1",
			domain.AuditStatusRunning,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Fail(context.Background(), "audit-1", "target site could not be reached", completedAt)
	if err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
}

func TestAuditRepository_List_EmptyResult(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAuditRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM audits").
		WithArgs("proj-1", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	audits, err := repo.List(context.Background(), "proj-1", 50, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if audits == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(audits) != 0 {
		t.Errorf("expected no audits, got %d", len(audits))
	}
}
