package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rankwell/siteaudit/internal/database"
	"github.com/rankwell/siteaudit/internal/domain"
)

func TestPageRepository_CreateBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPageRepository(db)

	pages := []*domain.PageSnapshot{
		{
			ID:          "page-1",
			AuditID:     "audit-1",
			URL:         "https://example.com/",
			StatusCode:  200,
			ContentType: "text/html",
			LoadTimeMs:  240,
			ByteSize:    52_000,
			Facts:       domain.PageFacts{Title: "Home", H1Count: 1},
			FetchedAt:   time.Now(),
		},
		{
			ID:          "page-2",
			AuditID:     "audit-1",
			URL:         "https://example.com/about",
			StatusCode:  200,
			ContentType: "text/html",
			FetchedAt:   time.Now(),
		},
	}

	mock.ExpectBegin()
	for _, p := range pages {
		mock.ExpectExec("INSERT INTO pages").
			WithArgs(
				p.ID, p.AuditID, p.URL, p.StatusCode, p.ContentType,
				p.LoadTimeMs, p.ByteSize, sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := repo.CreateBatch(context.Background(), pages); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPageRepository_CreateBatch_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPageRepository(db)

	// No transaction for an empty batch.
	if err := repo.CreateBatch(context.Background(), nil); err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPageRepository_CreateBatch_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPageRepository(db)

	pages := []*domain.PageSnapshot{
		{ID: "page-1", AuditID: "audit-1", URL: "https://example.com/", FetchedAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pages").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := repo.CreateBatch(context.Background(), pages); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPageRepository_ListByAudit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPageRepository(db)

	fetchedAt := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "audit_id", "url", "status_code", "content_type",
		"load_time_ms", "byte_size", "facts", "fetched_at",
	}).AddRow("page-1", "audit-1", "https://example.com/", 200, "text/html",
		240, 52_000, []byte(`{"title":"Home","h1_count":1}`), fetchedAt)

	mock.ExpectQuery("SELECT (.+) FROM pages").
		WithArgs("audit-1").
		WillReturnRows(rows)

	pages, err := repo.ListByAudit(context.Background(), "audit-1")
	if err != nil {
		t.Fatalf("ListByAudit() error = %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Facts.Title != "Home" {
		t.Errorf("expected facts to round-trip, got %+v", pages[0].Facts)
	}
}
