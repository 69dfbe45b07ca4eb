package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankwell/siteaudit/internal/database"
	"github.com/rankwell/siteaudit/internal/domain"
	"github.com/rankwell/siteaudit/internal/logger"
)

type fakeAuditStore struct {
	created   *domain.Audit
	audit     *domain.Audit
	audits    []*domain.Audit
	gotLimit  int
	gotOffset int
	createEr  error
	getErr    error
	listErr   error
}

func (s *fakeAuditStore) Create(ctx context.Context, audit *domain.Audit) error {
	s.created = audit
	return s.createEr
}

func (s *fakeAuditStore) GetByID(ctx context.Context, id string) (*domain.Audit, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.audit, nil
}

func (s *fakeAuditStore) List(ctx context.Context, projectID string, limit, offset int) ([]*domain.Audit, error) {
	s.gotLimit = limit
	s.gotOffset = offset
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.audits, nil
}

type fakeIssueStore struct {
	issues []domain.Issue
	err    error
}

func (s *fakeIssueStore) ListByAudit(ctx context.Context, auditID string) ([]domain.Issue, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.issues, nil
}

type fakeEnqueuer struct {
	enqueued *domain.Audit
	err      error
}

func (e *fakeEnqueuer) Enqueue(ctx context.Context, audit *domain.Audit) (string, error) {
	e.enqueued = audit
	if e.err != nil {
		return "", e.err
	}
	return "1700000000000-0", nil
}

func newTestRouter(audits *fakeAuditStore, issues *fakeIssueStore, producer *fakeEnqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAuditsHandler(audits, issues, producer, logger.NewNop())

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/audits", handler.CreateAudit)
	v1.GET("/audits", handler.ListAudits)
	v1.GET("/audits/:id", handler.GetAudit)
	return router
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAudit(t *testing.T) {
	audits := &fakeAuditStore{}
	producer := &fakeEnqueuer{}
	router := newTestRouter(audits, &fakeIssueStore{}, producer)

	rec := doRequest(router, http.MethodPost, "/api/v1/audits", CreateAuditRequest{
		ProjectID: "proj-1",
		URL:       "https://example.com",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)

	var created domain.Audit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "proj-1", created.ProjectID)
	assert.Equal(t, "https://example.com", created.URL)
	assert.Equal(t, domain.AuditStatusQueued, created.Status)

	require.NotNil(t, audits.created)
	require.NotNil(t, producer.enqueued)
	assert.Equal(t, audits.created.ID, producer.enqueued.ID)
}

func TestCreateAudit_MissingFields(t *testing.T) {
	router := newTestRouter(&fakeAuditStore{}, &fakeIssueStore{}, &fakeEnqueuer{})

	rec := doRequest(router, http.MethodPost, "/api/v1/audits", map[string]string{
		"project_id": "proj-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAudit_InvalidURL(t *testing.T) {
	router := newTestRouter(&fakeAuditStore{}, &fakeIssueStore{}, &fakeEnqueuer{})

	for _, raw := range []string{"ftp://example.com", "example.com", "/relative/path"} {
		rec := doRequest(router, http.MethodPost, "/api/v1/audits", CreateAuditRequest{
			ProjectID: "proj-1",
			URL:       raw,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "url %q should be rejected", raw)
	}
}

func TestCreateAudit_EnqueueFailure(t *testing.T) {
	audits := &fakeAuditStore{}
	producer := &fakeEnqueuer{err: errors.New("redis down")}
	router := newTestRouter(audits, &fakeIssueStore{}, producer)

	rec := doRequest(router, http.MethodPost, "/api/v1/audits", CreateAuditRequest{
		ProjectID: "proj-1",
		URL:       "https://example.com",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetAudit(t *testing.T) {
	audit := &domain.Audit{
		ID:        "audit-1",
		ProjectID: "proj-1",
		URL:       "https://example.com",
		Status:    domain.AuditStatusCompleted,
		StartedAt: time.Now().UTC(),
	}
	issues := []domain.Issue{
		{ID: "issue-1", AuditID: "audit-1", RuleID: "https-enabled", Severity: domain.SeverityWarning},
	}
	router := newTestRouter(&fakeAuditStore{audit: audit}, &fakeIssueStore{issues: issues}, &fakeEnqueuer{})

	rec := doRequest(router, http.MethodGet, "/api/v1/audits/audit-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Audit  domain.Audit   `json:"audit"`
		Issues []domain.Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "audit-1", body.Audit.ID)
	require.Len(t, body.Issues, 1)
	assert.Equal(t, "https-enabled", body.Issues[0].RuleID)
}

func TestGetAudit_NotFound(t *testing.T) {
	router := newTestRouter(&fakeAuditStore{getErr: database.ErrAuditNotFound}, &fakeIssueStore{}, &fakeEnqueuer{})

	rec := doRequest(router, http.MethodGet, "/api/v1/audits/missing", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "audit not found", body["error"])
}

func TestListAudits(t *testing.T) {
	audits := []*domain.Audit{
		{ID: "audit-1", ProjectID: "proj-1", Status: domain.AuditStatusCompleted},
		{ID: "audit-2", ProjectID: "proj-1", Status: domain.AuditStatusQueued},
	}
	router := newTestRouter(&fakeAuditStore{audits: audits}, &fakeIssueStore{}, &fakeEnqueuer{})

	rec := doRequest(router, http.MethodGet, "/api/v1/audits?project_id=proj-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Audits []*domain.Audit `json:"audits"`
		Total  int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Audits, 2)
	assert.Equal(t, 2, body.Total)
}

func TestListAudits_PaginationBounds(t *testing.T) {
	store := &fakeAuditStore{}
	router := newTestRouter(store, &fakeIssueStore{}, &fakeEnqueuer{})

	rec := doRequest(router, http.MethodGet, "/api/v1/audits?project_id=proj-1&limit=9999&offset=-5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, store.gotLimit)
	assert.Equal(t, 0, store.gotOffset)

	rec = doRequest(router, http.MethodGet, "/api/v1/audits?project_id=proj-1&limit=abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, store.gotLimit)
}

func TestListAudits_RequiresProjectID(t *testing.T) {
	router := newTestRouter(&fakeAuditStore{}, &fakeIssueStore{}, &fakeEnqueuer{})

	rec := doRequest(router, http.MethodGet, "/api/v1/audits", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
