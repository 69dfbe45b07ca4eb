package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rankwell/siteaudit/internal/database"
	"github.com/rankwell/siteaudit/internal/domain"
	"github.com/rankwell/siteaudit/internal/logger"
)

const (
	defaultLimit  = 50
	defaultOffset = 0
)

// AuditStore defines the persistence operations the handler needs.
type AuditStore interface {
	Create(ctx context.Context, audit *domain.Audit) error
	GetByID(ctx context.Context, id string) (*domain.Audit, error)
	List(ctx context.Context, projectID string, limit, offset int) ([]*domain.Audit, error)
}

// IssueStore lists the issues recorded for an audit.
type IssueStore interface {
	ListByAudit(ctx context.Context, auditID string) ([]domain.Issue, error)
}

// Enqueuer places an accepted audit on the job queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, audit *domain.Audit) (string, error)
}

// AuditsHandler handles audit-related HTTP requests.
type AuditsHandler struct {
	audits   AuditStore
	issues   IssueStore
	producer Enqueuer
	logger   logger.Logger
}

// NewAuditsHandler creates a new audits handler.
func NewAuditsHandler(audits AuditStore, issues IssueStore, producer Enqueuer, log logger.Logger) *AuditsHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuditsHandler{
		audits:   audits,
		issues:   issues,
		producer: producer,
		logger:   log,
	}
}

// CreateAuditRequest is the request body for POST /api/v1/audits.
type CreateAuditRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	URL       string `json:"url"        binding:"required"`
}

// CreateAudit handles POST /api/v1/audits. The audit is stored in queued
// state and handed to the worker queue; the response returns immediately.
func (h *AuditsHandler) CreateAudit(c *gin.Context) {
	var req CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	target, err := url.Parse(req.URL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		respondError(c, http.StatusBadRequest, "url must be an absolute http or https URL")
		return
	}

	audit := &domain.Audit{
		ID:        uuid.New().String(),
		ProjectID: req.ProjectID,
		URL:       target.String(),
		Status:    domain.AuditStatusQueued,
		StartedAt: time.Now().UTC(),
	}

	if err := h.audits.Create(c.Request.Context(), audit); err != nil {
		h.logger.Error("failed to create audit",
			logger.String("project_id", req.ProjectID),
			logger.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "Failed to create audit")
		return
	}

	msgID, err := h.producer.Enqueue(c.Request.Context(), audit)
	if err != nil {
		h.logger.Error("failed to enqueue audit",
			logger.String("audit_id", audit.ID),
			logger.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "Failed to enqueue audit")
		return
	}

	h.logger.Info("audit accepted",
		logger.String("audit_id", audit.ID),
		logger.String("url", audit.URL),
		logger.String("message_id", msgID),
	)

	c.JSON(http.StatusAccepted, audit)
}

// GetAudit handles GET /api/v1/audits/:id. The response includes the
// audit's issues once they exist.
func (h *AuditsHandler) GetAudit(c *gin.Context) {
	id := c.Param("id")
	if id == "" || id == "undefined" {
		respondError(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	audit, err := h.audits.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrAuditNotFound) {
			respondError(c, http.StatusNotFound, "audit not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to retrieve audit")
		return
	}

	issues, err := h.issues.ListByAudit(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve issues")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit":  audit,
		"issues": issues,
	})
}

// ListAudits handles GET /api/v1/audits?project_id=...
func (h *AuditsHandler) ListAudits(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		respondError(c, http.StatusBadRequest, "project_id is required")
		return
	}

	limit, offset := parsePagination(c)

	audits, err := h.audits.List(c.Request.Context(), projectID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to retrieve audits")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": audits,
		"total":  len(audits),
	})
}
