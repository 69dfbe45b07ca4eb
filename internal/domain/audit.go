// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// AuditStatus represents the lifecycle state of an audit job.
type AuditStatus string

const (
	// AuditStatusQueued means the audit is enqueued and waiting for a worker.
	AuditStatusQueued AuditStatus = "queued"

	// AuditStatusRunning means a worker is executing the audit.
	AuditStatusRunning AuditStatus = "running"

	// AuditStatusCompleted means the audit finished and scores are final.
	AuditStatusCompleted AuditStatus = "completed"

	// AuditStatusFailed means the audit aborted on an infrastructural error.
	AuditStatusFailed AuditStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s AuditStatus) Terminal() bool {
	return s == AuditStatusCompleted || s == AuditStatusFailed
}

// Audit represents one complete evaluation run against a target URL.
// Once the status is terminal the record is immutable except for metadata.
type Audit struct {
	ID           string       `db:"id"           json:"id"`
	ProjectID    string       `db:"project_id"   json:"project_id"`
	URL          string       `db:"url"          json:"url"`
	Status       AuditStatus  `db:"status"       json:"status"`
	TotalScore   *int         `db:"total_score"  json:"total_score,omitempty"`
	Scores       *AuditScores `db:"scores"       json:"scores,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	Metadata     JSONBMap     `db:"metadata"     json:"metadata,omitempty"`
	StartedAt    time.Time    `db:"started_at"   json:"started_at"`
	CompletedAt  *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}

// AuditScores holds the per-category scores of a completed audit.
type AuditScores struct {
	Technical      int `json:"technical"`
	OnPage         int `json:"on_page"`
	StructuredData int `json:"structured_data"`
	Performance    int `json:"performance"`
	LocalSEO       int `json:"local_seo"`
}

// ScoresByCategory converts a category score map into an AuditScores record.
func ScoresByCategory(scores map[Category]int) *AuditScores {
	return &AuditScores{
		Technical:      scores[CategoryTechnical],
		OnPage:         scores[CategoryOnPage],
		StructuredData: scores[CategoryStructuredData],
		Performance:    scores[CategoryPerformance],
		LocalSEO:       scores[CategoryLocalSEO],
	}
}

// ByCategory returns the scores keyed by category.
func (s *AuditScores) ByCategory() map[Category]int {
	return map[Category]int{
		CategoryTechnical:      s.Technical,
		CategoryOnPage:         s.OnPage,
		CategoryStructuredData: s.StructuredData,
		CategoryPerformance:    s.Performance,
		CategoryLocalSEO:       s.LocalSEO,
	}
}
