// Package progress publishes audit stage transitions to external
// consumers, keyed by audit id so multiple subscribers can attach to the
// same job.
package progress

import (
	"context"
	"time"

	"github.com/rankwell/siteaudit/internal/domain"
)

// Stage is one phase of the audit job state machine.
type Stage string

const (
	// StageCrawling is the snapshot-collection phase.
	StageCrawling Stage = "crawling"

	// StageAnalyzing is the performance-fetch and context-build phase.
	StageAnalyzing Stage = "analyzing"

	// StageScoring is the rule-evaluation and aggregation phase.
	StageScoring Stage = "scoring"

	// StageCompleted is the terminal reporting phase.
	StageCompleted Stage = "completed"
)

// Update is one progress event emitted on a stage transition.
type Update struct {
	AuditID  string             `json:"audit_id"`
	Status   domain.AuditStatus `json:"status"`
	Stage    Stage              `json:"stage"`
	Progress int                `json:"progress"`
	Message  string             `json:"message"`
	SentAt   time.Time          `json:"sent_at"`
}

// Completion is the terminal event carrying the final scores.
type Completion struct {
	AuditID    string              `json:"audit_id"`
	Status     domain.AuditStatus  `json:"status"`
	TotalScore *int                `json:"total_score,omitempty"`
	Scores     *domain.AuditScores `json:"scores,omitempty"`
	Error      string              `json:"error,omitempty"`
	SentAt     time.Time           `json:"sent_at"`
}

// Publisher delivers progress events to whatever transport the deployment
// uses. Publishing is best-effort; a failed publish never affects the
// audit itself.
type Publisher interface {
	PublishUpdate(ctx context.Context, update Update) error
	PublishCompletion(ctx context.Context, completion Completion) error
}

// NopPublisher drops every event. Used for inline runs and tests.
type NopPublisher struct{}

// NewNop creates a publisher that discards all events.
func NewNop() Publisher {
	return &NopPublisher{}
}

// PublishUpdate does nothing.
func (*NopPublisher) PublishUpdate(ctx context.Context, update Update) error {
	return nil
}

// PublishCompletion does nothing.
func (*NopPublisher) PublishCompletion(ctx context.Context, completion Completion) error {
	return nil
}
