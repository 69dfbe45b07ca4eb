package domain

import (
	"time"
)

// Severity classifies how urgent an issue is.
type Severity string

const (
	// SeverityCritical marks issues that materially hurt ranking or UX.
	SeverityCritical Severity = "critical"

	// SeverityWarning marks issues worth fixing but not blocking.
	SeverityWarning Severity = "warning"

	// SeverityInfo marks informational findings.
	SeverityInfo Severity = "info"
)

// Issue is a single finding produced by a rule during an audit run.
// Issues are immutable after creation.
type Issue struct {
	ID          string    `db:"id"          json:"id"`
	AuditID     string    `db:"audit_id"    json:"audit_id"`
	PageURL     string    `db:"page_url"    json:"page_url,omitempty"`
	RuleID      string    `db:"rule_id"     json:"rule_id"`
	Severity    Severity  `db:"severity"    json:"severity"`
	Message     string    `db:"message"     json:"message"`
	Remediation string    `db:"remediation" json:"remediation,omitempty"`
	Metadata    JSONBMap  `db:"metadata"    json:"metadata,omitempty"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}
