package domain

// CheckResult is the outcome of evaluating one rule for one audit run.
// Score is bounded by the rule's weight; the harness clamps violations.
// Results are ephemeral and never persisted on their own.
type CheckResult struct {
	RuleID string  `json:"rule_id"`
	Passed bool    `json:"passed"`
	Score  float64 `json:"score"`
	Issues []Issue `json:"issues,omitempty"`
}
