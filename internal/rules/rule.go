// Package rules defines the audit rule contract, the fixed rule catalog,
// and the harness that evaluates the catalog against crawled pages.
package rules

import (
	"github.com/rankwell/siteaudit/internal/domain"
)

// Cardinality encodes how often a rule runs within one audit.
type Cardinality int

const (
	// PerAudit rules run once per audit against the full snapshot set.
	PerAudit Cardinality = iota

	// PerPage rules run once per applicable page; the harness averages
	// the per-page scores into a single result.
	PerPage
)

// Context supplies everything a rule check may read. Checks must treat it
// as read-only: no mutation, no I/O, same inputs always produce the same
// outcome.
type Context struct {
	// Page is the page under evaluation. Nil for PerAudit rules.
	Page *domain.PageSnapshot

	// Pages is the full snapshot set of the audit, for cross-page checks
	// such as duplicate-title detection.
	Pages []*domain.PageSnapshot

	// Domain is the project's registered host, for same-origin checks.
	Domain string

	// Performance carries the provider metrics, fetched once per audit.
	// Never nil; a zero value means the provider returned no data.
	Performance *domain.PerformanceResult
}

// Outcome is what a single check invocation reports back to the harness.
// Score must satisfy 0 <= Score <= rule weight; the harness clamps and
// logs violations.
type Outcome struct {
	Passed bool
	Score  float64
	Issues []domain.Issue
}

// CheckFunc evaluates one rule. It may fail on malformed input; the
// harness records a failure as a zero-score result and keeps going.
type CheckFunc func(ctx *Context) (Outcome, error)

// Rule is one weighted, independently-evaluable check in the catalog.
// Catalog entries are immutable after process start.
type Rule struct {
	ID          string
	Name        string
	Description string
	Category    domain.Category
	Weight      float64
	Cardinality Cardinality
	Active      bool
	Check       CheckFunc
}

// pass is a convenience constructor for a full-score outcome.
func pass(weight float64) Outcome {
	return Outcome{Passed: true, Score: weight}
}

// fail builds a zero-score outcome carrying one issue.
func fail(sev domain.Severity, msg, remediation, pageURL string) Outcome {
	return Outcome{
		Issues: []domain.Issue{{
			PageURL:     pageURL,
			Severity:    sev,
			Message:     msg,
			Remediation: remediation,
		}},
	}
}

// partial builds a partially-scored outcome carrying one issue.
func partial(score float64, sev domain.Severity, msg, remediation, pageURL string) Outcome {
	o := fail(sev, msg, remediation, pageURL)
	o.Score = score
	return o
}
