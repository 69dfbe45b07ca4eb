package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/rankwell/siteaudit/internal/domain"
	"github.com/rankwell/siteaudit/internal/logger"
)

// defaultConcurrency bounds simultaneous rule evaluations when the
// harness config leaves it unset.
const defaultConcurrency = 4

// Harness evaluates the catalog against an audit's page snapshots and
// collects one CheckResult per rule id.
type Harness struct {
	catalog     *Catalog
	concurrency int
	logger      logger.Logger
}

// NewHarness creates a harness over the given catalog.
func NewHarness(catalog *Catalog, concurrency int, log logger.Logger) *Harness {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Harness{catalog: catalog, concurrency: concurrency, logger: log}
}

// Run evaluates every active rule and returns the results keyed by rule
// id. Rule failures never abort the run: a failing rule yields a
// zero-score result with a synthetic Info issue. The returned map always
// holds exactly one entry per active rule.
//
// Rules run concurrently under a bounded semaphore; each rule writes only
// its own slot, so the single mutex guards map growth, not contention on
// shared keys. Issue ordering is made deterministic downstream by sorting
// on rule id.
func (h *Harness) Run(
	ctx context.Context,
	pages []*domain.PageSnapshot,
	projectDomain string,
	perf *domain.PerformanceResult,
) map[string]domain.CheckResult {
	if perf == nil {
		perf = &domain.PerformanceResult{}
	}

	results := make(map[string]domain.CheckResult, h.catalog.Len())
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, h.concurrency)

	for _, rule := range h.catalog.Rules() {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Cancelled between rules: record the remaining rules as
			// zero-score so the result map stays total.
			mu.Lock()
			results[rule.ID] = h.failedResult(rule, ctx.Err())
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(rule Rule) {
			defer func() {
				<-sem
				wg.Done()
			}()

			result := h.evaluate(rule, pages, projectDomain, perf)

			mu.Lock()
			results[rule.ID] = result
			mu.Unlock()
		}(rule)
	}

	wg.Wait()
	return results
}

// evaluate runs one rule per its cardinality and normalizes the outcome.
func (h *Harness) evaluate(
	rule Rule,
	pages []*domain.PageSnapshot,
	projectDomain string,
	perf *domain.PerformanceResult,
) domain.CheckResult {
	switch rule.Cardinality {
	case PerPage:
		return h.evaluatePerPage(rule, pages, projectDomain, perf)
	default:
		return h.evaluateOnce(rule, pages, projectDomain, perf)
	}
}

// evaluateOnce runs a PerAudit rule against the full snapshot set.
func (h *Harness) evaluateOnce(
	rule Rule,
	pages []*domain.PageSnapshot,
	projectDomain string,
	perf *domain.PerformanceResult,
) domain.CheckResult {
	rctx := &Context{Pages: pages, Domain: projectDomain, Performance: perf}

	outcome, err := h.safeCheck(rule, rctx)
	if err != nil {
		return h.failedResult(rule, err)
	}

	score := h.clampScore(rule, outcome.Score)
	return domain.CheckResult{
		RuleID: rule.ID,
		Passed: outcome.Passed,
		Score:  score,
		Issues: stampRule(rule.ID, outcome.Issues),
	}
}

// evaluatePerPage runs the rule once per applicable page and averages
// the page scores. A page is applicable when it responded 2xx with a
// body; an audit with no applicable pages scores zero for the rule.
func (h *Harness) evaluatePerPage(
	rule Rule,
	pages []*domain.PageSnapshot,
	projectDomain string,
	perf *domain.PerformanceResult,
) domain.CheckResult {
	applicable := applicablePages(pages)
	if len(applicable) == 0 {
		return domain.CheckResult{RuleID: rule.ID}
	}

	var scoreSum float64
	allPassed := true
	var issues []domain.Issue

	for _, page := range applicable {
		rctx := &Context{
			Page:        page,
			Pages:       pages,
			Domain:      projectDomain,
			Performance: perf,
		}

		outcome, err := h.safeCheck(rule, rctx)
		if err != nil {
			failed := h.failedResult(rule, err)
			issues = append(issues, failed.Issues...)
			allPassed = false
			continue
		}

		scoreSum += h.clampScore(rule, outcome.Score)
		if !outcome.Passed {
			allPassed = false
		}
		issues = append(issues, outcome.Issues...)
	}

	return domain.CheckResult{
		RuleID: rule.ID,
		Passed: allPassed,
		Score:  scoreSum / float64(len(applicable)),
		Issues: stampRule(rule.ID, issues),
	}
}

// safeCheck invokes the rule's check, converting panics into errors so a
// buggy rule cannot take down the audit.
func (h *Harness) safeCheck(rule Rule, rctx *Context) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Check(rctx)
}

// clampScore enforces 0 <= score <= weight, logging contract violations.
func (h *Harness) clampScore(rule Rule, score float64) float64 {
	if score >= 0 && score <= rule.Weight {
		return score
	}

	h.logger.Warn("rule score outside [0, weight], clamping",
		logger.String("rule_id", rule.ID),
		logger.Float64("score", score),
		logger.Float64("weight", rule.Weight),
	)

	if score < 0 {
		return 0
	}
	return rule.Weight
}

// failedResult records a rule execution failure as a zero-score result
// with a synthetic Info issue.
func (h *Harness) failedResult(rule Rule, err error) domain.CheckResult {
	h.logger.Warn("rule execution failed",
		logger.String("rule_id", rule.ID),
		logger.Error(err),
	)

	return domain.CheckResult{
		RuleID: rule.ID,
		Issues: []domain.Issue{{
			RuleID:   rule.ID,
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("rule execution failed: %v", err),
		}},
	}
}

// applicablePages filters to pages a content rule can evaluate.
func applicablePages(pages []*domain.PageSnapshot) []*domain.PageSnapshot {
	out := make([]*domain.PageSnapshot, 0, len(pages))
	for _, p := range pages {
		if p.OK() && p.IsHTML() && p.HTML != "" {
			out = append(out, p)
		}
	}
	return out
}

// stampRule sets the producing rule id on every issue.
func stampRule(ruleID string, issues []domain.Issue) []domain.Issue {
	for i := range issues {
		issues[i].RuleID = ruleID
	}
	return issues
}
