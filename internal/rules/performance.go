package rules

import (
	"fmt"

	"github.com/rankwell/siteaudit/internal/domain"
)

// Core Web Vitals thresholds, in the provider's units (milliseconds,
// except CLS which is the raw layout-shift score).
const (
	lcpGoodMs = 2500.0
	lcpPoorMs = 4000.0
	clsGood   = 0.1
	clsPoor   = 0.25
	fcpGoodMs = 1800.0
	fcpPoorMs = 3000.0
	goodScore = 90
	weakScore = 50
)

// Page weight budget for the per-page byte-size check.
const (
	pageWeightGoodBytes = 1_500_000
	pageWeightPoorBytes = 3_000_000
)

// performanceRules returns the checks scored from provider metrics.
// When the provider returned no data they score zero against an Info
// finding; "no data" is a valid input, never an error.
func performanceRules() []Rule {
	return []Rule{
		{
			ID:          "perf-score-mobile",
			Name:        "Mobile performance score",
			Description: "The provider's mobile performance score, scaled to the rule weight.",
			Category:    domain.CategoryPerformance,
			Weight:      7,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkMobilePerformance,
		},
		{
			ID:          "perf-score-desktop",
			Name:        "Desktop performance score",
			Description: "The provider's desktop performance score, scaled to the rule weight.",
			Category:    domain.CategoryPerformance,
			Weight:      5,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkDesktopPerformance,
		},
		{
			ID:          "largest-contentful-paint",
			Name:        "Largest Contentful Paint",
			Description: "Mobile LCP stays within the recommended threshold.",
			Category:    domain.CategoryPerformance,
			Weight:      5,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkLCP,
		},
		{
			ID:          "cumulative-layout-shift",
			Name:        "Cumulative Layout Shift",
			Description: "Mobile CLS stays within the recommended threshold.",
			Category:    domain.CategoryPerformance,
			Weight:      4,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkCLS,
		},
		{
			ID:          "first-contentful-paint",
			Name:        "First Contentful Paint",
			Description: "Mobile FCP stays within the recommended threshold.",
			Category:    domain.CategoryPerformance,
			Weight:      3,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkFCP,
		},
		{
			ID:          "page-weight",
			Name:        "Page weight",
			Description: "Pages stay within a reasonable transfer-size budget.",
			Category:    domain.CategoryPerformance,
			Weight:      2,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkPageWeight,
		},
	}
}

func checkMobilePerformance(ctx *Context) (Outcome, error) {
	return strategyScoreOutcome(ctx.Performance.Mobile.Performance, 7, "mobile")
}

func checkDesktopPerformance(ctx *Context) (Outcome, error) {
	return strategyScoreOutcome(ctx.Performance.Desktop.Performance, 5, "desktop")
}

// strategyScoreOutcome scales a 0-100 provider score to the rule weight.
func strategyScoreOutcome(score *int, weight float64, strategy string) (Outcome, error) {
	if score == nil {
		return noPerformanceData(), nil
	}

	s := *score
	outcome := Outcome{
		Passed: s >= goodScore,
		Score:  weight * float64(s) / 100,
	}

	switch {
	case s < weakScore:
		outcome.Issues = append(outcome.Issues, domain.Issue{
			Severity:    domain.SeverityCritical,
			Message:     fmt.Sprintf("The %s performance score is %d/100", strategy, s),
			Remediation: "Work through the provider's opportunities list, starting with the worst-scoring entries.",
		})
	case s < goodScore:
		outcome.Issues = append(outcome.Issues, domain.Issue{
			Severity:    domain.SeverityWarning,
			Message:     fmt.Sprintf("The %s performance score is %d/100", strategy, s),
			Remediation: "A score of 90+ is considered good; review the flagged opportunities.",
		})
	}
	return outcome, nil
}

func checkLCP(ctx *Context) (Outcome, error) {
	return vitalsOutcome(ctx.Performance.Mobile.LargestContentfulPaint, 5,
		lcpGoodMs, lcpPoorMs, "Largest Contentful Paint",
		"Reduce server response time, preload the hero image, and trim render-blocking resources.",
		func(v float64) string { return fmt.Sprintf("%.1fs", v/1000) })
}

func checkCLS(ctx *Context) (Outcome, error) {
	return vitalsOutcome(ctx.Performance.Mobile.CumulativeLayoutShift, 4,
		clsGood, clsPoor, "Cumulative Layout Shift",
		"Reserve space for images, ads, and embeds so content does not move during load.",
		func(v float64) string { return fmt.Sprintf("%.3f", v) })
}

func checkFCP(ctx *Context) (Outcome, error) {
	return vitalsOutcome(ctx.Performance.Mobile.FirstContentfulPaint, 3,
		fcpGoodMs, fcpPoorMs, "First Contentful Paint",
		"Inline critical CSS and defer non-essential scripts to paint sooner.",
		func(v float64) string { return fmt.Sprintf("%.1fs", v/1000) })
}

// vitalsOutcome scores a metric against its good/poor thresholds: full
// weight when good, half when needing improvement, zero when poor.
func vitalsOutcome(
	value *float64,
	weight float64,
	good, poor float64,
	name, remediation string,
	format func(float64) string,
) (Outcome, error) {
	if value == nil {
		return noPerformanceData(), nil
	}

	v := *value
	switch {
	case v <= good:
		return pass(weight), nil
	case v <= poor:
		return partial(weight/2, domain.SeverityWarning,
			fmt.Sprintf("%s is %s on mobile", name, format(v)),
			remediation, ""), nil
	default:
		return fail(domain.SeverityCritical,
			fmt.Sprintf("%s is %s on mobile", name, format(v)),
			remediation, ""), nil
	}
}

func checkPageWeight(ctx *Context) (Outcome, error) {
	switch size := ctx.Page.ByteSize; {
	case size <= pageWeightGoodBytes:
		return pass(2), nil
	case size <= pageWeightPoorBytes:
		return partial(1, domain.SeverityInfo,
			fmt.Sprintf("The page transfers %.1f MB", float64(size)/1_000_000),
			"Compress images and strip unused assets to stay under 1.5 MB.",
			ctx.Page.URL), nil
	default:
		return fail(domain.SeverityWarning,
			fmt.Sprintf("The page transfers %.1f MB", float64(ctx.Page.ByteSize)/1_000_000),
			"Pages over 3 MB load slowly on mobile connections; cut the heaviest assets.",
			ctx.Page.URL), nil
	}
}

// noPerformanceData is the outcome of a provider-backed rule when the
// adapter returned the empty result.
func noPerformanceData() Outcome {
	return Outcome{
		Issues: []domain.Issue{{
			Severity:    domain.SeverityInfo,
			Message:     "No performance data was available for this audit",
			Remediation: "The performance provider was unreachable or rate limited; re-run the audit later.",
		}},
	}
}
