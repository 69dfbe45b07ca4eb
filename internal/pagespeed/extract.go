package pagespeed

import (
	"math"
	"sort"

	"github.com/rankwell/siteaudit/internal/domain"
)

// Extraction caps.
const (
	maxOpportunities = 10
	maxDiagnostics   = 5
)

// diagnosticAuditKeys is the fixed, ordered allow-list of diagnostic
// audits. Output preserves this order, not score order, unlike
// opportunities which are ranked worst-first.
var diagnosticAuditKeys = []string{
	"uses-long-cache-ttl",
	"total-byte-weight",
	"dom-size",
	"critical-request-chains",
	"user-timings",
	"bootup-time",
	"mainthread-work-breakdown",
	"font-display",
}

// apiResponse is the top-level provider response envelope.
type apiResponse struct {
	LighthouseResult lighthouseResult `json:"lighthouseResult"`
}

// lighthouseResult holds the category scores and audit entries of one
// provider run.
type lighthouseResult struct {
	Categories map[string]category   `json:"categories"`
	Audits     map[string]auditEntry `json:"audits"`
}

type category struct {
	Score *float64 `json:"score"`
}

type auditEntry struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Score        *float64     `json:"score"`
	NumericValue *float64     `json:"numericValue"`
	DisplayValue string       `json:"displayValue"`
	Details      auditDetails `json:"details"`
}

type auditDetails struct {
	Type             string   `json:"type"`
	OverallSavingsMs *float64 `json:"overallSavingsMs"`
}

// extractMetrics reads the named leaf values of one run into a MetricSet.
func extractMetrics(lr *lighthouseResult) domain.MetricSet {
	return domain.MetricSet{
		Performance:   categoryScore(lr, "performance"),
		Accessibility: categoryScore(lr, "accessibility"),
		BestPractices: categoryScore(lr, "best-practices"),
		SEO:           categoryScore(lr, "seo"),

		FirstContentfulPaint:   numericValue(lr, "first-contentful-paint"),
		LargestContentfulPaint: numericValue(lr, "largest-contentful-paint"),
		CumulativeLayoutShift:  numericValue(lr, "cumulative-layout-shift"),
		TotalBlockingTime:      numericValue(lr, "total-blocking-time"),
		SpeedIndex:             numericValue(lr, "speed-index"),
		TimeToInteractive:      numericValue(lr, "interactive"),
	}
}

// categoryScore converts a 0-1 category score to a rounded 0-100 integer.
func categoryScore(lr *lighthouseResult, key string) *int {
	cat, ok := lr.Categories[key]
	if !ok || cat.Score == nil {
		return nil
	}
	score := int(math.Round(*cat.Score * 100))
	return &score
}

// numericValue reads an audit's numeric value, nil when absent.
func numericValue(lr *lighthouseResult, key string) *float64 {
	audit, ok := lr.Audits[key]
	if !ok || audit.NumericValue == nil {
		return nil
	}
	v := *audit.NumericValue
	return &v
}

// extractOpportunities scans every audit entry, keeps type "opportunity"
// entries with a score strictly below 1 (room for improvement), sorts
// ascending by score so the most impactful come first, and caps at 10.
func extractOpportunities(lr *lighthouseResult) []domain.Opportunity {
	var out []domain.Opportunity
	for id, audit := range lr.Audits {
		if audit.Details.Type != "opportunity" {
			continue
		}
		if audit.Score == nil || *audit.Score >= 1 {
			continue
		}

		op := domain.Opportunity{
			ID:           id,
			Title:        audit.Title,
			Description:  audit.Description,
			Score:        *audit.Score,
			DisplayValue: audit.DisplayValue,
		}
		if audit.Details.OverallSavingsMs != nil {
			op.SavingsMs = *audit.Details.OverallSavingsMs
		}
		out = append(out, op)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > maxOpportunities {
		out = out[:maxOpportunities]
	}
	return out
}

// extractDiagnostics walks the fixed allow-list in order, keeping entries
// with a defined score below 1, capped at 5.
func extractDiagnostics(lr *lighthouseResult) []domain.Diagnostic {
	var out []domain.Diagnostic
	for _, key := range diagnosticAuditKeys {
		audit, ok := lr.Audits[key]
		if !ok || audit.Score == nil || *audit.Score >= 1 {
			continue
		}

		out = append(out, domain.Diagnostic{
			ID:           key,
			Title:        audit.Title,
			Score:        *audit.Score,
			DisplayValue: audit.DisplayValue,
		})
		if len(out) == maxDiagnostics {
			break
		}
	}
	return out
}
