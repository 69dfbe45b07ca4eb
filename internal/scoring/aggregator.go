// Package scoring reduces rule check results into total and per-category
// audit scores. All functions are pure and safe to call repeatedly with
// the same inputs.
package scoring

import (
	"math"

	"github.com/rankwell/siteaudit/internal/domain"
)

// maxTotalScore is the ceiling of the overall score. Catalogs whose
// weights sum past 100 are valid; the clamp keeps scoring correct when a
// rule addition temporarily exceeds the nominal point budget.
const maxTotalScore = 100

// CategoryOfFunc resolves the category a rule id belongs to. The second
// return value is false for rule ids not present in the catalog.
type CategoryOfFunc func(ruleID string) (domain.Category, bool)

// TotalScore sums every result's score, clamps to 100, and rounds to the
// nearest integer.
func TotalScore(results map[string]domain.CheckResult) int {
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return int(math.Round(math.Min(maxTotalScore, sum)))
}

// CategoryScores computes the 0-100 score of each category: the sum of
// the category's rule scores over the category's total configured weight.
// A category with zero configured weight scores 0.
func CategoryScores(
	results map[string]domain.CheckResult,
	categoryOf CategoryOfFunc,
	weightTotals map[domain.Category]float64,
) map[domain.Category]int {
	sums := make(map[domain.Category]float64, len(domain.Categories))
	for id, r := range results {
		cat, ok := categoryOf(id)
		if !ok {
			continue
		}
		sums[cat] += r.Score
	}

	scores := make(map[domain.Category]int, len(domain.Categories))
	for _, cat := range domain.Categories {
		total := weightTotals[cat]
		if total <= 0 {
			scores[cat] = 0
			continue
		}
		pct := math.Round(sums[cat] / total * 100)
		scores[cat] = int(math.Min(100, math.Max(0, pct)))
	}
	return scores
}
