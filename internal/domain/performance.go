package domain

// PerformanceResult holds the provider metrics for one audited URL,
// one metric set per rendering strategy. A zero value is the documented
// "no data" result the pipeline scores against when the provider fails.
type PerformanceResult struct {
	Mobile        MetricSet     `json:"mobile"`
	Desktop       MetricSet     `json:"desktop"`
	Opportunities []Opportunity `json:"opportunities,omitempty"`
	Diagnostics   []Diagnostic  `json:"diagnostics,omitempty"`
}

// HasData reports whether either strategy produced a performance score.
func (r *PerformanceResult) HasData() bool {
	if r == nil {
		return false
	}
	return r.Mobile.Performance != nil || r.Desktop.Performance != nil
}

// MetricSet holds the category scores and timing metrics for one strategy.
// Scores are 0-100 integers; metrics are milliseconds except CLS, which is
// the raw layout-shift score. Nil means the provider did not report a value.
type MetricSet struct {
	Performance    *int `json:"performance,omitempty"`
	Accessibility  *int `json:"accessibility,omitempty"`
	BestPractices  *int `json:"best_practices,omitempty"`
	SEO            *int `json:"seo,omitempty"`

	FirstContentfulPaint   *float64 `json:"first_contentful_paint,omitempty"`
	LargestContentfulPaint *float64 `json:"largest_contentful_paint,omitempty"`
	CumulativeLayoutShift  *float64 `json:"cumulative_layout_shift,omitempty"`
	TotalBlockingTime      *float64 `json:"total_blocking_time,omitempty"`
	SpeedIndex             *float64 `json:"speed_index,omitempty"`
	TimeToInteractive      *float64 `json:"time_to_interactive,omitempty"`
}

// Opportunity is a provider-flagged improvement with quantified savings,
// ranked worst-first by its 0-1 score.
type Opportunity struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	Score        float64 `json:"score"`
	SavingsMs    float64 `json:"savings_ms,omitempty"`
	DisplayValue string  `json:"display_value,omitempty"`
}

// Diagnostic is an informational provider finding from the fixed allow-list.
type Diagnostic struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Score        float64 `json:"score"`
	DisplayValue string  `json:"display_value,omitempty"`
}
