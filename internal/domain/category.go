package domain

// Category is one of the five scoring dimensions an audit rule belongs to.
// It is a closed enumeration so the category weight table and the score
// aggregator can be exhaustive.
type Category int

const (
	// CategoryTechnical covers crawlability and protocol-level checks.
	CategoryTechnical Category = iota

	// CategoryOnPage covers content and markup checks on individual pages.
	CategoryOnPage

	// CategoryStructuredData covers schema.org / JSON-LD checks.
	CategoryStructuredData

	// CategoryPerformance covers Core-Web-Vitals-style checks.
	CategoryPerformance

	// CategoryLocalSEO covers local-business discoverability checks.
	CategoryLocalSEO
)

// Categories lists every category in stable report order.
var Categories = []Category{
	CategoryTechnical,
	CategoryOnPage,
	CategoryStructuredData,
	CategoryPerformance,
	CategoryLocalSEO,
}

// String returns the string representation of a category.
func (c Category) String() string {
	switch c {
	case CategoryTechnical:
		return "technical"
	case CategoryOnPage:
		return "on_page"
	case CategoryStructuredData:
		return "structured_data"
	case CategoryPerformance:
		return "performance"
	case CategoryLocalSEO:
		return "local_seo"
	default:
		return "unknown"
	}
}
