package domain

import (
	"net/http"
	"strings"
	"time"
)

// PageSnapshot is the crawler's captured representation of one fetched page.
// Snapshots are read-only once produced; one audit owns many snapshots.
type PageSnapshot struct {
	ID          string      `db:"id"           json:"id"`
	AuditID     string      `db:"audit_id"     json:"audit_id"`
	URL         string      `db:"url"          json:"url"`
	StatusCode  int         `db:"status_code"  json:"status_code"`
	ContentType string      `db:"content_type" json:"content_type"`
	LoadTimeMs  int64       `db:"load_time_ms" json:"load_time_ms"`
	ByteSize    int         `db:"byte_size"    json:"byte_size"`
	HTML        string      `db:"-"            json:"-"`
	Headers     http.Header `db:"-"            json:"-"`
	Facts       PageFacts   `db:"facts"        json:"facts"`
	FetchedAt   time.Time   `db:"fetched_at"   json:"fetched_at"`
}

// PageFacts holds the facts extracted from a page's HTML at crawl time.
// Rules read these instead of re-parsing the document.
type PageFacts struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	MetaRobots      string   `json:"meta_robots"`
	Canonical       string   `json:"canonical"`
	H1Count         int      `json:"h1_count"`
	WordCount       int      `json:"word_count"`
	ImageCount      int      `json:"image_count"`
	ImagesWithAlt   int      `json:"images_with_alt"`
	InternalLinks   []string `json:"internal_links"`
	ExternalLinks   []string `json:"external_links"`
	StructuredData  []string `json:"structured_data,omitempty"`
	ConsoleErrors   []string `json:"console_errors,omitempty"`
	GeoMeta         bool     `json:"geo_meta"`
}

// OK reports whether the page responded with a 2xx status.
func (p *PageSnapshot) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// IsHTML reports whether the snapshot holds an HTML document, as opposed
// to a probe fetch such as robots.txt or a sitemap.
func (p *PageSnapshot) IsHTML() bool {
	return strings.Contains(p.ContentType, "text/html")
}
