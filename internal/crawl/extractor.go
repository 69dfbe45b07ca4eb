package crawl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rankwell/siteaudit/internal/domain"
)

// ExtractFacts parses a page's HTML and extracts the facts the rule
// catalog evaluates, so rules never re-parse documents.
func ExtractFacts(html, pageURL, host string) (domain.PageFacts, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.PageFacts{}, fmt.Errorf("parse html: %w", err)
	}

	facts := domain.PageFacts{
		Title:           strings.TrimSpace(doc.Find("title").First().Text()),
		MetaDescription: metaContent(doc, "description"),
		MetaRobots:      metaContent(doc, "robots"),
		Canonical:       linkHref(doc, "canonical"),
		H1Count:         doc.Find("h1").Length(),
		WordCount:       countWords(doc),
		GeoMeta:         metaContent(doc, "geo.position") != "" || metaContent(doc, "ICBM") != "",
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		facts.ImageCount++
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			facts.ImagesWithAlt++
		}
	})

	facts.InternalLinks, facts.ExternalLinks = extractLinks(doc, pageURL, host)

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if raw := strings.TrimSpace(s.Text()); raw != "" {
			facts.StructuredData = append(facts.StructuredData, raw)
		}
	})

	return facts, nil
}

// metaContent returns the content attribute of a named meta tag.
func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First().Attr("content")
	return strings.TrimSpace(content)
}

// linkHref returns the href of a link element with the given rel.
func linkHref(doc *goquery.Document, rel string) string {
	href, _ := doc.Find(fmt.Sprintf(`link[rel=%q]`, rel)).First().Attr("href")
	return strings.TrimSpace(href)
}

// countWords counts whitespace-separated words in the body text, with
// scripts and styles removed.
func countWords(doc *goquery.Document) int {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return len(strings.Fields(body.Text()))
}

// extractLinks resolves every anchor against the page URL and splits the
// results into same-host and external absolute URLs.
func extractLinks(doc *goquery.Document, pageURL, host string) (internal, external []string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}

		resolved, resolveErr := base.Parse(href)
		if resolveErr != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		resolved.Fragment = ""

		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		if resolved.Host == host {
			internal = append(internal, abs)
		} else {
			external = append(external, abs)
		}
	})

	return internal, external
}
