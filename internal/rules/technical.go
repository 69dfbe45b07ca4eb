package rules

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rankwell/siteaudit/internal/domain"
)

// technicalRules returns the crawlability and protocol checks.
func technicalRules() []Rule {
	return []Rule{
		{
			ID:          "https-enabled",
			Name:        "HTTPS enabled",
			Description: "The site serves its pages over HTTPS.",
			Category:    domain.CategoryTechnical,
			Weight:      5,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkHTTPSEnabled,
		},
		{
			ID:          "robots-txt",
			Name:        "robots.txt present",
			Description: "A robots.txt file is reachable at the site root.",
			Category:    domain.CategoryTechnical,
			Weight:      3,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkRobotsTxt,
		},
		{
			ID:          "sitemap-xml",
			Name:        "XML sitemap present",
			Description: "An XML sitemap is reachable at the site root.",
			Category:    domain.CategoryTechnical,
			Weight:      3,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkSitemapXML,
		},
		{
			ID:          "canonical-tag",
			Name:        "Canonical tag",
			Description: "Each page declares a canonical URL.",
			Category:    domain.CategoryTechnical,
			Weight:      4,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkCanonicalTag,
		},
		{
			ID:          "noindex-absent",
			Name:        "No accidental noindex",
			Description: "Pages are not blocked from indexing by a robots meta tag.",
			Category:    domain.CategoryTechnical,
			Weight:      3,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkNoindexAbsent,
		},
		{
			ID:          "console-errors",
			Name:        "No console errors",
			Description: "Pages load without JavaScript console errors.",
			Category:    domain.CategoryTechnical,
			Weight:      3,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkConsoleErrors,
		},
	}
}

func checkHTTPSEnabled(ctx *Context) (Outcome, error) {
	var insecure []string
	for _, p := range ctx.Pages {
		if !p.IsHTML() {
			continue
		}
		u, err := url.Parse(p.URL)
		if err != nil {
			return Outcome{}, fmt.Errorf("parse page url %q: %w", p.URL, err)
		}
		if u.Scheme != "https" {
			insecure = append(insecure, p.URL)
		}
	}

	if len(insecure) > 0 {
		o := fail(domain.SeverityCritical,
			fmt.Sprintf("%d page(s) are served over plain HTTP", len(insecure)),
			"Serve every page over HTTPS and redirect HTTP requests permanently.",
			insecure[0])
		o.Issues[0].Metadata = domain.JSONBMap{"insecure_urls": insecure}
		return o, nil
	}
	return pass(5), nil
}

func checkRobotsTxt(ctx *Context) (Outcome, error) {
	if probeFound(ctx.Pages, "/robots.txt") {
		return pass(3), nil
	}
	return fail(domain.SeverityWarning,
		"robots.txt was not found at the site root",
		"Add a robots.txt file so crawlers know which paths to visit.",
		""), nil
}

func checkSitemapXML(ctx *Context) (Outcome, error) {
	if probeFound(ctx.Pages, "/sitemap.xml") {
		return pass(3), nil
	}
	return fail(domain.SeverityWarning,
		"No XML sitemap was found at /sitemap.xml",
		"Publish an XML sitemap and reference it from robots.txt.",
		""), nil
}

func checkCanonicalTag(ctx *Context) (Outcome, error) {
	if ctx.Page.Facts.Canonical != "" {
		return pass(4), nil
	}
	return fail(domain.SeverityWarning,
		"The page has no canonical link element",
		"Add a <link rel=\"canonical\"> pointing at the preferred URL.",
		ctx.Page.URL), nil
}

func checkNoindexAbsent(ctx *Context) (Outcome, error) {
	robots := strings.ToLower(ctx.Page.Facts.MetaRobots)
	if strings.Contains(robots, "noindex") {
		return fail(domain.SeverityCritical,
			"The page carries a noindex robots directive",
			"Remove the noindex directive unless the page is intentionally hidden from search engines.",
			ctx.Page.URL), nil
	}
	return pass(3), nil
}

func checkConsoleErrors(ctx *Context) (Outcome, error) {
	errs := ctx.Page.Facts.ConsoleErrors
	if len(errs) == 0 {
		return pass(3), nil
	}

	o := fail(domain.SeverityWarning,
		fmt.Sprintf("The page logged %d console error(s) while loading", len(errs)),
		"Fix JavaScript errors; they often break interactive features and hurt rendering.",
		ctx.Page.URL)
	o.Issues[0].Metadata = domain.JSONBMap{"console_errors": errs}
	return o, nil
}

// probeFound reports whether a probe snapshot for the given root path
// exists and responded 2xx. Soft-404 pages that answer with an HTML body
// do not count as the probed resource.
func probeFound(pages []*domain.PageSnapshot, path string) bool {
	for _, p := range pages {
		u, err := url.Parse(p.URL)
		if err != nil {
			continue
		}
		if u.Path == path && p.OK() && !p.IsHTML() {
			return true
		}
	}
	return false
}
