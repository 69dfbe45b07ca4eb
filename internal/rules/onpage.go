package rules

import (
	"fmt"
	"strings"

	"github.com/rankwell/siteaudit/internal/domain"
)

// Title and description length bounds follow common SERP display limits.
const (
	minTitleLen = 10
	maxTitleLen = 70

	minDescriptionLen = 50
	maxDescriptionLen = 160

	minWordCount  = 300
	thinWordCount = 100
)

// onPageRules returns the per-page content and markup checks.
func onPageRules() []Rule {
	return []Rule{
		{
			ID:          "title-tag",
			Name:        "Title tag",
			Description: "Each page has a title of a reasonable length.",
			Category:    domain.CategoryOnPage,
			Weight:      5,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkTitleTag,
		},
		{
			ID:          "duplicate-titles",
			Name:        "No duplicate titles",
			Description: "No two pages share the same title.",
			Category:    domain.CategoryOnPage,
			Weight:      4,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkDuplicateTitles,
		},
		{
			ID:          "meta-description",
			Name:        "Meta description",
			Description: "Each page has a meta description of a reasonable length.",
			Category:    domain.CategoryOnPage,
			Weight:      4,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkMetaDescription,
		},
		{
			ID:          "single-h1",
			Name:        "Single H1 heading",
			Description: "Each page has exactly one H1 heading.",
			Category:    domain.CategoryOnPage,
			Weight:      4,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkSingleH1,
		},
		{
			ID:          "image-alt",
			Name:        "Image alt text",
			Description: "Images carry descriptive alt attributes.",
			Category:    domain.CategoryOnPage,
			Weight:      3,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkImageAlt,
		},
		{
			ID:          "content-length",
			Name:        "Content length",
			Description: "Pages carry enough textual content to rank.",
			Category:    domain.CategoryOnPage,
			Weight:      3,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkContentLength,
		},
	}
}

func checkTitleTag(ctx *Context) (Outcome, error) {
	title := strings.TrimSpace(ctx.Page.Facts.Title)
	if title == "" {
		return fail(domain.SeverityCritical,
			"The page has no title tag",
			"Add a unique, descriptive <title> of 10-70 characters.",
			ctx.Page.URL), nil
	}

	if len(title) < minTitleLen || len(title) > maxTitleLen {
		return partial(2.5, domain.SeverityWarning,
			fmt.Sprintf("The page title is %d characters long", len(title)),
			"Keep titles between 10 and 70 characters so they display fully in search results.",
			ctx.Page.URL), nil
	}
	return pass(5), nil
}

func checkDuplicateTitles(ctx *Context) (Outcome, error) {
	byTitle := make(map[string][]string)
	total := 0
	for _, p := range applicablePages(ctx.Pages) {
		title := strings.TrimSpace(strings.ToLower(p.Facts.Title))
		if title == "" {
			continue
		}
		byTitle[title] = append(byTitle[title], p.URL)
		total++
	}

	if total == 0 {
		return pass(4), nil
	}

	var outcome Outcome
	duplicated := 0
	for title, urls := range byTitle {
		if len(urls) < 2 {
			continue
		}
		duplicated += len(urls)
		outcome.Issues = append(outcome.Issues, domain.Issue{
			PageURL:     urls[0],
			Severity:    domain.SeverityWarning,
			Message:     fmt.Sprintf("%d pages share the title %q", len(urls), title),
			Remediation: "Give every page a unique title describing its content.",
			Metadata:    domain.JSONBMap{"urls": urls},
		})
	}

	if duplicated == 0 {
		return pass(4), nil
	}

	// Partial credit for the share of uniquely-titled pages.
	outcome.Score = 4 * float64(total-duplicated) / float64(total)
	return outcome, nil
}

func checkMetaDescription(ctx *Context) (Outcome, error) {
	desc := strings.TrimSpace(ctx.Page.Facts.MetaDescription)
	if desc == "" {
		return fail(domain.SeverityWarning,
			"The page has no meta description",
			"Add a meta description of 50-160 characters summarizing the page.",
			ctx.Page.URL), nil
	}

	if len(desc) < minDescriptionLen || len(desc) > maxDescriptionLen {
		return partial(2, domain.SeverityInfo,
			fmt.Sprintf("The meta description is %d characters long", len(desc)),
			"Keep meta descriptions between 50 and 160 characters.",
			ctx.Page.URL), nil
	}
	return pass(4), nil
}

func checkSingleH1(ctx *Context) (Outcome, error) {
	switch n := ctx.Page.Facts.H1Count; {
	case n == 1:
		return pass(4), nil
	case n == 0:
		return fail(domain.SeverityWarning,
			"The page has no H1 heading",
			"Add one H1 heading stating the page's main topic.",
			ctx.Page.URL), nil
	default:
		return partial(2, domain.SeverityInfo,
			fmt.Sprintf("The page has %d H1 headings", n),
			"Use a single H1 and demote the others to H2/H3.",
			ctx.Page.URL), nil
	}
}

func checkImageAlt(ctx *Context) (Outcome, error) {
	facts := ctx.Page.Facts
	if facts.ImageCount == 0 {
		return pass(3), nil
	}

	ratio := float64(facts.ImagesWithAlt) / float64(facts.ImageCount)
	if ratio >= 1 {
		return pass(3), nil
	}

	missing := facts.ImageCount - facts.ImagesWithAlt
	return partial(3*ratio, domain.SeverityWarning,
		fmt.Sprintf("%d of %d images have no alt text", missing, facts.ImageCount),
		"Add descriptive alt attributes to every meaningful image.",
		ctx.Page.URL), nil
}

func checkContentLength(ctx *Context) (Outcome, error) {
	switch words := ctx.Page.Facts.WordCount; {
	case words >= minWordCount:
		return pass(3), nil
	case words >= thinWordCount:
		return partial(1.5, domain.SeverityInfo,
			fmt.Sprintf("The page has only %d words of content", words),
			"Expand thin pages to at least 300 words of useful content.",
			ctx.Page.URL), nil
	default:
		return fail(domain.SeverityWarning,
			fmt.Sprintf("The page has only %d words of content", ctx.Page.Facts.WordCount),
			"Pages with almost no text rarely rank; add substantial content or noindex them.",
			ctx.Page.URL), nil
	}
}
