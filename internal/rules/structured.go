package rules

import (
	"encoding/json"
	"strings"

	"github.com/rankwell/siteaudit/internal/domain"
)

// structuredDataRules returns the schema.org / JSON-LD checks.
func structuredDataRules() []Rule {
	return []Rule{
		{
			ID:          "json-ld-present",
			Name:        "JSON-LD present",
			Description: "Each page embeds at least one JSON-LD block.",
			Category:    domain.CategoryStructuredData,
			Weight:      6,
			Cardinality: PerPage,
			Active:      true,
			Check:       checkJSONLDPresent,
		},
		{
			ID:          "organization-schema",
			Name:        "Organization schema",
			Description: "The site declares an Organization schema object.",
			Category:    domain.CategoryStructuredData,
			Weight:      5,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkOrganizationSchema,
		},
		{
			ID:          "breadcrumb-schema",
			Name:        "Breadcrumb schema",
			Description: "The site declares BreadcrumbList navigation markup.",
			Category:    domain.CategoryStructuredData,
			Weight:      4,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkBreadcrumbSchema,
		},
	}
}

func checkJSONLDPresent(ctx *Context) (Outcome, error) {
	if len(ctx.Page.Facts.StructuredData) > 0 {
		return pass(6), nil
	}
	return fail(domain.SeverityWarning,
		"The page embeds no JSON-LD structured data",
		"Add JSON-LD markup describing the page so search engines can show rich results.",
		ctx.Page.URL), nil
}

func checkOrganizationSchema(ctx *Context) (Outcome, error) {
	if hasSchemaType(ctx.Pages, "Organization") || hasSchemaType(ctx.Pages, "LocalBusiness") {
		return pass(5), nil
	}
	return fail(domain.SeverityWarning,
		"No Organization schema was found on any crawled page",
		"Declare an Organization (or LocalBusiness) JSON-LD object with name, logo, and URL.",
		""), nil
}

func checkBreadcrumbSchema(ctx *Context) (Outcome, error) {
	if hasSchemaType(ctx.Pages, "BreadcrumbList") {
		return pass(4), nil
	}
	return fail(domain.SeverityInfo,
		"No BreadcrumbList schema was found on any crawled page",
		"Add BreadcrumbList markup so search results display the site hierarchy.",
		""), nil
}

// hasSchemaType reports whether any page embeds a JSON-LD object of the
// given @type, looking through top-level objects, arrays, and @graph
// containers.
func hasSchemaType(pages []*domain.PageSnapshot, schemaType string) bool {
	for _, p := range applicablePages(pages) {
		for _, raw := range p.Facts.StructuredData {
			var doc any
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				continue
			}
			if nodeHasType(doc, schemaType) {
				return true
			}
		}
	}
	return false
}

func nodeHasType(node any, schemaType string) bool {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if nodeHasType(item, schemaType) {
				return true
			}
		}
	case map[string]any:
		if typeMatches(v["@type"], schemaType) {
			return true
		}
		if graph, ok := v["@graph"]; ok {
			return nodeHasType(graph, schemaType)
		}
	}
	return false
}

// typeMatches handles @type being either a string or a list of strings.
func typeMatches(typeField any, schemaType string) bool {
	switch t := typeField.(type) {
	case string:
		return strings.EqualFold(t, schemaType)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, schemaType) {
				return true
			}
		}
	}
	return false
}
