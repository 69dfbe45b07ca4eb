package rules

import (
	"encoding/json"

	"github.com/rankwell/siteaudit/internal/domain"
)

// localSEORules returns the local-business discoverability checks.
func localSEORules() []Rule {
	return []Rule{
		{
			ID:          "local-business-schema",
			Name:        "LocalBusiness schema",
			Description: "The site declares a LocalBusiness schema object.",
			Category:    domain.CategoryLocalSEO,
			Weight:      6,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkLocalBusinessSchema,
		},
		{
			ID:          "nap-consistency",
			Name:        "Name, address, phone",
			Description: "The business schema declares its name, address, and telephone.",
			Category:    domain.CategoryLocalSEO,
			Weight:      5,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkNAP,
		},
		{
			ID:          "geo-meta",
			Name:        "Geo metadata",
			Description: "Pages expose geo position metadata.",
			Category:    domain.CategoryLocalSEO,
			Weight:      4,
			Cardinality: PerAudit,
			Active:      true,
			Check:       checkGeoMeta,
		},
	}
}

func checkLocalBusinessSchema(ctx *Context) (Outcome, error) {
	if hasSchemaType(ctx.Pages, "LocalBusiness") {
		return pass(6), nil
	}
	return fail(domain.SeverityWarning,
		"No LocalBusiness schema was found on any crawled page",
		"Declare a LocalBusiness JSON-LD object so the business appears in local search and maps.",
		""), nil
}

func checkNAP(ctx *Context) (Outcome, error) {
	hasAddress, hasPhone := napFields(ctx.Pages)

	switch {
	case hasAddress && hasPhone:
		return pass(5), nil
	case hasAddress || hasPhone:
		missing := "telephone"
		if !hasAddress {
			missing = "address"
		}
		return partial(2.5, domain.SeverityWarning,
			"The business schema is missing its "+missing,
			"Declare name, address, and telephone together; consistent NAP data drives local rankings.",
			""), nil
	default:
		return fail(domain.SeverityWarning,
			"No address or telephone was found in the site's structured data",
			"Add address and telephone properties to the business schema object.",
			""), nil
	}
}

func checkGeoMeta(ctx *Context) (Outcome, error) {
	for _, p := range applicablePages(ctx.Pages) {
		if p.Facts.GeoMeta {
			return pass(4), nil
		}
	}
	return fail(domain.SeverityInfo,
		"No geo position metadata was found",
		"Add geo.position and ICBM meta tags, or geo coordinates in the business schema.",
		""), nil
}

// napFields scans every structured-data object for address and telephone
// properties, including nested @graph containers.
func napFields(pages []*domain.PageSnapshot) (hasAddress, hasPhone bool) {
	for _, p := range applicablePages(pages) {
		for _, raw := range p.Facts.StructuredData {
			var doc any
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				continue
			}
			a, t := nodeNAPFields(doc)
			hasAddress = hasAddress || a
			hasPhone = hasPhone || t
			if hasAddress && hasPhone {
				return true, true
			}
		}
	}
	return hasAddress, hasPhone
}

func nodeNAPFields(node any) (hasAddress, hasPhone bool) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			a, t := nodeNAPFields(item)
			hasAddress = hasAddress || a
			hasPhone = hasPhone || t
		}
	case map[string]any:
		if _, ok := v["address"]; ok {
			hasAddress = true
		}
		if _, ok := v["telephone"]; ok {
			hasPhone = true
		}
		if graph, ok := v["@graph"]; ok {
			a, t := nodeNAPFields(graph)
			hasAddress = hasAddress || a
			hasPhone = hasPhone || t
		}
	}
	return hasAddress, hasPhone
}
