package rules

import (
	"fmt"
	"sort"

	"github.com/rankwell/siteaudit/internal/domain"
)

// CatalogVersion identifies the active rule set. Bump it whenever rules
// are added, removed, or reweighted; it is recorded in audit metadata.
const CatalogVersion = "2025.2"

// Catalog is the immutable set of active rules, loaded once at process
// start. Membership changes are a deploy-time event, not a runtime one.
type Catalog struct {
	rules        []Rule
	byID         map[string]*Rule
	weightTotals map[domain.Category]float64
}

// NewCatalog builds a catalog from the given rules. Inactive rules are
// dropped. Duplicate rule ids are a programming error.
func NewCatalog(all []Rule) (*Catalog, error) {
	c := &Catalog{
		byID:         make(map[string]*Rule, len(all)),
		weightTotals: make(map[domain.Category]float64),
	}

	for _, r := range all {
		if !r.Active {
			continue
		}
		if r.Check == nil {
			return nil, fmt.Errorf("rule %q has no check function", r.ID)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		c.rules = append(c.rules, r)
	}

	sort.Slice(c.rules, func(i, j int) bool { return c.rules[i].ID < c.rules[j].ID })

	for i := range c.rules {
		r := &c.rules[i]
		c.byID[r.ID] = r
		c.weightTotals[r.Category] += r.Weight
	}

	return c, nil
}

// Default returns the built-in catalog. It panics on a malformed rule
// set, which can only happen from a bad edit to the rule files.
func Default() *Catalog {
	all := make([]Rule, 0, 24)
	all = append(all, technicalRules()...)
	all = append(all, onPageRules()...)
	all = append(all, structuredDataRules()...)
	all = append(all, performanceRules()...)
	all = append(all, localSEORules()...)

	c, err := NewCatalog(all)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in rule catalog: %v", err))
	}
	return c
}

// Rules returns the active rules sorted by id.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Get returns the rule with the given id.
func (c *Catalog) Get(id string) (*Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Len returns the number of active rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// CategoryOf resolves the category of a rule id.
func (c *Catalog) CategoryOf(id string) (domain.Category, bool) {
	r, ok := c.byID[id]
	if !ok {
		return 0, false
	}
	return r.Category, true
}

// WeightTotals returns the sum of active rule weights per category, the
// normalization denominator for category scoring.
func (c *Catalog) WeightTotals() map[domain.Category]float64 {
	out := make(map[domain.Category]float64, len(c.weightTotals))
	for k, v := range c.weightTotals {
		out[k] = v
	}
	return out
}
