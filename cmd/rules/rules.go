// Package rules implements the rules command that displays the audit
// rule catalog in a formatted table.
package rules

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	internalrules "github.com/rankwell/siteaudit/internal/rules"
)

// Command returns the rules command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the audit rule catalog",
		Long:  `Displays every rule in the catalog with its category, weight, and cardinality.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderCatalog(internalrules.Default())
		},
	}
}

// renderCatalog formats and displays the catalog in a table.
func renderCatalog(catalog *internalrules.Catalog) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Name", "Category", "Weight", "Scope"})

	var total float64
	for _, rule := range catalog.Rules() {
		t.AppendRow(table.Row{
			rule.ID,
			rule.Name,
			rule.Category.String(),
			rule.Weight,
			scopeLabel(rule.Cardinality),
		})
		total += rule.Weight
	}

	t.AppendFooter(table.Row{"", "", "Total", total, ""})
	t.Render()

	fmt.Fprintf(os.Stdout, "catalog version %s, %d rules\n", internalrules.CatalogVersion, catalog.Len())
	return nil
}

func scopeLabel(c internalrules.Cardinality) string {
	if c == internalrules.PerPage {
		return "per page"
	}
	return "per audit"
}
