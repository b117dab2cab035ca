package catalog

import (
	"fmt"
	"strings"
)

// Format returns a human-readable listing of the catalog.
func Format(c *Catalog) string {
	var b strings.Builder

	b.WriteString("Layouts:\n")
	for _, l := range c.layouts {
		fmt.Fprintf(&b, "  %-14s %-16s %-7s %d slot(s)  %dx%d\n",
			l.ID, l.Name, l.Kind, l.SlotCount, l.Canvas.Width, l.Canvas.Height)
	}

	b.WriteString("\nFilters:\n")
	for _, category := range c.Categories() {
		fmt.Fprintf(&b, "\n  [%s]\n", category)
		for _, f := range c.filters[category] {
			fmt.Fprintf(&b, "    %-13s %-16s %s\n", f.ID, f.Name, f.Effect)
		}
	}

	return b.String()
}
