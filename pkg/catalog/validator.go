// validator.go: Sanity checks for catalog entries.
package catalog

import "fmt"

// Validate reports problems with catalog entries as warnings (never fatal).
// checkEffect, when non-nil, is used to verify filter expressions.
func Validate(c *Catalog, checkEffect func(expr string) error) []string {
	var warnings []string

	for _, l := range c.layouts {
		warnings = append(warnings, validateLayout(l)...)
	}

	seen := make(map[string]string)
	for _, category := range c.Categories() {
		for _, f := range c.filters[category] {
			if prev, dup := seen[f.ID]; dup {
				warnings = append(warnings, fmt.Sprintf("filter %q in %q shadows the one in %q: ignored", f.ID, category, prev))
				continue
			}
			seen[f.ID] = category
			if checkEffect == nil {
				continue
			}
			if err := checkEffect(f.Effect); err != nil {
				warnings = append(warnings, fmt.Sprintf("filter %q: %v: resolves to none", f.ID, err))
			}
		}
	}

	return warnings
}

func validateLayout(l LayoutTemplate) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf("layout %q: ", l.ID)+fmt.Sprintf(format, args...))
	}

	if l.SlotCount < 1 {
		warn("slots must be at least 1, got %d", l.SlotCount)
	}
	if l.Canvas.Width <= 0 || l.Canvas.Height <= 0 {
		warn("dimensions must be positive, got %dx%d", l.Canvas.Width, l.Canvas.Height)
	}

	switch l.Kind {
	case KindStrip:
	case KindSingle:
		if l.SlotCount != 1 {
			warn("single layout holds exactly 1 slot, got %d", l.SlotCount)
		}
	case KindGrid:
		if l.Columns < 0 || l.Rows < 0 {
			warn("columns and rows must not be negative")
		}
		if l.Columns > 0 && l.Rows > 0 && l.SlotCount != l.Columns*l.Rows {
			warn("%d slots do not fill a %dx%d grid", l.SlotCount, l.Columns, l.Rows)
		}
	default:
		warn("unknown type %q: renders without slots", l.Kind)
	}

	return warnings
}
