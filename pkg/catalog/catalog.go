package catalog

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownLayout = errors.New("unknown layout")
	ErrUnknownFilter = errors.New("unknown filter")
)

// Catalog is an immutable registry of layouts and filters.
type Catalog struct {
	layouts    []LayoutTemplate
	layoutByID map[string]int
	filters    map[string][]FilterPreset
	filterByID map[string]FilterPreset
}

// New builds a catalog from a parsed document. Layout order is preserved;
// the first layout becomes the default. Duplicate IDs keep the first entry.
func New(doc Document) (*Catalog, error) {
	if len(doc.Layouts) == 0 {
		return nil, fmt.Errorf("catalog has no layouts")
	}

	c := &Catalog{
		layouts:    make([]LayoutTemplate, 0, len(doc.Layouts)),
		layoutByID: make(map[string]int, len(doc.Layouts)),
		filters:    make(map[string][]FilterPreset, len(doc.Filters)),
		filterByID: make(map[string]FilterPreset),
	}

	for _, l := range doc.Layouts {
		if _, dup := c.layoutByID[l.ID]; dup {
			continue
		}
		c.layoutByID[l.ID] = len(c.layouts)
		c.layouts = append(c.layouts, l)
	}

	for category, presets := range doc.Filters {
		list := make([]FilterPreset, 0, len(presets))
		for _, f := range presets {
			f.Category = category
			list = append(list, f)
			if _, dup := c.filterByID[f.ID]; !dup {
				c.filterByID[f.ID] = f
			}
		}
		c.filters[category] = list
	}

	return c, nil
}

// Layout returns the template with the given ID.
func (c *Catalog) Layout(id string) (LayoutTemplate, error) {
	i, ok := c.layoutByID[id]
	if !ok {
		return LayoutTemplate{}, fmt.Errorf("%w: %q", ErrUnknownLayout, id)
	}
	return c.layouts[i], nil
}

// DefaultLayout returns the first declared layout.
func (c *Catalog) DefaultLayout() LayoutTemplate {
	return c.layouts[0]
}

// Layouts returns all layouts in declaration order.
func (c *Catalog) Layouts() []LayoutTemplate {
	out := make([]LayoutTemplate, len(c.layouts))
	copy(out, c.layouts)
	return out
}

// Filter looks an ID up across every category.
func (c *Catalog) Filter(id string) (FilterPreset, error) {
	f, ok := c.filterByID[id]
	if !ok {
		return FilterPreset{}, fmt.Errorf("%w: %q", ErrUnknownFilter, id)
	}
	return f, nil
}

// Categories returns the filter category names, sorted.
func (c *Catalog) Categories() []string {
	names := make([]string, 0, len(c.filters))
	for name := range c.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filters returns the presets of one category in declaration order.
func (c *Catalog) Filters(category string) []FilterPreset {
	list := c.filters[category]
	out := make([]FilterPreset, len(list))
	copy(out, list)
	return out
}

// AllFilters returns every preset, grouped by sorted category.
func (c *Catalog) AllFilters() []FilterPreset {
	var out []FilterPreset
	for _, name := range c.Categories() {
		out = append(out, c.filters[name]...)
	}
	return out
}

// Document converts the catalog back to its serializable form.
func (c *Catalog) Document() Document {
	doc := Document{
		Layouts: c.Layouts(),
		Filters: make(map[string][]FilterPreset, len(c.filters)),
	}
	for name := range c.filters {
		doc.Filters[name] = c.Filters(name)
	}
	return doc
}
