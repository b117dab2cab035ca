package filter

import "github.com/xob0t/GoBooth/pkg/catalog"

// Mapper resolves filter IDs to parsed effects. Expressions are parsed once
// when the mapper is built; presets that fail to parse resolve to none.
type Mapper struct {
	effects map[string]Effect
}

// NewMapper parses every filter preset of c.
func NewMapper(c *catalog.Catalog) *Mapper {
	m := &Mapper{effects: make(map[string]Effect)}
	for _, f := range c.AllFilters() {
		if _, seen := m.effects[f.ID]; seen {
			continue
		}
		e, err := Parse(f.Effect)
		if err != nil {
			e = nil
		}
		m.effects[f.ID] = e
	}
	return m
}

// Resolve returns the effect for id. An empty or unknown id yields none.
func (m *Mapper) Resolve(id string) Effect {
	if id == "" || m == nil {
		return nil
	}
	return m.effects[id]
}
