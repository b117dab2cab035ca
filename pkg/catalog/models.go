// Package catalog holds the static layout templates and filter presets that
// drive photobooth compositing. Entries are data only; behavior lives in the
// layout and filter packages.
package catalog

// ── Layout types ──

// Kind selects the slot arrangement algorithm for a layout.
type Kind string

const (
	KindStrip  Kind = "strip"
	KindGrid   Kind = "grid"
	KindSingle Kind = "single"
)

// Size is a width/height pair in logical pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LayoutTemplate is one named, fixed arrangement of photo slots.
type LayoutTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        Kind   `json:"type"`
	SlotCount   int    `json:"slots"`
	Canvas      Size   `json:"dimensions"`
	Arrangement string `json:"arrangement"` // informational only
	Columns     int    `json:"columns,omitempty"`
	Rows        int    `json:"rows,omitempty"`
}

// ── Filter types ──

// FilterPreset is a named visual adjustment expressed as a CSS-like filter
// expression, e.g. "sepia(0.8) contrast(1.2)".
type FilterPreset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"-"` // filled from the enclosing category key
	Effect   string `json:"css"`
}

// ── Document ──

// Document is the on-disk shape of a catalog file.
type Document struct {
	Layouts []LayoutTemplate          `json:"layouts"`
	Filters map[string][]FilterPreset `json:"filters"`
}
