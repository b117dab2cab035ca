// customization.go - Visual settings and partial-update merging.
package project

import "encoding/json"

// TextPosition places the overlay text vertically.
type TextPosition string

const (
	TextTop    TextPosition = "top"
	TextCenter TextPosition = "center"
	TextBottom TextPosition = "bottom"
)

// Customization holds the user-adjustable look of a project.
type Customization struct {
	BorderColor     string       `json:"borderColor"`
	BackgroundColor string       `json:"backgroundColor"`
	Spacing         float64      `json:"spacing"`
	Text            string       `json:"text"`
	TextColor       string       `json:"textColor"`
	TextSize        float64      `json:"textSize"`
	TextPosition    TextPosition `json:"textPosition"`
}

// DefaultCustomization returns the settings of a fresh project.
func DefaultCustomization() Customization {
	return Customization{
		BorderColor:     "#ffffff",
		BackgroundColor: "#ffffff",
		Spacing:         10,
		Text:            "",
		TextColor:       "#000000",
		TextSize:        16,
		TextPosition:    TextBottom,
	}
}

// UnmarshalJSON starts from the defaults, so absent fields keep them and an
// explicit zero spacing is kept.
func (c *Customization) UnmarshalJSON(data []byte) error {
	type plain Customization
	v := plain(DefaultCustomization())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Customization(v)
	return nil
}

// Partial is a customization update. Nil fields are left unchanged, so an
// empty Text can still be set explicitly.
type Partial struct {
	BorderColor     *string       `json:"borderColor,omitempty"`
	BackgroundColor *string       `json:"backgroundColor,omitempty"`
	Spacing         *float64      `json:"spacing,omitempty"`
	Text            *string       `json:"text,omitempty"`
	TextColor       *string       `json:"textColor,omitempty"`
	TextSize        *float64      `json:"textSize,omitempty"`
	TextPosition    *TextPosition `json:"textPosition,omitempty"`
}

// Merge overlays the present fields of p onto base. Invalid values (negative
// spacing, non-positive text size, unknown position) are ignored.
func Merge(base Customization, p Partial) Customization {
	out := base
	if p.BorderColor != nil {
		out.BorderColor = *p.BorderColor
	}
	if p.BackgroundColor != nil {
		out.BackgroundColor = *p.BackgroundColor
	}
	if p.Spacing != nil && *p.Spacing >= 0 {
		out.Spacing = *p.Spacing
	}
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.TextColor != nil {
		out.TextColor = *p.TextColor
	}
	if p.TextSize != nil && *p.TextSize > 0 {
		out.TextSize = *p.TextSize
	}
	if p.TextPosition != nil && p.TextPosition.Valid() {
		out.TextPosition = *p.TextPosition
	}
	return out
}

// Valid reports whether pos is one of the known positions.
func (pos TextPosition) Valid() bool {
	switch pos {
	case TextTop, TextCenter, TextBottom:
		return true
	}
	return false
}

// Normalize fills empty colors, sizes and positions from the defaults.
// Spacing is only clamped at zero; a missing spacing is defaulted when
// decoding.
func (c Customization) Normalize() Customization {
	def := DefaultCustomization()
	if c.BorderColor == "" {
		c.BorderColor = def.BorderColor
	}
	if c.BackgroundColor == "" {
		c.BackgroundColor = def.BackgroundColor
	}
	if c.Spacing < 0 {
		c.Spacing = 0
	}
	if c.TextColor == "" {
		c.TextColor = def.TextColor
	}
	if c.TextSize <= 0 {
		c.TextSize = def.TextSize
	}
	if !c.TextPosition.Valid() {
		c.TextPosition = def.TextPosition
	}
	return c
}
