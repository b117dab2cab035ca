// resolve.go: Slot geometry for strip, grid and single layouts.
package layout

import (
	"math"

	"github.com/xob0t/GoBooth/pkg/catalog"
)

// TextBand is the height reserved under a single-layout photo when overlay
// text is present.
const TextBand = 30

// Resolve returns the slot rectangles of t in photo order. The result is a
// pure function of its inputs. Unknown kinds yield no slots.
//
// Negative spacing counts as zero and spacing too large for the canvas is
// clamped so every slot keeps a non-negative size inside the canvas.
func Resolve(t catalog.LayoutTemplate, spacing float64, hasText bool) []Rect {
	if t.SlotCount < 1 || t.Canvas.Width <= 0 || t.Canvas.Height <= 0 {
		return nil
	}

	w := float64(t.Canvas.Width)
	h := float64(t.Canvas.Height)
	n := t.SlotCount

	switch t.Kind {
	case catalog.KindStrip:
		s := clampSpacing(spacing, w/2, h/float64(n+1))
		slotW := w - 2*s
		slotH := (h - s*float64(n+1)) / float64(n)

		slots := make([]Rect, n)
		for i := range slots {
			slots[i] = Rect{
				X:      s,
				Y:      s + float64(i)*(slotH+s),
				Width:  slotW,
				Height: slotH,
			}
		}
		return slots

	case catalog.KindGrid:
		cols := Columns(t)
		rows := int(math.Ceil(float64(n) / float64(cols)))
		s := clampSpacing(spacing, w/float64(cols+1), h/float64(rows+1))
		slotW := (w - s*float64(cols+1)) / float64(cols)
		slotH := (h - s*float64(rows+1)) / float64(rows)

		slots := make([]Rect, n)
		for i := range slots {
			row, col := i/cols, i%cols
			slots[i] = Rect{
				X:      s + float64(col)*(slotW+s),
				Y:      s + float64(row)*(slotH+s),
				Width:  slotW,
				Height: slotH,
			}
		}
		return slots

	case catalog.KindSingle:
		s := clampSpacing(spacing, w/2, h/2)
		slotH := h - 2*s
		if hasText {
			slotH = max(slotH-TextBand, 0)
		}
		return []Rect{{X: s, Y: s, Width: w - 2*s, Height: slotH}}
	}

	return nil
}

// Columns returns the grid column count of t: the template's own value when
// set, 2 for the 2x2 grid and 3 otherwise.
func Columns(t catalog.LayoutTemplate) int {
	switch {
	case t.Columns > 0:
		return t.Columns
	case t.ID == "grid-2x2":
		return 2
	default:
		return 3
	}
}

func clampSpacing(s float64, limits ...float64) float64 {
	if s < 0 || math.IsNaN(s) {
		return 0
	}
	for _, l := range limits {
		s = min(s, l)
	}
	return s
}
