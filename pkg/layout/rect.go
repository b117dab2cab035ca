// Package layout computes photo slot rectangles for catalog layouts.
package layout

import (
	"image"
	"math"
)

// Rect is an axis-aligned rectangle in logical pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Inflate grows the rectangle by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Center returns the midpoint.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Right and Bottom return the far edges.
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	const eps = 1e-9
	return o.X >= r.X-eps && o.Y >= r.Y-eps &&
		o.Right() <= r.Right()+eps && o.Bottom() <= r.Bottom()+eps
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	const eps = 1e-9
	return r.X < o.Right()-eps && o.X < r.Right()-eps &&
		r.Y < o.Bottom()-eps && o.Y < r.Bottom()-eps
}

// Scale multiplies every coordinate by f.
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, Width: r.Width * f, Height: r.Height * f}
}

// Pixels rounds each edge to the nearest integer pixel.
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.Right())),
		int(math.Round(r.Bottom())),
	)
}
