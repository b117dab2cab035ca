// Package raster provides the drawing target used by the compositor: an
// oversampled RGBA bitmap addressed in logical coordinates.
package raster

import (
	"errors"
	"image"
	"image/color"

	"github.com/xob0t/GoBooth/pkg/layout"
)

var (
	// ErrTainted is returned when pixels are read back from a surface that
	// has drawn an image whose origin refused export.
	ErrTainted = errors.New("surface is tainted by a cross-origin image")
	// ErrNotConfigured is returned by Image before the first Configure.
	ErrNotConfigured = errors.New("surface has no size")
)

// Adjuster transforms an image before it is drawn. filter.Directive and
// filter.Effect both satisfy it.
type Adjuster interface {
	Apply(image.Image) image.Image
}

// Surface is a 2D immediate-mode drawing target. All coordinates are logical
// pixels; the surface maps them onto its device bitmap using Scale.
type Surface interface {
	// Configure resizes the bitmap to width*scale by height*scale device
	// pixels and clears it. It also clears any taint.
	Configure(width, height int, scale float64)
	LogicalSize() (width, height int)
	Scale() float64
	FillRect(r layout.Rect, c color.Color)
	// DrawImage scales img to exactly fill r. adj may be nil. Drawing an
	// opaque image taints the surface.
	DrawImage(img image.Image, r layout.Rect, adj Adjuster, opaque bool)
	// DrawCenteredText draws text horizontally centered on cx with its
	// alphabetic baseline at baselineY. size is the em size in logical px.
	DrawCenteredText(text string, cx, baselineY, size float64, c color.Color)
	// Image returns the device bitmap, or ErrTainted.
	Image() (image.Image, error)
}
