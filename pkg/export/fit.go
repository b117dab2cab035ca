package export

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xob0t/GoBooth/pkg/raster"
)

// ViewportPadding is the space kept around the surface on each side when it
// is shown in the studio.
const ViewportPadding = 20

// Size is a width and height in logical pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FitScale returns the largest scale, at most 1, at which surface fits in
// viewport with its aspect ratio kept. A degenerate surface gets 1 and a
// degenerate viewport 0.
func FitScale(surface, viewport Size) float64 {
	if !(surface.Width > 0 && surface.Height > 0) {
		return 1
	}
	if !(viewport.Width > 0 && viewport.Height > 0) {
		return 0
	}
	return math.Min(1, math.Min(viewport.Width/surface.Width, viewport.Height/surface.Height))
}

// FitSurface is FitScale for the logical size of s.
func FitSurface(s raster.Surface, viewport Size) float64 {
	w, h := s.LogicalSize()
	return FitScale(Size{float64(w), float64(h)}, viewport)
}

// Inset shrinks a viewport by padding on every side.
func Inset(viewport Size, padding float64) Size {
	return Size{
		Width:  math.Max(0, viewport.Width-2*padding),
		Height: math.Max(0, viewport.Height-2*padding),
	}
}

// Scaled returns s multiplied by scale.
func (s Size) Scaled(scale float64) Size {
	return Size{s.Width * scale, s.Height * scale}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename is the download name for a project export: the name with every
// non-alphanumeric character replaced by "_", lowercased, then the unix
// millisecond timestamp.
func Filename(projectName string, t time.Time, f Format) string {
	if !f.valid() {
		f = PNG
	}
	base := strings.ToLower(unsafeName.ReplaceAllString(projectName, "_"))
	if base == "" {
		base = "photobooth"
	}
	return base + "_" + strconv.FormatInt(t.UnixMilli(), 10) + f.Ext()
}
