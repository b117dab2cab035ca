package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/GoBooth/pkg/layout"
)

// Canvas is the Surface implementation backed by *image.RGBA.
type Canvas struct {
	mu      sync.Mutex
	fonts   *FontManager
	faces   map[float64]font.Face
	img     *image.RGBA
	width   int
	height  int
	scale   float64
	tainted bool
}

// NewCanvas creates an unconfigured canvas. A nil fm selects Go Regular.
func NewCanvas(fm *FontManager) *Canvas {
	if fm == nil {
		fm = DefaultFontManager()
	}
	return &Canvas{fonts: fm, faces: make(map[float64]font.Face), scale: 1}
}

func (c *Canvas) Configure(width, height int, scale float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	width, height = max(width, 0), max(height, 0)
	dw := int(math.Ceil(float64(width) * scale))
	dh := int(math.Ceil(float64(height) * scale))
	c.img = image.NewRGBA(image.Rect(0, 0, dw, dh))
	c.width, c.height, c.scale = width, height, scale
	c.tainted = false
}

func (c *Canvas) LogicalSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *Canvas) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

// Tainted reports whether an opaque image has been drawn since Configure.
func (c *Canvas) Tainted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tainted
}

// device maps a logical rectangle to device pixels clipped to the bitmap.
func (c *Canvas) device(r layout.Rect) image.Rectangle {
	return r.Scale(c.scale).Pixels().Intersect(c.img.Bounds())
}

func (c *Canvas) FillRect(r layout.Rect, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil {
		return
	}
	dst := c.device(r)
	if dst.Empty() {
		return
	}
	draw.Draw(c.img, dst, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *Canvas) DrawImage(img image.Image, r layout.Rect, adj Adjuster, opaque bool) {
	if img == nil {
		return
	}
	if adj != nil {
		img = adj.Apply(img)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil {
		return
	}
	// Clip after scaling so the image keeps its proportions inside r.
	full := r.Scale(c.scale).Pixels()
	if full.Empty() {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, full.Dx(), full.Dy()))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	dst := full.Intersect(c.img.Bounds())
	if !dst.Empty() {
		draw.Draw(c.img, dst, scaled, dst.Min.Sub(full.Min), draw.Over)
	}
	if opaque {
		c.tainted = true
	}
}

func (c *Canvas) DrawCenteredText(text string, cx, baselineY, size float64, col color.Color) {
	if text == "" || size <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil {
		return
	}
	face, err := c.face(size * c.scale)
	if err != nil {
		return
	}
	adv := font.MeasureString(face, text)
	x := fixed.Int26_6(math.Round(cx*c.scale*64)) - adv/2
	y := fixed.Int26_6(math.Round(baselineY * c.scale * 64))
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(text)
}

func (c *Canvas) face(px float64) (font.Face, error) {
	if f, ok := c.faces[px]; ok {
		return f, nil
	}
	f, err := c.fonts.NewFace(px)
	if err != nil {
		return nil, err
	}
	c.faces[px] = f
	return f, nil
}

// Image returns the device bitmap. The returned image is shared with the
// canvas and changes on the next draw.
func (c *Canvas) Image() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil {
		return nil, ErrNotConfigured
	}
	if c.tainted {
		return nil, ErrTainted
	}
	return c.img, nil
}

// Snapshot returns a copy of the bitmap regardless of taint, for on-screen
// display only.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil {
		return nil
	}
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

var _ Surface = (*Canvas)(nil)
