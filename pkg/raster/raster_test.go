package raster

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoBooth/pkg/layout"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		r, g, b, a := c.RGBA()
		copy(img.Pix[i*4:], []uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)})
	}
	return img
}

func rgbaAt(t *testing.T, s Surface, x, y int) color.RGBA {
	t.Helper()
	img, err := s.Image()
	require.NoError(t, err)
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestConfigureOversamples(t *testing.T) {
	c := NewCanvas(nil)
	_, err := c.Image()
	assert.ErrorIs(t, err, ErrNotConfigured)

	c.Configure(400, 300, 2)
	w, h := c.LogicalSize()
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
	assert.Equal(t, 2.0, c.Scale())

	img, err := c.Image()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(800, 600), img.Bounds().Size())

	c.Configure(10, 10, -1)
	assert.Equal(t, 1.0, c.Scale())
}

func TestFillRectUsesLogicalCoordinates(t *testing.T) {
	c := NewCanvas(nil)
	c.Configure(10, 5, 2)
	white := color.RGBA{255, 255, 255, 255}
	red := color.RGBA{255, 0, 0, 255}

	c.FillRect(layout.Rect{Width: 10, Height: 5}, white)
	c.FillRect(layout.Rect{X: 2, Y: 1, Width: 3, Height: 2}, red)

	assert.Equal(t, red, rgbaAt(t, c, 4, 2))
	assert.Equal(t, red, rgbaAt(t, c, 9, 5))
	assert.Equal(t, white, rgbaAt(t, c, 10, 6))
	assert.Equal(t, white, rgbaAt(t, c, 3, 2))

	// Out of bounds is clipped, not a panic.
	c.FillRect(layout.Rect{X: -5, Y: -5, Width: 100, Height: 100}, red)
	assert.Equal(t, red, rgbaAt(t, c, 0, 0))
}

type recordAdjuster struct{ calls int }

func (a *recordAdjuster) Apply(img image.Image) image.Image {
	a.calls++
	return solid(img.Bounds().Dx(), img.Bounds().Dy(), color.RGBA{0, 255, 0, 255})
}

func TestDrawImageScalesIntoRect(t *testing.T) {
	c := NewCanvas(nil)
	c.Configure(20, 20, 2)
	c.FillRect(layout.Rect{Width: 20, Height: 20}, color.White)

	blue := color.RGBA{0, 0, 255, 255}
	c.DrawImage(solid(3, 7, blue), layout.Rect{X: 5, Y: 5, Width: 10, Height: 4}, nil, false)
	assert.Equal(t, blue, rgbaAt(t, c, 20, 14))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgbaAt(t, c, 20, 19))

	adj := &recordAdjuster{}
	c.DrawImage(solid(3, 3, blue), layout.Rect{X: 0, Y: 0, Width: 4, Height: 4}, adj, false)
	assert.Equal(t, 1, adj.calls)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, rgbaAt(t, c, 4, 4))
}

func TestOpaqueImageTaintsUntilReconfigured(t *testing.T) {
	c := NewCanvas(nil)
	c.Configure(4, 4, 2)
	c.DrawImage(solid(2, 2, color.Black), layout.Rect{Width: 4, Height: 4}, nil, true)
	assert.True(t, c.Tainted())

	_, err := c.Image()
	assert.ErrorIs(t, err, ErrTainted)
	require.NotNil(t, c.Snapshot())

	c.Configure(4, 4, 2)
	assert.False(t, c.Tainted())
	_, err = c.Image()
	assert.NoError(t, err)
}

func TestDrawCenteredText(t *testing.T) {
	c := NewCanvas(nil)
	c.Configure(200, 60, 2)
	c.FillRect(layout.Rect{Width: 200, Height: 60}, color.White)
	c.DrawCenteredText("Hello booth", 100, 40, 16, color.Black)

	img, err := c.Image()
	require.NoError(t, err)
	b := img.Bounds()
	minX, maxX, minY, maxY := b.Max.X, -1, b.Max.Y, -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r < 0x8000 {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}
	require.GreaterOrEqual(t, maxX, 0, "no text pixels drawn")
	assert.InDelta(t, 200, float64(minX+maxX)/2, 6, "text is centered on cx")
	assert.LessOrEqual(t, maxY, 80+12, "glyphs sit on the baseline")
	assert.Less(t, minY, 80)

	// Empty text and non-positive sizes draw nothing.
	c.DrawCenteredText("", 100, 40, 16, color.Black)
	c.DrawCenteredText("x", 100, 40, 0, color.Black)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 128, 0, 255}, c)

	c, err = ParseColor("#FFF")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, c)

	c, err = ParseColor("#00000000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{}, c)

	c, err = ParseColor("White")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, c)

	_, err = ParseColor("#12345")
	assert.Error(t, err)
	_, err = ParseColor("#gggggg")
	assert.Error(t, err)

	assert.Equal(t, color.RGBA{1, 2, 3, 255}, ColorOr("nope", color.RGBA{1, 2, 3, 255}))
	assert.Panics(t, func() { MustColor("bad") })
}

func TestFontManagerFallback(t *testing.T) {
	fm, err := NewFontManager(filepath.Join(t.TempDir(), "missing.ttf"), nil)
	require.NoError(t, err)
	assert.Equal(t, "goregular", fm.Source())

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))
	fm, err = NewFontManager(bad, nil)
	require.NoError(t, err)
	assert.Equal(t, "goregular", fm.Source())

	face, err := fm.NewFace(24)
	require.NoError(t, err)
	assert.Positive(t, face.Metrics().Height.Ceil())
}
