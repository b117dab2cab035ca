package filter

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoBooth/pkg/catalog"
)

func TestParse(t *testing.T) {
	e, err := Parse("sepia(0.8) contrast(120%)  hue-rotate(0.5turn) blur(0.5px) brightness()")
	require.NoError(t, err)

	assert.Equal(t, Effect{
		{Kind: Sepia, Amount: 0.8},
		{Kind: Contrast, Amount: 1.2},
		{Kind: HueRotate, Amount: 180},
		{Kind: Blur, Amount: 0.5},
		{Kind: Brightness, Amount: 1},
	}, e)
	assert.Equal(t, "sepia(0.8) contrast(1.2) hue-rotate(180deg) blur(0.5px) brightness(1)", e.String())
}

func TestParseNone(t *testing.T) {
	for _, expr := range []string{"", "  ", "none"} {
		e, err := Parse(expr)
		require.NoError(t, err)
		assert.True(t, e.IsNone())
	}
}

func TestParseClampsUnitOps(t *testing.T) {
	e, err := Parse("sepia(3) grayscale(150%)")
	require.NoError(t, err)
	assert.Equal(t, 1.0, e[0].Amount)
	assert.Equal(t, 1.0, e[1].Amount)
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{"sepia", "glow(1)", "sepia(abc)", "contrast(-1)", "sepia(1", ")("} {
		_, err := Parse(expr)
		assert.True(t, errors.Is(err, ErrSyntax), "expr %q: %v", expr, err)
	}
}

func TestMapperResolve(t *testing.T) {
	m := NewMapper(catalog.Default())

	e := m.Resolve("vintage-1")
	require.Len(t, e, 3)
	assert.Equal(t, Op{Kind: Sepia, Amount: 0.8}, e[0])

	assert.True(t, m.Resolve("").IsNone())
	assert.True(t, m.Resolve("does-not-exist").IsNone())

	var nilMapper *Mapper
	assert.True(t, nilMapper.Resolve("vintage-1").IsNone())
}

func TestMapperBadExpressionIsNone(t *testing.T) {
	c, err := catalog.New(catalog.Document{
		Layouts: []catalog.LayoutTemplate{{ID: "s", Kind: catalog.KindSingle, SlotCount: 1, Canvas: catalog.Size{Width: 1, Height: 1}}},
		Filters: map[string][]catalog.FilterPreset{"x": {{ID: "broken", Effect: "wobble(2)"}}},
	})
	require.NoError(t, err)
	assert.True(t, NewMapper(c).Resolve("broken").IsNone())
}

func TestApproximatePriority(t *testing.T) {
	m := NewMapper(catalog.Default())

	assert.Equal(t, Directive{Op{Kind: Sepia, Amount: 1}}, Approximate(m.Resolve("vintage-2")))
	assert.Equal(t, Directive{Op{Kind: Grayscale, Amount: 0.8}}, Approximate(m.Resolve("cinematic-2")))
	assert.Equal(t, Directive{Op{Kind: Contrast, Amount: 1.2}}, Approximate(m.Resolve("modern-3")))
	assert.Equal(t, None, Approximate(nil))

	onlyBright, err := Parse("brightness(1.3) saturate(2)")
	require.NoError(t, err)
	assert.True(t, Approximate(onlyBright).IsNone())
	assert.Equal(t, "none", None.String())
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 + x*50), G: uint8(200 - y*40), B: 90, A: 255})
		}
	}
	return img
}

func TestNoneLeavesImageUntouched(t *testing.T) {
	img := testImage()
	assert.Same(t, img, None.Apply(img))
	assert.Same(t, img, Effect(nil).Apply(img).(*image.NRGBA))
}

func TestGrayscaleEqualizesChannels(t *testing.T) {
	out := Directive{Op{Kind: Grayscale, Amount: 1}}.Apply(testImage())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBAModel.Convert(out.At(x, y)).(color.NRGBA)
			assert.InDelta(t, c.R, c.G, 1)
			assert.InDelta(t, c.G, c.B, 1)
		}
	}
}

func TestSepiaWarmsPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 100, B: 100, A: 255})

	out := Directive{Op{Kind: Sepia, Amount: 1}}.Apply(src)
	c := color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
	assert.Greater(t, c.R, c.G)
	assert.Greater(t, c.G, c.B)
}

func TestContrastSpreadsValues(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 64, G: 64, B: 64, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 192, G: 192, B: 192, A: 255})

	out := Directive{Op{Kind: Contrast, Amount: 1.5}}.Apply(src)
	dark := color.NRGBAModel.Convert(out.At(0, 0)).(color.NRGBA)
	light := color.NRGBAModel.Convert(out.At(1, 0)).(color.NRGBA)
	assert.Less(t, dark.R, uint8(64))
	assert.Greater(t, light.R, uint8(192))
}

func TestFullEffectAppliesEveryOp(t *testing.T) {
	e, err := Parse("brightness(0.5) invert(1)")
	require.NoError(t, err)

	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	c := color.NRGBAModel.Convert(e.Apply(src).At(0, 0)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 155, G: 205, B: 230, A: 255}, c)
}

func TestContrastPercentage(t *testing.T) {
	assert.InDelta(t, -50, contrastPercentage(0.5), 1e-9)
	assert.InDelta(t, 0, contrastPercentage(1), 1e-9)
	// imaging maps percentage p>0 to 1/(2-(1+p/100)); 1.25 must round-trip.
	p := contrastPercentage(1.25)
	v := 1 + p/100
	assert.InDelta(t, 1.25, 1/(2-v), 1e-9)
}
