// apply.go: Raster implementations of filter operations.
//
// Color operations use the W3C filter-effect color matrices
// on non-premultiplied pixels; contrast and blur delegate to imaging.
package filter

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Apply runs the directive on img. None returns img unchanged.
func (d Directive) Apply(img image.Image) image.Image {
	if d.IsNone() || img == nil {
		return img
	}
	return applyOp(img, d.Op)
}

// Apply runs every operation of the effect in order.
func (e Effect) Apply(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	for _, op := range e {
		img = applyOp(img, op)
	}
	return img
}

type matrix [3][3]float64

func applyOp(img image.Image, op Op) image.Image {
	a := op.Amount
	switch op.Kind {
	case Sepia:
		return applyMatrix(img, sepiaMatrix(a))
	case Grayscale:
		return applyMatrix(img, grayscaleMatrix(a))
	case Saturate:
		return applyMatrix(img, saturateMatrix(a))
	case HueRotate:
		return applyMatrix(img, hueRotateMatrix(a))
	case Contrast:
		return imaging.AdjustContrast(img, contrastPercentage(a))
	case Brightness:
		return applyMatrix(img, matrix{{a, 0, 0}, {0, a, 0}, {0, 0, a}})
	case Blur:
		if a <= 0 {
			return img
		}
		return imaging.Blur(img, a)
	case Invert:
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = clamp8(float64(c.R)*(1-a) + (255-float64(c.R))*a)
			c.G = clamp8(float64(c.G)*(1-a) + (255-float64(c.G))*a)
			c.B = clamp8(float64(c.B)*(1-a) + (255-float64(c.B))*a)
			return c
		})
	case Opacity:
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.A = clamp8(float64(c.A) * a)
			return c
		})
	}
	return img
}

// contrastPercentage maps a CSS contrast factor onto imaging's percentage
// scale, which is linear below 100% and 1/(2-v) above it.
func contrastPercentage(factor float64) float64 {
	if factor <= 1 {
		return (factor - 1) * 100
	}
	return (1 - 1/factor) * 100
}

func applyMatrix(img image.Image, m matrix) image.Image {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		c.R = clamp8(m[0][0]*r + m[0][1]*g + m[0][2]*b)
		c.G = clamp8(m[1][0]*r + m[1][1]*g + m[1][2]*b)
		c.B = clamp8(m[2][0]*r + m[2][1]*g + m[2][2]*b)
		return c
	})
}

func sepiaMatrix(a float64) matrix {
	k := 1 - min(a, 1)
	return matrix{
		{0.393 + 0.607*k, 0.769 - 0.769*k, 0.189 - 0.189*k},
		{0.349 - 0.349*k, 0.686 + 0.314*k, 0.168 - 0.168*k},
		{0.272 - 0.272*k, 0.534 - 0.534*k, 0.131 + 0.869*k},
	}
}

func grayscaleMatrix(a float64) matrix {
	k := 1 - min(a, 1)
	return matrix{
		{0.2126 + 0.7874*k, 0.7152 - 0.7152*k, 0.0722 - 0.0722*k},
		{0.2126 - 0.2126*k, 0.7152 + 0.2848*k, 0.0722 - 0.0722*k},
		{0.2126 - 0.2126*k, 0.7152 - 0.7152*k, 0.0722 + 0.9278*k},
	}
}

func saturateMatrix(s float64) matrix {
	return matrix{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s},
	}
}

func hueRotateMatrix(deg float64) matrix {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return matrix{
		{0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928},
		{0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283},
		{0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072},
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
