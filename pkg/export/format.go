// format.go - Output formats and their names, extensions and mime types.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an output image encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	GIF  Format = "gif"
)

// DefaultJPEGQuality is used when no quality is given.
const DefaultJPEGQuality = 92

var formats = map[Format]struct {
	ext     string
	mime    string
	imaging imaging.Format
}{
	PNG:  {".png", "image/png", imaging.PNG},
	JPEG: {".jpg", "image/jpeg", imaging.JPEG},
	BMP:  {".bmp", "image/bmp", imaging.BMP},
	TIFF: {".tiff", "image/tiff", imaging.TIFF},
	GIF:  {".gif", "image/gif", imaging.GIF},
}

// ParseFormat accepts a format name ("png", "jpg"), an extension (".png")
// or a mime type ("image/png"). Empty selects PNG.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PNG, nil
	}
	if m, ok := strings.CutPrefix(s, "image/"); ok {
		s = m
	}
	s = strings.TrimPrefix(s, ".")
	if f, err := imaging.FormatFromExtension(s); err == nil {
		for name, info := range formats {
			if info.imaging == f {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Ext returns the canonical file extension including the dot.
func (f Format) Ext() string { return formats[f].ext }

// MimeType returns the content type for f.
func (f Format) MimeType() string { return formats[f].mime }

// Lossless reports whether f preserves every pixel.
func (f Format) Lossless() bool { return f == PNG || f == BMP || f == TIFF }

func (f Format) valid() bool {
	_, ok := formats[f]
	return ok
}
