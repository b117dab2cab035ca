// Package export serializes a finished surface and computes display scaling.
//
// Serialization reads the oversampled bitmap as-is; nothing is re-rendered.
// Every serialization failure wraps ErrExport so callers can tell it apart
// from storage or network failures.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"

	"github.com/xob0t/GoBooth/pkg/raster"
)

var ErrExport = errors.New("export failed")

// Encode writes the surface bitmap to w. quality only affects JPEG; values
// outside 1..100 select DefaultJPEGQuality.
func Encode(w io.Writer, s raster.Surface, f Format, quality int) error {
	if !f.valid() {
		return fmt.Errorf("%w: %w: %q", ErrExport, ErrUnsupportedFormat, f)
	}
	img, err := s.Image()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	err = imaging.Encode(w, img, formats[f].imaging,
		imaging.JPEGQuality(quality),
		imaging.PNGCompressionLevel(png.DefaultCompression))
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrExport, f, err)
	}
	return nil
}

// Serialize returns the encoded surface bitmap.
func Serialize(s raster.Surface, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, f, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes the surface to path, choosing the format from its
// extension. The file is only created once encoding has succeeded.
func WriteFile(path string, s raster.Surface, quality int) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	data, err := Serialize(s, f, quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrExport, path, err)
	}
	return nil
}
