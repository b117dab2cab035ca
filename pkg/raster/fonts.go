// fonts.go - Font loading with an embedded fallback.
// Uses golang.org/x/image/font for OpenType rendering. Defaults to Go Regular
// when no custom font is given or the custom font cannot be loaded.
package raster

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontManager holds a parsed font. It is safe to share between canvases;
// faces are not, so each Canvas keeps its own.
type FontManager struct {
	source string
	parsed *opentype.Font
}

// NewFontManager loads the font at customPath, or Go Regular when the path
// is empty or unreadable.
func NewFontManager(customPath string, log logrus.FieldLogger) (*FontManager, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	var data []byte
	source := "goregular"
	if customPath != "" {
		b, err := os.ReadFile(customPath)
		if err != nil {
			log.WithError(err).WithField("font", customPath).Warn("could not load custom font, using default")
		} else {
			data, source = b, customPath
		}
	}
	if data == nil {
		data = goregular.TTF
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		if source == "goregular" {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		log.WithError(err).WithField("font", customPath).Warn("could not parse custom font, using default")
		parsed, err = opentype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		source = "goregular"
	}
	return &FontManager{source: source, parsed: parsed}, nil
}

// DefaultFontManager returns a manager for the embedded Go Regular font.
func DefaultFontManager() *FontManager {
	fm, err := NewFontManager("", nil)
	if err != nil {
		panic(err)
	}
	return fm
}

// Source names the font file in use, or "goregular".
func (fm *FontManager) Source() string { return fm.source }

// NewFace returns a face whose em size is px device pixels.
func (fm *FontManager) NewFace(px float64) (font.Face, error) {
	face, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
