package geom

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Measurer reports the rendered width of a string at a font size, in the same units
// as the font size.
type Measurer interface {
	Measure(text string, fontSize float64) float64
}

// refSize is the one size the face is built at. Unhinted advances scale linearly, so
// every other size is measured at refSize and scaled.
const refSize = 256

// FontMeasurer measures strings with the Go Regular sans-serif face at 72 DPI,
// so one point equals one world unit.
type FontMeasurer struct {
	mu   sync.Mutex
	face font.Face
}

// NewFontMeasurer parses the embedded Go Regular font.
func NewFontMeasurer() (*FontMeasurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse go regular: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    refSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return &FontMeasurer{face: face}, nil
}

func (fm *FontMeasurer) Measure(text string, fontSize float64) float64 {
	if text == "" || fontSize <= 0 {
		return 0
	}

	fm.mu.Lock()
	adv := font.MeasureString(fm.face, text)
	fm.mu.Unlock()

	return float64(adv) / 64 * fontSize / refSize
}

// Close releases the face.
func (fm *FontMeasurer) Close() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.face.Close()
}
