// Package measure computes text extents for node and edge labels.
//
// Label widths drive node sizes in the layout request, so the measurement must
// be deterministic for a given string. [Font] measures with the embedded Go
// Bold face through golang.org/x/image; [Approx] is a fixed-advance fallback
// used when no face can be loaded.
package measure

import (
	"math"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/nestview/pkg/geom"
)

// DefaultFontSize is the label font size in pixels.
const DefaultFontSize = 16.0

// Measurer reports the rendered size of a single line of text.
type Measurer interface {
	Measure(text string) geom.Size
}

// Font measures text using an OpenType face. It is safe for concurrent use.
type Font struct {
	mu   sync.Mutex
	face font.Face
	size float64
}

// NewFont parses the embedded Go Bold font at the given pixel size.
// A size <= 0 selects DefaultFontSize.
func NewFont(size float64) (*Font, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	return &Font{face: face, size: size}, nil
}

// Measure returns the advance width of text (rounded up) and the font size as
// height.
func (f *Font) Measure(text string) geom.Size {
	f.mu.Lock()
	w := font.MeasureString(f.face, text).Ceil()
	f.mu.Unlock()
	return geom.Size{Width: float64(w), Height: f.size}
}

// Close releases the underlying face.
func (f *Font) Close() error {
	return f.face.Close()
}

// Approx estimates text size with a fixed advance per rune.
type Approx struct {
	// Advance is the width of one rune. Zero means 0.6 × Size.
	Advance float64
	// Size is the line height. Zero means DefaultFontSize.
	Size float64
}

// Measure returns runeCount × advance by line height.
func (a Approx) Measure(text string) geom.Size {
	size := a.Size
	if size <= 0 {
		size = DefaultFontSize
	}
	adv := a.Advance
	if adv <= 0 {
		adv = 0.6 * size
	}
	return geom.Size{
		Width:  math.Ceil(float64(utf8.RuneCountInString(text)) * adv),
		Height: size,
	}
}

// Default returns a Font measurer at DefaultFontSize, or Approx if the font
// cannot be loaded.
func Default() Measurer {
	f, err := NewFont(DefaultFontSize)
	if err != nil {
		return Approx{}
	}
	return f
}
