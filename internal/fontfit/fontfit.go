// Package fontfit picks a font variant and scale so text fits a fixed badge slot.
package fontfit

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/models"
)

// Widths are measured at MeasureSize pixels per em. The slot limits come
// from the 95mm printable width divided by each role's nominal text size.
const (
	MeasureSize          = 100.0
	WidthInsideMarginsMM = 95.0

	PrimaryNameWidth    = WidthInsideMarginsMM / 25 * MeasureSize
	SecondaryNamesWidth = WidthInsideMarginsMM / 18 * MeasureSize
	AffiliationWidth    = WidthInsideMarginsMM / 8 * MeasureSize

	// LozengeScale converts a MeasureSize width into template units.
	LozengeScale = 7.5 / MeasureSize
)

// Measurer reports the advance width of text at MeasureSize
type Measurer interface {
	Width(text string) float64
}

// Resolve chooses the normal variant when text fits, then the condensed
// variant, and finally the condensed variant scaled down to maxWidth.
func Resolve(text string, normal, condensed Measurer, maxWidth float64) models.FontSettings {
	if normal.Width(text) < maxWidth {
		return models.FontSettings{Font: models.FontNormal, Ratio: 1}
	}
	condensedWidth := condensed.Width(text)
	if condensedWidth < maxWidth || condensedWidth <= 0 {
		return models.FontSettings{Font: models.FontCondensed, Ratio: 1}
	}
	return models.FontSettings{Font: models.FontCondensed, Ratio: maxWidth / condensedWidth}
}

// LozengeWidth estimates the rendered caption width used to center the lozenge
func LozengeWidth(bold Measurer, text string) float64 {
	return bold.Width(text) * LozengeScale
}

var faceOptions = &opentype.FaceOptions{
	Size:    MeasureSize,
	DPI:     72,
	Hinting: font.HintingNone,
}

// Face measures text with a parsed OpenType/TrueType font.
// It is safe for concurrent use.
type Face struct {
	font *sfnt.Font
}

// ParseFace parses font data in TTF or OTF format
func ParseFace(data []byte) (*Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "parse font")
	}
	face, err := opentype.NewFace(f, faceOptions)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "create font face")
	}
	face.Close()
	return &Face{font: f}, nil
}

// LoadFace reads and parses the font file at path
func LoadFace(path string) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "read font %s", path)
	}
	face, err := ParseFace(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "font %s", path)
	}
	return face, nil
}

// Width returns the kerned advance of text in pixels at MeasureSize.
// opentype faces carry a glyph buffer, so each call gets its own.
func (f *Face) Width(text string) float64 {
	face, err := opentype.NewFace(f.font, faceOptions)
	if err != nil {
		// ParseFace already built a face with these options.
		return 0
	}
	defer face.Close()
	return float64(font.MeasureString(face, text)) / 64
}
