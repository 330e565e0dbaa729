// Package render fills the badge template and writes badge artifacts.
package render

import (
	"bytes"
	"html/template"

	"github.com/abrezinsky/badgegen/internal/assets"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/fontfit"
	"github.com/abrezinsky/badgegen/internal/models"
	"github.com/abrezinsky/badgegen/internal/qr"
)

// Lozenge is the caption pill drawn over the ribbon
type Lozenge struct {
	Text      string
	Width     float64
	HalfWidth float64
}

// Data is what the badge template sees
type Data struct {
	Params models.BadgeParams

	PrimaryName    models.FontSettings
	SecondaryNames models.FontSettings
	Affiliation    models.FontSettings

	// Lozenge is nil when the badge has no caption.
	Lozenge *Lozenge

	TopHalf    template.HTML
	BottomHalf template.HTML
	QR         template.HTML
}

// Renderer turns badge params into SVG markup
type Renderer struct {
	rt *assets.Runtime
}

// NewRenderer creates a renderer over a loaded runtime
func NewRenderer(rt *assets.Runtime) *Renderer {
	return &Renderer{rt: rt}
}

// Prepare resolves fonts, artwork and the QR code for params
func (r *Renderer) Prepare(params models.BadgeParams) (*Data, error) {
	if !r.rt.Ready() {
		return nil, errors.Configf("badge assets are not loaded")
	}
	faces := r.rt.Faces
	frags := r.rt.Fragments

	code, err := qr.Encode(params.PseudonymousID, params.QRColor())
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRender, "qr for %s", params.Code)
	}

	data := &Data{
		Params:         params,
		PrimaryName:    fontfit.Resolve(params.PrimaryName, faces.Bold, faces.BoldCondensed, fontfit.PrimaryNameWidth),
		SecondaryNames: fontfit.Resolve(params.SecondaryNames, faces.Regular, faces.RegularCondensed, fontfit.SecondaryNamesWidth),
		Affiliation:    fontfit.Resolve(params.Affiliation, faces.Regular, faces.RegularCondensed, fontfit.AffiliationWidth),
		TopHalf:        frags.TopLight,
		BottomHalf:     frags.BottomLight,
		QR:             template.HTML(code),
	}

	// Top half is tinted only on fully tinted badges, bottom whenever a
	// color is set.
	if params.HasBackground() && !params.BgRibbonOnly {
		data.TopHalf = frags.TopTint
	}
	if params.HasBackground() {
		data.BottomHalf = frags.BottomTint
	}

	if params.LozengeText != "" {
		width := fontfit.LozengeWidth(faces.Bold, params.LozengeText)
		data.Lozenge = &Lozenge{Text: params.LozengeText, Width: width, HalfWidth: width / 2}
	}
	return data, nil
}

// Render produces the SVG document for params. Text values are escaped;
// fragments and the QR code are inserted as-is.
func (r *Renderer) Render(params models.BadgeParams) ([]byte, error) {
	data, err := r.Prepare(params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.rt.Template.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, errors.ErrRender, "execute template for %s", params.Code)
	}
	return buf.Bytes(), nil
}
