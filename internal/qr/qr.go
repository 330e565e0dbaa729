// Package qr encodes a badge's pseudonymous id as an SVG QR code fragment.
package qr

import (
	"fmt"
	"html"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/badgegen/internal/errors"
)

// Placement of the code inside the badge template, in template units.
// These are part of the template contract.
const (
	OffsetX = -6
	OffsetY = 100
)

// Level is the recovery level used for every badge: codes must still scan
// when the print is scuffed or partly covered by a lanyard clip.
const Level = qrcode.Highest

// ModuleSize is the edge length of one module in millimetres
const ModuleSize = 1

// Encode renders id as an <svg> fragment with one rect per dark module.
// The bitmap includes the standard four-module quiet zone. Output depends
// only on id and color.
func Encode(id, color string) (string, error) {
	if id == "" {
		return "", errors.InvalidInput("qr payload is empty")
	}

	code, err := qrcode.New(id, Level)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrRender, "encode qr for %s", id)
	}
	bitmap := code.Bitmap()
	size := len(bitmap) * ModuleSize

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" x="%d" y="%d" width="%dmm" height="%dmm" viewBox="0 0 %d %d">`,
		OffsetX, OffsetY, size, size, size, size)
	fmt.Fprintf(&b, `<g fill="%s">`, html.EscapeString(color))
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d"/>`,
					x*ModuleSize, y*ModuleSize, ModuleSize, ModuleSize)
			}
		}
	}
	b.WriteString(`</g></svg>`)
	return b.String(), nil
}
