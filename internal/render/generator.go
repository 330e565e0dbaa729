package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/abrezinsky/badgegen/internal/convert"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/models"
)

// Output subdirectories
const (
	SVGDir = "svgs"
	PDFDir = "pdfs"
)

// Artifact describes the files written for one badge
type Artifact struct {
	Code    string `json:"code"`
	SVGPath string `json:"svg_path"`
	PDFPath string `json:"pdf_path"`
	SHA256  string `json:"svg_sha256"`
}

// Generator renders a badge, writes the SVG and converts it
type Generator struct {
	renderer  *Renderer
	converter convert.Converter
	outDir    string
}

// NewGenerator creates a generator writing under outDir/svgs. The
// converter decides where documents go.
func NewGenerator(renderer *Renderer, converter convert.Converter, outDir string) *Generator {
	return &Generator{renderer: renderer, converter: converter, outDir: outDir}
}

// SVGPath is where the SVG for code is written
func (g *Generator) SVGPath(code string) string {
	return filepath.Join(g.outDir, SVGDir, code+".svg")
}

// Generate writes <out>/svgs/<code>.svg and converts it. Re-running with
// the same params overwrites both files with identical content.
func (g *Generator) Generate(ctx context.Context, params models.BadgeParams) (Artifact, error) {
	if params.Code == "" {
		return Artifact{}, errors.InvalidInput("badge code is empty")
	}

	svg, err := g.renderer.Render(params)
	if err != nil {
		return Artifact{}, err
	}

	path := g.SVGPath(params.Code)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Artifact{}, errors.Wrapf(err, errors.ErrRender, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return Artifact{}, errors.Wrapf(err, errors.ErrRender, "write %s", path)
	}

	sum := sha256.Sum256(svg)
	artifact := Artifact{
		Code:    params.Code,
		SVGPath: path,
		SHA256:  hex.EncodeToString(sum[:]),
	}

	if err := ctx.Err(); err != nil {
		return artifact, err
	}
	pdf, err := g.converter.Convert(ctx, path)
	if err != nil {
		return artifact, err
	}
	artifact.PDFPath = pdf
	return artifact, nil
}
