// Package convert turns rendered SVG badges into print-ready PDFs.
package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/abrezinsky/badgegen/internal/errors"
)

// Converter produces a document from an SVG file and returns its path
type Converter interface {
	Convert(ctx context.Context, svgPath string) (string, error)
}

// Runner is an interface for executing commands (for testing)
type Runner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner executes actual commands
type ExecRunner struct{}

// CombinedOutput runs the command and returns its stdout and stderr
func (ExecRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Tool is the converter binary looked up on PATH
const Tool = "svg2pdf"

// ConversionError reports a failed svg2pdf run with whatever the tool printed
type ConversionError struct {
	SVGPath string
	Output  string
	Err     error
}

func (e *ConversionError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s %s: %v", Tool, e.SVGPath, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %s", Tool, e.SVGPath, e.Err, out)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// SVG2PDF converts with svg2pdf at 25.4 DPI, so one SVG user unit is one
// millimetre, and with text outlined so printers need no fonts.
type SVG2PDF struct {
	OutDir string
	Runner Runner
}

// NewSVG2PDF creates a converter writing PDFs into outDir
func NewSVG2PDF(outDir string) *SVG2PDF {
	return &SVG2PDF{OutDir: outDir, Runner: ExecRunner{}}
}

// PDFPath is where Convert writes the document for svgPath
func (c *SVG2PDF) PDFPath(svgPath string) string {
	base := strings.TrimSuffix(filepath.Base(svgPath), filepath.Ext(svgPath))
	return filepath.Join(c.OutDir, base+".pdf")
}

// Args returns the svg2pdf command line for svgPath
func (c *SVG2PDF) Args(svgPath string) []string {
	return []string{svgPath, c.PDFPath(svgPath), "--dpi", "25.4", "--text-to-paths"}
}

// Convert runs svg2pdf. A non-zero exit is a *ConversionError wrapped as
// a render error.
func (c *SVG2PDF) Convert(ctx context.Context, svgPath string) (string, error) {
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return "", errors.Wrapf(err, errors.ErrRender, "create %s", c.OutDir)
	}

	out, err := c.Runner.CombinedOutput(ctx, Tool, c.Args(svgPath)...)
	if err != nil {
		convErr := &ConversionError{SVGPath: svgPath, Output: string(out), Err: err}
		return "", errors.Wrap(convErr, errors.ErrRender, "convert to pdf")
	}
	return c.PDFPath(svgPath), nil
}
