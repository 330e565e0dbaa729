// Package assets loads the per-event badge template, artwork and fonts.
package assets

import (
	stderrors "errors"
	"html/template"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/abrezinsky/badgegen/internal/config"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/fontfit"
	"github.com/abrezinsky/badgegen/internal/logger"
)

// Layout of an assets directory
const (
	SubDir          = "assets"
	TemplateFile    = "badge.svg"
	TopLightFile    = "top-half-light.svg"
	TopTintFile     = "top-half-tint.svg"
	BottomLightFile = "bottom-half-light.svg"
	BottomTintFile  = "bottom-half-tint.svg"
	templateName    = "badge.svg"
)

// TemplateFuncs are available to badge templates. mul scales a font size
// by a fit ratio, e.g. font-size="{{mul 25 .PrimaryName.Ratio}}", and
// rounds to four decimals so output stays byte-stable.
var TemplateFuncs = template.FuncMap{
	"mul": func(a, b float64) float64 {
		return math.Round(a*b*1e4) / 1e4
	},
}

// Fragments are the pre-drawn halves of the badge artwork. They are
// inserted into the template verbatim.
type Fragments struct {
	TopLight    template.HTML
	TopTint     template.HTML
	BottomLight template.HTML
	BottomTint  template.HTML
}

// Faces are the font measurers for each text role
type Faces struct {
	Bold             fontfit.Measurer
	BoldCondensed    fontfit.Measurer
	Regular          fontfit.Measurer
	RegularCondensed fontfit.Measurer
}

// Runtime is everything a render needs. It is built once per process and
// shared read-only between workers.
type Runtime struct {
	Config    *config.Config
	Template  *template.Template
	Fragments Fragments
	Faces     Faces
	Dir       string

	ready bool
}

// Empty returns a runtime that cannot render. Used when the assets
// directory does not exist yet.
func Empty() *Runtime {
	return &Runtime{}
}

// Ready reports whether the runtime was fully loaded
func (r *Runtime) Ready() bool {
	return r != nil && r.ready
}

// New assembles a runtime from already-loaded parts
func New(cfg *config.Config, badgeTemplate string, frags Fragments, faces Faces) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.Configf("runtime needs a config")
	}
	if faces.Bold == nil || faces.BoldCondensed == nil || faces.Regular == nil || faces.RegularCondensed == nil {
		return nil, errors.Configf("runtime needs all four font faces")
	}
	tmpl, err := template.New(templateName).Funcs(TemplateFuncs).Parse(badgeTemplate)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "parse badge template")
	}
	return &Runtime{
		Config:    cfg,
		Template:  tmpl,
		Fragments: frags,
		Faces:     faces,
		ready:     true,
	}, nil
}

// Load reads the runtime from dir. A missing dir is not an error: it logs
// a warning and returns Empty so callers can report the problem on their
// own terms. Any other missing file is a configuration error.
func Load(dir string, log logger.Logger) (*Runtime, error) {
	info, err := os.Stat(dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		log.Warn("Assets directory does not exist", "dir", dir)
		return Empty(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "stat assets directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Configf("%s is not a directory", dir)
	}

	log.Info("Loading runtime", "dir", dir)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}

	assetDir := filepath.Join(dir, SubDir)
	badge, err := readAsset(assetDir, TemplateFile)
	if err != nil {
		return nil, err
	}

	var frags Fragments
	for name, dst := range map[string]*template.HTML{
		TopLightFile:    &frags.TopLight,
		TopTintFile:     &frags.TopTint,
		BottomLightFile: &frags.BottomLight,
		BottomTintFile:  &frags.BottomTint,
	} {
		text, err := readAsset(assetDir, name)
		if err != nil {
			return nil, err
		}
		*dst = template.HTML(text)
	}

	var faces Faces
	fonts := []struct {
		name string
		dst  *fontfit.Measurer
	}{
		{cfg.Fonts.Bold, &faces.Bold},
		{cfg.Fonts.BoldCondensed, &faces.BoldCondensed},
		{cfg.Fonts.Regular, &faces.Regular},
		{cfg.Fonts.RegularCondensed, &faces.RegularCondensed},
	}
	for _, f := range fonts {
		face, err := fontfit.LoadFace(filepath.Join(assetDir, f.name))
		if err != nil {
			return nil, err
		}
		*f.dst = face
	}

	rt, err := New(cfg, badge, frags, faces)
	if err != nil {
		return nil, err
	}
	rt.Dir = dir
	return rt, nil
}

func readAsset(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrConfig, "read asset %s", path)
	}
	return string(data), nil
}
