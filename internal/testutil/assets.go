package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// Item ids used by AssetsConfig
const (
	ItemTicket       = 569196
	ItemTeam         = 569202
	ItemSpeaker      = 569203
	ItemSponsorGuest = 569205
	ItemFriday       = 569206
	ItemTee          = 569211
	ItemWorkshop     = 633940
)

// AssetsConfig is a complete badgegen.yaml for tests
const AssetsConfig = `pretix:
  organizer: pyconau
  event: "2024"
pretix_tickets:
  tickets: [569196]
  team_members: [569202]
  speakers: [569203]
  sponsor_guest: 569205
  sponsors: []
  friday_only: [569206]
  tee_shirts: [569211]
  workshops: [633940]
`

// BadgeTemplate is a small badge template exercising every template field
const BadgeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="105mm" height="148mm" viewBox="0 0 105 148">
{{.TopHalf}}
{{.BottomHalf}}
<text id="primary" x="52.5" y="60" fill="{{.Params.TextColor}}" data-font="{{.PrimaryName.Font}}" data-ratio="{{.PrimaryName.Ratio}}" font-size="{{mul 25 .PrimaryName.Ratio}}">{{.Params.PrimaryName}}</text>
<text id="secondary" x="52.5" y="70" fill="{{.Params.TextColor}}" data-font="{{.SecondaryNames.Font}}" data-ratio="{{.SecondaryNames.Ratio}}" font-size="{{mul 18 .SecondaryNames.Ratio}}">{{.Params.SecondaryNames}}</text>
<text id="affiliation" x="52.5" y="80" fill="{{.Params.TextColor}}" data-font="{{.Affiliation.Font}}" data-ratio="{{.Affiliation.Ratio}}">{{.Params.Affiliation}}</text>
<text id="sort" x="95" y="140" fill="{{.Params.TextColor}}">{{.Params.SortNumber}}</text>
{{with .Lozenge}}<g id="lozenge"><rect width="{{.Width}}" height="9" fill="{{$.Params.BgColor}}"/><text fill="{{$.Params.TextColor}}">{{.Text}}</text></g>{{end}}
{{.QR}}
</svg>
`

// Fragment file contents written by WriteAssets
const (
	TopLightSVG    = `<g id="top-light"/>`
	TopTintSVG     = `<g id="top-tint"/>`
	BottomLightSVG = `<g id="bottom-light"/>`
	BottomTintSVG  = `<g id="bottom-tint"/>`
)

// WriteAssets lays out a complete assets directory under a temp dir and
// returns its path. The Go fonts stand in for the badge typefaces.
func WriteAssets(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	assetDir := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		t.Fatalf("failed to create assets dir: %v", err)
	}

	write := func(path string, data []byte) {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	write(filepath.Join(dir, "badgegen.yaml"), []byte(AssetsConfig))
	write(filepath.Join(assetDir, "badge.svg"), []byte(BadgeTemplate))
	write(filepath.Join(assetDir, "top-half-light.svg"), []byte(TopLightSVG))
	write(filepath.Join(assetDir, "top-half-tint.svg"), []byte(TopTintSVG))
	write(filepath.Join(assetDir, "bottom-half-light.svg"), []byte(BottomLightSVG))
	write(filepath.Join(assetDir, "bottom-half-tint.svg"), []byte(BottomTintSVG))
	write(filepath.Join(assetDir, "PTS75F.ttf"), gobold.TTF)
	write(filepath.Join(assetDir, "PTN77F.ttf"), gomedium.TTF)
	write(filepath.Join(assetDir, "PTS55F.ttf"), goregular.TTF)
	write(filepath.Join(assetDir, "PTN57F.ttf"), gosmallcaps.TTF)
	return dir
}
