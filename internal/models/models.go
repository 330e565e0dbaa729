package models

import (
	"fmt"
	"time"
)

// Order is a pretix order with its line items and payments
type Order struct {
	Code      string     `json:"code"`
	Status    string     `json:"status"`
	Email     string     `json:"email"`
	Datetime  time.Time  `json:"datetime"`
	Positions []Position `json:"positions"`
	Payments  []Payment  `json:"payments"`
}

// Payment is one payment attempt recorded against an order
type Payment struct {
	LocalID int       `json:"local_id"`
	State   string    `json:"state"`
	Created time.Time `json:"created"`
}

// Position is one line item within an order, and one potential badge
type Position struct {
	ID                 int      `json:"id"`
	Order              string   `json:"order"`
	PositionID         int      `json:"positionid"`
	Item               int      `json:"item"`
	PseudonymizationID string   `json:"pseudonymization_id"`
	Answers            []Answer `json:"answers"`
}

// Answer is an attendee's response to a checkout question
type Answer struct {
	Question           int    `json:"question"`
	QuestionIdentifier string `json:"question_identifier"`
	Answer             string `json:"answer"`
}

// AnswerMap indexes answers by question identifier.
// Later answers for the same identifier win.
func (p Position) AnswerMap() map[string]string {
	answers := make(map[string]string, len(p.Answers))
	for _, a := range p.Answers {
		answers[a.QuestionIdentifier] = a.Answer
	}
	return answers
}

// TicketID is the badge code used for artifact filenames: "<order>-<positionid>"
func (p Position) TicketID() string {
	return fmt.Sprintf("%s-%d", p.Order, p.PositionID)
}

// Font variants chosen by the font-fit resolver
const (
	FontNormal    = "normal"
	FontCondensed = "condensed"
)

// FontSettings is the resolved font variant and horizontal scale for one text role
type FontSettings struct {
	Font  string  `json:"font"`
	Ratio float64 `json:"ratio"`
}

// Badge text colors
const (
	ColorLight = "white"
	ColorDark  = "black"
)

// LowVisionSuffix is appended to the badge code of the unstyled duplicate
const LowVisionSuffix = "L"

// BadgeParams is the fully resolved, renderer-ready description of one badge
type BadgeParams struct {
	PrimaryName        string
	SecondaryNames     string
	Affiliation        string
	Code               string
	SortNumber         string
	LozengeText        string
	BgColor            string
	BgRibbonOnly       bool
	EastAsianNameOrder bool
	PseudonymousID     string
}

// FullName joins the name parts, family name first when EastAsianNameOrder is set
func (p BadgeParams) FullName() string {
	if p.EastAsianNameOrder {
		return p.SecondaryNames + " " + p.PrimaryName
	}
	return p.PrimaryName + " " + p.SecondaryNames
}

// HasBackground reports whether a background color is set
func (p BadgeParams) HasBackground() bool {
	return p.BgColor != ""
}

// tinted is true when the whole badge carries the background color
func (p BadgeParams) tinted() bool {
	return p.HasBackground() && !p.BgRibbonOnly
}

// TextColor is white on a fully tinted badge and black otherwise
func (p BadgeParams) TextColor() string {
	if p.tinted() {
		return ColorLight
	}
	return ColorDark
}

// QRColor follows the same rule as TextColor
func (p BadgeParams) QRColor() string {
	if p.tinted() {
		return ColorLight
	}
	return ColorDark
}

// LowVisionDuplicate returns the unstyled copy of p. It keeps the names,
// sort number and pseudonymous id, and appends LowVisionSuffix to the code.
func (p BadgeParams) LowVisionDuplicate() BadgeParams {
	return BadgeParams{
		PrimaryName:        p.PrimaryName,
		SecondaryNames:     p.SecondaryNames,
		Affiliation:        p.Affiliation,
		Code:               p.Code + LowVisionSuffix,
		SortNumber:         p.SortNumber,
		EastAsianNameOrder: p.EastAsianNameOrder,
		PseudonymousID:     p.PseudonymousID,
	}
}

// Run statuses recorded in the ledger
const (
	RunRunning = "running"
	RunClean   = "clean"
	RunFailed  = "failed"
	RunAborted = "aborted"
)

// Run is one pipeline invocation recorded in the ledger
type Run struct {
	ID         string     `json:"id"`
	Mode       string     `json:"mode"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Rendered   int        `json:"rendered"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
}

// BadgeRecord is the latest artifact written for a badge code
type BadgeRecord struct {
	Code       string    `json:"code"`
	OrderCode  string    `json:"order_code"`
	PositionID int       `json:"position_id"`
	Item       int       `json:"item"`
	Category   string    `json:"category"`
	Pseudonym  string    `json:"pseudonym"`
	SVGSHA256  string    `json:"svg_sha256"`
	SVGPath    string    `json:"svg_path"`
	PDFPath    string    `json:"pdf_path"`
	RenderedAt time.Time `json:"rendered_at"`
	RunID      string    `json:"run_id"`
}

// BadgeFailure is a position that could not be rendered during a run
type BadgeFailure struct {
	RunID      string    `json:"run_id"`
	Code       string    `json:"code"`
	PositionID int       `json:"position_id"`
	Stage      string    `json:"stage"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}

// LedgerStats summarises the ledger for the desk screen
type LedgerStats struct {
	Badges  int  `json:"badges"`
	Orders  int  `json:"orders"`
	Runs    int  `json:"runs"`
	LastRun *Run `json:"last_run,omitempty"`
}

// WSMessage represents a WebSocket message pushed to desk screens
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
