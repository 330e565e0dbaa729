// Package classify maps a ticket position onto badge styling.
//
// Rules are evaluated in order and the first match wins. Each rule pairs
// a predicate over the position with the outcome it produces, so adding a
// category is a matter of inserting a Rule at the right priority.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/abrezinsky/badgegen/internal/config"
	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/models"
)

// Question identifiers read from pretix answers
const (
	QuestionSafety             = "safety"
	QuestionSponsor            = "sponsor"
	QuestionTeam               = "team"
	QuestionPrimaryName        = "primary_name"
	QuestionAdditionalNames    = "additional_names"
	QuestionAffiliation        = "affiliation"
	QuestionSortNumber         = "sort_number"
	QuestionEastAsianNameOrder = "east_asian_name_order"
)

// Pretix renders boolean answers as "True" / "False"
const answerTrue = "True"

// Category names reported in Outcome.Category
const (
	CategorySafety       = "safety"
	CategoryTeam         = "team"
	CategorySpeaker      = "speaker"
	CategorySponsorGuest = "sponsor_guest"
	CategorySponsor      = "sponsor"
	CategoryFridayOnly   = "friday_only"
	CategoryAttendee     = "attendee"
)

const (
	coreTeam           = "Core Team"
	volunteerTeamUpper = "VOLUNTEER TEAM"
)

// Input is what a rule sees of a position
type Input struct {
	Item    int
	Answers map[string]string
}

func (in Input) flag(question string) bool {
	return in.Answers[question] == answerTrue
}

// Outcome is the styling chosen for a badge
type Outcome struct {
	Category    string
	BgColor     string
	LozengeText string
	RibbonOnly  bool
	Duplicate   bool
}

// Rule is one entry in the priority list
type Rule struct {
	Name  string
	Match func(Input) bool
	Apply func(Input) (Outcome, error)
}

// Classifier holds the ordered rules and the printable item set for one event
type Classifier struct {
	rules     []Rule
	tickets   config.Tickets
	printable map[int]bool
}

// New builds the classifier from configuration
func New(cfg *config.Config) *Classifier {
	c := &Classifier{
		tickets: cfg.Tickets,
	}
	c.rules = c.buildRules(cfg.Design)
	c.printable = printableSet(cfg.Tickets)
	return c
}

func printableSet(t config.Tickets) map[int]bool {
	set := make(map[int]bool)
	groups := []config.ItemSet{t.Tickets, t.TeamMembers, t.Speakers, t.Sponsors, t.FridayOnly}
	for _, group := range groups {
		for _, item := range group {
			set[item] = true
		}
	}
	if t.SponsorGuest != 0 {
		set[t.SponsorGuest] = true
	}
	// Add-ons never print, even when listed alongside tickets.
	for _, item := range t.TeeShirts {
		delete(set, item)
	}
	for _, item := range t.Workshops {
		delete(set, item)
	}
	return set
}

func (c *Classifier) buildRules(design config.Design) []Rule {
	t := c.tickets
	return []Rule{
		{
			Name:  CategorySafety,
			Match: func(in Input) bool { return in.flag(QuestionSafety) },
			Apply: fixed(Outcome{Category: CategorySafety, BgColor: design.Safety, LozengeText: "SAFETY TEAM", Duplicate: true}),
		},
		{
			Name:  CategoryTeam,
			Match: func(in Input) bool { return t.TeamMembers.Contains(in.Item) },
			Apply: func(in Input) (Outcome, error) { return c.teamOutcome(in, design) },
		},
		{
			Name:  CategorySpeaker,
			Match: func(in Input) bool { return t.Speakers.Contains(in.Item) },
			Apply: fixed(Outcome{Category: CategorySpeaker, BgColor: design.Leaf, LozengeText: "SPEAKER", RibbonOnly: true}),
		},
		{
			Name:  CategorySponsorGuest,
			Match: func(in Input) bool { return t.SponsorGuest != 0 && in.Item == t.SponsorGuest },
			Apply: fixed(Outcome{Category: CategorySponsorGuest, BgColor: design.BlueMuted, LozengeText: "SPONSOR GUEST", RibbonOnly: true}),
		},
		{
			Name:  CategorySponsor,
			Match: func(in Input) bool { return in.flag(QuestionSponsor) || t.Sponsors.Contains(in.Item) },
			Apply: fixed(Outcome{Category: CategorySponsor, BgColor: design.Blue, LozengeText: "SPONSOR", RibbonOnly: true}),
		},
		{
			Name:  CategoryFridayOnly,
			Match: func(in Input) bool { return t.FridayOnly.Contains(in.Item) },
			Apply: fixed(Outcome{Category: CategoryFridayOnly, LozengeText: "FRIDAY ONLY", RibbonOnly: true}),
		},
	}
}

func fixed(o Outcome) func(Input) (Outcome, error) {
	return func(Input) (Outcome, error) { return o, nil }
}

func (c *Classifier) teamOutcome(in Input, design config.Design) (Outcome, error) {
	team, ok := in.Answers[QuestionTeam]
	if !ok || strings.TrimSpace(team) == "" {
		return Outcome{}, errors.Classificationf("team member item %d has no %q answer", in.Item, QuestionTeam)
	}

	out := Outcome{Category: CategoryTeam, Duplicate: true}
	if team == coreTeam {
		out.BgColor = design.Leaf
		out.LozengeText = "CORE TEAM"
		return out, nil
	}

	out.BgColor = design.Blue
	// Casers are stateful, so each call gets its own.
	out.LozengeText = cases.Upper(language.Und).String(team)
	if out.LozengeText == volunteerTeamUpper {
		out.LozengeText = "VOLUNTEER"
	}
	return out, nil
}

// Rules returns the rule names in priority order
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Printable reports whether item produces a badge at all
func (c *Classifier) Printable(item int) bool {
	return c.printable[item]
}

// Classify evaluates the rules in priority order. A position matching no
// rule is a plain attendee badge.
func (c *Classifier) Classify(item int, answers map[string]string) (Outcome, error) {
	in := Input{Item: item, Answers: answers}
	for _, rule := range c.rules {
		if rule.Match(in) {
			return rule.Apply(in)
		}
	}
	return Outcome{Category: CategoryAttendee, RibbonOnly: true}, nil
}

// Params combines a position's answers with its classification
func Params(pos models.Position, answers map[string]string, out Outcome) models.BadgeParams {
	return models.BadgeParams{
		PrimaryName:        answers[QuestionPrimaryName],
		SecondaryNames:     answers[QuestionAdditionalNames],
		Affiliation:        answers[QuestionAffiliation],
		Code:               pos.TicketID(),
		SortNumber:         answers[QuestionSortNumber],
		LozengeText:        out.LozengeText,
		BgColor:            out.BgColor,
		BgRibbonOnly:       out.RibbonOnly,
		EastAsianNameOrder: answers[QuestionEastAsianNameOrder] == answerTrue,
		PseudonymousID:     pos.PseudonymizationID,
	}
}

// Summary counts the kinds of line items in an order
type Summary struct {
	Tickets   int
	Workshops int
	Tees      int
}

// Summarize counts printable tickets, workshop add-ons and tee-shirts in order
func (c *Classifier) Summarize(order models.Order) Summary {
	var s Summary
	for _, p := range order.Positions {
		switch {
		case c.Printable(p.Item):
			s.Tickets++
		case c.tickets.Workshops.Contains(p.Item):
			s.Workshops++
		case c.tickets.TeeShirts.Contains(p.Item):
			s.Tees++
		}
	}
	return s
}
