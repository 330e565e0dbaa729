// Package config loads the per-event badge configuration file.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abrezinsky/badgegen/internal/errors"
)

// FileName is the configuration file expected at the root of an assets directory
const FileName = "badgegen.yaml"

// Brand palette used when badge_design leaves a color unset
const (
	DefaultSafetyColor    = "#E01D43" // red centre
	DefaultLeafColor      = "#00B159" // wattle leaf
	DefaultBlueColor      = "#5B57A5" // lorikeet blue
	DefaultBlueMutedColor = "#ADABD2"
)

// DefaultPretixURL is the pretix hosted API root
const DefaultPretixURL = "https://pretix.eu/api/v1"

// ItemSet is a group of pretix item ids
type ItemSet []int

// Contains reports whether item is in the set
func (s ItemSet) Contains(item int) bool {
	return slices.Contains(s, item)
}

// Config is the category-to-item mapping, brand colors and fonts for one event
type Config struct {
	Pretix  Pretix  `yaml:"pretix"`
	Design  Design  `yaml:"badge_design"`
	Fonts   Fonts   `yaml:"fonts"`
	Tickets Tickets `yaml:"pretix_tickets"`
}

// Pretix locates the event in the ticketing API
type Pretix struct {
	BaseURL   string `yaml:"base_url"`
	Organizer string `yaml:"organizer"`
	Event     string `yaml:"event"`
}

// Design holds brand colors as CSS color strings
type Design struct {
	Safety    string `yaml:"safety"`
	Leaf      string `yaml:"leaf"`
	Blue      string `yaml:"blue"`
	BlueMuted string `yaml:"blue_muted"`
}

// Fonts names the font files inside the assets directory
type Fonts struct {
	Bold             string `yaml:"bold"`
	BoldCondensed    string `yaml:"bold_condensed"`
	Regular          string `yaml:"regular"`
	RegularCondensed string `yaml:"regular_condensed"`
}

// Tickets groups pretix item ids by badge category
type Tickets struct {
	Tickets      ItemSet `yaml:"tickets"`
	TeamMembers  ItemSet `yaml:"team_members"`
	Speakers     ItemSet `yaml:"speakers"`
	Sponsors     ItemSet `yaml:"sponsors"`
	SponsorGuest int     `yaml:"sponsor_guest"`
	FridayOnly   ItemSet `yaml:"friday_only"`
	TeeShirts    ItemSet `yaml:"tee_shirts"`
	Workshops    ItemSet `yaml:"workshops"`
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "config %s", path)
	}
	return cfg, nil
}

// RequiredGroups are the pretix_tickets keys every config must name, even
// when the event has no such items ("speakers: []")
var RequiredGroups = []string{"tickets", "team_members", "speakers", "sponsor_guest", "sponsors", "friday_only"}

// Parse decodes YAML, applies defaults and validates the result. Unknown
// keys and missing category groups are errors.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, errors.ErrConfig, "parse yaml")
	}
	if err := checkGroups(data); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkGroups reports the first required pretix_tickets key that is absent
func checkGroups(data []byte) error {
	var raw struct {
		Tickets map[string]yaml.Node `yaml:"pretix_tickets"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, errors.ErrConfig, "parse yaml")
	}
	for _, key := range RequiredGroups {
		if _, ok := raw.Tickets[key]; !ok {
			return errors.Configf("pretix_tickets.%s is missing", key)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Pretix.BaseURL, DefaultPretixURL)
	setDefault(&c.Design.Safety, DefaultSafetyColor)
	setDefault(&c.Design.Leaf, DefaultLeafColor)
	setDefault(&c.Design.Blue, DefaultBlueColor)
	setDefault(&c.Design.BlueMuted, DefaultBlueMutedColor)
	setDefault(&c.Fonts.Bold, "PTS75F.ttf")
	setDefault(&c.Fonts.BoldCondensed, "PTN77F.ttf")
	setDefault(&c.Fonts.Regular, "PTS55F.ttf")
	setDefault(&c.Fonts.RegularCondensed, "PTN57F.ttf")
	c.Pretix.BaseURL = strings.TrimSuffix(c.Pretix.BaseURL, "/")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks the keys every run depends on
func (c *Config) Validate() error {
	if len(c.Tickets.Tickets) == 0 {
		return errors.Configf("pretix_tickets.tickets must list at least one item")
	}
	if c.Pretix.Organizer == "" || c.Pretix.Event == "" {
		return errors.Configf("pretix.organizer and pretix.event are required")
	}
	return nil
}

// OrdersURL is the first page of the event's order list
func (c *Config) OrdersURL() string {
	return fmt.Sprintf("%s/organizers/%s/events/%s/orders/", c.Pretix.BaseURL, c.Pretix.Organizer, c.Pretix.Event)
}
