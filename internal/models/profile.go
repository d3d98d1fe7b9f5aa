package models

import (
	"time"
)

// StyleTag is one of the fixed style dimensions rated during onboarding
type StyleTag string

const (
	StyleCasual     StyleTag = "casual"
	StyleFormal     StyleTag = "formal"
	StyleSporty     StyleTag = "sporty"
	StyleBohemian   StyleTag = "bohemian"
	StyleMinimalist StyleTag = "minimalist"
)

// StyleTags lists the 5 fixed style tags
var StyleTags = []StyleTag{StyleCasual, StyleFormal, StyleSporty, StyleBohemian, StyleMinimalist}

// Valid reports whether s is one of the fixed style tags
func (s StyleTag) Valid() bool {
	switch s {
	case StyleCasual, StyleFormal, StyleSporty, StyleBohemian, StyleMinimalist:
		return true
	default:
		return false
	}
}

const (
	// MinFavoriteColors is enforced when onboarding completes, not afterwards
	MinFavoriteColors = 3
	// MaxStyleScore is the upper bound of a style preference rating
	MaxStyleScore = 10
	// DefaultStyleScore is the neutral rating used for missing style tags
	DefaultStyleScore = 5
)

// Location is a stored coordinate used for weather lookups
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// FitPreferences captures preferred fits per garment type
type FitPreferences struct {
	Top    string `json:"top"`
	Bottom string `json:"bottom"`
}

// WeatherSensitivity records how the user perceives temperature
type WeatherSensitivity struct {
	RunsCold bool `json:"runsCold"`
	RunsHot  bool `json:"runsHot"`
}

// Lifestyle captures day-to-day context from the extended questionnaire
type Lifestyle struct {
	WorkEnvironment string `json:"workEnvironment"`
	ActivityLevel   string `json:"activityLevel"`
}

// ColorPreferences captures palette likes and dislikes
type ColorPreferences struct {
	Palette string   `json:"palette"`
	Avoid   []string `json:"avoid"`
}

// UserProfile is the single per-installation profile
type UserProfile struct {
	HasCompletedOnboarding bool             `json:"hasCompletedOnboarding"`
	CompletedAt            *time.Time       `json:"completedAt,omitempty"`
	StylePreferences       map[StyleTag]int `json:"stylePreferences"`
	FavoriteColors         []string         `json:"favoriteColors"`
	Location               *Location        `json:"location,omitempty"`

	// Extended profile, added by the second questionnaire revision.
	// Older persisted profiles lack these and are backfilled on load.
	Occasions          []string            `json:"occasions"`
	FitPreferences     *FitPreferences     `json:"fitPreferences"`
	WeatherSensitivity *WeatherSensitivity `json:"weatherSensitivity"`
	Lifestyle          *Lifestyle          `json:"lifestyle"`
	ColorPreferences   *ColorPreferences   `json:"colorPreferences"`
	PatternPreferences []string            `json:"patternPreferences"`
	Goals              []string            `json:"goals"`
}

// DefaultProfile returns a fresh, not-yet-onboarded profile
func DefaultProfile() UserProfile {
	p := UserProfile{
		StylePreferences: make(map[StyleTag]int, len(StyleTags)),
		FavoriteColors:   []string{},
	}
	for _, tag := range StyleTags {
		p.StylePreferences[tag] = DefaultStyleScore
	}
	ApplyProfileDefaults(&p)
	return p
}

// ApplyProfileDefaults backfills fields missing from profiles persisted before the extended schema.
// Existing values are never overwritten.
func ApplyProfileDefaults(p *UserProfile) {
	if p.StylePreferences == nil {
		p.StylePreferences = make(map[StyleTag]int, len(StyleTags))
	}
	for _, tag := range StyleTags {
		if _, ok := p.StylePreferences[tag]; !ok {
			p.StylePreferences[tag] = DefaultStyleScore
		}
	}
	if p.FavoriteColors == nil {
		p.FavoriteColors = []string{}
	}
	if p.Occasions == nil {
		p.Occasions = []string{OccasionCasual}
	}
	if p.FitPreferences == nil {
		p.FitPreferences = &FitPreferences{Top: "regular", Bottom: "regular"}
	}
	if p.WeatherSensitivity == nil {
		p.WeatherSensitivity = &WeatherSensitivity{}
	}
	if p.Lifestyle == nil {
		p.Lifestyle = &Lifestyle{WorkEnvironment: "mixed", ActivityLevel: "moderate"}
	}
	if p.ColorPreferences == nil {
		p.ColorPreferences = &ColorPreferences{Palette: "balanced", Avoid: []string{}}
	}
	if p.PatternPreferences == nil {
		p.PatternPreferences = []string{}
	}
	if p.Goals == nil {
		p.Goals = []string{}
	}
}

// StyleScore returns the 0-10 rating for tag, defaulting to neutral when unrated
func (p UserProfile) StyleScore(tag StyleTag) int {
	if v, ok := p.StylePreferences[tag]; ok {
		return v
	}
	return DefaultStyleScore
}

// TemperatureOffset is the perceived-temperature correction implied by weather sensitivity
func (p UserProfile) TemperatureOffset() float64 {
	if p.WeatherSensitivity == nil {
		return 0
	}
	switch {
	case p.WeatherSensitivity.RunsCold && !p.WeatherSensitivity.RunsHot:
		return -3
	case p.WeatherSensitivity.RunsHot && !p.WeatherSensitivity.RunsCold:
		return 3
	default:
		return 0
	}
}

// Clone returns a deep copy so reducers never share maps or slices with previous snapshots
func (p UserProfile) Clone() UserProfile {
	c := p
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	if p.StylePreferences != nil {
		c.StylePreferences = make(map[StyleTag]int, len(p.StylePreferences))
		for k, v := range p.StylePreferences {
			c.StylePreferences[k] = v
		}
	}
	c.FavoriteColors = cloneStrings(p.FavoriteColors)
	c.Occasions = cloneStrings(p.Occasions)
	c.PatternPreferences = cloneStrings(p.PatternPreferences)
	c.Goals = cloneStrings(p.Goals)
	if p.Location != nil {
		l := *p.Location
		c.Location = &l
	}
	if p.FitPreferences != nil {
		f := *p.FitPreferences
		c.FitPreferences = &f
	}
	if p.WeatherSensitivity != nil {
		w := *p.WeatherSensitivity
		c.WeatherSensitivity = &w
	}
	if p.Lifestyle != nil {
		l := *p.Lifestyle
		c.Lifestyle = &l
	}
	if p.ColorPreferences != nil {
		cp := *p.ColorPreferences
		cp.Avoid = cloneStrings(p.ColorPreferences.Avoid)
		c.ColorPreferences = &cp
	}
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
