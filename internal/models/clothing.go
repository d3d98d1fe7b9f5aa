package models

import (
	"time"
)

// Category represents the wardrobe slot a clothing item fills
type Category string

const (
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryShoes     Category = "shoes"
	CategoryAccessory Category = "accessory"
	CategoryOuterwear Category = "outerwear"
)

// Categories lists every valid category in display order
var Categories = []Category{
	CategoryTop,
	CategoryBottom,
	CategoryShoes,
	CategoryAccessory,
	CategoryOuterwear,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryTop, CategoryBottom, CategoryShoes, CategoryAccessory, CategoryOuterwear:
		return true
	default:
		return false
	}
}

// ClothingItem is a single cataloged piece of the wardrobe
type ClothingItem struct {
	ID         string              `json:"id"`
	Category   Category            `json:"category"`
	Colors     []string            `json:"colors"` // Most dominant first
	Style      []StyleTag          `json:"style,omitempty"`
	ImageID    string              `json:"imageId,omitempty"`
	UploadedAt time.Time           `json:"uploadedAt"`
	AIAnalysis *AIClothingAnalysis `json:"aiAnalysis,omitempty"`
}

// DominantColor returns the most dominant color of the item, or "" if none were extracted
func (c ClothingItem) DominantColor() string {
	if len(c.Colors) == 0 {
		return ""
	}
	return c.Colors[0]
}

// Season returns the AI-suggested season or SeasonAll when unknown
func (c ClothingItem) Season() Season {
	if c.AIAnalysis == nil || c.AIAnalysis.Season == "" {
		return SeasonAll
	}
	return c.AIAnalysis.Season
}

// Formality returns the AI-suggested formality, or "" when unknown
func (c ClothingItem) Formality() Formality {
	if c.AIAnalysis == nil {
		return ""
	}
	return c.AIAnalysis.Formality
}

// Season is the season an item is best suited for
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
	SeasonWinter Season = "winter"
	SeasonAll    Season = "all-season"
)

// Formality is the dress-code level of an item
type Formality string

const (
	FormalityCasual      Formality = "casual"
	FormalitySmartCasual Formality = "smart-casual"
	FormalityBusiness    Formality = "business"
	FormalityFormal      Formality = "formal"
	FormalityAthletic    Formality = "athletic"
)

// Occasion keys scored by the clothing analysis service
const (
	OccasionWork     = "work"
	OccasionCasual   = "casual"
	OccasionFormal   = "formal"
	OccasionDate     = "date"
	OccasionParty    = "party"
	OccasionAthletic = "athletic"
	OccasionOutdoor  = "outdoor"
	OccasionTravel   = "travel"
)

// OccasionKeys lists the 8 occasion score keys
var OccasionKeys = []string{
	OccasionWork,
	OccasionCasual,
	OccasionFormal,
	OccasionDate,
	OccasionParty,
	OccasionAthletic,
	OccasionOutdoor,
	OccasionTravel,
}

// AIClothingAnalysis is the classification returned by the clothing analysis service
type AIClothingAnalysis struct {
	Description         string         `json:"description"`
	SuggestedCategory   Category       `json:"suggestedCategory"`
	DetectedColors      []string       `json:"detectedColors"`
	SuggestedStyles     []StyleTag     `json:"suggestedStyles"`
	Season              Season         `json:"season"`
	Formality           Formality      `json:"formality"`
	Occasion            []string       `json:"occasion"`
	OccasionScores      map[string]int `json:"occasionScores"`
	Confidence          float64        `json:"confidence"`
	Reasoning           string         `json:"reasoning"`
	AlternateCategory   *Category      `json:"alternateCategory,omitempty"`
	AlternateConfidence *float64       `json:"alternateConfidence,omitempty"`
}

// Summary renders a compact one-line description used when the wardrobe is sent as text
func (a *AIClothingAnalysis) Summary() string {
	if a == nil {
		return ""
	}
	s := a.Description
	if a.Season != "" {
		s += "; season=" + string(a.Season)
	}
	if a.Formality != "" {
		s += "; formality=" + string(a.Formality)
	}
	return s
}
