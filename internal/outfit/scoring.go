package outfit

import (
	"math"
	"strings"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/palette"
)

// Weights controls the contribution of each scoring component
type Weights struct {
	Style           float64
	Color           float64
	Appropriateness float64
	FavoriteColor   float64
}

// DefaultWeights returns the default scoring weights
func DefaultWeights() Weights {
	return Weights{
		Style:           0.35,
		Color:           0.30,
		Appropriateness: 0.25,
		FavoriteColor:   0.10,
	}
}

func (w Weights) total() float64 {
	return w.Style + w.Color + w.Appropriateness + w.FavoriteColor
}

// Breakdown holds the per-component scores of one candidate, each in [0, 1]
type Breakdown struct {
	Style           float64
	Color           float64
	Appropriateness float64
	FavoriteColor   float64
}

// Total combines the components into a 0-100 score
func (b Breakdown) Total(w Weights) float64 {
	sum := w.total()
	if sum <= 0 {
		return 0
	}
	s := (w.Style*b.Style + w.Color*b.Color + w.Appropriateness*b.Appropriateness + w.FavoriteColor*b.FavoriteColor) / sum
	return math.Round(s*1000) / 10
}

// Score computes the breakdown for a set of items
func Score(items []models.ClothingItem, profile models.UserProfile, weather *models.WeatherData) Breakdown {
	return Breakdown{
		Style:           styleMatch(items, profile),
		Color:           colorCoordination(items),
		Appropriateness: appropriateness(items, profile, weather),
		FavoriteColor:   favoriteColorBonus(items, profile.FavoriteColors),
	}
}

func itemStyles(item models.ClothingItem) []models.StyleTag {
	if len(item.Style) > 0 {
		return item.Style
	}
	if item.AIAnalysis != nil {
		return item.AIAnalysis.SuggestedStyles
	}
	return nil
}

func styleMatch(items []models.ClothingItem, profile models.UserProfile) float64 {
	if len(items) == 0 {
		return 0
	}
	var total float64
	for _, item := range items {
		tags := itemStyles(item)
		if len(tags) == 0 {
			total += 0.5
			continue
		}
		var sum float64
		for _, tag := range tags {
			sum += float64(profile.StyleScore(tag)) / models.MaxStyleScore
		}
		total += sum / float64(len(tags))
	}
	return total / float64(len(items))
}

func colorCoordination(items []models.ClothingItem) float64 {
	colors := make([]string, 0, len(items))
	for _, item := range items {
		if c := item.DominantColor(); c != "" {
			colors = append(colors, c)
		}
	}
	if len(colors) < 2 {
		return 0.5
	}
	var sum float64
	var pairs int
	for i := 0; i < len(colors); i++ {
		for j := i + 1; j < len(colors); j++ {
			sum += palette.Harmony(colors[i], colors[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

func favoriteColorBonus(items []models.ClothingItem, favorites []string) float64 {
	if len(items) == 0 || len(favorites) == 0 {
		return 0
	}
	fav := make(map[string]struct{}, len(favorites))
	for _, c := range favorites {
		fav[palette.Normalize(c)] = struct{}{}
	}
	var hits int
	for _, item := range items {
		for _, c := range item.Colors {
			if _, ok := fav[palette.Normalize(c)]; ok {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(items))
}

// Temperature bands in Celsius, applied to feels-like temperature
const (
	coldBelow = 10.0
	coolBelow = 18.0
	warmAbove = 24.0
)

// idealSeasons returns the seasons that suit the effective temperature
func idealSeasons(temp float64) map[models.Season]float64 {
	switch {
	case temp < coldBelow:
		return map[models.Season]float64{models.SeasonWinter: 1, models.SeasonFall: 0.6, models.SeasonSpring: 0.3}
	case temp < coolBelow:
		return map[models.Season]float64{models.SeasonFall: 1, models.SeasonSpring: 1, models.SeasonWinter: 0.6, models.SeasonSummer: 0.3}
	case temp <= warmAbove:
		return map[models.Season]float64{models.SeasonSpring: 1, models.SeasonSummer: 1, models.SeasonFall: 0.7, models.SeasonWinter: 0.2}
	default:
		return map[models.Season]float64{models.SeasonSummer: 1, models.SeasonSpring: 0.6, models.SeasonFall: 0.3}
	}
}

var formalityRank = map[models.Formality]int{
	models.FormalityAthletic:    0,
	models.FormalityCasual:      1,
	models.FormalitySmartCasual: 2,
	models.FormalityBusiness:    3,
	models.FormalityFormal:      4,
}

func formalityCoherence(items []models.ClothingItem) float64 {
	lo, hi := math.MaxInt, math.MinInt
	for _, item := range items {
		r, ok := formalityRank[models.Formality(strings.ToLower(string(item.Formality())))]
		if !ok {
			continue
		}
		lo = min(lo, r)
		hi = max(hi, r)
	}
	if lo > hi {
		return 1
	}
	return math.Max(0, 1-0.25*float64(hi-lo))
}

func appropriateness(items []models.ClothingItem, profile models.UserProfile, weather *models.WeatherData) float64 {
	formality := formalityCoherence(items)
	if weather == nil || len(items) == 0 {
		return formality
	}

	temp := weather.FeelsLike + profile.TemperatureOffset()
	ideal := idealSeasons(temp)

	var seasonSum float64
	hasOuterwear := false
	for _, item := range items {
		if item.Category == models.CategoryOuterwear {
			hasOuterwear = true
		}
		season := item.Season()
		if season == models.SeasonAll {
			seasonSum += 1
			continue
		}
		seasonSum += ideal[season]
	}
	seasonFit := seasonSum / float64(len(items))

	layering := 1.0
	switch {
	case temp < coolBelow && !hasOuterwear:
		layering = 0.3
	case temp > warmAbove && hasOuterwear:
		layering = 0.2
	case weather.IsRainy() && !hasOuterwear:
		layering = 0.6
	}

	return 0.5*seasonFit + 0.2*layering + 0.3*formality
}
