package outfit

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// DefaultMaxCandidates bounds the number of base combinations scored per call.
// Each slot is ranked by standalone score and the weakest items of the
// largest slots are left out until the product fits.
const DefaultMaxCandidates = 500

// Config configures a Generator
type Config struct {
	Requirements  Requirements
	Weights       Weights
	MaxCandidates int
	// Seed shuffles the enumeration order when non-zero. Equal-score
	// candidates keep their (shuffled) generation order, so a fixed
	// input and seed always yield the same result.
	Seed uint64
}

// DefaultConfig returns the default generator configuration
func DefaultConfig() Config {
	return Config{
		Requirements:  DefaultRequirements(),
		Weights:       DefaultWeights(),
		MaxCandidates: DefaultMaxCandidates,
	}
}

// Generator produces scored outfit combinations from a wardrobe. It holds
// no mutable state and is safe for concurrent use.
type Generator struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

// NewGenerator creates a generator. Zero-valued config fields fall back to defaults.
func NewGenerator(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Requirements == (Requirements{}) {
		cfg.Requirements = def.Requirements
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	return &Generator{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Requirements returns the minimum composition the generator was configured with
func (g *Generator) Requirements() Requirements {
	return g.cfg.Requirements
}

// CanGenerate reports whether the wardrobe meets the configured minimum
func (g *Generator) CanGenerate(wardrobe []models.ClothingItem) bool {
	return MeetsMinimumRequirements(wardrobe, g.cfg.Requirements)
}

type candidate struct {
	items []models.ClothingItem
	score float64
}

// Generate returns up to count distinct outfits sorted by score descending.
// It fails soft: an undersized wardrobe or a non-positive count yields nil.
func (g *Generator) Generate(wardrobe []models.ClothingItem, profile models.UserProfile, count int, weather *models.WeatherData) []models.Outfit {
	return g.GenerateExcluding(wardrobe, profile, count, weather, nil)
}

// GenerateExcluding is Generate, skipping any combination whose fingerprint is in exclude
func (g *Generator) GenerateExcluding(wardrobe []models.ClothingItem, profile models.UserProfile, count int, weather *models.WeatherData, exclude Set) []models.Outfit {
	if count <= 0 || !g.CanGenerate(wardrobe) {
		return nil
	}

	candidates := g.enumerate(g.partition(wardrobe), profile, weather, exclude)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}

	now := g.now()
	outfits := make([]models.Outfit, 0, len(candidates))
	for _, c := range candidates {
		ids := make([]string, len(c.items))
		for i, item := range c.items {
			ids[i] = item.ID
		}
		outfits = append(outfits, models.Outfit{
			ID:        g.newID(),
			ItemIDs:   ids,
			CreatedAt: now,
			Score:     c.score,
			Reasoning: describe(c.items),
			Source:    models.OutfitSourceClassic,
		})
	}
	return outfits
}

type slots struct {
	tops, bottoms, shoes, outerwear, accessories []models.ClothingItem
}

func (g *Generator) partition(wardrobe []models.ClothingItem) slots {
	var s slots
	for _, item := range wardrobe {
		switch item.Category {
		case models.CategoryTop:
			s.tops = append(s.tops, item)
		case models.CategoryBottom:
			s.bottoms = append(s.bottoms, item)
		case models.CategoryShoes:
			s.shoes = append(s.shoes, item)
		case models.CategoryOuterwear:
			s.outerwear = append(s.outerwear, item)
		case models.CategoryAccessory:
			s.accessories = append(s.accessories, item)
		}
	}
	if g.cfg.Seed != 0 {
		rng := rand.New(rand.NewPCG(g.cfg.Seed, g.cfg.Seed^0x9e3779b97f4a7c15))
		for _, list := range [][]models.ClothingItem{s.tops, s.bottoms, s.shoes} {
			rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
		}
	}
	return s
}

// rank orders items by their standalone score, best first. Ties keep the
// incoming order.
func (g *Generator) rank(items []models.ClothingItem, profile models.UserProfile, weather *models.WeatherData) []models.ClothingItem {
	type ranked struct {
		item  models.ClothingItem
		score float64
	}
	list := make([]ranked, len(items))
	for i, item := range items {
		list[i] = ranked{item, Score([]models.ClothingItem{item}, profile, weather).Total(g.cfg.Weights)}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})
	out := make([]models.ClothingItem, len(list))
	for i, r := range list {
		out[i] = r.item
	}
	return out
}

// slotLimits trims the largest slot first until the product of the slot
// sizes fits within maxCandidates. No slot drops below one item.
func slotLimits(sizes [3]int, maxCandidates int) [3]int {
	limits := sizes
	for limits[0]*limits[1]*limits[2] > maxCandidates {
		largest := 0
		for i := 1; i < len(limits); i++ {
			if limits[i] > limits[largest] {
				largest = i
			}
		}
		if limits[largest] <= 1 {
			break
		}
		limits[largest]--
	}
	return limits
}

func (g *Generator) enumerate(s slots, profile models.UserProfile, weather *models.WeatherData, exclude Set) []candidate {
	tops := g.rank(s.tops, profile, weather)
	bottoms := g.rank(s.bottoms, profile, weather)
	shoes := g.rank(s.shoes, profile, weather)

	limits := slotLimits([3]int{len(tops), len(bottoms), len(shoes)}, g.cfg.MaxCandidates)
	tops, bottoms, shoes = tops[:limits[0]], bottoms[:limits[1]], shoes[:limits[2]]

	var out []candidate
	seen := make(Set)

	for _, top := range tops {
		for _, bottom := range bottoms {
			for _, shoe := range shoes {
				items := []models.ClothingItem{top, bottom, shoe}
				score := Score(items, profile, weather).Total(g.cfg.Weights)
				items, score = g.bestAddition(items, score, s.outerwear, profile, weather)
				items, score = g.bestAddition(items, score, s.accessories, profile, weather)

				ids := make([]string, len(items))
				for i, item := range items {
					ids[i] = item.ID
				}
				fp := Fingerprint(ids)
				if exclude.Has(fp) || !seen.Add(fp) {
					continue
				}
				out = append(out, candidate{items: items, score: score})
			}
		}
	}
	return out
}

// bestAddition attaches the option that raises the score the most, if any does.
// Earlier options win ties.
func (g *Generator) bestAddition(base []models.ClothingItem, baseScore float64, options []models.ClothingItem, profile models.UserProfile, weather *models.WeatherData) ([]models.ClothingItem, float64) {
	bestItems, bestScore := base, baseScore
	for _, opt := range options {
		items := make([]models.ClothingItem, len(base), len(base)+1)
		copy(items, base)
		items = append(items, opt)
		score := Score(items, profile, weather).Total(g.cfg.Weights)
		if score > bestScore {
			bestItems, bestScore = items, score
		}
	}
	return bestItems, bestScore
}

func describe(items []models.ClothingItem) string {
	if len(items) == 0 {
		return ""
	}
	s := ""
	for i, item := range items {
		if i > 0 {
			s += ", "
		}
		if c := item.DominantColor(); c != "" {
			s += c + " "
		}
		s += string(item.Category)
	}
	return fmt.Sprintf("Pairs %s", s)
}
