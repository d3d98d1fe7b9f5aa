package outfit

import (
	"github.com/benvon/smart-wardrobe/internal/models"
)

// Requirements is the minimum wardrobe composition needed before outfits can be generated
type Requirements struct {
	MinTops    int
	MinBottoms int
	MinShoes   int
	MinTotal   int
}

// DefaultRequirements returns the default minimum composition
func DefaultRequirements() Requirements {
	return Requirements{
		MinTops:    5,
		MinBottoms: 3,
		MinShoes:   2,
		MinTotal:   10,
	}
}

// CategoryCounts tallies wardrobe items per category
func CategoryCounts(wardrobe []models.ClothingItem) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, item := range wardrobe {
		counts[item.Category]++
	}
	return counts
}

// MeetsMinimumRequirements reports whether the wardrobe satisfies req
func MeetsMinimumRequirements(wardrobe []models.ClothingItem, req Requirements) bool {
	counts := CategoryCounts(wardrobe)
	return counts[models.CategoryTop] >= req.MinTops &&
		counts[models.CategoryBottom] >= req.MinBottoms &&
		counts[models.CategoryShoes] >= req.MinShoes &&
		len(wardrobe) >= req.MinTotal
}

// Missing describes what is still needed, keyed by category ("total" for the overall count)
func (r Requirements) Missing(wardrobe []models.ClothingItem) map[string]int {
	counts := CategoryCounts(wardrobe)
	missing := make(map[string]int)
	if d := r.MinTops - counts[models.CategoryTop]; d > 0 {
		missing[string(models.CategoryTop)] = d
	}
	if d := r.MinBottoms - counts[models.CategoryBottom]; d > 0 {
		missing[string(models.CategoryBottom)] = d
	}
	if d := r.MinShoes - counts[models.CategoryShoes]; d > 0 {
		missing[string(models.CategoryShoes)] = d
	}
	if d := r.MinTotal - len(wardrobe); d > 0 {
		missing["total"] = d
	}
	return missing
}
