package models

import (
	"time"
)

// OutfitSource records which path produced an outfit
type OutfitSource string

const (
	OutfitSourceClassic OutfitSource = "classic"
	OutfitSourceAI      OutfitSource = "ai"
)

// Outfit is a combination of wardrobe items considered as one recommendation.
// Items are referenced by id and must resolve against the current wardrobe.
type Outfit struct {
	ID        string       `json:"id"`
	ItemIDs   []string     `json:"itemIds"`
	CreatedAt time.Time    `json:"createdAt"`
	Score     float64      `json:"score"`
	Reasoning string       `json:"reasoning,omitempty"`
	Source    OutfitSource `json:"source,omitempty"`
}

// References reports whether the outfit contains itemID
func (o Outfit) References(itemID string) bool {
	for _, id := range o.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the item id slice
func (o Outfit) Clone() Outfit {
	c := o
	c.ItemIDs = cloneStrings(o.ItemIDs)
	return c
}

// CloneOutfits deep-copies a slice of outfits
func CloneOutfits(in []Outfit) []Outfit {
	if in == nil {
		return nil
	}
	out := make([]Outfit, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}

// DailySuggestions holds the outfits generated for one calendar day
type DailySuggestions struct {
	Date    string       `json:"date"` // YYYY-MM-DD in local time
	Outfits []Outfit     `json:"outfits"`
	Source  OutfitSource `json:"source"`
}
