// Package store holds the single source of truth for wardrobe, profile,
// outfit history, daily suggestions, weather and batch-upload state.
//
// Transitions in reducer.go are pure: they take a snapshot and return a new
// one without mutating the input. Store applies them under a lock and
// persists the durable slice.
package store

import (
	"time"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// Theme is the UI color scheme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// BatchState is the transient batch-upload slice. It is never persisted.
type BatchState struct {
	Queue    []models.QueuedFile
	Progress models.BatchUploadProgress
}

// State is an immutable snapshot of the application state
type State struct {
	Profile          models.UserProfile
	Wardrobe         []models.ClothingItem
	OutfitHistory    []models.Outfit
	TodaysPick       *models.Outfit
	DailySuggestions *models.DailySuggestions
	Theme            Theme

	// Weather is transient; the weather cache is persisted separately
	Weather          *models.WeatherData
	WeatherError     string
	WeatherFetchedAt time.Time

	Batch BatchState
}

// Initial returns the default state of a fresh installation
func Initial() State {
	return State{
		Profile:       models.DefaultProfile(),
		Wardrobe:      []models.ClothingItem{},
		OutfitHistory: []models.Outfit{},
		Theme:         ThemeSystem,
	}
}

// Item returns the wardrobe item with the given id
func (s State) Item(id string) (models.ClothingItem, bool) {
	for _, item := range s.Wardrobe {
		if item.ID == id {
			return item, true
		}
	}
	return models.ClothingItem{}, false
}

// QueuedFile returns the queued upload with the given id
func (s State) QueuedFile(id string) (models.QueuedFile, bool) {
	for _, f := range s.Batch.Queue {
		if f.ID == id {
			return f, true
		}
	}
	return models.QueuedFile{}, false
}

// ResolveOutfit returns the wardrobe items an outfit references, in outfit order
func (s State) ResolveOutfit(o models.Outfit) []models.ClothingItem {
	byID := make(map[string]models.ClothingItem, len(s.Wardrobe))
	for _, item := range s.Wardrobe {
		byID[item.ID] = item
	}
	items := make([]models.ClothingItem, 0, len(o.ItemIDs))
	for _, id := range o.ItemIDs {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items
}
