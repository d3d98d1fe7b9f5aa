package store

import (
	"encoding/json"
	"fmt"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// MigrationReport summarizes what rehydration had to repair
type MigrationReport struct {
	FromVersion      int
	ProfileBackfill  bool
	LegacyOutfits    int
	DanglingOutfits  int
	DuplicateOutfits int
}

// Changed reports whether the rehydrated state differs from what was stored
func (r MigrationReport) Changed() bool {
	return r.FromVersion != PersistVersion || r.ProfileBackfill || r.LegacyOutfits > 0 ||
		r.DanglingOutfits > 0 || r.DuplicateOutfits > 0
}

// legacyOutfit accepts both the current itemIds form and the older form that
// embedded full item copies.
type legacyOutfit struct {
	models.Outfit
	Items []struct {
		ID string `json:"id"`
	} `json:"items,omitempty"`
}

func (l legacyOutfit) upgrade() (models.Outfit, bool) {
	o := l.Outfit
	if len(o.ItemIDs) > 0 || len(l.Items) == 0 {
		return o, false
	}
	o.ItemIDs = make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		if it.ID != "" {
			o.ItemIDs = append(o.ItemIDs, it.ID)
		}
	}
	return o, true
}

type rawState struct {
	Profile          json.RawMessage       `json:"profile"`
	Wardrobe         []models.ClothingItem `json:"wardrobe"`
	OutfitHistory    []legacyOutfit        `json:"outfitHistory"`
	TodaysPick       *legacyOutfit         `json:"todaysPick"`
	DailySuggestions *struct {
		Date    string              `json:"date"`
		Outfits []legacyOutfit      `json:"outfits"`
		Source  models.OutfitSource `json:"source"`
	} `json:"dailySuggestions"`
	Theme Theme `json:"theme"`
}

var extendedProfileFields = []string{
	"occasions", "fitPreferences", "weatherSensitivity", "lifestyle",
	"colorPreferences", "patternPreferences", "goals",
}

// migrate upgrades a persisted state of any version to the current schema:
// profile defaults are backfilled, embedded-item outfits become id references,
// and outfits pointing at missing items are dropped.
func migrate(version int, data json.RawMessage) (State, MigrationReport, error) {
	report := MigrationReport{FromVersion: version}

	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, report, fmt.Errorf("failed to decode persisted state: %w", err)
	}

	s := Initial()

	if len(raw.Profile) > 0 && string(raw.Profile) != "null" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw.Profile, &fields); err != nil {
			return State{}, report, fmt.Errorf("failed to decode persisted profile: %w", err)
		}
		for _, f := range extendedProfileFields {
			if v, ok := fields[f]; !ok || string(v) == "null" {
				report.ProfileBackfill = true
				break
			}
		}
		var p models.UserProfile
		if err := json.Unmarshal(raw.Profile, &p); err != nil {
			return State{}, report, fmt.Errorf("failed to decode persisted profile: %w", err)
		}
		models.ApplyProfileDefaults(&p)
		s.Profile = p
	}

	if raw.Wardrobe != nil {
		s.Wardrobe = raw.Wardrobe
	}
	if raw.Theme.Valid() {
		s.Theme = raw.Theme
	}

	known := make(map[string]struct{}, len(s.Wardrobe))
	for _, item := range s.Wardrobe {
		known[item.ID] = struct{}{}
	}
	resolvable := func(o models.Outfit) bool {
		if len(o.ItemIDs) == 0 {
			return false
		}
		for _, id := range o.ItemIDs {
			if _, ok := known[id]; !ok {
				return false
			}
		}
		return true
	}
	upgradeAll := func(in []legacyOutfit) []models.Outfit {
		out := make([]models.Outfit, 0, len(in))
		for _, l := range in {
			o, upgraded := l.upgrade()
			if upgraded {
				report.LegacyOutfits++
			}
			if !resolvable(o) {
				report.DanglingOutfits++
				continue
			}
			out = append(out, o)
		}
		return out
	}

	s.OutfitHistory = upgradeAll(raw.OutfitHistory)

	if raw.TodaysPick != nil {
		if picks := upgradeAll([]legacyOutfit{*raw.TodaysPick}); len(picks) == 1 {
			s.TodaysPick = &picks[0]
		}
	}

	if ds := raw.DailySuggestions; ds != nil {
		if outfits := upgradeAll(ds.Outfits); len(outfits) > 0 {
			s.DailySuggestions = &models.DailySuggestions{Date: ds.Date, Outfits: outfits, Source: ds.Source}
		}
	}

	before := len(s.OutfitHistory)
	if s.DailySuggestions != nil {
		before += len(s.DailySuggestions.Outfits)
	}
	s = RemoveDuplicateOutfits(s)
	after := len(s.OutfitHistory)
	if s.DailySuggestions != nil {
		after += len(s.DailySuggestions.Outfits)
	}
	report.DuplicateOutfits = before - after

	return s, report, nil
}
