package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/smart-wardrobe/internal/models"
)

const (
	// StorageKey is the blob key of the durable state
	StorageKey = "wardrobe-storage"
	// PersistVersion is the current durable schema version.
	// Version 1 stored outfits with embedded item copies.
	PersistVersion = 2
)

// ErrNotFound is returned by a BlobStore when the key does not exist
var ErrNotFound = errors.New("blob not found")

// BlobStore persists named blobs
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// durableState is the persisted slice of State. Batch and weather state are excluded.
type durableState struct {
	Profile          models.UserProfile       `json:"profile"`
	Wardrobe         []models.ClothingItem    `json:"wardrobe"`
	OutfitHistory    []models.Outfit          `json:"outfitHistory"`
	TodaysPick       *models.Outfit           `json:"todaysPick"`
	DailySuggestions *models.DailySuggestions `json:"dailySuggestions"`
	Theme            Theme                    `json:"theme"`
}

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

func encodeState(s State) ([]byte, error) {
	raw, err := json.Marshal(durableState{
		Profile:          s.Profile,
		Wardrobe:         s.Wardrobe,
		OutfitHistory:    s.OutfitHistory,
		TodaysPick:       s.TodaysPick,
		DailySuggestions: s.DailySuggestions,
		Theme:            s.Theme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return json.Marshal(envelope{Version: PersistVersion, State: raw})
}

// decodeState rehydrates a persisted blob, migrating older versions
func decodeState(data []byte) (State, MigrationReport, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return State{}, MigrationReport{}, fmt.Errorf("failed to decode state envelope: %w", err)
	}
	if len(env.State) == 0 {
		return State{}, MigrationReport{}, errors.New("persisted state is empty")
	}
	return migrate(env.Version, env.State)
}
