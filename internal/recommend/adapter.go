// Package recommend delegates outfit selection to the remote recommendation
// service and falls back to the local generator when that path fails.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/outfit"
	"github.com/benvon/smart-wardrobe/internal/services/ai"
)

// ErrNoUsableOutfits is returned when every outfit in a reply referenced unknown items
var ErrNoUsableOutfits = errors.New("no usable outfits in recommendation")

// Recommender is the remote outfit recommendation service
type Recommender interface {
	RecommendOutfits(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error)
}

// Adapter turns wardrobe state into recommendation requests and replies back into outfits.
// It never retries; the caller owns the fallback decision.
type Adapter struct {
	client Recommender
	now    func() time.Time
	newID  func() string
}

// NewAdapter creates an adapter over the given service client
func NewAdapter(client Recommender) *Adapter {
	return &Adapter{
		client: client,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// BuildRequest serializes the wardrobe to its minimal description. Image bytes are never included.
func BuildRequest(wardrobe []models.ClothingItem, profile models.UserProfile, weather *models.WeatherData, favoriteColors []string, count int) *models.RecommendationRequest {
	entries := make([]models.WardrobeEntry, 0, len(wardrobe))
	for _, item := range wardrobe {
		entries = append(entries, models.WardrobeEntry{
			ID:         item.ID,
			Category:   item.Category,
			Colors:     item.Colors,
			AIAnalysis: item.AIAnalysis.Summary(),
		})
	}

	prefs := make(map[models.StyleTag]int, len(models.StyleTags))
	for _, tag := range models.StyleTags {
		prefs[tag] = profile.StyleScore(tag)
	}

	p := profile.Clone()
	return &models.RecommendationRequest{
		Wardrobe:       entries,
		Weather:        weather,
		Preferences:    prefs,
		FavoriteColors: favoriteColors,
		Count:          count,
		Profile:        &p,
	}
}

// Recommend asks the remote service for count outfits and reconciles them against the live wardrobe
func (a *Adapter) Recommend(ctx context.Context, wardrobe []models.ClothingItem, profile models.UserProfile, weather *models.WeatherData, favoriteColors []string, count int) ([]models.Outfit, error) {
	req := BuildRequest(wardrobe, profile, weather, favoriteColors, count)

	resp, err := a.client.RecommendOutfits(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := validate(resp); err != nil {
		return nil, err
	}

	outfits := a.Reconcile(resp.Outfits, wardrobe)
	if len(outfits) == 0 && len(resp.Outfits) > 0 {
		return nil, ErrNoUsableOutfits
	}
	if len(outfits) > count {
		outfits = outfits[:count]
	}
	return outfits, nil
}

func validate(resp *models.RecommendationResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: empty reply", ai.ErrInvalidResponseShape)
	}
	if !resp.Success {
		if resp.Error == "" {
			return fmt.Errorf("%w: unsuccessful reply without error", ai.ErrInvalidResponseShape)
		}
		return &ai.APIError{Type: "service_error", Message: resp.Error}
	}
	if resp.Outfits == nil {
		return fmt.Errorf("%w: missing outfits", ai.ErrInvalidResponseShape)
	}
	return nil
}

// Reconcile resolves item ids against the wardrobe. Unknown ids are dropped from
// their outfit, outfits left empty are dropped, and repeated item sets keep the first.
func (a *Adapter) Reconcile(recommended []models.RecommendedOutfit, wardrobe []models.ClothingItem) []models.Outfit {
	known := make(map[string]struct{}, len(wardrobe))
	for _, item := range wardrobe {
		known[item.ID] = struct{}{}
	}

	now := a.now()
	seen := make(outfit.Set)
	out := make([]models.Outfit, 0, len(recommended))
	for _, rec := range recommended {
		ids := make([]string, 0, len(rec.ItemIDs))
		used := make(map[string]struct{}, len(rec.ItemIDs))
		for _, id := range rec.ItemIDs {
			if _, ok := known[id]; !ok {
				continue
			}
			if _, dup := used[id]; dup {
				continue
			}
			used[id] = struct{}{}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		if !seen.Add(outfit.Fingerprint(ids)) {
			continue
		}
		out = append(out, models.Outfit{
			ID:        a.newID(),
			ItemIDs:   ids,
			CreatedAt: now,
			Score:     rec.Score,
			Reasoning: rec.Reasoning,
			Source:    models.OutfitSourceAI,
		})
	}
	return out
}
