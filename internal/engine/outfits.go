package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/outfit"
	"github.com/benvon/smart-wardrobe/internal/recommend"
)

// Recommend produces count outfits for the current wardrobe, profile and
// weather. mode "" uses the engine's configured mode.
func (e *Engine) Recommend(ctx context.Context, count int, mode recommend.Mode) (recommend.Result, error) {
	st := e.store.Snapshot()
	if !e.generator.CanGenerate(st.Wardrobe) {
		return recommend.Result{}, ErrInsufficientWardrobe
	}
	if mode == "" {
		mode = e.mode
	}
	return e.recommender.Recommend(ctx, recommend.Input{
		Wardrobe: st.Wardrobe,
		Profile:  st.Profile,
		Weather:  st.Weather,
		Count:    count,
	}, mode), nil
}

// DailyResult is the outcome of DailySuggestions
type DailyResult struct {
	Suggestions models.DailySuggestions
	Cached      bool
	Warning     string
}

// DailySuggestions returns today's suggestions, generating them at most once
// per calendar day. Outfits already in history are skipped. The first
// suggestion becomes today's pick.
func (e *Engine) DailySuggestions(ctx context.Context, count int) (DailyResult, error) {
	today := e.now().Format("2006-01-02")
	st := e.store.Snapshot()
	if ds := st.DailySuggestions; ds != nil && ds.Date == today && len(ds.Outfits) > 0 {
		return DailyResult{Suggestions: *ds, Cached: true}, nil
	}
	if !e.generator.CanGenerate(st.Wardrobe) {
		return DailyResult{}, ErrInsufficientWardrobe
	}

	res := e.recommender.Recommend(ctx, recommend.Input{
		Wardrobe: st.Wardrobe,
		Profile:  st.Profile,
		Weather:  st.Weather,
		Count:    count,
		Exclude:  outfit.NewSet(st.OutfitHistory...),
	}, e.mode)

	if err := e.store.SetDailySuggestions(ctx, today, res.Outfits, res.Source); err != nil {
		return DailyResult{}, err
	}
	e.logger.Info("daily_suggestions_generated",
		zap.String("date", today),
		zap.Int("count", len(res.Outfits)),
		zap.String("source", string(res.Source)),
	)

	return DailyResult{
		Suggestions: models.DailySuggestions{Date: today, Outfits: res.Outfits, Source: res.Source},
		Warning:     res.Warning,
	}, nil
}

// AcceptOutfit records o in history and reports whether it was new
func (e *Engine) AcceptOutfit(ctx context.Context, o models.Outfit) (bool, error) {
	added, err := e.store.AddOutfit(ctx, o)
	if err != nil {
		return false, err
	}
	if !added {
		e.logger.Debug("duplicate_outfit_ignored", zap.String("fingerprint", outfit.Of(o)))
	}
	return added, nil
}
