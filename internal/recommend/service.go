package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/outfit"
	"github.com/benvon/smart-wardrobe/internal/services/ai"
)

// Mode selects the recommendation path requested by the caller
type Mode string

const (
	ModeAI      Mode = "ai"
	ModeClassic Mode = "classic"
)

// AIRecommender is the AI path; *Adapter satisfies it
type AIRecommender interface {
	Recommend(ctx context.Context, wardrobe []models.ClothingItem, profile models.UserProfile, weather *models.WeatherData, favoriteColors []string, count int) ([]models.Outfit, error)
}

// Input is everything needed to produce recommendations
type Input struct {
	Wardrobe []models.ClothingItem
	Profile  models.UserProfile
	Weather  *models.WeatherData
	Count    int
	// Exclude skips outfits with these fingerprints
	Exclude outfit.Set
}

// Result is the outcome of one recommendation call
type Result struct {
	Outfits []models.Outfit
	Source  models.OutfitSource
	// Warning is a non-fatal message for the user when the AI path failed
	Warning string
	// Err is the AI failure that triggered the fallback, if any
	Err error
}

// Service picks between the AI adapter and the classic generator. After the
// first AI failure it uses the classic generator for the rest of the session.
type Service struct {
	ai        AIRecommender
	generator *outfit.Generator
	logger    *zap.Logger

	mu          sync.Mutex
	fallback    bool
	fallbackErr error
}

// NewService creates a service. aiPath may be nil, in which case only the classic generator is used.
func NewService(aiPath AIRecommender, generator *outfit.Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ai:        aiPath,
		generator: generator,
		logger:    logger,
	}
}

// FellBack reports whether the session has switched to the classic generator, and why
func (s *Service) FellBack() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback, s.fallbackErr
}

// Recommend returns outfits for in. It never returns an error: AI failures
// degrade to the classic generator with a warning.
func (s *Service) Recommend(ctx context.Context, in Input, mode Mode) Result {
	if mode == ModeAI && s.ai != nil && !s.sticky() {
		outfits, err := s.ai.Recommend(ctx, in.Wardrobe, in.Profile, in.Weather, in.Profile.FavoriteColors, in.Count)
		if err == nil {
			outfits = filterExcluded(outfits, in.Exclude)
			if len(outfits) > 0 {
				return Result{Outfits: outfits, Source: models.OutfitSourceAI}
			}
			err = ErrNoUsableOutfits
		}

		s.markFallback(err)
		s.logger.Warn("ai_recommendation_fallback",
			zap.Error(err),
			zap.Int("status_code", ai.StatusCode(err)),
			zap.Int("wardrobe_size", len(in.Wardrobe)),
		)
		return Result{
			Outfits: s.classic(in),
			Source:  models.OutfitSourceClassic,
			Warning: WarningFor(err),
			Err:     err,
		}
	}

	res := Result{Outfits: s.classic(in), Source: models.OutfitSourceClassic}
	if mode == ModeAI && s.sticky() {
		res.Warning = SessionFallbackWarning
	}
	return res
}

// SessionFallbackWarning accompanies classic picks served in AI mode after
// the session has fallen back
const SessionFallbackWarning = "AI recommendations are off for this session. Showing classic picks."

func (s *Service) classic(in Input) []models.Outfit {
	return s.generator.GenerateExcluding(in.Wardrobe, in.Profile, in.Count, in.Weather, in.Exclude)
}

func (s *Service) sticky() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

func (s *Service) markFallback(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fallback {
		s.fallback = true
		s.fallbackErr = err
	}
}

func filterExcluded(outfits []models.Outfit, exclude outfit.Set) []models.Outfit {
	if len(exclude) == 0 {
		return outfits
	}
	out := outfits[:0]
	for _, o := range outfits {
		if !exclude.Has(outfit.Of(o)) {
			out = append(out, o)
		}
	}
	return out
}

// WarningFor renders the user-facing warning for an AI failure
func WarningFor(err error) string {
	var rl *ai.RateLimitError
	switch {
	case errors.Is(err, ai.ErrServerConfiguration), errors.Is(err, ai.ErrNotConfigured):
		return "AI recommendations are unavailable right now. Showing classic picks instead."
	case errors.As(err, &rl):
		return fmt.Sprintf("AI recommendations are busy (retry in %s). Showing classic picks instead.", rl.RetryAfter)
	case errors.Is(err, context.DeadlineExceeded):
		return "AI recommendations timed out. Showing classic picks instead."
	default:
		return "AI recommendations failed. Showing classic picks instead."
	}
}
