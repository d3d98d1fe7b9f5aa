package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// AIProvider is the vision and text backend behind the clothing endpoints
type AIProvider interface {
	// AnalyzeClothing classifies a single garment image given as a base64 data URI
	AnalyzeClothing(ctx context.Context, imageDataURI string, preferences map[models.StyleTag]int) (*models.AIClothingAnalysis, error)

	// RecommendOutfits selects outfits from a text description of the wardrobe
	RecommendOutfits(ctx context.Context, req *models.RecommendationRequest) ([]models.RecommendedOutfit, error)
}

// ProviderConfig carries the settings a factory needs to build a provider
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ProviderFactory builds a provider from its settings
type ProviderFactory func(cfg ProviderConfig) (AIProvider, error)

// ProviderRegistry maps provider names to factories
type ProviderRegistry struct {
	factories map[string]ProviderFactory
}

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{factories: make(map[string]ProviderFactory)}
}

// Register adds or replaces the factory for name
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.factories[strings.ToLower(name)] = factory
}

// Names lists the registered providers in sorted order
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build creates the named provider. Names are case-insensitive.
func (r *ProviderRegistry) Build(name string, cfg ProviderConfig) (AIProvider, error) {
	factory, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownProviderError{Name: name, Known: r.Names()}
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s provider: %w", name, err)
	}
	return p, nil
}

// UnknownProviderError is returned by Build for an unregistered name
type UnknownProviderError struct {
	Name  string
	Known []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown AI provider %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}
