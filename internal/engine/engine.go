// Package engine is the effects layer around the store. Every operation here
// performs I/O (network, worker, durable storage) and then commits its
// results through store transitions.
//
// Async operations commit several transitions across I/O boundaries.
// Concurrent FetchWeather or AddBatchFiles calls are not mutually excluded.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/smart-wardrobe/internal/batch"
	"github.com/benvon/smart-wardrobe/internal/imagestore"
	"github.com/benvon/smart-wardrobe/internal/imaging"
	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/outfit"
	"github.com/benvon/smart-wardrobe/internal/recommend"
	"github.com/benvon/smart-wardrobe/internal/store"
)

var (
	// ErrInsufficientWardrobe is returned when the wardrobe is below the minimum composition
	ErrInsufficientWardrobe = errors.New("wardrobe does not meet the minimum requirements")
	// ErrFileNotFound is returned for unknown queued file ids
	ErrFileNotFound = errors.New("queued file not found")
)

// WeatherClient fetches current conditions; *apiclient.Client satisfies it
type WeatherClient interface {
	Weather(ctx context.Context, lat, lon float64) (*models.WeatherResponse, error)
}

// Analyzer classifies a clothing image; *apiclient.Client satisfies it
type Analyzer interface {
	AnalyzeClothing(ctx context.Context, imageDataURI string, preferences map[models.StyleTag]int) (*models.AnalyzeClothingResponse, error)
}

// FileProgressFunc receives per-file pipeline progress
type FileProgressFunc func(fileID string, percent int, stage string)

// Deps wires an Engine. Store, Pipeline and Images are required.
type Deps struct {
	Store        *store.Store
	WeatherCache *store.WeatherCache
	Weather      WeatherClient
	Analyzer     Analyzer
	Generator    *outfit.Generator
	Recommender  *recommend.Service
	Pipeline     *imaging.Pipeline
	Batch        *batch.Orchestrator
	Images       imagestore.Store
	Locator      Locator
	Mode         recommend.Mode
	OnFile       FileProgressFunc
	Logger       *zap.Logger
	Now          func() time.Time
	NewID        func() string
}

// Engine runs the wardrobe's side-effecting workflows
type Engine struct {
	store        *store.Store
	weatherCache *store.WeatherCache
	weather      WeatherClient
	analyzer     Analyzer
	generator    *outfit.Generator
	recommender  *recommend.Service
	pipeline     *imaging.Pipeline
	batch        *batch.Orchestrator
	images       imagestore.Store
	locator      Locator
	mode         recommend.Mode
	onFile       FileProgressFunc
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// New creates an engine from deps, filling defaults for optional parts
func New(d Deps) *Engine {
	e := &Engine{
		store:        d.Store,
		weatherCache: d.WeatherCache,
		weather:      d.Weather,
		analyzer:     d.Analyzer,
		generator:    d.Generator,
		recommender:  d.Recommender,
		pipeline:     d.Pipeline,
		batch:        d.Batch,
		images:       d.Images,
		locator:      d.Locator,
		mode:         d.Mode,
		onFile:       d.OnFile,
		logger:       d.Logger,
		now:          d.Now,
		newID:        d.NewID,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.New().String() }
	}
	if e.generator == nil {
		e.generator = outfit.NewGenerator(outfit.DefaultConfig())
	}
	if e.recommender == nil {
		e.recommender = recommend.NewService(nil, e.generator, e.logger)
	}
	if e.batch == nil {
		e.batch = batch.New(batch.DefaultInitialWindow, e.logger)
	}
	if e.locator == nil {
		e.locator = NoLocator{}
	}
	if e.mode == "" {
		e.mode = recommend.ModeAI
	}
	if e.onFile == nil {
		e.onFile = func(string, int, string) {}
	}
	return e
}

// Store exposes the underlying state holder
func (e *Engine) Store() *store.Store {
	return e.store
}

// CanGenerate reports whether the wardrobe meets the minimum composition
func (e *Engine) CanGenerate() bool {
	return e.generator.CanGenerate(e.store.Snapshot().Wardrobe)
}

// MissingItems reports how many more items of each kind the wardrobe needs
func (e *Engine) MissingItems() map[string]int {
	return e.generator.Requirements().Missing(e.store.Snapshot().Wardrobe)
}
