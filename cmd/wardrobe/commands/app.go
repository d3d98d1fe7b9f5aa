// Package commands implements the wardrobe CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/benvon/smart-wardrobe/internal/apiclient"
	"github.com/benvon/smart-wardrobe/internal/batch"
	"github.com/benvon/smart-wardrobe/internal/config"
	"github.com/benvon/smart-wardrobe/internal/database"
	"github.com/benvon/smart-wardrobe/internal/engine"
	"github.com/benvon/smart-wardrobe/internal/imagestore"
	"github.com/benvon/smart-wardrobe/internal/imaging"
	"github.com/benvon/smart-wardrobe/internal/imaging/bgremoval"
	"github.com/benvon/smart-wardrobe/internal/logger"
	"github.com/benvon/smart-wardrobe/internal/outfit"
	"github.com/benvon/smart-wardrobe/internal/recommend"
	"github.com/benvon/smart-wardrobe/internal/store"
)

// redisKeyPrefix namespaces state blobs in a shared Redis
const redisKeyPrefix = "wardrobe:"

// App is the composition root shared by every subcommand
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  *store.Store
	Engine *engine.Engine

	closers []func()
}

// openApp loads configuration, connects the configured backends and
// rehydrates the persisted state
func openApp(cmd *cobra.Command) (*App, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	debug = debug || cfg.ClientDebugMode
	zapLogger := logger.NewCLILogger(debug, term.IsTerminal(int(os.Stderr.Fd())))

	app := &App{Config: cfg, Logger: zapLogger}
	app.closers = append(app.closers, func() { _ = logger.Sync(zapLogger) })

	blobs, err := app.openBlobStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	images, err := openImageStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Store = store.New(blobs, zapLogger, store.WithMaxQueueSize(cfg.MaxQueueSize))
	if err := app.Store.Load(ctx); err != nil {
		app.Close()
		return nil, err
	}

	worker := bgremoval.NewWorker(bgremoval.NewBorderSegmenter(), zapLogger)
	worker.Start(context.WithoutCancel(ctx))
	app.closers = append(app.closers, worker.Close)

	client := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, zapLogger)
	generator := outfit.NewGenerator(outfit.Config{
		Requirements: outfit.Requirements{
			MinTops:    cfg.MinTops,
			MinBottoms: cfg.MinBottoms,
			MinShoes:   cfg.MinShoes,
			MinTotal:   cfg.MinTotal,
		},
		Seed: cfg.GeneratorSeed,
	})

	app.Engine = engine.New(engine.Deps{
		Store:        app.Store,
		WeatherCache: store.NewWeatherCache(blobs, store.DefaultWeatherTTL),
		Weather:      client,
		Analyzer:     client,
		Generator:    generator,
		Recommender:  recommend.NewService(recommend.NewAdapter(client), generator, zapLogger),
		Pipeline:     imaging.NewPipeline(bgremoval.NewChannel(worker), zapLogger, imaging.WithBackgroundTimeout(cfg.BackgroundTimeout)),
		Batch:        batch.New(cfg.BatchWindow, zapLogger),
		Images:       images,
		Locator:      engine.StaticLocator{Latitude: cfg.DeviceLatitude, Longitude: cfg.DeviceLongitude},
		Mode:         recommend.Mode(cfg.RecommendMode),
		Logger:       zapLogger,
	})
	return app, nil
}

func (a *App) openBlobStore(ctx context.Context) (store.BlobStore, error) {
	switch a.Config.StateBackend {
	case config.BackendRedis:
		client, err := database.ConnectRedis(ctx, a.Config.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return store.NewRedisBlobStore(client, redisKeyPrefix), nil
	case config.BackendPostgres:
		db, err := database.Open(ctx, a.Config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		return database.NewStateBlobRepository(db), nil
	default:
		blobs, err := store.NewFileBlobStore(a.Config.StateDir)
		if err != nil {
			return nil, err
		}
		return blobs, nil
	}
}

func openImageStore(ctx context.Context, cfg *config.Config) (imagestore.Store, error) {
	if cfg.ImageBackend == config.BackendS3 {
		s3Store, err := imagestore.NewS3StoreFromEnv(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	}
	fsStore, err := imagestore.NewFSStore(cfg.ImageDir)
	if err != nil {
		return nil, err
	}
	return fsStore, nil
}

// Close releases backends in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// withApp opens the app for the duration of fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, app)
}
