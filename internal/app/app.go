package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"PrintScout/internal/analysis"
	"PrintScout/internal/config"
	"PrintScout/internal/domain"
	"PrintScout/internal/imaging"
	"PrintScout/internal/infrastructure/apify"
	"PrintScout/internal/infrastructure/gcs"
	"PrintScout/internal/infrastructure/ledger"
	"PrintScout/internal/infrastructure/localfs"
	"PrintScout/internal/infrastructure/printify"
	"PrintScout/internal/infrastructure/vision"
	"PrintScout/internal/logging"
	"PrintScout/internal/ports"
	"PrintScout/internal/processing"
	"PrintScout/internal/source"
	"PrintScout/internal/usecase"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Application wires configuration to use cases and owns shared resources.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	ledger  *ledger.Ledger
	batch   *usecase.BatchProcessor
	publish *usecase.PublishWorkflow
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	clock := systemClock{}

	led, err := ledger.Open(cfg.Storage.LedgerPath(), clock, baseLogger.With("component", "ledger"))
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	registry := source.NewRegistry()
	registry.Register(apify.NewClient(cfg.Scraper, clock, baseLogger.With("component", "scraper")))
	postSource := source.NewStrategySource(registry, cfg.Scraper.Provider, baseLogger.With("component", "source"))

	downloader := imaging.NewHTTPDownloader(nil, baseLogger.With("component", "downloader"))

	var classifier ports.Classifier
	if cfg.Vision.Enabled {
		client, visionErr := vision.NewClient(ctx, cfg.Vision, baseLogger.With("component", "vision"))
		if visionErr != nil {
			baseLogger.Warn("vision unavailable, geometry-only scoring", "error", visionErr)
		} else {
			classifier = vision.NewCachedClassifier(client, time.Duration(cfg.Vision.CacheTTLMinutes)*time.Minute)
		}
	}

	detector := analysis.NewDetector(baseLogger.With("component", "detector"))
	scorer := analysis.NewScorer(detector, classifier, cfg.Scoring, baseLogger.With("component", "scorer"))

	store := objectStore(ctx, cfg, baseLogger)

	pause := cfg.Batch.PauseSeconds
	if pause <= 0 {
		pause = 2
	}
	pacer := rate.NewLimiter(rate.Every(time.Duration(pause)*time.Second), 1)

	batch := usecase.NewBatchProcessor(usecase.BatchDeps{
		Source:     postSource,
		Ledger:     led,
		Downloader: downloader,
		Analyzer:   scorer,
		Store:      store,
		Pacer:      pacer,
		Clock:      clock,
	}, cfg, baseLogger.With("component", "batch"))

	var publish *usecase.PublishWorkflow
	if cfg.Printify.Token != "" && cfg.Printify.ShopID != "" {
		publish = usecase.NewPublishWorkflow(usecase.PublishDeps{
			Publisher: printify.NewClient(cfg.Printify, baseLogger.With("component", "printify")),
			Processor: processing.NewProcessor(baseLogger.With("component", "processing")),
			Store:     store,
		}, cfg, baseLogger.With("component", "publish"))
	}

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		ledger:  led,
		batch:   batch,
		publish: publish,
	}, nil
}

// objectStore prefers the configured bucket and falls back to local disk when
// the bucket is missing or unreachable.
func objectStore(ctx context.Context, cfg config.Config, logger *slog.Logger) ports.ObjectStore {
	if cfg.Storage.Bucket != "" {
		store, err := gcs.NewStore(ctx, cfg.Storage, logger.With("component", "gcs"))
		if err != nil {
			logger.Warn("cloud storage unavailable", "error", err)
		} else if store.Available() {
			return store
		}
	}

	local, err := localfs.NewStore(filepath.Join(cfg.Storage.BaseDir, "objects"))
	if err != nil {
		logger.Warn("local object store unavailable", "error", err)
		return nil
	}
	return local
}

// RunBatch executes one acquisition batch.
func (a *Application) RunBatch(ctx context.Context) (domain.BatchResult, error) {
	return a.batch.Run(ctx)
}

// Cleanup sweeps ledger entries older than the given age in days.
func (a *Application) Cleanup(olderThanDays int) int {
	return a.ledger.Cleanup(olderThanDays)
}

// Stats reports ledger statistics.
func (a *Application) Stats() domain.LedgerStats {
	return a.ledger.Stats()
}

// Publish runs the publishing workflow over the given image files.
func (a *Application) Publish(ctx context.Context, paths []string, opts usecase.PublishOptions) (usecase.PublishReport, error) {
	if a.publish == nil {
		return usecase.PublishReport{}, fmt.Errorf("publishing is not configured (token and shop id required)")
	}
	return a.publish.PublishFiles(ctx, paths, opts)
}

// Close releases held resources.
func (a *Application) Close() error {
	return a.ledger.Close()
}
