package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"PrintScout/internal/config"
	"PrintScout/internal/imaging"
	"PrintScout/internal/ports"
	"PrintScout/internal/processing"
)

// PublishDeps wires the driven adapters of the publishing workflow.
type PublishDeps struct {
	Publisher ports.Publisher
	Processor *processing.Processor
	Store     ports.ObjectStore
}

// PublishOptions selects the print preset for a publishing run.
type PublishOptions struct {
	SizeName     string
	MaterialName string
	Fit          processing.FitMode
	TitlePrefix  string
	Tags         []string
}

// PublishedItem records one publishing attempt.
type PublishedItem struct {
	SourcePath    string
	ProcessedPath string
	Listing       ports.Listing
	Err           error
}

// PublishReport aggregates a publishing run. Per-item failures are collected,
// not fatal.
type PublishReport struct {
	Items     []PublishedItem
	Succeeded int
	Failed    int
}

// PublishWorkflow turns accepted originals into print-ready renders and
// creates listings for them.
type PublishWorkflow struct {
	publisher ports.Publisher
	processor *processing.Processor
	store     ports.ObjectStore
	cfg       config.Config
	logger    *slog.Logger
}

// NewPublishWorkflow constructs the workflow.
func NewPublishWorkflow(deps PublishDeps, cfg config.Config, logger *slog.Logger) *PublishWorkflow {
	return &PublishWorkflow{
		publisher: deps.Publisher,
		processor: deps.Processor,
		store:     deps.Store,
		cfg:       cfg,
		logger:    logger,
	}
}

// PublishFiles processes and lists each image file. A bad file fails only its
// own entry.
func (w *PublishWorkflow) PublishFiles(ctx context.Context, paths []string, opts PublishOptions) (PublishReport, error) {
	if w.publisher == nil {
		return PublishReport{}, fmt.Errorf("no publisher configured")
	}

	if opts.SizeName == "" {
		opts.SizeName = "18x24"
	}
	if opts.MaterialName == "" {
		opts.MaterialName = "matte"
	}
	if opts.Fit == "" {
		opts.Fit = processing.FitContain
	}
	if opts.TitlePrefix == "" {
		opts.TitlePrefix = "Landscape Wall Art"
	}

	size, err := processing.SizeByName(opts.SizeName)
	if err != nil {
		return PublishReport{}, err
	}
	material, err := processing.MaterialByName(opts.MaterialName)
	if err != nil {
		return PublishReport{}, err
	}

	var report PublishReport
	for _, p := range paths {
		item := w.publishOne(ctx, p, size, material, opts)
		report.Items = append(report.Items, item)
		if item.Err != nil {
			report.Failed++
			if w.logger != nil {
				w.logger.Warn("publish failed", "path", p, "error", item.Err)
			}
			continue
		}
		report.Succeeded++
		if w.logger != nil {
			w.logger.Info("listing created",
				"path", p, "listingId", item.Listing.ListingID, "published", item.Listing.Published)
		}
	}
	return report, nil
}

func (w *PublishWorkflow) publishOne(ctx context.Context, sourcePath string, size processing.PrintSize, material processing.Material, opts PublishOptions) PublishedItem {
	item := PublishedItem{SourcePath: sourcePath}

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		item.Err = fmt.Errorf("reading source: %w", err)
		return item
	}

	img, _, err := imaging.Decode(raw)
	if err != nil {
		item.Err = err
		return item
	}

	render, err := w.processor.Prepare(img, size, material, opts.Fit)
	if err != nil {
		item.Err = fmt.Errorf("preparing render: %w", err)
		return item
	}

	encoded, ext, err := processing.Encode(render, material)
	if err != nil {
		item.Err = err
		return item
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	processedDir := w.cfg.Storage.ProcessedDir()
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		item.Err = fmt.Errorf("creating %s: %w", processedDir, err)
		return item
	}
	processedPath := filepath.Join(processedDir, fmt.Sprintf("%s_%s_%s%s", base, size.Name, material.Name, ext))
	if err := os.WriteFile(processedPath, encoded, 0o644); err != nil {
		item.Err = fmt.Errorf("writing render: %w", err)
		return item
	}
	item.ProcessedPath = processedPath

	if w.store != nil && w.store.Available() {
		key := "processed/" + filepath.Base(processedPath)
		if putErr := w.store.Put(ctx, key, encoded, "image/"+strings.TrimPrefix(ext, ".")); putErr != nil && w.logger != nil {
			w.logger.Warn("render upload failed", "key", key, "error", putErr)
		}
	}

	title := fmt.Sprintf("%s %s (%s)", opts.TitlePrefix, base, size.Name)
	description := fmt.Sprintf("Premium %s print, %s inches.", material.Name, size.Name)
	if attr := imaging.ExtractAttribution(raw); attr != nil && attr.Artist != "" {
		description += " Photo credit: " + attr.Artist + "."
	}

	listing, err := w.publisher.CreateListing(ctx, processedPath, title, description, opts.Tags, w.cfg.Printify.PriceMultiplier)
	if err != nil {
		item.Err = fmt.Errorf("creating listing: %w", err)
		return item
	}
	item.Listing = listing
	return item
}
