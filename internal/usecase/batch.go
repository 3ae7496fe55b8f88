package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"PrintScout/internal/analysis"
	"PrintScout/internal/config"
	"PrintScout/internal/domain"
	"PrintScout/internal/imaging"
	"PrintScout/internal/ports"
)

// Rejection reasons produced by the controller's pre-analysis filters.
const (
	reasonNotLandscape  = "not landscape"
	reasonNearDuplicate = "near-duplicate"
)

// Analyzer scores raw image bytes. Satisfied by the analysis scorer.
type Analyzer interface {
	Analyze(ctx context.Context, data []byte, filename string) domain.Analysis
}

// BatchDeps wires all driven adapters into the acquisition controller.
type BatchDeps struct {
	Source     ports.PostSource
	Ledger     ports.Ledger
	Downloader ports.Downloader
	Analyzer   Analyzer
	Store      ports.ObjectStore
	Pacer      ports.Pacer
	Clock      ports.Clock
}

// BatchProcessor iterates scrape rounds until enough images are accepted or
// the iteration budget runs out. Falling short of the target is a normal
// terminal state reported in the result, never an error.
type BatchProcessor struct {
	source     ports.PostSource
	ledger     ports.Ledger
	downloader ports.Downloader
	analyzer   Analyzer
	store      ports.ObjectStore
	pacer      ports.Pacer
	clock      ports.Clock
	cfg        config.Config
	logger     *slog.Logger
}

// NewBatchProcessor constructs the controller.
func NewBatchProcessor(deps BatchDeps, cfg config.Config, logger *slog.Logger) *BatchProcessor {
	return &BatchProcessor{
		source:     deps.Source,
		ledger:     deps.Ledger,
		downloader: deps.Downloader,
		analyzer:   deps.Analyzer,
		store:      deps.Store,
		pacer:      deps.Pacer,
		clock:      deps.Clock,
		cfg:        cfg,
		logger:     logger,
	}
}

type itemOutcome struct {
	status     domain.ProcessingStatus
	reason     string
	analysis   *domain.Analysis
	localPath  string
	storageKey string
	err        error
}

// Run executes one acquisition batch. Missing required configuration is
// reported before the first scrape round.
func (p *BatchProcessor) Run(ctx context.Context) (domain.BatchResult, error) {
	batch := p.cfg.Batch
	if len(batch.Profiles) == 0 {
		return domain.BatchResult{}, fmt.Errorf("no scrape profiles configured")
	}
	if p.cfg.Scraper.Provider == "apify" && p.cfg.Scraper.Token == "" {
		return domain.BatchResult{}, fmt.Errorf("apify provider selected but no api token configured")
	}
	started := p.now()

	existing := 0
	if p.ledger != nil {
		existing = p.ledger.AcceptedCount()
	}

	result := domain.BatchResult{
		RunID:            uuid.NewString(),
		TargetCount:      batch.TargetCount,
		ExistingAccepted: existing,
		AcceptedCount:    existing,
		StartedAt:        started,
	}

	p.info("batch started",
		"runId", result.RunID,
		"target", batch.TargetCount,
		"existingAccepted", existing,
		"profiles", len(batch.Profiles))

	var guard *imaging.DuplicateGuard
	if batch.NearDuplicateGuard {
		guard = imaging.NewDuplicateGuard()
	}

	for i := 1; i <= batch.MaxIterations && result.AcceptedCount < batch.TargetCount; i++ {
		stats := p.runIteration(ctx, i, guard, &result)
		result.TotalScraped += stats.Scraped
		result.TotalProcessed += stats.Processed
		result.Iterations = append(result.Iterations, stats)

		if result.AcceptedCount >= batch.TargetCount || i == batch.MaxIterations {
			break
		}
		if p.pacer != nil {
			if err := p.pacer.Wait(ctx); err != nil {
				p.warn("pause interrupted, stopping batch", "error", err)
				break
			}
		}
	}

	result.Success = result.AcceptedCount >= batch.TargetCount
	result.Elapsed = p.now().Sub(started)

	p.persistResult(&result)
	p.info("batch finished",
		"runId", result.RunID,
		"success", result.Success,
		"accepted", result.AcceptedCount,
		"new", result.NewAccepted,
		"scraped", result.TotalScraped,
		"processed", result.TotalProcessed)

	return result, nil
}

func (p *BatchProcessor) runIteration(ctx context.Context, iteration int, guard *imaging.DuplicateGuard, result *domain.BatchResult) domain.IterationStats {
	batch := p.cfg.Batch
	iterStart := p.now()
	stats := domain.IterationStats{Iteration: iteration}

	items, err := p.source.FetchPosts(ctx, batch.Profiles, batch.ItemsPerIteration)
	if err != nil {
		p.warn("scrape round failed", "iteration", iteration, "error", err)
		stats.ScrapeError = err.Error()
		stats.Elapsed = p.now().Sub(iterStart)
		return stats
	}
	stats.Scraped = len(items)

	// Upstream video posts are dropped before dedup so a later image repost
	// under the same id is still eligible.
	stills := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		if !item.IsVideo {
			stills = append(stills, item)
		}
	}

	fresh := stills
	if p.ledger != nil {
		fresh = p.ledger.Unprocessed(stills)
	}

	p.info("iteration scraped",
		"iteration", iteration, "items", len(items),
		"stills", len(stills), "fresh", len(fresh))

	// The target is only checked between iterations. Every fresh item in a
	// scraped round is analyzed and ledgered, even once the target is met,
	// so a rerun never re-downloads the overflow.
	for _, item := range fresh {
		outcome := p.processItem(ctx, item, guard)
		stats.Processed++

		if p.ledger != nil {
			p.ledger.MarkProcessed(item, outcome.status, outcome.analysis.Summary(), outcome.localPath)
		}

		switch outcome.status {
		case domain.StatusAccepted:
			stats.Accepted++
			result.AcceptedCount++
			result.NewAccepted++
			result.Accepted = append(result.Accepted, domain.AcceptedItem{
				ItemID:       item.ItemID,
				Owner:        item.Owner,
				LocalPath:    outcome.localPath,
				StorageKey:   outcome.storageKey,
				OverallScore: outcome.analysis.OverallScore,
				QualityScore: outcome.analysis.QualityScore,
			})
			p.info("item accepted", "itemId", item.ItemID, "overall", outcome.analysis.OverallScore)
		case domain.StatusRejected:
			p.info("item rejected", "itemId", item.ItemID, "reason", outcome.reason)
		case domain.StatusError:
			p.warn("item failed", "itemId", item.ItemID, "error", outcome.err)
		}
	}

	stats.Elapsed = p.now().Sub(iterStart)
	return stats
}

// processItem runs download, filtering, analysis, and acceptance for one item.
// Failures are captured as error outcomes so one bad item never stops the run.
func (p *BatchProcessor) processItem(ctx context.Context, item domain.ContentItem, guard *imaging.DuplicateGuard) itemOutcome {
	if item.DisplayURL == "" {
		return itemOutcome{status: domain.StatusError, err: fmt.Errorf("item %s has no image url", item.ItemID)}
	}

	data, err := p.downloader.Download(ctx, item.DisplayURL)
	if err != nil {
		return itemOutcome{status: domain.StatusError, err: fmt.Errorf("download: %w", err)}
	}

	if p.cfg.Batch.LandscapeOnly {
		if w, h, dimErr := imaging.Dimensions(data); dimErr == nil {
			if !imaging.IsLandscape(w, h, p.cfg.Batch.MinLandscapeRatio) {
				return itemOutcome{status: domain.StatusRejected, reason: reasonNotLandscape}
			}
		}
	}

	a := p.analyzer.Analyze(ctx, data, filenameFromURL(item.DisplayURL))

	accepted, reason := analysis.Decide(a, p.cfg.Batch.Categories, p.cfg.Scoring)
	if !accepted {
		return itemOutcome{status: domain.StatusRejected, reason: reason, analysis: &a}
	}

	if guard != nil {
		if img, _, decErr := imaging.Decode(data); decErr == nil && guard.Seen(img) {
			return itemOutcome{status: domain.StatusRejected, reason: reasonNearDuplicate, analysis: &a}
		}
	}

	localPath, err := imaging.SaveOriginal(p.cfg.Storage.OriginalsDir(), item.ItemID, data)
	if err != nil {
		return itemOutcome{status: domain.StatusError, analysis: &a, err: fmt.Errorf("save original: %w", err)}
	}

	storageKey := ""
	if p.store != nil && p.store.Available() {
		key := "original/" + filepath.Base(localPath)
		if putErr := p.store.Put(ctx, key, data, "image/jpeg"); putErr != nil {
			p.warn("object upload failed", "itemId", item.ItemID, "key", key, "error", putErr)
		} else {
			storageKey = key
		}
	}

	return itemOutcome{
		status:     domain.StatusAccepted,
		analysis:   &a,
		localPath:  localPath,
		storageKey: storageKey,
	}
}

// persistResult writes the batch record as JSON. A write failure only logs;
// the in-memory result is still returned to the caller.
func (p *BatchProcessor) persistResult(result *domain.BatchResult) {
	dir := p.cfg.Storage.BatchResultsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.warn("cannot create batch results dir", "dir", dir, "error", err)
		return
	}

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		p.warn("cannot marshal batch result", "runId", result.RunID, "error", err)
		return
	}

	file := filepath.Join(dir, "batch_"+result.RunID+".json")
	if err := os.WriteFile(file, raw, 0o644); err != nil {
		p.warn("cannot write batch result", "file", file, "error", err)
	}
}

func filenameFromURL(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}

func (p *BatchProcessor) now() time.Time {
	if p.clock != nil {
		return p.clock.Now()
	}
	return time.Now()
}

func (p *BatchProcessor) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *BatchProcessor) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
