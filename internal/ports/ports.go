package ports

import (
	"context"
	"time"

	"PrintScout/internal/domain"
)

// PostSource pulls batches of raw posts from an upstream scraping provider.
type PostSource interface {
	FetchPosts(ctx context.Context, profileURLs []string, maxPerProfile int) ([]domain.ContentItem, error)
}

// Ledger persists per-item processing outcomes for deduplication/history.
// MarkProcessed is an overwrite-by-key upsert; persistence failures are logged
// by implementations, never surfaced to the caller.
type Ledger interface {
	IsProcessed(itemID string) bool
	MarkProcessed(item domain.ContentItem, status domain.ProcessingStatus, analysis *domain.AnalysisSummary, localPath string)
	Unprocessed(items []domain.ContentItem) []domain.ContentItem
	AcceptedCount() int
	Stats() domain.LedgerStats
	Cleanup(olderThanDays int) int
}

// Classifier sends image bytes to an external vision service and returns
// labels and localized objects. It is an optional collaborator: the scorer
// degrades to geometry-only scoring when the classifier is nil or errors.
type Classifier interface {
	Classify(ctx context.Context, imageData []byte) (labels, objects []domain.LabelScore, err error)
}

// ObjectStore persists bytes under keys (cloud bucket or local filesystem).
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	Available() bool
}

// Listing is the outcome of a publishing attempt.
type Listing struct {
	ListingID string
	Published bool
}

// Publisher creates and optionally publishes a print-on-demand listing from a
// final image and metadata.
type Publisher interface {
	CreateListing(ctx context.Context, imagePath, title, description string, tags []string, priceMultiplier float64) (Listing, error)
}

// Downloader fetches image bytes from a URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Pacer blocks between controller iterations to respect upstream rate limits.
// Implementations must honor context cancellation.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}
