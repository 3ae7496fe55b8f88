package vision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"PrintScout/internal/domain"
	"PrintScout/internal/ports"
)

type cachedResult struct {
	labels  []domain.LabelScore
	objects []domain.LabelScore
}

// CachedClassifier memoizes classifier responses by image content hash so a
// frame seen twice in one run costs a single API call. Errors are not cached.
type CachedClassifier struct {
	inner ports.Classifier
	cache *gocache.Cache
}

var _ ports.Classifier = (*CachedClassifier)(nil)

// NewCachedClassifier wraps inner with a TTL cache.
func NewCachedClassifier(inner ports.Classifier, ttl time.Duration) *CachedClassifier {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedClassifier{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Classify returns the cached result for identical image bytes, delegating to
// the inner classifier on a miss.
func (c *CachedClassifier) Classify(ctx context.Context, imageData []byte) ([]domain.LabelScore, []domain.LabelScore, error) {
	sum := sha256.Sum256(imageData)
	key := hex.EncodeToString(sum[:])

	if v, ok := c.cache.Get(key); ok {
		r := v.(cachedResult)
		return r.labels, r.objects, nil
	}

	labels, objects, err := c.inner.Classify(ctx, imageData)
	if err != nil {
		return nil, nil, err
	}

	c.cache.Set(key, cachedResult{labels: labels, objects: objects}, gocache.DefaultExpiration)
	return labels, objects, nil
}
