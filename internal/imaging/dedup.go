package imaging

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// nearDuplicateThreshold is the maximum Hamming distance between two dHash
// values below which frames are considered perceptually identical.
const nearDuplicateThreshold = 10

// DuplicateGuard filters perceptually near-identical frames within a single
// run. It is safe for concurrent use.
type DuplicateGuard struct {
	mu     sync.Mutex
	hashes []*goimagehash.ImageHash
}

// NewDuplicateGuard returns an empty guard.
func NewDuplicateGuard() *DuplicateGuard {
	return &DuplicateGuard{}
}

// Seen reports whether img is perceptually identical to a previously accepted
// frame. Hashing failures degrade to "not seen" so the item is kept. A new
// unique frame is remembered for later comparisons.
func (g *DuplicateGuard) Seen(img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, h := range g.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < nearDuplicateThreshold {
			return true
		}
	}

	g.hashes = append(g.hashes, hash)
	return false
}
