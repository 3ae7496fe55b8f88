package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PrintScout/internal/domain"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func item(id string) domain.ContentItem {
	return domain.ContentItem{ItemID: id, ShortCode: id, Owner: "someone"}
}

func TestMarkAndMembership(t *testing.T) {
	t.Parallel()

	l := New(nil, fixedClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}, nil)

	assert.False(t, l.IsProcessed("A"))
	l.MarkProcessed(item("A"), domain.StatusAccepted, &domain.AnalysisSummary{OverallScore: 0.8}, "/tmp/a.jpg")
	assert.True(t, l.IsProcessed("A"))
	assert.Equal(t, 1, l.AcceptedCount())

	// Marking again overwrites the previous outcome.
	l.MarkProcessed(item("A"), domain.StatusRejected, nil, "")
	assert.True(t, l.IsProcessed("A"))
	assert.Equal(t, 0, l.AcceptedCount())

	stats := l.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Rejected)
}

func TestUnprocessedPreservesOrder(t *testing.T) {
	t.Parallel()

	l := New(nil, nil, nil)
	l.MarkProcessed(item("B"), domain.StatusError, nil, "")

	fresh := l.Unprocessed([]domain.ContentItem{item("A"), item("B"), item("C")})
	require.Len(t, fresh, 2)
	assert.Equal(t, "A", fresh[0].ItemID)
	assert.Equal(t, "C", fresh[1].ItemID)
}

func TestStatsAcceptanceRate(t *testing.T) {
	t.Parallel()

	l := New(nil, nil, nil)
	l.MarkProcessed(item("A"), domain.StatusAccepted, nil, "")
	l.MarkProcessed(item("B"), domain.StatusAccepted, nil, "")
	l.MarkProcessed(item("C"), domain.StatusRejected, nil, "")
	l.MarkProcessed(item("D"), domain.StatusError, nil, "")

	stats := l.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Accepted)
	assert.InDelta(t, 0.5, stats.AcceptanceRate, 1e-9)
}

func TestCleanupRemovesOldAndUnparseable(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	l := New(nil, fixedClock{t: now}, nil)

	l.entries["old"] = domain.LedgerEntry{ItemID: "old", Status: domain.StatusRejected, ProcessedAt: now.AddDate(0, 0, -40)}
	l.entries["fresh"] = domain.LedgerEntry{ItemID: "fresh", Status: domain.StatusAccepted, ProcessedAt: now.AddDate(0, 0, -5)}
	// Zero timestamp stands in for an entry whose stored time failed to parse.
	l.entries["broken"] = domain.LedgerEntry{ItemID: "broken", Status: domain.StatusError}

	removed := l.Cleanup(30)
	assert.Equal(t, 2, removed)
	assert.False(t, l.IsProcessed("old"))
	assert.False(t, l.IsProcessed("broken"))
	assert.True(t, l.IsProcessed("fresh"))
}

func TestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/ledger.db"

	l, err := Open(path, nil, nil)
	require.NoError(t, err)
	l.MarkProcessed(item("A"), domain.StatusAccepted, &domain.AnalysisSummary{OverallScore: 0.9, CategoryScores: map[string]float64{"landscape": 1.2}}, "/tmp/a.jpg")
	l.MarkProcessed(item("B"), domain.StatusRejected, nil, "")
	require.NoError(t, l.Close())

	reopened, err := Open(path, nil, nil)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.IsProcessed("A"))
	assert.True(t, reopened.IsProcessed("B"))
	assert.Equal(t, 1, reopened.AcceptedCount())

	stats := reopened.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Rejected)
}
