package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveItemID(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)

	t.Run("short code wins", func(t *testing.T) {
		t.Parallel()
		id := DeriveItemID("Cabc123", "9999", "https://cdn.example.com/a.jpg", now)
		assert.Equal(t, "Cabc123", id)
	})

	t.Run("post id when no short code", func(t *testing.T) {
		t.Parallel()
		id := DeriveItemID("", "9999", "https://cdn.example.com/a.jpg", now)
		assert.Equal(t, "9999", id)
	})

	t.Run("display url hash is deterministic", func(t *testing.T) {
		t.Parallel()
		a := DeriveItemID("", "", "https://cdn.example.com/a.jpg", now)
		b := DeriveItemID("", "", "https://cdn.example.com/a.jpg", now.Add(time.Hour))
		assert.Equal(t, a, b)
		assert.Len(t, a, 12)
	})

	t.Run("timestamp fallback", func(t *testing.T) {
		t.Parallel()
		id := DeriveItemID("", "", "", now)
		assert.Equal(t, "unknown_1700000000", id)
	})
}

func TestParseHashtags(t *testing.T) {
	t.Parallel()

	tags := ParseHashtags("golden hour over the ridge #sunset #mountains #landscape_photo")
	assert.Equal(t, []string{"#sunset", "#mountains", "#landscape_photo"}, tags)

	assert.Nil(t, ParseHashtags(""))
	assert.Nil(t, ParseHashtags("no tags here"))
	// A bare "#" is not a hashtag.
	assert.Nil(t, ParseHashtags("stray # symbol"))
}

func TestAnalysisSummary(t *testing.T) {
	t.Parallel()

	a := &Analysis{
		QualityScore: 0.7,
		OverallScore: 0.8,
		CategoryMatches: map[string]CategoryMatch{
			"landscape": {Score: 1.4, MatchCount: 3},
		},
	}

	s := a.Summary()
	assert.Equal(t, 0.8, s.OverallScore)
	assert.Equal(t, 0.7, s.QualityScore)
	assert.False(t, s.IsVideoThumbnail)
	assert.Equal(t, 1.4, s.CategoryScores["landscape"])

	assert.Equal(t, 1.4, a.BestCategoryScore())

	var nilAnalysis *Analysis
	assert.Nil(t, nilAnalysis.Summary())
}
