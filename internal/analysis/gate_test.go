package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PrintScout/internal/domain"
)

func passingAnalysis() domain.Analysis {
	return domain.Analysis{
		QualityScore:     0.8,
		PrintSuitability: 0.7,
		OverallScore:     0.75,
		CategoryMatches: map[string]domain.CategoryMatch{
			"landscape": {Score: 1.1, MatchCount: 2},
			"sunset":    {Score: 0.2, MatchCount: 1},
		},
	}
}

func TestDecideAccepts(t *testing.T) {
	t.Parallel()

	ok, reason := Decide(passingAnalysis(), []string{"landscape"}, scoringDefaults())
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestDecideVideoThumbnailTakesPrecedence(t *testing.T) {
	t.Parallel()

	a := passingAnalysis()
	a.IsVideoThumbnail = true

	// All score thresholds pass, yet the video verdict must win and the reason
	// must never be score-based.
	ok, reason := Decide(a, []string{"landscape"}, scoringDefaults())
	assert.False(t, ok)
	assert.Equal(t, ReasonVideoThumbnail, reason)
}

func TestDecideQualityBeforeCategory(t *testing.T) {
	t.Parallel()

	a := passingAnalysis()
	a.QualityScore = 0.1
	a.CategoryMatches = nil // category would also fail

	ok, reason := Decide(a, []string{"landscape"}, scoringDefaults())
	assert.False(t, ok)
	assert.Equal(t, "quality score 0.100 < 0.50", reason)
}

func TestDecideCategoryThreshold(t *testing.T) {
	t.Parallel()

	a := passingAnalysis()

	// Only the weak category is wanted.
	ok, reason := Decide(a, []string{"sunset"}, scoringDefaults())
	assert.False(t, ok)
	assert.Equal(t, "category score 0.200 < 0.50", reason)

	// Absent categories count as zero.
	ok, reason = Decide(a, []string{"water"}, scoringDefaults())
	assert.False(t, ok)
	assert.Equal(t, "category score 0.000 < 0.50", reason)

	// No wanted categories: the check is skipped entirely.
	ok, _ = Decide(a, nil, scoringDefaults())
	assert.True(t, ok)
}

func TestDecideOverallThreshold(t *testing.T) {
	t.Parallel()

	a := passingAnalysis()
	a.OverallScore = 0.55

	ok, reason := Decide(a, []string{"landscape"}, scoringDefaults())
	assert.False(t, ok)
	assert.Equal(t, "overall score 0.550 < 0.60", reason)
}
