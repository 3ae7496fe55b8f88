package analysis

import (
	"fmt"

	"PrintScout/internal/config"
	"PrintScout/internal/domain"
)

// Rejection reasons are machine-readable prefixes; threshold reasons embed both
// the observed and required values.
const ReasonVideoThumbnail = "video thumbnail"

// Decide applies the configured thresholds to an analysis and returns the
// accept/reject verdict with the reason for the first failing check. Checks run
// cheapest-and-most-decisive first: video thumbnail, then quality, then
// category (only when wanted categories are given), then overall.
func Decide(a domain.Analysis, wantedCategories []string, cfg config.ScoringConfig) (bool, string) {
	if a.IsVideoThumbnail {
		return false, ReasonVideoThumbnail
	}

	if a.QualityScore < cfg.MinQuality {
		return false, fmt.Sprintf("quality score %.3f < %.2f", a.QualityScore, cfg.MinQuality)
	}

	if len(wantedCategories) > 0 {
		best := 0.0
		for _, name := range wantedCategories {
			if m, ok := a.CategoryMatches[name]; ok && m.Score > best {
				best = m.Score
			}
		}
		if best < cfg.MinCategory {
			return false, fmt.Sprintf("category score %.3f < %.2f", best, cfg.MinCategory)
		}
	}

	if a.OverallScore < cfg.MinOverall {
		return false, fmt.Sprintf("overall score %.3f < %.2f", a.OverallScore, cfg.MinOverall)
	}

	return true, ""
}
