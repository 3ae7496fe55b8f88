package analysis

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"math"
	"strings"

	"PrintScout/internal/config"
	"PrintScout/internal/domain"
	"PrintScout/internal/ports"
)

// Category is one named content theme with tiered keywords. Primary keyword
// hits carry full label confidence, secondary and related-object hits are
// discounted, and the summed score is multiplied by the category weight.
type Category struct {
	Name      string
	Primary   []string
	Secondary []string
	Related   []string
	Weight    float64
}

const (
	primaryTierWeight   = 1.0
	secondaryTierWeight = 0.6
	relatedTierWeight   = 0.3
)

// Quality-score references: a 1080p frame for resolution, 1200px for the
// shortest side.
const (
	referencePixels  = 1920 * 1080
	referenceMinSide = 1200.0
)

// Print-suitability references: 150 DPI floor, 24-inch target print edge, and
// the category-match floor below which content contributes nothing.
const (
	printDPI            = 150.0
	referencePrintInch  = 24.0
	strongCategoryFloor = 0.5
)

// DefaultTaxonomy returns the built-in landscape-photography categories.
func DefaultTaxonomy() []Category {
	return []Category{
		{
			Name:      "landscape",
			Primary:   []string{"landscape", "mountain", "valley", "horizon", "countryside", "scenic", "vista", "panorama"},
			Secondary: []string{"nature", "outdoor", "field", "hill", "meadow", "plain", "terrain"},
			Related:   []string{"tree", "rock", "grass", "sky", "cloud"},
			Weight:    1.0,
		},
		{
			Name:      "sunset",
			Primary:   []string{"sunset", "sunrise", "golden hour", "dusk", "dawn", "twilight"},
			Secondary: []string{"orange", "golden", "warm light", "evening", "morning"},
			Related:   []string{"sun", "sky", "cloud", "horizon"},
			Weight:    1.0,
		},
		{
			Name:      "water",
			Primary:   []string{"ocean", "sea", "lake", "river", "waterfall", "stream", "water", "beach", "coast"},
			Secondary: []string{"wave", "shore", "coastal", "marine", "aquatic", "fluid"},
			Related:   []string{"boat", "fish", "sand", "rock"},
			Weight:    1.0,
		},
		{
			Name:      "urban",
			Primary:   []string{"city", "urban", "building", "architecture", "street", "downtown"},
			Secondary: []string{"metropolitan", "skyscraper", "cityscape", "modern"},
			Related:   []string{"car", "person", "window", "door", "sign"},
			Weight:    0.8,
		},
		{
			Name:      "nature",
			Primary:   []string{"nature", "forest", "tree", "flower", "plant", "wildlife", "animal"},
			Secondary: []string{"natural", "organic", "botanical", "flora", "fauna"},
			Related:   []string{"leaf", "branch", "bird", "insect"},
			Weight:    0.9,
		},
		{
			Name:      "mountains",
			Primary:   []string{"mountain", "peak", "summit", "alpine", "ridge", "cliff"},
			Secondary: []string{"rocky", "steep", "elevation", "highland"},
			Related:   []string{"snow", "rock", "tree", "sky"},
			Weight:    1.0,
		},
	}
}

// Scorer computes per-image sub-scores from geometry plus labels supplied by
// an optional external classifier. It is a pure function over its inputs and
// never returns an error: failing sub-scores degrade to zero.
type Scorer struct {
	detector   *Detector
	classifier ports.Classifier
	taxonomy   []Category
	cfg        config.ScoringConfig
	logger     *slog.Logger
}

// NewScorer wires the detector, the optional classifier, and scoring tunables.
// A nil classifier degrades category scores to zero.
func NewScorer(detector *Detector, classifier ports.Classifier, cfg config.ScoringConfig, logger *slog.Logger) *Scorer {
	if cfg.CategoryDivisor <= 0 {
		cfg.CategoryDivisor = 2.0
	}
	return &Scorer{
		detector:   detector,
		classifier: classifier,
		taxonomy:   DefaultTaxonomy(),
		cfg:        cfg,
		logger:     logger,
	}
}

// Analyze runs the full scoring pipeline over raw image bytes. The detector
// runs first; a video-thumbnail verdict short-circuits the classifier call and
// all geometry scoring with an overall score of zero.
func (s *Scorer) Analyze(ctx context.Context, data []byte, filename string) domain.Analysis {
	var analysis domain.Analysis

	img, _, decodeErr := image.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		if s.logger != nil {
			s.logger.Debug("scorer: image decode failed", "filename", filename, "error", decodeErr)
		}
		img = nil
	}

	det := s.detector.Detect(img, filename)
	analysis.IsVideoThumbnail = det.IsLikelyVideo
	analysis.VideoConfidence = det.Confidence
	analysis.Indicators = det.Indicators

	if det.IsLikelyVideo {
		analysis.OverallScore = 0
		return analysis
	}

	if s.classifier != nil {
		labels, objects, err := s.classifier.Classify(ctx, data)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("scorer: classifier unavailable, geometry-only scoring", "error", err)
			}
		} else {
			analysis.Labels = labels
			analysis.Objects = objects
		}
	}

	analysis.CategoryMatches = s.matchCategories(analysis.Labels, analysis.Objects)

	if img != nil {
		bounds := img.Bounds()
		w, h := bounds.Dx(), bounds.Dy()
		analysis.QualityScore = qualityScore(w, h)
		analysis.PrintSuitability = s.printSuitability(w, h, analysis.CategoryMatches)
	}

	analysis.OverallScore = s.overallScore(&analysis)
	return analysis
}

// matchCategories accumulates confidence-weighted keyword hits per category.
// The sum is intentionally unbounded here; normalization happens at fusion
// time via the configured divisor.
func (s *Scorer) matchCategories(labels, objects []domain.LabelScore) map[string]domain.CategoryMatch {
	all := make([]domain.LabelScore, 0, len(labels)+len(objects))
	all = append(all, labels...)
	all = append(all, objects...)

	matches := make(map[string]domain.CategoryMatch, len(s.taxonomy))
	for _, cat := range s.taxonomy {
		score := 0.0
		count := 0

		for _, label := range all {
			text := strings.ToLower(label.Text)
			for _, kw := range cat.Primary {
				if keywordMatches(text, kw) {
					score += label.Confidence * primaryTierWeight
					count++
				}
			}
			for _, kw := range cat.Secondary {
				if keywordMatches(text, kw) {
					score += label.Confidence * secondaryTierWeight
					count++
				}
			}
			for _, kw := range cat.Related {
				if keywordMatches(text, kw) {
					score += label.Confidence * relatedTierWeight
					count++
				}
			}
		}

		matches[cat.Name] = domain.CategoryMatch{
			Score:      score * cat.Weight,
			MatchCount: count,
		}
	}
	return matches
}

// keywordMatches checks substring containment in either direction, so "mountain"
// matches both the label "mountain range" and the keyword "mountain peak".
func keywordMatches(labelText, keyword string) bool {
	return strings.Contains(labelText, keyword) || strings.Contains(keyword, labelText)
}

// qualityScore blends resolution, aspect acceptability, and shortest-side size.
func qualityScore(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}

	resolution := math.Min(1.0, float64(w*h)/referencePixels)

	ratio := float64(w) / float64(h)
	aspect := 0.5
	if ratio >= 0.5 && ratio <= 2.0 {
		aspect = 1.0
	}

	minSide := float64(w)
	if h < w {
		minSide = float64(h)
	}
	size := math.Min(1.0, minSide/referenceMinSide)

	return resolution*0.4 + aspect*0.3 + size*0.3
}

// printSuitability blends printable size at 150 DPI, wall-art aspect fit, and
// the best strong category match. The category term has no intrinsic upper
// clamp: a strong multi-keyword match is allowed to push suitability above
// nominal unless PrintCategoryCap bounds it.
func (s *Scorer) printSuitability(w, h int, matches map[string]domain.CategoryMatch) float64 {
	if w <= 0 || h <= 0 {
		return 0
	}

	maxPrintInch := math.Max(float64(w), float64(h)) / printDPI
	sizeScore := math.Min(1.0, maxPrintInch/referencePrintInch)

	ratio := float64(w) / float64(h)
	var aspect float64
	switch {
	case ratio >= 0.7 && ratio <= 1.5:
		aspect = 1.0
	case ratio >= 0.5 && ratio <= 2.0:
		aspect = 0.8
	default:
		aspect = 0.5
	}

	content := 0.0
	for _, m := range matches {
		if m.Score > strongCategoryFloor && m.Score > content {
			content = m.Score
		}
	}
	if s.cfg.PrintCategoryCap > 0 && content > s.cfg.PrintCategoryCap {
		content = s.cfg.PrintCategoryCap
	}

	return sizeScore*0.4 + aspect*0.3 + content*0.3
}

// overallScore fuses the sub-scores. The category sum is normalized by the
// configured divisor before entering the blend, and the result is clamped to
// [0,1].
func (s *Scorer) overallScore(a *domain.Analysis) float64 {
	if a.IsVideoThumbnail {
		return 0
	}

	normalized := math.Min(1.0, a.BestCategoryScore()/s.cfg.CategoryDivisor)
	overall := a.QualityScore*0.3 + a.PrintSuitability*0.4 + normalized*0.3
	return math.Max(0, math.Min(1.0, overall))
}
