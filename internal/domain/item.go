package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ContentItem is a core entity describing one sourced media record.
type ContentItem struct {
	ItemID     string
	ShortCode  string
	PostID     string
	Owner      string
	Caption    string
	Hashtags   []string
	Timestamp  time.Time
	SourceURL  string
	DisplayURL string
	ImageURLs  []string
	IsVideo    bool
	Likes      int
	Comments   int
	Location   string

	// Attached by the controller after download/analysis.
	LocalPath string
}

// ProcessingStatus enumerates terminal per-item outcomes.
type ProcessingStatus string

const (
	StatusAccepted ProcessingStatus = "accepted"
	StatusRejected ProcessingStatus = "rejected"
	StatusError    ProcessingStatus = "error"
)

// LabelScore is one classifier label or object with its confidence.
type LabelScore struct {
	Text       string
	Confidence float64
}

// CategoryMatch aggregates keyword hits for one taxonomy category.
type CategoryMatch struct {
	Score      float64
	MatchCount int
}

// VideoIndicators carries the detector's per-signal evidence.
type VideoIndicators struct {
	PlayButtonConfidence float64
	CornerIconConfidence float64
	HasVideoSuffix       bool
	HasVideoKeyword      bool
	ProgressBarDetected  bool
	AspectRatio          float64
	AspectRatioBucket    string
}

// Analysis is the per-item scoring record produced by the detector and scorer.
// A degraded analysis (classifier unavailable, decode failure) is still a valid
// Analysis with the failing sub-scores at zero.
type Analysis struct {
	IsVideoThumbnail bool
	VideoConfidence  float64
	Indicators       VideoIndicators
	Labels           []LabelScore
	Objects          []LabelScore
	CategoryMatches  map[string]CategoryMatch
	QualityScore     float64
	PrintSuitability float64
	OverallScore     float64
}

// BestCategoryScore returns the maximum category score across all matches.
func (a *Analysis) BestCategoryScore() float64 {
	best := 0.0
	for _, m := range a.CategoryMatches {
		if m.Score > best {
			best = m.Score
		}
	}
	return best
}

// Summary projects the subset of the analysis persisted in the ledger.
func (a *Analysis) Summary() *AnalysisSummary {
	if a == nil {
		return nil
	}
	scores := make(map[string]float64, len(a.CategoryMatches))
	for name, m := range a.CategoryMatches {
		scores[name] = m.Score
	}
	return &AnalysisSummary{
		OverallScore:     a.OverallScore,
		QualityScore:     a.QualityScore,
		IsVideoThumbnail: a.IsVideoThumbnail,
		CategoryScores:   scores,
	}
}

// AnalysisSummary is the ledgered projection of an Analysis.
type AnalysisSummary struct {
	OverallScore     float64            `json:"overall_score"`
	QualityScore     float64            `json:"quality_score"`
	IsVideoThumbnail bool               `json:"is_video_thumbnail"`
	CategoryScores   map[string]float64 `json:"category_scores,omitempty"`
}

// LedgerEntry is one persisted outcome for an item id. At most one entry exists
// per id; marking the same id again overwrites the previous entry.
type LedgerEntry struct {
	ItemID      string           `json:"item_id"`
	ShortCode   string           `json:"shortcode,omitempty"`
	PostID      string           `json:"post_id,omitempty"`
	Owner       string           `json:"owner,omitempty"`
	SourceURL   string           `json:"source_url,omitempty"`
	Status      ProcessingStatus `json:"status"`
	ProcessedAt time.Time        `json:"processed_at"`
	Analysis    *AnalysisSummary `json:"analysis,omitempty"`
	LocalPath   string           `json:"local_path,omitempty"`
}

// LedgerStats summarizes ledger contents.
type LedgerStats struct {
	Total          int
	Accepted       int
	Rejected       int
	Errors         int
	AcceptanceRate float64
}

// AcceptedItem records one accepted image inside a batch result.
type AcceptedItem struct {
	ItemID       string  `json:"item_id"`
	Owner        string  `json:"owner,omitempty"`
	LocalPath    string  `json:"local_path,omitempty"`
	StorageKey   string  `json:"storage_key,omitempty"`
	OverallScore float64 `json:"overall_score"`
	QualityScore float64 `json:"quality_score"`
}

// IterationStats captures one scrape-then-process round.
type IterationStats struct {
	Iteration   int           `json:"iteration"`
	Scraped     int           `json:"scraped"`
	Processed   int           `json:"processed"`
	Accepted    int           `json:"accepted"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	ScrapeError string        `json:"scrape_error,omitempty"`
}

// BatchResult is the aggregate outcome of one controller invocation. Under-target
// completion is a normal terminal state: Success is a reported field, never an error.
type BatchResult struct {
	RunID            string           `json:"run_id"`
	Success          bool             `json:"success"`
	TargetCount      int              `json:"target_count"`
	AcceptedCount    int              `json:"accepted_count"`
	NewAccepted      int              `json:"new_accepted_count"`
	ExistingAccepted int              `json:"existing_accepted_count"`
	TotalScraped     int              `json:"total_posts_scraped"`
	TotalProcessed   int              `json:"total_posts_processed"`
	Iterations       []IterationStats `json:"iteration_results"`
	Elapsed          time.Duration    `json:"elapsed_ns"`
	Accepted         []AcceptedItem   `json:"accepted_images"`
	StartedAt        time.Time        `json:"started_at"`
}

// DeriveItemID produces the stable identifier used for deduplication, in
// priority order: short code, numeric post id, hash of the display URL,
// timestamp fallback. The first three are deterministic for the same upstream
// record across runs.
func DeriveItemID(shortCode, postID, displayURL string, now time.Time) string {
	if shortCode != "" {
		return shortCode
	}
	if postID != "" {
		return postID
	}
	if displayURL != "" {
		sum := md5.Sum([]byte(displayURL))
		return hex.EncodeToString(sum[:])[:12]
	}
	return fmt.Sprintf("unknown_%d", now.Unix())
}

// ParseHashtags extracts #-prefixed tokens from a caption.
func ParseHashtags(caption string) []string {
	if caption == "" {
		return nil
	}
	var tags []string
	for _, tok := range strings.Fields(caption) {
		if strings.HasPrefix(tok, "#") && len(tok) > 1 {
			tags = append(tags, tok)
		}
	}
	return tags
}
