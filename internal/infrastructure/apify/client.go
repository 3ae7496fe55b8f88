package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	gobreaker "github.com/sony/gobreaker/v2"

	"PrintScout/internal/config"
	"PrintScout/internal/domain"
	"PrintScout/internal/ports"
)

// Client submits synchronous actor runs to the Apify platform and reads the
// resulting dataset. A circuit breaker guards the run submission so repeated
// upstream failures stop hammering the API.
type Client struct {
	endpoint    string
	token       string
	actorID     string
	waitSeconds int
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker[[]domain.ContentItem]
	clock       ports.Clock
	logger      *slog.Logger
}

var _ ports.PostSource = (*Client)(nil)

// runInput is the actor input for a profile scrape.
type runInput struct {
	DirectURLs    []string `json:"directUrls"`
	ResultsType   string   `json:"resultsType"`
	ResultsLimit  int      `json:"resultsLimit"`
	AddParentData bool     `json:"addParentData"`
}

// runResponse is the envelope returned by a waitForFinish run submission.
type runResponse struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// rawItem mirrors the dataset record shape produced by the scraper actor.
type rawItem struct {
	ShortCode     string   `json:"shortCode"`
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	IsVideo       bool     `json:"isVideo"`
	VideoURL      string   `json:"videoUrl"`
	OwnerUsername string   `json:"ownerUsername"`
	Caption       string   `json:"caption"`
	Hashtags      []string `json:"hashtags"`
	Timestamp     string   `json:"timestamp"`
	URL           string   `json:"url"`
	DisplayURL    string   `json:"displayUrl"`
	Images        []string `json:"images"`
	LikesCount    int      `json:"likesCount"`
	CommentsCount int      `json:"commentsCount"`
	LocationName  string   `json:"locationName"`
}

// NewClient wires an Apify client from the scraper configuration.
func NewClient(cfg config.ScraperConfig, clock ports.Clock, logger *slog.Logger) *Client {
	wait := cfg.WaitSeconds
	if wait <= 0 {
		wait = 300
	}

	c := &Client{
		endpoint:    cfg.Endpoint,
		token:       cfg.Token,
		actorID:     cfg.ActorID,
		waitSeconds: wait,
		http:        &http.Client{Timeout: time.Duration(wait+30) * time.Second},
		clock:       clock,
		logger:      logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]domain.ContentItem](gobreaker.Settings{
		Name:    "apify",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("scraper breaker state change", "name", name, "from", from.String(), "to", to.String())
			}
		},
	})
	return c
}

// Name identifies the provider in the source registry.
func (c *Client) Name() string { return "apify" }

// FetchPosts runs the actor against the given profile URLs and maps the
// dataset into content items.
func (c *Client) FetchPosts(ctx context.Context, profileURLs []string, maxPerProfile int) ([]domain.ContentItem, error) {
	if len(profileURLs) == 0 {
		return nil, nil
	}

	return c.breaker.Execute(func() ([]domain.ContentItem, error) {
		return c.fetch(ctx, profileURLs, maxPerProfile)
	})
}

func (c *Client) fetch(ctx context.Context, profileURLs []string, maxPerProfile int) ([]domain.ContentItem, error) {
	run, err := c.submitRun(ctx, runInput{
		DirectURLs:   profileURLs,
		ResultsType:  "posts",
		ResultsLimit: maxPerProfile,
	})
	if err != nil {
		return nil, err
	}

	if run.Data.Status != "SUCCEEDED" {
		return nil, fmt.Errorf("actor run %s finished with status %s", run.Data.ID, run.Data.Status)
	}

	raws, err := c.datasetItems(ctx, run.Data.DefaultDatasetID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ContentItem, 0, len(raws))
	for _, raw := range raws {
		items = append(items, c.mapItem(ctx, raw))
	}

	if c.logger != nil {
		c.logger.Info("scrape finished", "runId", run.Data.ID, "profiles", len(profileURLs), "items", len(items))
	}
	return items, nil
}

func (c *Client) submitRun(ctx context.Context, input runInput) (*runResponse, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal run input: %w", err)
	}

	u := fmt.Sprintf("%s/v2/acts/%s/runs?token=%s&waitForFinish=%d",
		c.endpoint, url.PathEscape(c.actorID), url.QueryEscape(c.token), c.waitSeconds)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("submit run: unexpected status %s", resp.Status)
	}

	var run runResponse
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("decode run response: %w", err)
	}
	return &run, nil
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]rawItem, error) {
	u := fmt.Sprintf("%s/v2/datasets/%s/items?token=%s&format=json",
		c.endpoint, url.PathEscape(datasetID), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new dataset request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset: unexpected status %s", resp.Status)
	}

	var raws []rawItem
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode dataset items: %w", err)
	}
	return raws, nil
}

func (c *Client) now() time.Time {
	if c.clock != nil {
		return c.clock.Now()
	}
	return time.Now()
}

// mapItem converts one dataset record into a domain item. Missing display URLs
// fall back to the post page's og:image tag.
func (c *Client) mapItem(ctx context.Context, raw rawItem) domain.ContentItem {
	item := domain.ContentItem{
		ShortCode:  raw.ShortCode,
		PostID:     raw.ID,
		Owner:      raw.OwnerUsername,
		Caption:    raw.Caption,
		Hashtags:   raw.Hashtags,
		SourceURL:  raw.URL,
		DisplayURL: raw.DisplayURL,
		ImageURLs:  raw.Images,
		IsVideo:    raw.IsVideo || raw.Type == "Video" || raw.VideoURL != "",
		Likes:      raw.LikesCount,
		Comments:   raw.CommentsCount,
		Location:   raw.LocationName,
	}

	item.ItemID = domain.DeriveItemID(raw.ShortCode, raw.ID, raw.DisplayURL, c.now())

	if len(item.Hashtags) == 0 {
		item.Hashtags = domain.ParseHashtags(raw.Caption)
	}

	if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
		item.Timestamp = ts
	}

	if item.DisplayURL == "" && len(item.ImageURLs) > 0 {
		item.DisplayURL = item.ImageURLs[0]
	}
	if item.DisplayURL == "" && item.SourceURL != "" && !item.IsVideo {
		item.DisplayURL = c.ogImageURL(ctx, item.SourceURL)
	}

	return item
}

// ogImageURL scrapes the post page for its og:image meta tag. Best effort:
// any failure returns an empty string. Cancelling the caller's context
// cancels the page fetch.
func (c *Client) ogImageURL(ctx context.Context, pageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	content, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	return content
}
