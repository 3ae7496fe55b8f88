package printify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"PrintScout/internal/config"
	"PrintScout/internal/ports"
)

const (
	maxAttempts = 4
	baseBackoff = time.Second

	// Fallback per-variant production cost used when the catalog does not
	// report one; price = cost * multiplier, in cents.
	defaultCostCents = 1999

	maxEnabledVariants = 10
)

// Client drives the Printify product API: image upload, product creation, and
// optional publishing. Rate-limit responses are retried honoring Retry-After.
type Client struct {
	endpoint    string
	token       string
	shopID      string
	blueprintID int
	providerID  int
	publish     bool
	http        *http.Client
	logger      *slog.Logger
}

var _ ports.Publisher = (*Client)(nil)

// NewClient wires a client from the print-on-demand configuration.
func NewClient(cfg config.PrintifyConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint:    cfg.Endpoint,
		token:       cfg.Token,
		shopID:      cfg.ShopID,
		blueprintID: cfg.BlueprintID,
		providerID:  cfg.ProviderID,
		publish:     cfg.Publish,
		http:        &http.Client{Timeout: 60 * time.Second},
		logger:      logger,
	}
}

type uploadResponse struct {
	ID string `json:"id"`
}

type catalogVariant struct {
	ID    int    `json:"id"`
	Cost  int    `json:"cost"`
	Title string `json:"title"`
}

type variantsResponse struct {
	Variants []catalogVariant `json:"variants"`
}

type productVariant struct {
	ID        int  `json:"id"`
	Price     int  `json:"price"`
	IsEnabled bool `json:"is_enabled"`
}

type productRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags,omitempty"`
	BlueprintID int              `json:"blueprint_id"`
	ProviderID  int              `json:"print_provider_id"`
	Variants    []productVariant `json:"variants"`
	PrintAreas  []printArea      `json:"print_areas"`
}

type printArea struct {
	VariantIDs   []int         `json:"variant_ids"`
	Placeholders []placeholder `json:"placeholders"`
}

type placeholder struct {
	Position string        `json:"position"`
	Images   []placedImage `json:"images"`
}

type placedImage struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
	Angle int     `json:"angle"`
}

type productResponse struct {
	ID string `json:"id"`
}

// CreateListing uploads the image, creates a product over the configured
// blueprint, and publishes it when publishing is enabled.
func (c *Client) CreateListing(ctx context.Context, imagePath, title, description string, tags []string, priceMultiplier float64) (ports.Listing, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return ports.Listing{}, fmt.Errorf("reading %s: %w", imagePath, err)
	}

	imageID, err := c.uploadImage(ctx, filepath.Base(imagePath), data)
	if err != nil {
		return ports.Listing{}, err
	}

	variants, err := c.blueprintVariants(ctx)
	if err != nil {
		return ports.Listing{}, err
	}
	if len(variants) == 0 {
		return ports.Listing{}, fmt.Errorf("blueprint %d has no variants", c.blueprintID)
	}
	if len(variants) > maxEnabledVariants {
		variants = variants[:maxEnabledVariants]
	}

	if priceMultiplier <= 0 {
		priceMultiplier = 2.0
	}

	prodVariants := make([]productVariant, 0, len(variants))
	variantIDs := make([]int, 0, len(variants))
	for _, v := range variants {
		cost := v.Cost
		if cost <= 0 {
			cost = defaultCostCents
		}
		prodVariants = append(prodVariants, productVariant{
			ID:        v.ID,
			Price:     int(math.Round(float64(cost) * priceMultiplier)),
			IsEnabled: true,
		})
		variantIDs = append(variantIDs, v.ID)
	}

	product := productRequest{
		Title:       title,
		Description: description,
		Tags:        tags,
		BlueprintID: c.blueprintID,
		ProviderID:  c.providerID,
		Variants:    prodVariants,
		PrintAreas: []printArea{{
			VariantIDs: variantIDs,
			Placeholders: []placeholder{{
				Position: "front",
				Images:   []placedImage{{ID: imageID, X: 0.5, Y: 0.5, Scale: 1.0}},
			}},
		}},
	}

	var created productResponse
	path := fmt.Sprintf("/shops/%s/products.json", c.shopID)
	if err := c.do(ctx, http.MethodPost, path, product, &created); err != nil {
		return ports.Listing{}, fmt.Errorf("creating product: %w", err)
	}

	listing := ports.Listing{ListingID: created.ID}
	if !c.publish {
		return listing, nil
	}

	publishPath := fmt.Sprintf("/shops/%s/products/%s/publish.json", c.shopID, created.ID)
	publishBody := map[string]bool{
		"title": true, "description": true, "images": true,
		"variants": true, "tags": true,
	}
	if err := c.do(ctx, http.MethodPost, publishPath, publishBody, nil); err != nil {
		// The product exists even if publishing fails; report it unpublished.
		if c.logger != nil {
			c.logger.Warn("product publish failed", "productId", created.ID, "error", err)
		}
		return listing, nil
	}

	listing.Published = true
	return listing, nil
}

func (c *Client) uploadImage(ctx context.Context, fileName string, data []byte) (string, error) {
	body := map[string]string{
		"file_name": fileName,
		"contents":  base64.StdEncoding.EncodeToString(data),
	}

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, "/uploads/images.json", body, &resp); err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) blueprintVariants(ctx context.Context) ([]catalogVariant, error) {
	path := fmt.Sprintf("/catalog/blueprints/%d/print_providers/%d/variants.json", c.blueprintID, c.providerID)

	var resp variantsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching variants: %w", err)
	}
	return resp.Variants, nil
}

// do performs one JSON request with retries for 429 and 5xx responses.
func (c *Client) do(ctx context.Context, method, path string, payload, v any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("do request: %w", err)
			c.sleep(ctx, baseBackoff<<attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp, baseBackoff<<attempt)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("rate limited on %s", path)
			if c.logger != nil {
				c.logger.Warn("rate limited, backing off", "path", path, "wait", wait)
			}
			c.sleep(ctx, wait)
			continue

		case resp.StatusCode >= http.StatusInternalServerError:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %s on %s", resp.Status, path)
			c.sleep(ctx, baseBackoff<<attempt)
			continue

		case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return fmt.Errorf("unexpected status %s on %s: %s", resp.Status, path, bytes.TrimSpace(msg))
		}

		if v == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return resp.Body.Close()
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			_ = resp.Body.Close()
			return fmt.Errorf("decode response: %w", err)
		}
		return resp.Body.Close()
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
