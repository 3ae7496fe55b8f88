package imaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"PrintScout/internal/ports"
)

const (
	defaultMaxBytes  = 25 * 1024 * 1024
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; printscout/1.0)"
)

// HTTPDownloader fetches image bytes over HTTP with a per-request timeout and
// a response size cap.
type HTTPDownloader struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	logger    *slog.Logger
}

var _ ports.Downloader = (*HTTPDownloader)(nil)

// NewHTTPDownloader builds a downloader with default limits. A nil client
// falls back to a dedicated client with the default timeout.
func NewHTTPDownloader(client *http.Client, logger *slog.Logger) *HTTPDownloader {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPDownloader{
		client:    client,
		maxBytes:  defaultMaxBytes,
		userAgent: defaultUserAgent,
		logger:    logger,
	}
}

// Download fetches the URL and returns the raw bytes. Non-200 responses,
// non-image content types, and oversized bodies are errors.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ct != "" && !strings.HasPrefix(ct, "image/") && ct != "application/octet-stream" {
		return nil, fmt.Errorf("fetching %s: not an image (content type %q)", url, ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("fetching %s: body exceeds %d bytes", url, d.maxBytes)
	}

	if d.logger != nil {
		d.logger.Debug("downloaded image", "url", url, "bytes", len(data), "contentType", ct)
	}
	return data, nil
}
