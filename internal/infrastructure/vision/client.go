package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"PrintScout/internal/config"
	"PrintScout/internal/domain"
	"PrintScout/internal/ports"
)

// Client labels images via the Google Cloud Vision API.
type Client struct {
	svc        *vision.Service
	maxLabels  int64
	maxObjects int64
	logger     *slog.Logger
}

var _ ports.Classifier = (*Client)(nil)

// NewClient builds a Vision API client from the configured credentials file.
func NewClient(ctx context.Context, cfg config.VisionConfig, logger *slog.Logger) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision service: %w", err)
	}

	maxLabels := int64(cfg.MaxLabels)
	if maxLabels <= 0 {
		maxLabels = 20
	}
	maxObjects := int64(cfg.MaxObjects)
	if maxObjects <= 0 {
		maxObjects = 10
	}

	return &Client{svc: svc, maxLabels: maxLabels, maxObjects: maxObjects, logger: logger}, nil
}

// Classify requests label detection and object localization for the image.
func (c *Client) Classify(ctx context.Context, imageData []byte) ([]domain.LabelScore, []domain.LabelScore, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(imageData)},
			Features: []*vision.Feature{
				{Type: "LABEL_DETECTION", MaxResults: c.maxLabels},
				{Type: "OBJECT_LOCALIZATION", MaxResults: c.maxObjects},
			},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("annotate request: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil, fmt.Errorf("annotate request: empty response")
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return nil, nil, fmt.Errorf("annotate request: %s", r.Error.Message)
	}

	labels := make([]domain.LabelScore, 0, len(r.LabelAnnotations))
	for _, a := range r.LabelAnnotations {
		labels = append(labels, domain.LabelScore{Text: a.Description, Confidence: a.Score})
	}

	objects := make([]domain.LabelScore, 0, len(r.LocalizedObjectAnnotations))
	for _, a := range r.LocalizedObjectAnnotations {
		objects = append(objects, domain.LabelScore{Text: a.Name, Confidence: a.Score})
	}

	if c.logger != nil {
		c.logger.Debug("vision annotate", "labels", len(labels), "objects", len(objects))
	}
	return labels, objects, nil
}
