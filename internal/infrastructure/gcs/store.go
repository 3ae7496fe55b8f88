package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"PrintScout/internal/config"
	"PrintScout/internal/ports"
)

// Store persists objects in a Google Cloud Storage bucket.
type Store struct {
	svc       *storage.Service
	bucket    string
	available bool
	logger    *slog.Logger
}

var _ ports.ObjectStore = (*Store)(nil)

// NewStore builds a bucket-backed store and probes the bucket once. A failed
// probe leaves the store constructed but unavailable, letting the caller fall
// back to local storage.
func NewStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: no bucket configured")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage service: %w", err)
	}

	s := &Store{svc: svc, bucket: cfg.Bucket, logger: logger}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := svc.Buckets.Get(cfg.Bucket).Context(probeCtx).Do(); err != nil {
		if logger != nil {
			logger.Warn("gcs bucket unreachable", "bucket", cfg.Bucket, "error", err)
		}
		return s, nil
	}

	s.available = true
	return s, nil
}

// Available reports whether the startup probe reached the bucket.
func (s *Store) Available() bool { return s.available }

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	obj := &storage.Object{Name: key, ContentType: contentType}
	_, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	if s.logger != nil {
		s.logger.Debug("object uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	}
	return nil
}

// Get downloads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.svc.Objects.Get(s.bucket, key).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether an object is stored under key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.svc.Objects.Get(s.bucket, key).Context(ctx).Do()
	if err == nil {
		return true, nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", key, err)
}

// List returns the keys under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.svc.Objects.List(s.bucket).Prefix(prefix).Pages(ctx, func(page *storage.Objects) error {
		for _, obj := range page.Items {
			keys = append(keys, obj.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	return keys, nil
}

// Delete removes the object stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.svc.Objects.Delete(s.bucket, key).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
