package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PrintScout/internal/config"
	"PrintScout/internal/ports"
	"PrintScout/internal/processing"
)

type fakePublisher struct {
	calls       int
	lastTitle   string
	lastPath    string
	multipliers []float64
	err         error
}

func (f *fakePublisher) CreateListing(_ context.Context, imagePath, title, _ string, _ []string, priceMultiplier float64) (ports.Listing, error) {
	f.calls++
	f.lastTitle = title
	f.lastPath = imagePath
	f.multipliers = append(f.multipliers, priceMultiplier)
	if f.err != nil {
		return ports.Listing{}, f.err
	}
	return ports.Listing{ListingID: "prod-1", Published: true}, nil
}

func publishConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Storage:  config.StorageConfig{BaseDir: t.TempDir()},
		Printify: config.PrintifyConfig{PriceMultiplier: 2.5},
	}
}

func writeSource(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPublishFiles(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	store := &fakeStore{}
	cfg := publishConfig(t)
	w := NewPublishWorkflow(PublishDeps{
		Publisher: pub,
		Processor: processing.NewProcessor(nil),
		Store:     store,
	}, cfg, nil)

	src := writeSource(t, "ABC123.png", encodeTestPNG(t, 600, 400))
	report, err := w.PublishFiles(context.Background(), []string{src}, PublishOptions{
		SizeName:     "8x10",
		MaterialName: "canvas",
		Fit:          processing.FitContain,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Items, 1)

	item := report.Items[0]
	require.NoError(t, item.Err)
	assert.Equal(t, "prod-1", item.Listing.ListingID)
	assert.FileExists(t, item.ProcessedPath)
	assert.Contains(t, filepath.Base(item.ProcessedPath), "ABC123_8x10_canvas")

	assert.Equal(t, item.ProcessedPath, pub.lastPath)
	assert.Contains(t, pub.lastTitle, "ABC123")
	assert.Equal(t, []float64{2.5}, pub.multipliers)
	assert.Contains(t, store.puts, "processed/"+filepath.Base(item.ProcessedPath))
}

func TestPublishFilesIsolatesFailures(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	w := NewPublishWorkflow(PublishDeps{
		Publisher: pub,
		Processor: processing.NewProcessor(nil),
	}, publishConfig(t), nil)

	bad := writeSource(t, "broken.png", []byte("not an image"))
	good := writeSource(t, "fine.png", encodeTestPNG(t, 600, 400))

	report, err := w.PublishFiles(context.Background(), []string{bad, good}, PublishOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Succeeded)
	assert.Error(t, report.Items[0].Err)
	require.NoError(t, report.Items[1].Err)
	assert.Equal(t, 1, pub.calls, "broken sources never reach the publisher")
}

func TestPublishFilesListingError(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("shop suspended")}
	w := NewPublishWorkflow(PublishDeps{
		Publisher: pub,
		Processor: processing.NewProcessor(nil),
	}, publishConfig(t), nil)

	src := writeSource(t, "fine.png", encodeTestPNG(t, 600, 400))
	report, err := w.PublishFiles(context.Background(), []string{src}, PublishOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.ErrorContains(t, report.Items[0].Err, "shop suspended")
}

func TestPublishFilesUnknownPreset(t *testing.T) {
	t.Parallel()

	w := NewPublishWorkflow(PublishDeps{
		Publisher: &fakePublisher{},
		Processor: processing.NewProcessor(nil),
	}, publishConfig(t), nil)

	_, err := w.PublishFiles(context.Background(), nil, PublishOptions{SizeName: "3x5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown print size")
}

func TestPublishFilesNoPublisher(t *testing.T) {
	t.Parallel()

	w := NewPublishWorkflow(PublishDeps{Processor: processing.NewProcessor(nil)}, publishConfig(t), nil)
	_, err := w.PublishFiles(context.Background(), nil, PublishOptions{})
	require.Error(t, err)
}
