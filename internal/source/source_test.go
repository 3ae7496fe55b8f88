package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PrintScout/internal/domain"
)

type fakeStrategy struct {
	name string
	urls []string
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) FetchPosts(_ context.Context, profileURLs []string, _ int) ([]domain.ContentItem, error) {
	f.urls = profileURLs
	return []domain.ContentItem{{ItemID: "A"}}, nil
}

func TestNormalizeProfileURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.instagram.com/trailhiker/", NormalizeProfileURL("trailhiker"))
	assert.Equal(t, "https://www.instagram.com/trailhiker/", NormalizeProfileURL("@trailhiker"))
	assert.Equal(t, "https://insta.test/someone/", NormalizeProfileURL("https://insta.test/someone/"))
	assert.Equal(t, "", NormalizeProfileURL("  "))
}

func TestStrategySourceDelegates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	fake := &fakeStrategy{name: "apify"}
	reg.Register(fake)

	src := NewStrategySource(reg, "apify", nil)
	items, err := src.FetchPosts(context.Background(), []string{"@trailhiker", ""}, 25)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"https://www.instagram.com/trailhiker/"}, fake.urls)
}

func TestStrategySourceUnknownProvider(t *testing.T) {
	t.Parallel()

	src := NewStrategySource(NewRegistry(), "ghost", nil)
	_, err := src.FetchPosts(context.Background(), []string{"trailhiker"}, 25)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}
