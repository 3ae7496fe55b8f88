package localfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "original/ABC123.jpg", []byte("bytes"), "image/jpeg"))
	require.NoError(t, s.Put(ctx, "original/DEF456.jpg", []byte("more"), "image/jpeg"))
	require.NoError(t, s.Put(ctx, "processed/ABC123.png", []byte("out"), "image/png"))

	got, err := s.Get(ctx, "original/ABC123.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), got)

	ok, err := s.Exists(ctx, "original/ABC123.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "original/missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := s.List(ctx, "original/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"original/ABC123.jpg", "original/DEF456.jpg"}, keys)

	require.NoError(t, s.Delete(ctx, "original/ABC123.jpg"))
	ok, err = s.Exists(ctx, "original/ABC123.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "original/ABC123.jpg")
	assert.Error(t, err)

	assert.True(t, s.Available())
}
