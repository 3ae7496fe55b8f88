package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 90, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeAndDimensions(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 320, 200)

	img, format, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 320, img.Bounds().Dx())

	w, h, err := Dimensions(data)
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 200, h)

	_, _, err = Decode([]byte("garbage"))
	assert.Error(t, err)
}

func TestIsLandscape(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLandscape(1800, 1200, 1.2))
	assert.False(t, IsLandscape(1200, 1200, 1.2))
	assert.False(t, IsLandscape(1200, 1800, 1.2))
	assert.False(t, IsLandscape(0, 100, 1.2))
}

func TestSaveOriginal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path, err := SaveOriginal(dir, "ABC123", pngBytes(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ABC123.png"), path)

	path, err = SaveOriginal(dir, "raw1", []byte("not an image"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "raw1.bin"), path)
}
