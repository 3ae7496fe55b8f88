package processing

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blueFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	return img
}

func TestPrepareContainPadsWithWhite(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil)
	size := PrintSize{Name: "2x2", WidthInch: 2, HeightInch: 2}
	mat := Material{Name: "matte", DPI: 100, Format: "jpeg", Quality: 90}

	// Wide source on a square canvas leaves white bands above and below.
	out, err := p.Prepare(blueFrame(400, 100), size, mat, FitContain)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())

	r, g, b, _ := out.At(100, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r, "top band must stay white")
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)

	_, _, b, _ = out.At(100, 100).RGBA()
	assert.Equal(t, uint32(0xffff), b, "center carries the source")
	r, _, _, _ = out.At(100, 100).RGBA()
	assert.Zero(t, r)
}

func TestPrepareCoverFillsCanvas(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil)
	size := PrintSize{Name: "2x2", WidthInch: 2, HeightInch: 2}
	mat := Material{Name: "metal", DPI: 100, Format: "png"}

	out, err := p.Prepare(blueFrame(400, 100), size, mat, FitCover)
	require.NoError(t, err)

	// Every corner is covered by the source.
	for _, pt := range []image.Point{{1, 1}, {198, 1}, {1, 198}, {198, 198}} {
		_, _, b, _ := out.At(pt.X, pt.Y).RGBA()
		assert.Equal(t, uint32(0xffff), b, "corner %v must carry the source", pt)
	}
}

func TestPrepareBorder(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil)
	size := PrintSize{Name: "4x4", WidthInch: 4, HeightInch: 4}
	mat := Material{Name: "canvas", DPI: 100, BorderInch: 0.5, Format: "jpeg"}

	out, err := p.Prepare(blueFrame(200, 200), size, mat, FitStretch)
	require.NoError(t, err)

	r, g, b, _ := out.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r, "border must stay white")
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)

	_, _, b, _ = out.At(200, 200).RGBA()
	assert.Equal(t, uint32(0xffff), b, "inner area carries the source")
	r, _, _, _ = out.At(200, 200).RGBA()
	assert.Zero(t, r)
}

func TestPrepareRejectsOversizedBorder(t *testing.T) {
	t.Parallel()

	p := NewProcessor(nil)
	_, err := p.Prepare(blueFrame(10, 10),
		PrintSize{Name: "1x1", WidthInch: 1, HeightInch: 1},
		Material{Name: "canvas", DPI: 100, BorderInch: 0.6}, FitContain)
	require.Error(t, err)
}

func TestEncodeFormats(t *testing.T) {
	t.Parallel()

	img := blueFrame(20, 20)

	data, ext, err := Encode(img, Material{Format: "png"})
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	data, ext, err = Encode(img, Material{Format: "jpeg", Quality: 85})
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)
	assert.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}))
}

func TestPresetLookups(t *testing.T) {
	t.Parallel()

	s, err := SizeByName("18x24")
	require.NoError(t, err)
	assert.Equal(t, 18.0, s.WidthInch)

	_, err = SizeByName("3x5")
	assert.Error(t, err)

	m, err := MaterialByName("matte")
	require.NoError(t, err)
	assert.Equal(t, 300, m.DPI)

	_, err = MaterialByName("plywood")
	assert.Error(t, err)
}
