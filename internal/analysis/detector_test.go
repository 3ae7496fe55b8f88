package analysis

import (
	"image"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBytesCorruptInput(t *testing.T) {
	t.Parallel()

	d := NewDetector(nil)
	det := d.DetectBytes([]byte("definitely not an image"), "photo.jpg")

	assert.False(t, det.IsLikelyVideo)
	assert.Equal(t, 0.0, det.Confidence)
}

func TestDetectFilenameHeuristics(t *testing.T) {
	t.Parallel()

	d := NewDetector(nil)

	// Suffix and keyword both fire ("_video" contains "video"): 0.3 + 0.2.
	det := d.Detect(nil, "trip_video.jpg")
	assert.True(t, det.Indicators.HasVideoSuffix)
	assert.True(t, det.Indicators.HasVideoKeyword)
	assert.InDelta(t, 0.5, det.Confidence, 1e-9)
	assert.False(t, det.IsLikelyVideo, "0.5 is not strictly above the bar")

	det = d.Detect(nil, "sunset_panorama.jpg")
	assert.False(t, det.Indicators.HasVideoSuffix)
	assert.False(t, det.Indicators.HasVideoKeyword)
	assert.Equal(t, 0.0, det.Confidence)
}

func TestDetectVerticalRatioPushesOverBar(t *testing.T) {
	t.Parallel()

	d := NewDetector(nil)

	// Featureless 9:16 frame adds 0.15 on top of the 0.5 filename signal.
	img := image.NewGray(image.Rect(0, 0, 90, 160))
	det := d.Detect(img, "clip_story.jpg")

	assert.Equal(t, "9:16", det.Indicators.AspectRatioBucket)
	assert.InDelta(t, 0.65, det.Confidence, 1e-9)
	assert.True(t, det.IsLikelyVideo)
}

func TestDetectPlayButtonTemplate(t *testing.T) {
	t.Parallel()

	d := NewDetector(nil)

	// Stamp one of the detector's own circular glyphs onto a mid-gray frame at
	// an even offset so the stride grid lands on it exactly.
	canvas := image.NewGray(image.Rect(0, 0, 240, 240))
	for i := range canvas.Pix {
		canvas.Pix[i] = 128
	}
	var glyph *image.Gray
	for _, tpl := range d.templates {
		if !tpl.badge && tpl.size == 60 {
			glyph = tpl.gray
		}
	}
	require.NotNil(t, glyph)
	draw.Draw(canvas, image.Rect(80, 80, 140, 140), glyph, image.Point{}, draw.Src)

	det := d.Detect(canvas, "photo.jpg")

	assert.Greater(t, det.Indicators.PlayButtonConfidence, 0.9)
	assert.True(t, det.IsLikelyVideo)
	assert.GreaterOrEqual(t, det.Confidence, 0.54)
}

func TestDetectProgressBar(t *testing.T) {
	t.Parallel()

	d := NewDetector(nil)

	// Bright horizontal bar across the bottom strip of a dark frame.
	img := image.NewGray(image.Rect(0, 0, 400, 100))
	for x := 20; x < 380; x++ {
		img.Pix[95*img.Stride+x] = 255
	}

	det := d.Detect(img, "photo.jpg")

	assert.True(t, det.Indicators.ProgressBarDetected)
	assert.InDelta(t, 0.25, det.Confidence, 1e-9)
	assert.False(t, det.IsLikelyVideo)
}

func TestClassifyAspect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "16:9", classifyAspect(16.0/9.0))
	assert.Equal(t, "4:3", classifyAspect(4.0/3.0))
	assert.Equal(t, "9:16", classifyAspect(9.0/16.0))
	assert.Equal(t, "1:1", classifyAspect(1.02))
	assert.Equal(t, "unknown", classifyAspect(3.5))
}

func TestTemplateBankShape(t *testing.T) {
	t.Parallel()

	bank := buildTemplateBank()
	require.Len(t, bank, 11)

	badges := 0
	for _, tpl := range bank {
		if tpl.badge {
			badges++
			assert.LessOrEqual(t, tpl.size, 40)
		}
		assert.Equal(t, tpl.size, tpl.gray.Rect.Dx())
		assert.Equal(t, tpl.size, tpl.gray.Rect.Dy())
	}
	assert.Equal(t, 5, badges)
}
