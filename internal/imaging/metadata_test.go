package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAttributionDegrades(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractAttribution(nil))
	assert.Nil(t, ExtractAttribution([]byte("definitely not an image")))
	// Plain PNG without EXIF authorship fields.
	assert.Nil(t, ExtractAttribution(pngBytes(t, 16, 16)))
}
