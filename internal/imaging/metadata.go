package imaging

import (
	"bytes"

	"github.com/bep/imagemeta"
)

// Attribution holds authorship fields extracted from embedded EXIF metadata.
// Listings built from a frame carry these through to the credit line.
type Attribution struct {
	Artist    string
	Copyright string
}

// ExtractAttribution parses EXIF metadata from raw image bytes. It never
// returns an error: nil means no usable authorship fields were found.
func ExtractAttribution(data []byte) *Attribution {
	if len(data) == 0 {
		return nil
	}

	attr := &Attribution{}
	found := false

	err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "Artist" || ti.Tag == "Copyright"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s, ok := ti.Value.(string)
			if !ok || s == "" {
				return nil
			}
			switch ti.Tag {
			case "Artist":
				attr.Artist = s
				found = true
			case "Copyright":
				attr.Copyright = s
				found = true
			}
			return nil
		},
	})
	if err != nil || !found {
		return nil
	}
	return attr
}
