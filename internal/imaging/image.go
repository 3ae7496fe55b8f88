package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/webp"
)

// Decode parses raw bytes into an image, returning the sniffed format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// Dimensions reads width and height without decoding the full pixel data.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("reading image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// IsLandscape reports whether the frame's width/height ratio meets minRatio.
func IsLandscape(w, h int, minRatio float64) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	return float64(w)/float64(h) >= minRatio
}

// SaveOriginal writes raw image bytes under dir with an extension matching the
// sniffed format, creating the directory if needed. Undecodable data is saved
// with a .bin extension rather than rejected.
func SaveOriginal(dir, itemID string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	ext := ".bin"
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		switch format {
		case "jpeg":
			ext = ".jpg"
		default:
			ext = "." + format
		}
	}

	path := filepath.Join(dir, itemID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
