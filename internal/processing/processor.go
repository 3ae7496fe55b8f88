package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
)

// FitMode controls how a source frame maps onto the print canvas.
type FitMode string

const (
	// FitContain scales to fit entirely, padding the remainder with white.
	FitContain FitMode = "contain"
	// FitCover scales to fill the canvas, center-cropping the overflow.
	FitCover FitMode = "cover"
	// FitStretch ignores the source aspect ratio.
	FitStretch FitMode = "stretch"
)

// PrintSize is one sellable print dimension.
type PrintSize struct {
	Name       string
	WidthInch  float64
	HeightInch float64
}

// Material describes a print medium with its resolution and encoding.
type Material struct {
	Name       string
	DPI        int
	BorderInch float64
	Format     string
	Quality    int
}

// DefaultSizes returns the supported wall-art dimensions.
func DefaultSizes() []PrintSize {
	return []PrintSize{
		{Name: "8x10", WidthInch: 8, HeightInch: 10},
		{Name: "11x14", WidthInch: 11, HeightInch: 14},
		{Name: "12x18", WidthInch: 12, HeightInch: 18},
		{Name: "16x20", WidthInch: 16, HeightInch: 20},
		{Name: "18x24", WidthInch: 18, HeightInch: 24},
		{Name: "24x36", WidthInch: 24, HeightInch: 36},
	}
}

// DefaultMaterials returns the supported print media.
func DefaultMaterials() []Material {
	return []Material{
		{Name: "matte", DPI: 300, BorderInch: 0.25, Format: "jpeg", Quality: 95},
		{Name: "canvas", DPI: 150, BorderInch: 1.25, Format: "jpeg", Quality: 90},
		{Name: "metal", DPI: 300, BorderInch: 0, Format: "png"},
	}
}

// SizeByName resolves a preset print size.
func SizeByName(name string) (PrintSize, error) {
	for _, s := range DefaultSizes() {
		if s.Name == name {
			return s, nil
		}
	}
	return PrintSize{}, fmt.Errorf("unknown print size %q", name)
}

// MaterialByName resolves a preset material.
func MaterialByName(name string) (Material, error) {
	for _, m := range DefaultMaterials() {
		if m.Name == name {
			return m, nil
		}
	}
	return Material{}, fmt.Errorf("unknown material %q", name)
}

// Processor prepares frames for print at a material's native resolution.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor builds a print processor.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

// Prepare renders the source onto a print canvas of size times the material
// DPI, leaving the material's border white.
func (p *Processor) Prepare(src image.Image, size PrintSize, mat Material, fit FitMode) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("no source image")
	}
	if mat.DPI <= 0 {
		return nil, fmt.Errorf("material %s has no resolution", mat.Name)
	}

	canvasW := int(math.Round(size.WidthInch * float64(mat.DPI)))
	canvasH := int(math.Round(size.HeightInch * float64(mat.DPI)))
	border := int(math.Round(mat.BorderInch * float64(mat.DPI)))
	if canvasW <= 2*border || canvasH <= 2*border {
		return nil, fmt.Errorf("size %s too small for a %v inch border", size.Name, mat.BorderInch)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	inner := image.Rect(border, border, canvasW-border, canvasH-border)
	srcBounds := src.Bounds()
	sw, sh := srcBounds.Dx(), srcBounds.Dy()
	if sw == 0 || sh == 0 {
		return nil, fmt.Errorf("empty source image")
	}

	var dst image.Rectangle
	srcRect := srcBounds

	switch fit {
	case FitCover:
		// Center-crop the source to the inner aspect before scaling.
		innerRatio := float64(inner.Dx()) / float64(inner.Dy())
		srcRatio := float64(sw) / float64(sh)
		if srcRatio > innerRatio {
			cropW := int(float64(sh) * innerRatio)
			off := (sw - cropW) / 2
			srcRect = image.Rect(srcBounds.Min.X+off, srcBounds.Min.Y, srcBounds.Min.X+off+cropW, srcBounds.Max.Y)
		} else if srcRatio < innerRatio {
			cropH := int(float64(sw) / innerRatio)
			off := (sh - cropH) / 2
			srcRect = image.Rect(srcBounds.Min.X, srcBounds.Min.Y+off, srcBounds.Max.X, srcBounds.Min.Y+off+cropH)
		}
		dst = inner

	case FitStretch:
		dst = inner

	default: // FitContain
		scale := math.Min(float64(inner.Dx())/float64(sw), float64(inner.Dy())/float64(sh))
		w := int(float64(sw) * scale)
		h := int(float64(sh) * scale)
		x := inner.Min.X + (inner.Dx()-w)/2
		y := inner.Min.Y + (inner.Dy()-h)/2
		dst = image.Rect(x, y, x+w, y+h)
	}

	xdraw.CatmullRom.Scale(canvas, dst, src, srcRect, xdraw.Over, nil)

	if p.logger != nil {
		p.logger.Debug("prepared print render",
			"size", size.Name, "material", mat.Name, "fit", string(fit),
			"canvas", fmt.Sprintf("%dx%d", canvasW, canvasH))
	}
	return canvas, nil
}

// Encode serializes the render in the material's output format, returning the
// bytes and the file extension.
func Encode(img image.Image, mat Material) ([]byte, string, error) {
	var buf bytes.Buffer
	switch mat.Format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encoding png: %w", err)
		}
		return buf.Bytes(), ".png", nil
	default:
		quality := mat.Quality
		if quality <= 0 {
			quality = 90
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("encoding jpeg: %w", err)
		}
		return buf.Bytes(), ".jpg", nil
	}
}
