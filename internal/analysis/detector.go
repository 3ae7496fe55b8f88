package analysis

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"PrintScout/internal/domain"
)

const (
	playButtonThreshold = 0.6
	cornerIconThreshold = 0.4
	videoConfidenceBar  = 0.5

	// Full-frame template matching runs on a downscaled copy so the sliding
	// correlation stays cheap on camera-resolution inputs.
	matchMaxDim = 384
	matchStride = 2

	playButtonWeight    = 0.6
	videoSuffixWeight   = 0.3
	videoKeywordWeight  = 0.2
	progressBarWeight   = 0.25
	verticalRatioWeight = 0.15
)

var (
	videoSuffixes = []string{"_v", "_video", "_vid", "_reel", "_story"}
	videoKeywords = []string{"video", "reel", "story", "clip", "movie"}
)

// aspectBucket is one named standard ratio the detector classifies against.
type aspectBucket struct {
	name      string
	ratio     float64
	tolerance float64
}

var aspectBuckets = []aspectBucket{
	{"16:9", 16.0 / 9.0, 0.1},
	{"4:3", 4.0 / 3.0, 0.1},
	{"21:9", 21.0 / 9.0, 0.1},
	{"9:16", 9.0 / 16.0, 0.1},
	{"1:1", 1.0, 0.1},
}

// Detection is the detector's verdict plus per-signal evidence.
type Detection struct {
	IsLikelyVideo bool
	Confidence    float64
	Indicators    domain.VideoIndicators
}

// Detector flags images that are actually video placeholders, using template
// matching against a synthetic glyph bank plus filename, UI-element, and
// aspect-ratio heuristics.
type Detector struct {
	templates []glyphTemplate
	logger    *slog.Logger
}

// NewDetector rasterizes the template bank once and reuses it across calls.
func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{templates: buildTemplateBank(), logger: logger}
}

// DetectBytes decodes image bytes and runs Detect. Any decode failure yields a
// zero-confidence non-video verdict; the detector never blocks the pipeline on
// a malformed image (filename heuristics still apply).
func (d *Detector) DetectBytes(data []byte, filename string) Detection {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if d.logger != nil {
			d.logger.Debug("detector: image decode failed", "filename", filename, "error", err)
		}
		img = nil
	}
	return d.Detect(img, filename)
}

// Detect fuses the sub-signals into a single confidence. A nil image limits
// detection to filename heuristics.
func (d *Detector) Detect(img image.Image, filename string) Detection {
	var det Detection

	hasSuffix, hasKeyword := checkFilename(filename)
	det.Indicators.HasVideoSuffix = hasSuffix
	det.Indicators.HasVideoKeyword = hasKeyword

	var playConf float64
	if img != nil {
		gray := toGray(img)

		playConf = d.matchPlayButton(gray)
		det.Indicators.PlayButtonConfidence = playConf
		det.Indicators.CornerIconConfidence = d.matchCornerIcon(gray)
		det.Indicators.ProgressBarDetected = detectProgressBar(gray)

		bounds := img.Bounds()
		w, h := bounds.Dx(), bounds.Dy()
		if h > 0 {
			ratio := float64(w) / float64(h)
			det.Indicators.AspectRatio = ratio
			det.Indicators.AspectRatioBucket = classifyAspect(ratio)
		}
	}

	conf := 0.0
	if playConf >= playButtonThreshold {
		conf += playConf * playButtonWeight
	}
	if hasSuffix {
		conf += videoSuffixWeight
	}
	if hasKeyword {
		conf += videoKeywordWeight
	}
	if det.Indicators.ProgressBarDetected {
		conf += progressBarWeight
	}
	// Many photos share the landscape buckets; only the vertical story/reel
	// ratio is suspicious enough to score.
	if det.Indicators.AspectRatioBucket == "9:16" {
		conf += verticalRatioWeight
	}
	// The corner-icon match is surfaced as a diagnostic but deliberately kept
	// out of the fused confidence.
	conf = math.Min(conf, 1.0)

	det.Confidence = conf
	det.IsLikelyVideo = conf > videoConfidenceBar
	return det
}

func checkFilename(filename string) (hasSuffix, hasKeyword bool) {
	name := strings.ToLower(filename)
	for _, s := range videoSuffixes {
		if strings.Contains(name, s) {
			hasSuffix = true
			break
		}
	}
	for _, k := range videoKeywords {
		if strings.Contains(name, k) {
			hasKeyword = true
			break
		}
	}
	return hasSuffix, hasKeyword
}

// matchPlayButton slides every template across a downscaled grayscale copy and
// keeps the single best normalized cross-correlation score.
func (d *Detector) matchPlayButton(gray *image.Gray) float64 {
	scaled := downscaleGray(gray, matchMaxDim)

	best := 0.0
	for _, tpl := range d.templates {
		if score := matchTemplate(scaled, tpl.gray, matchStride); score > best {
			best = score
		}
	}
	return best
}

// matchCornerIcon restricts the badge-style templates to the top-right corner
// region sized min(width/4, height/4, 100px). It runs on the full-resolution
// grayscale since the corner is small.
func (d *Detector) matchCornerIcon(gray *image.Gray) float64 {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	corner := w / 4
	if h/4 < corner {
		corner = h / 4
	}
	if corner > 100 {
		corner = 100
	}
	if corner < 4 {
		return 0
	}

	region := gray.SubImage(image.Rect(gray.Rect.Max.X-corner, gray.Rect.Min.Y, gray.Rect.Max.X, gray.Rect.Min.Y+corner)).(*image.Gray)

	best := 0.0
	for _, tpl := range d.templates {
		if !tpl.badge || tpl.size > corner {
			continue
		}
		if score := matchTemplate(region, tpl.gray, 1); score > best {
			best = score
		}
	}
	return best
}

// matchTemplate computes the maximum zero-mean normalized cross-correlation of
// tpl over img, evaluated on a stride grid.
func matchTemplate(img, tpl *image.Gray, stride int) float64 {
	iw, ih := img.Rect.Dx(), img.Rect.Dy()
	tw, th := tpl.Rect.Dx(), tpl.Rect.Dy()
	if tw > iw || th > ih || tw == 0 || th == 0 {
		return 0
	}
	if stride < 1 {
		stride = 1
	}

	tplMean, tplNorm := templateStats(tpl)
	if tplNorm == 0 {
		return 0
	}

	best := 0.0
	for y := 0; y+th <= ih; y += stride {
		for x := 0; x+tw <= iw; x += stride {
			if score := nccAt(img, tpl, x, y, tplMean, tplNorm); score > best {
				best = score
			}
		}
	}
	return best
}

func templateStats(tpl *image.Gray) (mean, norm float64) {
	tw, th := tpl.Rect.Dx(), tpl.Rect.Dy()
	n := float64(tw * th)

	var sum float64
	for y := 0; y < th; y++ {
		row := tpl.Pix[y*tpl.Stride : y*tpl.Stride+tw]
		for _, v := range row {
			sum += float64(v)
		}
	}
	mean = sum / n

	var sq float64
	for y := 0; y < th; y++ {
		row := tpl.Pix[y*tpl.Stride : y*tpl.Stride+tw]
		for _, v := range row {
			d := float64(v) - mean
			sq += d * d
		}
	}
	return mean, math.Sqrt(sq)
}

func nccAt(img, tpl *image.Gray, ox, oy int, tplMean, tplNorm float64) float64 {
	tw, th := tpl.Rect.Dx(), tpl.Rect.Dy()
	n := float64(tw * th)

	base := img.PixOffset(img.Rect.Min.X+ox, img.Rect.Min.Y+oy)

	var sum float64
	for y := 0; y < th; y++ {
		row := img.Pix[base+y*img.Stride : base+y*img.Stride+tw]
		for _, v := range row {
			sum += float64(v)
		}
	}
	winMean := sum / n

	var cross, winSq float64
	for y := 0; y < th; y++ {
		irow := img.Pix[base+y*img.Stride : base+y*img.Stride+tw]
		trow := tpl.Pix[y*tpl.Stride : y*tpl.Stride+tw]
		for x := 0; x < tw; x++ {
			iv := float64(irow[x]) - winMean
			tv := float64(trow[x]) - tplMean
			cross += iv * tv
			winSq += iv * iv
		}
	}
	if winSq == 0 {
		return 0
	}
	return cross / (math.Sqrt(winSq) * tplNorm)
}

// detectProgressBar looks for a long, roughly horizontal edge segment in the
// bottom 20% of the frame, the shape a player progress bar leaves behind.
func detectProgressBar(gray *image.Gray) bool {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	if w < 8 || h < 8 {
		return false
	}

	top := gray.Rect.Min.Y + int(float64(h)*0.8)
	minLength := w / 4
	const maxGap = 10
	const edgeThreshold = 50

	for y := top; y < gray.Rect.Max.Y-1; y++ {
		run, gap := 0, 0
		for x := gray.Rect.Min.X; x < gray.Rect.Max.X; x++ {
			above := gray.GrayAt(x, y).Y
			below := gray.GrayAt(x, y+1).Y
			diff := int(above) - int(below)
			if diff < 0 {
				diff = -diff
			}
			if diff >= edgeThreshold {
				run += gap + 1
				gap = 0
			} else {
				gap++
				if gap > maxGap {
					run, gap = 0, 0
				}
			}
			if run >= minLength {
				return true
			}
		}
	}
	return false
}

func classifyAspect(ratio float64) string {
	for _, b := range aspectBuckets {
		if math.Abs(ratio-b.ratio) <= b.tolerance {
			return b.name
		}
	}
	return "unknown"
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func downscaleGray(gray *image.Gray, maxDim int) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w <= maxDim && h <= maxDim {
		return gray
	}
	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dst := image.NewGray(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, gray, gray.Bounds(), xdraw.Over, nil)
	return dst
}
