package analysis

import (
	"image"
	"image/color"
)

// Grayscale shades used when rasterizing synthetic glyphs. They mirror the
// badge/play-button chrome that photo feeds overlay on video posts: a light
// rounded plate with a darker triangle.
const (
	shadePlate    = 255
	shadeOutline  = 200
	shadeTriangle = 100
)

var (
	badgeSizes    = []int{20, 25, 30, 35, 40}
	circularSizes = []int{30, 40, 50, 60, 80, 100}
)

// glyphTemplate is one synthetic template the detector slides across an image.
type glyphTemplate struct {
	gray  *image.Gray
	size  int
	badge bool // small corner-badge style, usable in the corner-region scan
}

// buildTemplateBank rasterizes the full set of video-badge and circular
// play-button glyphs. Badge glyphs come first so the corner scan can reuse the
// head of the slice.
func buildTemplateBank() []glyphTemplate {
	bank := make([]glyphTemplate, 0, len(badgeSizes)+len(circularSizes))

	for _, size := range badgeSizes {
		g := image.NewGray(image.Rect(0, 0, size, size))
		fillRect(g, 2, 2, size-2, size-2, shadePlate)
		strokeRect(g, 0, 0, size-1, size-1, shadeOutline)

		cx, cy := size/2, size/2
		tri := size / 3
		fillTriangle(g,
			image.Pt(cx-tri/2, cy-tri/2),
			image.Pt(cx-tri/2, cy+tri/2),
			image.Pt(cx+tri/2, cy),
			shadeTriangle)

		bank = append(bank, glyphTemplate{gray: g, size: size, badge: true})
	}

	for _, size := range circularSizes {
		g := image.NewGray(image.Rect(0, 0, size, size))
		cx, cy := size/2, size/2
		radius := size/2 - 2
		fillCircle(g, cx, cy, radius, shadePlate)
		strokeCircle(g, cx, cy, radius, 2, shadeOutline)

		tri := radius / 2
		fillTriangle(g,
			image.Pt(cx-tri/2, cy-tri),
			image.Pt(cx-tri/2, cy+tri),
			image.Pt(cx+tri, cy),
			shadeTriangle)

		bank = append(bank, glyphTemplate{gray: g, size: size, badge: false})
	}

	return bank
}

func setGray(g *image.Gray, x, y int, shade uint8) {
	if (image.Point{X: x, Y: y}).In(g.Rect) {
		g.SetGray(x, y, color.Gray{Y: shade})
	}
}

func fillRect(g *image.Gray, x0, y0, x1, y1 int, shade uint8) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			setGray(g, x, y, shade)
		}
	}
}

func strokeRect(g *image.Gray, x0, y0, x1, y1 int, shade uint8) {
	for x := x0; x <= x1; x++ {
		setGray(g, x, y0, shade)
		setGray(g, x, y1, shade)
	}
	for y := y0; y <= y1; y++ {
		setGray(g, x0, y, shade)
		setGray(g, x1, y, shade)
	}
}

func fillCircle(g *image.Gray, cx, cy, r int, shade uint8) {
	rr := r * r
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= rr {
				setGray(g, x, y, shade)
			}
		}
	}
}

func strokeCircle(g *image.Gray, cx, cy, r, width int, shade uint8) {
	outer := r * r
	in := r - width
	if in < 0 {
		in = 0
	}
	inner := in * in
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			d := dx*dx + dy*dy
			if d <= outer && d >= inner {
				setGray(g, x, y, shade)
			}
		}
	}
}

// fillTriangle rasterizes a filled triangle using edge-function tests over the
// bounding box; all glyphs are small enough that the quadratic scan is free.
func fillTriangle(g *image.Gray, a, b, c image.Point, shade uint8) {
	minX := min3(a.X, b.X, c.X)
	maxX := max3(a.X, b.X, c.X)
	minY := min3(a.Y, b.Y, c.Y)
	maxY := max3(a.Y, b.Y, c.Y)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := image.Pt(x, y)
			d1 := edgeSign(p, a, b)
			d2 := edgeSign(p, b, c)
			d3 := edgeSign(p, c, a)
			hasNeg := d1 < 0 || d2 < 0 || d3 < 0
			hasPos := d1 > 0 || d2 > 0 || d3 > 0
			if !(hasNeg && hasPos) {
				setGray(g, x, y, shade)
			}
		}
	}
}

func edgeSign(p, a, b image.Point) int {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}
