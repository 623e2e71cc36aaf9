package visualize

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
)

// OverlayItem is one shape to outline.
type OverlayItem struct {
	Shape geometry.Shape
	Color color.RGBA
}

// OverlayOptions control overlay rendering. Sizes are screen pixels.
type OverlayOptions struct {
	Zoom       float64
	LineWidth  float64
	HandleSize float64
	// Selected is the shape whose resize handles are drawn.
	Selected geometry.ShapeID
}

// DefaultOverlayOptions returns 2px outlines and 8px handles at zoom 1.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{Zoom: 1, LineWidth: 2, HandleSize: 8}
}

const circleSegments = 64

// Overlay draws the outlines of items onto a transparent width x height layer
// in raster coordinates.
func Overlay(width, height int, items []OverlayItem, opts OverlayOptions) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return dst
	}
	zoom := opts.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	lw := opts.LineWidth / zoom
	hs := opts.HandleSize / zoom

	z := vector.NewRasterizer(width, height)
	for _, it := range items {
		pts := outline(it.Shape)
		if len(pts) < 2 {
			continue
		}
		z.Reset(width, height)
		strokeClosed(z, pts, lw)
		z.Draw(dst, dst.Bounds(), image.NewUniform(it.Color), image.Point{})

		if opts.Selected != "" && it.Shape.ID() == opts.Selected {
			box := geometry.BoundingBox(it.Shape)
			for _, h := range geometry.Handles() {
				c := box.Corner(h)
				z.Reset(width, height)
				fillSquare(z, c, hs)
				z.Draw(dst, dst.Bounds(), image.White, image.Point{})
				z.Reset(width, height)
				fillSquare(z, c, hs*0.6)
				z.Draw(dst, dst.Bounds(), image.NewUniform(it.Color), image.Point{})
			}
		}
	}
	return dst
}

// outline returns the closed polygon used to draw s.
func outline(s geometry.Shape) []geometry.Point {
	switch s.Kind() {
	case geometry.KindRect:
		if s.Len() != 2 {
			return nil
		}
		b := geometry.BoundingBox(s)
		return []geometry.Point{
			b.Corner(geometry.HandleNW), b.Corner(geometry.HandleNE),
			b.Corner(geometry.HandleSE), b.Corner(geometry.HandleSW),
		}
	case geometry.KindCircle:
		r := s.Radius()
		if r == 0 {
			return nil
		}
		c := s.Point(0)
		pts := make([]geometry.Point, circleSegments)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / circleSegments
			pts[i] = geometry.Pt(c.X+r*math.Cos(a), c.Y+r*math.Sin(a))
		}
		return pts
	}
	return s.Points()
}

// strokeClosed adds one quad per edge of the closed polyline. All quads share
// the same orientation so overlaps accumulate instead of cancelling.
func strokeClosed(z *vector.Rasterizer, pts []geometry.Point, width float64) {
	hw := width / 2
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		d := b.Sub(a)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			continue
		}
		n := geometry.Pt(-d.Y/l*hw, d.X/l*hw)
		// extend by half the width so corners join
		e := geometry.Pt(d.X/l*hw, d.Y/l*hw)
		a, b = a.Sub(e), b.Add(e)
		moveTo(z, a.Add(n))
		lineTo(z, b.Add(n))
		lineTo(z, b.Sub(n))
		lineTo(z, a.Sub(n))
		z.ClosePath()
	}
}

func fillSquare(z *vector.Rasterizer, c geometry.Point, size float64) {
	h := size / 2
	moveTo(z, geometry.Pt(c.X-h, c.Y-h))
	lineTo(z, geometry.Pt(c.X+h, c.Y-h))
	lineTo(z, geometry.Pt(c.X+h, c.Y+h))
	lineTo(z, geometry.Pt(c.X-h, c.Y+h))
	z.ClosePath()
}

func moveTo(z *vector.Rasterizer, p geometry.Point) { z.MoveTo(float32(p.X), float32(p.Y)) }
func lineTo(z *vector.Rasterizer, p geometry.Point) { z.LineTo(float32(p.X), float32(p.Y)) }
