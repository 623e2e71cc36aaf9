package analysis

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/calibration"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
)

// Class is the segmentation result of one pixel.
type Class uint8

const (
	ClassBackground Class = iota
	ClassVegetation
	// ClassExcluded is vegetation removed by an exclusion zone.
	ClassExcluded
)

func (c Class) String() string {
	switch c {
	case ClassVegetation:
		return "vegetation"
	case ClassExcluded:
		return "excluded"
	default:
		return "background"
	}
}

// ErrNoRaster is returned when Run is called without an image.
var ErrNoRaster = errors.New("no raster loaded")

// GroupInput is the geometry of one ROI group.
type GroupInput struct {
	ID     string
	Shapes []geometry.Shape
}

// Input bundles everything a pass depends on.
type Input struct {
	Raster        *image.RGBA
	Correction    calibration.Correction
	Threshold     float64
	Exclusions    []geometry.Shape
	Groups        []GroupInput
	Regression    Regression
	PixelsPerUnit float64
}

// Pixel is the per-pixel view handed to a Painter.
type Pixel struct {
	X, Y    int
	R, G, B float64
	Class   Class
	Indices Indices
	// InGroup is true when the pixel is vegetation inside at least one group.
	InGroup bool
	// AnyGroups is true when at least one group is defined.
	AnyGroups bool
}

// Painter maps a classified pixel to its display color.
type Painter func(px *Pixel) color.RGBA

// GroupResult pairs a group id with its finalized stats.
type GroupResult struct {
	ID    string     `json:"id"`
	Stats GroupStats `json:"stats"`
}

// Totals summarizes the whole raster.
type Totals struct {
	Pixels       int     `json:"pixels"`
	Vegetation   int     `json:"vegetation"`
	Excluded     int     `json:"excluded"`
	CoverPercent float64 `json:"cover_percent"`
}

// Result is the output of one pass.
type Result struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Mask   []Class       `json:"-"`
	Groups []GroupResult `json:"groups"`
	Totals Totals        `json:"totals"`
}

// ClassAt returns the class of the pixel at (x, y) relative to the raster
// origin.
func (r *Result) ClassAt(x, y int) Class {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return ClassBackground
	}
	return r.Mask[y*r.Width+x]
}

// Stats returns the stats of the group with the given id.
func (r *Result) Stats(id string) (GroupStats, bool) {
	for _, g := range r.Groups {
		if g.ID == id {
			return g.Stats, true
		}
	}
	return GroupStats{}, false
}

type boxedShape struct {
	box   geometry.Box
	shape geometry.Shape
}

func boxed(shapes []geometry.Shape) []boxedShape {
	out := make([]boxedShape, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, boxedShape{box: geometry.BoundingBox(s), shape: s})
	}
	return out
}

func containsAny(p geometry.Point, shapes []boxedShape) bool {
	for _, s := range shapes {
		if s.box.Contains(p) && geometry.PointInShape(p, s.shape) {
			return true
		}
	}
	return false
}

// Run classifies every pixel of in.Raster, aggregates per-group stats and,
// when out is non-nil, writes paint's color for every pixel into out. out
// must have the raster's dimensions.
func Run(in Input, out *image.RGBA, paint Painter) (*Result, error) {
	if in.Raster == nil {
		return nil, ErrNoRaster
	}
	bounds := in.Raster.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if out != nil && (out.Bounds().Dx() != w || out.Bounds().Dy() != h) {
		return nil, fmt.Errorf("output buffer is %dx%d, raster is %dx%d",
			out.Bounds().Dx(), out.Bounds().Dy(), w, h)
	}

	exclusions := boxed(in.Exclusions)
	groups := make([][]boxedShape, len(in.Groups))
	for i, g := range in.Groups {
		groups[i] = boxed(g.Shapes)
	}
	stats := make([]GroupStats, len(in.Groups))

	res := &Result{Width: w, Height: h, Mask: make([]Class, w*h)}
	px := Pixel{AnyGroups: len(in.Groups) > 0}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := in.Raster.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b := in.Correction.Apply(
				float64(in.Raster.Pix[i]),
				float64(in.Raster.Pix[i+1]),
				float64(in.Raster.Pix[i+2]),
			)
			idx := ComputeIndices(r, g, b)
			p := geometry.Pt(float64(x), float64(y))

			class := ClassBackground
			inGroup := false
			if idx.ExG > in.Threshold {
				class = ClassVegetation
				if containsAny(p, exclusions) {
					class = ClassExcluded
				}
			}
			if class == ClassVegetation {
				res.Totals.Vegetation++
				for gi, shapes := range groups {
					if containsAny(p, shapes) {
						stats[gi].add(r, g, b, idx)
						inGroup = true
					}
				}
			} else if class == ClassExcluded {
				res.Totals.Excluded++
			}
			res.Mask[y*w+x] = class

			if out != nil && paint != nil {
				px.X, px.Y = x, y
				px.R, px.G, px.B = r, g, b
				px.Class = class
				px.Indices = idx
				px.InGroup = inGroup
				o := out.PixOffset(out.Bounds().Min.X+x, out.Bounds().Min.Y+y)
				c := paint(&px)
				out.Pix[o], out.Pix[o+1], out.Pix[o+2], out.Pix[o+3] = c.R, c.G, c.B, c.A
			}
		}
	}

	res.Totals.Pixels = w * h
	if res.Totals.Pixels > 0 {
		res.Totals.CoverPercent = float64(res.Totals.Vegetation) / float64(res.Totals.Pixels) * 100
	}
	res.Groups = make([]GroupResult, len(in.Groups))
	for i, g := range in.Groups {
		stats[i].Finalize(in.Regression, in.PixelsPerUnit)
		res.Groups[i] = GroupResult{ID: g.ID, Stats: stats[i]}
	}
	return res, nil
}
