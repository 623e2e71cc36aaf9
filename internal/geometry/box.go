package geometry

import "math"

// Box is an axis-aligned bounding box in raster coordinates.
type Box struct {
	MinX   float64 `json:"min_x"`
	MaxX   float64 `json:"max_x"`
	MinY   float64 `json:"min_y"`
	MaxY   float64 `json:"max_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func newBox(minX, minY, maxX, maxY float64) Box {
	return Box{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY, Width: maxX - minX, Height: maxY - minY}
}

// Empty reports whether the box has zero area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Contains reports whether p lies inside b, bounds inclusive.
func (b Box) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Corner returns the position of the given handle on the box.
func (b Box) Corner(h Handle) Point {
	switch h {
	case HandleNE:
		return Point{X: b.MaxX, Y: b.MinY}
	case HandleSW:
		return Point{X: b.MinX, Y: b.MaxY}
	case HandleSE:
		return Point{X: b.MaxX, Y: b.MaxY}
	default:
		return Point{X: b.MinX, Y: b.MinY}
	}
}

// BoundingBox returns the extent of s. A Circle's box is center ± radius.
// Shapes without points yield the zero Box.
func BoundingBox(s Shape) Box {
	if len(s.points) == 0 {
		return Box{}
	}
	if s.kind == KindCircle && len(s.points) == 2 {
		c := s.points[0]
		r := s.Radius()
		return newBox(c.X-r, c.Y-r, c.X+r, c.Y+r)
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range s.points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return newBox(minX, minY, maxX, maxY)
}
