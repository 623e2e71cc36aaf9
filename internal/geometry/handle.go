package geometry

import "fmt"

// Handle is one of the four bounding-box corners used to resize a shape.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleNE
	HandleSW
	HandleSE
)

var handleOrder = [...]Handle{HandleNW, HandleNE, HandleSW, HandleSE}

func (h Handle) String() string {
	switch h {
	case HandleNone:
		return "none"
	case HandleNW:
		return "nw"
	case HandleNE:
		return "ne"
	case HandleSW:
		return "sw"
	case HandleSE:
		return "se"
	default:
		return fmt.Sprintf("handle(%d)", int(h))
	}
}

// Handles returns the four corner handles in test order.
func Handles() []Handle {
	return handleOrder[:]
}

// HandleAt returns the first corner of s's bounding box within tolerancePx
// screen pixels of p. The tolerance is divided by zoom so that it stays
// constant on screen while the comparison happens in raster space.
func HandleAt(p Point, s Shape, tolerancePx, zoom float64) Handle {
	if len(s.points) == 0 {
		return HandleNone
	}
	if zoom <= 0 {
		zoom = 1
	}
	tol := tolerancePx / zoom
	box := BoundingBox(s)
	for _, h := range handleOrder {
		if p.Distance(box.Corner(h)) <= tol {
			return h
		}
	}
	return HandleNone
}

// DragCorner returns the frame obtained by moving only the corner h of b by
// delta. The opposite corner stays fixed. The result may have negative extent
// when the corner is dragged past its opposite.
func DragCorner(b Box, h Handle, delta Point) Box {
	minX, maxX, minY, maxY := b.MinX, b.MaxX, b.MinY, b.MaxY
	switch h {
	case HandleNW:
		minX += delta.X
		minY += delta.Y
	case HandleNE:
		maxX += delta.X
		minY += delta.Y
	case HandleSW:
		minX += delta.X
		maxY += delta.Y
	case HandleSE:
		maxX += delta.X
		maxY += delta.Y
	}
	return newBox(minX, minY, maxX, maxY)
}

// MapPoints maps each point from frame `from` into frame `to` with
// independent X and Y scale factors new = to.Min + (old - from.Min) * scale.
// A zero source extent scales by the target extent.
func MapPoints(points []Point, from, to Box) []Point {
	sx := to.Width / extentOrOne(from.Width)
	sy := to.Height / extentOrOne(from.Height)
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{
			X: to.MinX + (p.X-from.MinX)*sx,
			Y: to.MinY + (p.Y-from.MinY)*sy,
		}
	}
	return out
}

func extentOrOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
