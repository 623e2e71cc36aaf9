package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies the variant of a Shape.
type Kind int

const (
	KindRect Kind = iota
	KindCircle
	KindLasso
)

func (k Kind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindCircle:
		return "circle"
	case KindLasso:
		return "lasso"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts "rect", "circle" or "lasso" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "rect":
		return KindRect, nil
	case "circle":
		return KindCircle, nil
	case "lasso":
		return KindLasso, nil
	}
	return 0, fmt.Errorf("unknown shape kind: %q", s)
}

// ShapeID is the stable identifier of a shape across edits.
type ShapeID string

// ErrInvalidPointCount is returned when a point list does not fit the kind.
var ErrInvalidPointCount = errors.New("invalid point count for shape kind")

// Shape is an immutable Rect, Circle or Lasso.
//
// Rect and Circle always hold exactly two points, [anchor, far]. A Lasso holds
// at least one vertex.
type Shape struct {
	id     ShapeID
	kind   Kind
	points []Point
}

// NewRect returns a rectangle spanning the corners a and b.
func NewRect(id ShapeID, a, b Point) Shape {
	return Shape{id: id, kind: KindRect, points: []Point{a, b}}
}

// NewCircle returns a circle centered at center passing through edge.
func NewCircle(id ShapeID, center, edge Point) Shape {
	return Shape{id: id, kind: KindCircle, points: []Point{center, edge}}
}

// NewLasso returns a polygon through the given vertices.
func NewLasso(id ShapeID, vertices ...Point) (Shape, error) {
	return New(id, KindLasso, vertices)
}

// New builds a shape of any kind, validating the point count.
func New(id ShapeID, kind Kind, points []Point) (Shape, error) {
	if err := checkCount(kind, len(points)); err != nil {
		return Shape{}, err
	}
	return Shape{id: id, kind: kind, points: clonePoints(points)}, nil
}

func checkCount(kind Kind, n int) error {
	switch kind {
	case KindRect, KindCircle:
		if n != 2 {
			return fmt.Errorf("%w: %s needs 2 points, got %d", ErrInvalidPointCount, kind, n)
		}
	case KindLasso:
		if n < 1 {
			return fmt.Errorf("%w: lasso needs at least 1 point", ErrInvalidPointCount)
		}
	default:
		return fmt.Errorf("unknown shape kind: %d", int(kind))
	}
	return nil
}

func clonePoints(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// ID returns the shape identifier.
func (s Shape) ID() ShapeID { return s.id }

// Kind returns the shape variant.
func (s Shape) Kind() Kind { return s.kind }

// Len returns the number of points.
func (s Shape) Len() int { return len(s.points) }

// IsZero reports whether s is the zero Shape.
func (s Shape) IsZero() bool { return s.id == "" && len(s.points) == 0 }

// Points returns a copy of the point list.
func (s Shape) Points() []Point { return clonePoints(s.points) }

// Point returns the i-th point.
func (s Shape) Point(i int) Point { return s.points[i] }

// Radius returns the circle radius, or 0 for other kinds.
func (s Shape) Radius() float64 {
	if s.kind != KindCircle || len(s.points) < 2 {
		return 0
	}
	return s.points[0].Distance(s.points[1])
}

// WithPoints returns a copy of s with a new point list.
func (s Shape) WithPoints(points []Point) (Shape, error) {
	if err := checkCount(s.kind, len(points)); err != nil {
		return s, err
	}
	return Shape{id: s.id, kind: s.kind, points: clonePoints(points)}, nil
}

// WithFar replaces the second point of a Rect or Circle. A Lasso is returned
// unchanged.
func (s Shape) WithFar(p Point) Shape {
	if s.kind == KindLasso || len(s.points) != 2 {
		return s
	}
	return Shape{id: s.id, kind: s.kind, points: []Point{s.points[0], p}}
}

// Append adds a vertex to a Lasso. A vertex equal to the last one is skipped,
// and Rect and Circle are returned unchanged.
func (s Shape) Append(p Point) Shape {
	if s.kind != KindLasso {
		return s
	}
	if n := len(s.points); n > 0 && s.points[n-1] == p {
		return s
	}
	pts := make([]Point, len(s.points), len(s.points)+1)
	copy(pts, s.points)
	return Shape{id: s.id, kind: s.kind, points: append(pts, p)}
}

// Translate returns s moved by d.
func (s Shape) Translate(d Point) Shape {
	pts := make([]Point, len(s.points))
	for i, p := range s.points {
		pts[i] = p.Add(d)
	}
	return Shape{id: s.id, kind: s.kind, points: pts}
}

type shapeJSON struct {
	ID     ShapeID `json:"id"`
	Kind   string  `json:"kind"`
	Points []Point `json:"points"`
}

// MarshalJSON encodes the shape as {"id","kind","points"}.
func (s Shape) MarshalJSON() ([]byte, error) {
	pts := s.points
	if pts == nil {
		pts = []Point{}
	}
	return json.Marshal(shapeJSON{ID: s.id, Kind: s.kind.String(), Points: pts})
}

// UnmarshalJSON decodes and validates a shape.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var raw shapeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return err
	}
	shape, err := New(raw.ID, kind, raw.Points)
	if err != nil {
		return err
	}
	*s = shape
	return nil
}
