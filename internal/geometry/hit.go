package geometry

// PointInShape reports whether p lies inside s.
//
// Rect bounds are inclusive, a Circle includes points at exactly the radius,
// and a Lasso uses the even-odd rule over its closed vertex list. Degenerate
// shapes contain nothing.
func PointInShape(p Point, s Shape) bool {
	switch s.kind {
	case KindRect:
		box := BoundingBox(s)
		return !box.Empty() && box.Contains(p)
	case KindCircle:
		if len(s.points) != 2 {
			return false
		}
		r2 := distSq(s.points[0], s.points[1])
		if r2 == 0 {
			return false
		}
		return distSq(p, s.points[0]) <= r2
	case KindLasso:
		if len(s.points) < 3 || BoundingBox(s).Empty() {
			return false
		}
		return pointInPolygon(p, s.points)
	}
	return false
}

// pointInPolygon is the even-odd ray cast toward +X.
func pointInPolygon(p Point, poly []Point) bool {
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}
