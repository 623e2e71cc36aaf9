// Package geometry provides the raster-space shape model used by the ROI
// editor and the classification pipeline.
//
// # Shapes
//
// A Shape is one of three kinds:
//
//   - Rect: two points, anchor and opposite corner.
//   - Circle: two points, center and any point on the circle.
//   - Lasso: one or more vertices forming an implicitly closed polygon.
//
// Shapes are immutable values. Constructors and WithPoints enforce the
// per-kind point count, and every edit returns a new Shape backed by a fresh
// point slice.
//
// # Hit-Testing
//
// PointInShape, BoundingBox and HandleAt are pure functions. Degenerate shapes
// (zero-area box, zero radius, lasso with fewer than three vertices) contain no
// point. Handle tolerance is given in screen pixels and is divided by the
// viewport zoom before being compared against raster-space geometry.
//
// # Coordinate System
//
// All coordinates are raster pixels with the origin at the top-left corner,
// X increasing right and Y increasing down.
package geometry
