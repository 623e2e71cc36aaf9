package calibration

import (
	"image"
	"math"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
)

// Sample averages the RGB values of every pixel of img whose integer
// coordinates fall inside shape. Only the shape's bounding box, clipped to the
// image, is visited. ok is false when no pixel matched.
func Sample(img *image.RGBA, shape geometry.Shape) (c Color, n int, ok bool) {
	box := geometry.BoundingBox(shape)
	if box.Empty() {
		return Color{}, 0, false
	}
	b := img.Bounds()
	x0 := max(b.Min.X, int(math.Floor(box.MinX)))
	y0 := max(b.Min.Y, int(math.Floor(box.MinY)))
	x1 := min(b.Max.X-1, int(math.Ceil(box.MaxX)))
	y1 := min(b.Max.Y-1, int(math.Ceil(box.MaxY)))

	var sr, sg, sb float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !geometry.PointInShape(geometry.Pt(float64(x), float64(y)), shape) {
				continue
			}
			i := img.PixOffset(x, y)
			sr += float64(img.Pix[i])
			sg += float64(img.Pix[i+1])
			sb += float64(img.Pix[i+2])
			n++
		}
	}
	if n == 0 {
		return Color{}, 0, false
	}
	fn := float64(n)
	return Color{R: sr / fn, G: sg / fn, B: sb / fn}, n, true
}
