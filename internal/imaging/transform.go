package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Straighten rotates img so that a feature measured at angleDeg (clockwise
// from the +X axis, as returned by marker detection) becomes horizontal. The
// output bounds grow to fit the rotated image.
func Straighten(img image.Image, angleDeg float64) *image.RGBA {
	if angleDeg == 0 {
		return ToRGBA(img)
	}
	rotated := transform.Rotate(img, -angleDeg, &transform.RotationOptions{ResizeBounds: true})
	return ToRGBA(rotated)
}

// Fit scales img down so that neither side exceeds maxSide. Images already
// within the limit, or a maxSide <= 0, are returned unchanged.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

// Crop returns the part of img inside rect, clipped to the image bounds.
func Crop(img image.Image, rect image.Rectangle) image.Image {
	return imaging.Crop(img, rect.Intersect(img.Bounds()))
}
