package marker

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
)

// Corners are the marker corners: top-left, top-right, bottom-right,
// bottom-left.
type Corners [4]geometry.Point

// Detection is the outcome of one detector call.
type Detection struct {
	Found   bool    `json:"found"`
	ID      int     `json:"id"`
	Corners Corners `json:"corners"`
}

// Detector finds a marker in JPEG-encoded image bytes. A missing marker is
// reported as Detection{Found: false} with a nil error.
type Detector interface {
	Detect(ctx context.Context, jpeg []byte) (*Detection, error)
}

// Estimate is the geometry derived from a detection.
type Estimate struct {
	Found bool `json:"found"`
	// AngleDeg is the top-edge angle, clockwise from the +X axis.
	AngleDeg float64 `json:"angle_deg"`
	// EdgePx is the mean side length in pixels.
	EdgePx float64 `json:"edge_px"`
	// PixelsPerUnit is EdgePx divided by the marker size, 0 without a size.
	PixelsPerUnit float64 `json:"pixels_per_unit"`
}

// EstimateFromCorners derives rotation and scale from marker corners.
// markerSize is the printed side length in physical units, or 0 if unknown.
func EstimateFromCorners(c Corners, markerSize float64) Estimate {
	top := c[1].Sub(c[0])
	est := Estimate{
		Found:    true,
		AngleDeg: math.Atan2(top.Y, top.X) * 180 / math.Pi,
	}

	sides := make([]float64, 4)
	for i := range c {
		sides[i] = c[i].Distance(c[(i+1)%4])
	}
	est.EdgePx = stat.Mean(sides, nil)
	if markerSize > 0 && est.EdgePx > 0 {
		est.PixelsPerUnit = est.EdgePx / markerSize
	}
	return est
}

// Detect runs d and converts the result into an Estimate. Detector failures
// are returned as errors so callers can log them; callers treat both an error
// and Found == false as "not found".
func Detect(ctx context.Context, d Detector, jpeg []byte, markerSize float64) (Estimate, error) {
	det, err := d.Detect(ctx, jpeg)
	if err != nil {
		return Estimate{}, err
	}
	if det == nil || !det.Found {
		return Estimate{}, nil
	}
	return EstimateFromCorners(det.Corners, markerSize), nil
}
