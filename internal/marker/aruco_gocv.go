//go:build gocv

package marker

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
)

// ArucoDetector detects markers locally with OpenCV.
type ArucoDetector struct {
	Dictionary gocv.ArucoDictionaryCode
}

// NewArucoDetector returns a detector for the 4x4_50 dictionary.
func NewArucoDetector() *ArucoDetector {
	return &ArucoDetector{Dictionary: gocv.ArucoDict4x4_50}
}

// Detect implements Detector. When several markers are visible the first one
// is returned.
func (d *ArucoDetector) Detect(ctx context.Context, jpeg []byte) (*Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to decode image: empty matrix")
	}

	det := gocv.NewArucoDetectorWithParams(
		gocv.GetPredefinedDictionary(d.Dictionary),
		gocv.NewArucoDetectorParameters(),
	)
	defer det.Close()

	corners, ids, _ := det.DetectMarkers(mat)
	if len(corners) == 0 || len(corners[0]) != 4 {
		return &Detection{}, nil
	}

	out := &Detection{Found: true}
	if len(ids) > 0 {
		out.ID = ids[0]
	}
	for i, p := range corners[0] {
		out.Corners[i].X, out.Corners[i].Y = float64(p.X), float64(p.Y)
	}
	return out, nil
}

// Local returns the OpenCV detector.
func Local() Detector {
	return NewArucoDetector()
}
