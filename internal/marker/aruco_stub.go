//go:build !gocv

package marker

// Local returns nil when built without OpenCV support.
func Local() Detector {
	return nil
}
