// Package marker locates an ArUco reference marker in a tray photograph and
// derives the image rotation and physical scale from it.
//
// Detectors take JPEG bytes and return the four marker corners in image pixel
// space, ordered top-left, top-right, bottom-right, bottom-left. Two
// implementations exist:
//
//   - HTTPDetector posts the image to a remote vision service.
//   - ArucoDetector runs OpenCV locally. It is only built with the "gocv"
//     build tag because it needs the OpenCV libraries.
//
// Estimate turns corners into a rotation angle (arctangent of the top edge)
// and, when the printed marker size is known, a pixels-per-unit scale.
package marker
