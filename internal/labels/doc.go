// Package labels reads the printed tray labels that sit next to each plant
// with Tesseract OCR (via gosseract/v2), so ROI groups can be named after the
// text found inside a drawn shape.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A non-default data directory can be set with Tesseract.TessdataPrefix.
//
// The region handed to OCR is the shape's bounding box, padded and clipped to
// the image. Word boxes in the result are reported in full-image coordinates.
package labels
