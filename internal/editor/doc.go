// Package editor implements the pointer-driven ROI editing state machine.
//
// The editor moves between Idle and one of Creating, Moving, Resizing or
// Panning in response to PointerDown, PointerMove and PointerUp. Pointer
// positions are screen coordinates and are converted to raster space through
// the Viewport before any hit-test.
//
// During a drag, the edited geometry is always recomputed from the snapshot
// taken at pointer-down plus the total pointer offset. Nothing is accumulated
// frame by frame, so a drag can be cancelled by restoring the snapshot.
package editor
