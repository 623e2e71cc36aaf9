// Package visualize turns classified pixels into display colors and draws the
// ROI overlay layer.
//
// The mapper never touches aggregated stats. It is a projection of the
// per-pixel classification produced by the analysis pass, selected by the
// active tab and display mode.
//
// The overlay is a separate transparent layer. Viewport zoom only scales line
// width and handle size so that both keep a constant on-screen size.
package visualize
