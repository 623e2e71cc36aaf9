// Package analysis implements the full-raster classification pass and the
// per-group aggregation that follows it.
//
// # Pipeline
//
// For every pixel Run applies the calibration correction, computes the color
// indices and classifies the pixel:
//
//   - ExG = 2G - R - B. The pixel is vegetation when ExG > threshold.
//   - Vegetation inside any exclusion zone is reclassified as excluded, which
//     every consumer treats as background.
//   - NGRDI = (G - R) / (G + R), mACI = R / G and GI = G / (R + G + B), each 0
//     when its denominator is 0.
//
// Vegetation pixels are then tested against every ROI group. Membership is
// non-exclusive: a pixel inside shapes of two groups is counted in both.
//
// # Regression
//
// The anthocyanin estimate of a group is slope * mean(target) + intercept,
// where the target is mACI or NGRDI. AutoTune fits slope and intercept so that
// the observed range of group means maps onto [1, 40], falling back to
// literature defaults when the range is below a 0.05 noise floor.
//
// The pass is deterministic: identical inputs give bit-identical stats.
package analysis
