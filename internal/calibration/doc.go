// Package calibration derives per-channel color correction from sampled
// reference patches.
//
// Three reference slots exist: gray, white and black. Derive picks exactly one
// correction mode in priority order:
//
//  1. Contrast stretch when both white and black are sampled.
//  2. Gray-world balance when only white or only gray is sampled (white wins).
//  3. Identity otherwise.
//
// Zero reference channels never produce infinite scale factors: the stretch
// divisor and the gray-world reference are floored at 1.
package calibration
