// Package roi owns the shape collections edited by the ROI editor: exclusion
// zones, the three calibration reference slots and the ordered ROI groups.
//
// Every shape is stored once in an id-indexed arena together with its owner,
// so lookup, replacement and deletion by id are O(1) regardless of which
// collection holds the shape.
package roi
