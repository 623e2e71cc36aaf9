// Package session owns the state of one analysis session and schedules the
// pipeline over it.
//
// A Session is driven from a single control goroutine. Every input change
// (threshold, tab, visualisation mode, calibration references, ROI and
// exclusion geometry, regression, scale, the loaded image) bumps the input
// version and marks the session dirty. Tick is the only place a pipeline pass
// runs: it first commits the group stats produced by the previous pass, then
// runs at most one new pass.
//
// Stat commits are deferred to the Tick after the pass that produced them and
// only happen when:
//
//   - the pass version still equals the current input version,
//   - no drag is in progress,
//   - the stats differ from what is already committed.
//
// Committing never bumps the version, so it cannot retrigger a pass.
//
// Marker detection and narrative generation run in goroutines. Their results
// come back as Completions on a channel and are applied on the control
// goroutine. Each request carries a generation number and completions from an
// older generation are dropped.
package session
