package session

import (
	"image"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/calibration"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/roi"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/visualize"
)

func (s *Session) invalidate(reason string) {
	s.version++
	s.dirty = true
	s.logger.Debug("pipeline invalidated", "reason", reason, "version", s.version)
}

// Tick commits the stats of the previous pass when allowed and runs one
// pipeline pass if the session is dirty. It reports whether a pass ran.
func (s *Session) Tick() bool {
	s.commitPending()

	if !s.dirty {
		return false
	}
	s.dirty = false
	if s.raster == nil {
		return false
	}

	s.correction = calibration.Derive(s.shapes.References())
	in := analysis.Input{
		Raster:        s.raster,
		Correction:    s.correction,
		Threshold:     s.threshold,
		Exclusions:    s.shapes.Exclusions(),
		Groups:        s.shapes.GroupInputs(),
		Regression:    s.regression,
		PixelsPerUnit: s.ppu,
	}
	b := s.raster.Bounds()
	if s.out == nil || s.out.Bounds().Size() != b.Size() {
		s.out = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}

	res, err := analysis.Run(in, s.out, visualize.Painter(s.editor.Tab(), s.mode))
	if err != nil {
		s.logger.Error("pipeline pass failed", "version", s.version, "error", err)
		return false
	}
	s.passes++
	s.result = res
	s.resultVersion = s.version
	s.pending = &pendingStats{version: s.version, groups: res.Groups}

	s.logger.Debug("pipeline pass",
		"version", s.version,
		"groups", len(res.Groups),
		"cover_percent", res.Totals.CoverPercent,
	)
	return true
}

// commitPending writes the previous pass's stats into the groups. Stats from
// an outdated version are dropped; during a drag they are held back.
func (s *Session) commitPending() {
	p := s.pending
	if p == nil {
		return
	}
	if p.version != s.version {
		s.pending = nil
		return
	}
	if s.editor.Dragging() {
		return
	}
	s.pending = nil

	committed := 0
	for _, g := range p.groups {
		if s.shapes.CommitStats(roi.GroupID(g.ID), g.Stats, p.version) {
			committed++
		}
	}
	if committed > 0 {
		s.logger.Debug("stats committed", "version", p.version, "groups", committed)
	}
}

// Flush runs the scheduler until the current inputs are processed and their
// stats committed, unless a drag holds the commit back.
func (s *Session) Flush() {
	s.Tick()
	s.Tick()
}

// Result returns the last pass result and the version it was computed at.
func (s *Session) Result() (*analysis.Result, uint64) {
	return s.result, s.resultVersion
}

// Output returns the rendered buffer of the last pass.
func (s *Session) Output() *image.RGBA { return s.out }

// Correction returns the calibration used by the last pass.
func (s *Session) Correction() calibration.Correction { return s.correction }
