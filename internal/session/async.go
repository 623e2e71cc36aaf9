package session

import (
	"context"
	"math"
	"time"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/imaging"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/marker"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/report"
)

// Completion is the result of an async request, applied on the control
// goroutine.
type Completion func(*Session)

// minStraightenDeg is the smallest marker angle that triggers a rotation.
const minStraightenDeg = 0.1

// Completions returns the channel async results arrive on. A reader must pass
// every value to Apply.
func (s *Session) Completions() <-chan Completion { return s.completions }

// Apply runs a completion received from Completions.
func (s *Session) Apply(c Completion) {
	s.inflight--
	c(s)
}

// Pending returns the number of async requests whose completion has not been
// applied yet.
func (s *Session) Pending() int { return s.inflight }

// DrainCompletions applies every completion that is ready without blocking.
func (s *Session) DrainCompletions() int {
	n := 0
	for {
		select {
		case c := <-s.completions:
			s.Apply(c)
			n++
		default:
			return n
		}
	}
}

// WaitCompletions applies ready completions. If none are ready and requests
// are in flight it blocks for the first one, up to timeout.
func (s *Session) WaitCompletions(ctx context.Context, timeout time.Duration) int {
	n := s.DrainCompletions()
	if n > 0 || s.inflight == 0 {
		return n
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c := <-s.completions:
		s.Apply(c)
		return 1 + s.DrainCompletions()
	case <-timer.C:
	case <-ctx.Done():
	}
	return 0
}

func (s *Session) post(c Completion) {
	select {
	case s.completions <- c:
	case <-s.done:
	}
}

// RequestMarker starts marker detection on the working raster and returns the
// request generation. The result is applied by a later completion.
func (s *Session) RequestMarker(ctx context.Context) (uint64, error) {
	if s.raster == nil {
		return 0, ErrNoImage
	}
	det := s.opts.Detector
	if det == nil {
		return 0, ErrNoDetector
	}
	jpeg, err := imaging.EncodeBytes(s.raster, imaging.FormatJPEG, s.opts.JPEGQuality)
	if err != nil {
		return 0, err
	}

	s.markerGen++
	gen := s.markerGen
	size := s.opts.MarkerSize
	s.inflight++
	go func() {
		est, err := marker.Detect(ctx, det, jpeg, size)
		s.post(func(s *Session) { s.applyMarker(gen, est, err) })
	}()
	s.logger.Debug("marker detection requested", "generation", gen)
	return gen, nil
}

func (s *Session) applyMarker(gen uint64, est marker.Estimate, err error) {
	if gen != s.markerGen {
		s.logger.Debug("stale marker result ignored", "generation", gen, "current", s.markerGen)
		return
	}
	if err != nil {
		s.logger.Warn("marker detection failed", "error", err)
		est = marker.Estimate{}
	}
	s.marker = &est
	if !est.Found {
		s.logger.Info("marker not found")
		return
	}

	s.logger.Info("marker found", "angle_deg", est.AngleDeg, "pixels_per_unit", est.PixelsPerUnit)
	if est.PixelsPerUnit > 0 && est.PixelsPerUnit != s.ppu {
		s.ppu = est.PixelsPerUnit
		s.invalidate("marker scale")
	}
	if s.opts.AutoStraighten && math.Abs(est.AngleDeg) >= minStraightenDeg {
		s.rotation += est.AngleDeg
		s.raster = imaging.Straighten(s.source, s.rotation)
		s.invalidate("straighten")
		s.resampleReferences()
	}
}

// Marker returns the last applied marker estimate, nil before any.
func (s *Session) Marker() *marker.Estimate { return s.marker }

// Rotation returns the total straightening angle applied to the raster.
func (s *Session) Rotation() float64 { return s.rotation }

// RequestNarrative starts narrative generation from the committed group stats
// and returns the request generation.
func (s *Session) RequestNarrative(ctx context.Context) uint64 {
	s.Flush()
	req := s.BuildDocument().NarrativeRequest()
	n := s.opts.Narrator
	logger := s.logger

	s.narrativeGen++
	gen := s.narrativeGen
	s.inflight++
	go func() {
		text, _ := report.NarrateOrFallback(ctx, n, req, logger)
		s.post(func(s *Session) { s.applyNarrative(gen, text) })
	}()
	return gen
}

func (s *Session) applyNarrative(gen uint64, text string) {
	if gen != s.narrativeGen {
		s.logger.Debug("stale narrative ignored", "generation", gen, "current", s.narrativeGen)
		return
	}
	s.narrative = text
}

// Narrative returns the last applied narrative text.
func (s *Session) Narrative() string { return s.narrative }
