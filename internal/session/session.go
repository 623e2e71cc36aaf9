package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/calibration"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/editor"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/imaging"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/labels"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/marker"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/report"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/roi"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/visualize"
)

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")
	// ErrNoDetector is returned by RequestMarker without a marker detector.
	ErrNoDetector = errors.New("no marker detector configured")
	// ErrNoLabelReader is returned by ReadLabel without an OCR reader.
	ErrNoLabelReader = errors.New("no label reader configured")
)

// Options configure a new Session. A nil Logger, Cache or Now and a zero
// JPEGQuality or Regression are replaced by defaults.
type Options struct {
	Threshold       float64
	Regression      analysis.Regression
	PixelsPerUnit   float64
	HandleTolerance float64

	Detector       marker.Detector
	MarkerSize     float64
	JPEGQuality    int
	AutoStraighten bool

	Narrator report.Narrator

	Labels       labels.Reader
	LabelPadding int

	Cache  *imaging.ImageCache
	Logger *slog.Logger
	Now    func() time.Time
}

type pendingStats struct {
	version uint64
	groups  []analysis.GroupResult
}

// Session is one image under analysis. It is not safe for concurrent use;
// only the completion channel may be read from another goroutine.
type Session struct {
	opts   Options
	logger *slog.Logger
	cache  *imaging.ImageCache

	info     *imaging.ImageInfo
	source   *image.RGBA
	raster   *image.RGBA
	rotation float64
	out      *image.RGBA

	shapes *roi.Collections
	editor *editor.Editor

	threshold  float64
	mode       visualize.Mode
	regression analysis.Regression
	ppu        float64
	correction calibration.Correction

	version       uint64
	dirty         bool
	passes        int
	result        *analysis.Result
	resultVersion uint64
	pending       *pendingStats

	markerGen    uint64
	marker       *marker.Estimate
	narrativeGen uint64
	narrative    string

	completions chan Completion
	inflight    int
	done        chan struct{}
}

// New returns an empty session.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = imaging.NewImageCache()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 90
	}
	if opts.Regression == (analysis.Regression{}) {
		opts.Regression = analysis.DefaultRegression(analysis.TargetMACI)
	}

	shapes := roi.New()
	ed := editor.New(shapes, opts.Logger.With("component", "editor"))
	if opts.HandleTolerance > 0 {
		ed.SetHandleTolerance(opts.HandleTolerance)
	}

	return &Session{
		opts:        opts,
		logger:      opts.Logger,
		cache:       opts.Cache,
		shapes:      shapes,
		editor:      ed,
		threshold:   opts.Threshold,
		regression:  opts.Regression,
		ppu:         opts.PixelsPerUnit,
		correction:  calibration.Identity(),
		completions: make(chan Completion, 16),
		done:        make(chan struct{}),
	}
}

// Close stops delivery of outstanding async completions.
func (s *Session) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Shapes exposes the ROI collections.
func (s *Session) Shapes() *roi.Collections { return s.shapes }

// Editor exposes the ROI editor.
func (s *Session) Editor() *editor.Editor { return s.editor }

// Version returns the current input version.
func (s *Session) Version() uint64 { return s.version }

// Dirty reports whether a pass is due.
func (s *Session) Dirty() bool { return s.dirty }

// Passes returns how many pipeline passes have run.
func (s *Session) Passes() int { return s.passes }

// Raster returns the working raster, nil before an image is loaded.
func (s *Session) Raster() *image.RGBA { return s.raster }

// LoadImage fetches and decodes src and resets the session around it. On
// failure the previous image and all session state are left untouched.
func (s *Session) LoadImage(ctx context.Context, src imaging.Source) (*imaging.ImageInfo, error) {
	r, err := s.cache.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if s.info != nil && s.info.Source != r.Info.Source {
		s.cache.EvictKey(s.info.Source)
	}
	s.LoadRaster(r)
	info := r.Info
	return &info, nil
}

// LoadRaster installs an already decoded raster. Shapes, groups, selection,
// marker results and narrative are cleared and in-flight async requests are
// invalidated. Threshold, tab, mode and regression are kept.
func (s *Session) LoadRaster(r *imaging.Raster) {
	info := r.Info
	s.info = &info
	s.source = r.Image
	s.raster = r.Image
	s.rotation = 0
	s.out = nil

	s.shapes.Clear()
	s.editor.Reset()
	s.ppu = s.opts.PixelsPerUnit
	s.result = nil
	s.pending = nil
	s.marker = nil
	s.narrative = ""
	s.markerGen++
	s.narrativeGen++

	s.logger.Info("image loaded", "source", info.Source, "width", info.Width, "height", info.Height)
	s.invalidate("image")
}

// SetThreshold sets the ExG vegetation threshold.
func (s *Session) SetThreshold(v float64) {
	if v == s.threshold {
		return
	}
	s.threshold = v
	s.invalidate("threshold")
}

// Threshold returns the ExG threshold.
func (s *Session) Threshold() float64 { return s.threshold }

// SetTab switches the editor tab.
func (s *Session) SetTab(t roi.Tab) {
	if t == s.editor.Tab() {
		return
	}
	s.apply(s.editor.SetTab(t))
	s.invalidate("tab")
}

// SetMode selects the visualisation mode.
func (s *Session) SetMode(m visualize.Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.invalidate("mode")
}

// Mode returns the visualisation mode.
func (s *Session) Mode() visualize.Mode { return s.mode }

// SetTool selects the editor tool.
func (s *Session) SetTool(t editor.Tool) {
	s.apply(s.editor.SetTool(t))
}

// SetTarget switches the regression's target index and resets the line to
// that index's literature defaults.
func (s *Session) SetTarget(t analysis.Target) {
	if t == s.regression.Target {
		return
	}
	s.SetRegression(analysis.DefaultRegression(t))
}

// SetRegression replaces the regression line.
func (s *Session) SetRegression(reg analysis.Regression) {
	if reg == s.regression {
		return
	}
	s.regression = reg
	s.invalidate("regression")
}

// Regression returns the regression line.
func (s *Session) Regression() analysis.Regression { return s.regression }

// SetPixelsPerUnit sets the physical scale; 0 disables area output.
func (s *Session) SetPixelsPerUnit(v float64) error {
	if v < 0 {
		return fmt.Errorf("pixels per unit must not be negative: %v", v)
	}
	if v == s.ppu {
		return nil
	}
	s.ppu = v
	s.invalidate("scale")
	return nil
}

// PixelsPerUnit returns the physical scale.
func (s *Session) PixelsPerUnit() float64 { return s.ppu }

// SetCalibrationTarget selects the reference slot new calibration shapes go to.
func (s *Session) SetCalibrationTarget(slot roi.Slot) {
	s.editor.SetCalibrationTarget(slot)
}

// CreateGroup adds a group and makes it the active group.
func (s *Session) CreateGroup(name string) *roi.Group {
	g := s.shapes.NewGroup(name)
	_ = s.shapes.SetActiveGroup(g.ID)
	s.invalidate("group created")
	return g
}

// SelectGroup makes id the active group.
func (s *Session) SelectGroup(id roi.GroupID) error {
	return s.shapes.SetActiveGroup(id)
}

// RenameGroup renames a group. Names do not affect the pipeline.
func (s *Session) RenameGroup(id roi.GroupID, name string) error {
	return s.shapes.RenameGroup(id, name)
}

// DeleteGroup removes a group and its shapes.
func (s *Session) DeleteGroup(id roi.GroupID) (editor.Change, error) {
	ch, err := s.editor.DeleteGroup(id)
	if err != nil {
		return ch, err
	}
	s.apply(ch)
	return ch, nil
}

// PointerDown forwards a pointer press in screen coordinates to the editor.
func (s *Session) PointerDown(p geometry.Point) (editor.Change, error) {
	ch, err := s.editor.PointerDown(p)
	if err != nil {
		return ch, err
	}
	s.apply(ch)
	return ch, nil
}

// PointerMove forwards a pointer move to the editor.
func (s *Session) PointerMove(p geometry.Point) editor.Change {
	ch := s.editor.PointerMove(p)
	s.apply(ch)
	return ch
}

// PointerUp forwards a pointer release to the editor.
func (s *Session) PointerUp(p geometry.Point) editor.Change {
	ch := s.editor.PointerUp(p)
	s.apply(ch)
	return ch
}

// CancelDrag aborts the editor drag in progress.
func (s *Session) CancelDrag() editor.Change {
	ch := s.editor.Cancel()
	s.apply(ch)
	return ch
}

// DeleteShape removes a shape, or the selection when id is empty.
func (s *Session) DeleteShape(id geometry.ShapeID) (editor.Change, error) {
	var (
		ch  editor.Change
		err error
	)
	if id == "" {
		ch, err = s.editor.DeleteSelected()
	} else {
		ch, err = s.editor.Delete(id)
	}
	if err != nil {
		return ch, err
	}
	s.apply(ch)
	return ch, nil
}

// SetViewport replaces the editor viewport. The viewport does not affect the
// pipeline.
func (s *Session) SetViewport(v editor.Viewport) {
	s.editor.SetViewport(v)
}

// ZoomAt zooms around a screen anchor.
func (s *Session) ZoomAt(zoom float64, anchor geometry.Point) {
	s.editor.ZoomAt(zoom, anchor)
}

// apply turns an editor change into pipeline triggers. A calibration shape
// that settles is resampled from the working raster.
func (s *Session) apply(ch editor.Change) {
	if ch.Settled && ch.Owner != nil && ch.Owner.Kind == roi.OwnerCalibration {
		s.sampleReference(ch.Owner.Slot)
	}
	if ch.Geometry {
		s.invalidate("geometry")
	}
}

// resampleReferences refreshes every occupied calibration slot from the
// current working raster.
func (s *Session) resampleReferences() {
	for _, slot := range []roi.Slot{roi.SlotGray, roi.SlotWhite, roi.SlotBlack} {
		s.sampleReference(slot)
	}
}

func (s *Session) sampleReference(slot roi.Slot) {
	shape, _, ok := s.shapes.Reference(slot)
	if !ok || s.raster == nil {
		return
	}
	c, n, ok := calibration.Sample(s.raster, shape)
	var col *calibration.Color
	if ok {
		col = &c
	}
	if err := s.shapes.SetReferenceColor(slot, col); err != nil {
		s.logger.Warn("failed to store reference color", "slot", slot.String(), "error", err)
		return
	}
	s.logger.Debug("reference sampled", "slot", slot.String(), "pixels", n)
	s.invalidate("calibration")
}
