package session

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blend"

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

// Overlay colors for non-group shapes.
const (
	exclusionColor = "#6b7280"
	grayRefColor   = "#a3a3a3"
	whiteRefColor  = "#ffffff"
	blackRefColor  = "#171717"
)

// GroupView is a group with its committed stats.
type GroupView struct {
	ID           roi.GroupID         `json:"id"`
	Name         string              `json:"name"`
	Color        string              `json:"color"`
	Active       bool                `json:"active"`
	Shapes       []geometry.Shape    `json:"shapes"`
	Stats        analysis.GroupStats `json:"stats"`
	StatsVersion uint64              `json:"stats_version"`
}

// Groups returns every group with its committed stats, in creation order.
func (s *Session) Groups() []GroupView {
	active := s.shapes.ActiveGroup()
	groups := s.shapes.Groups()
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupView{
			ID:           g.ID,
			Name:         g.Name,
			Color:        g.Color,
			Active:       g.ID == active,
			Shapes:       s.shapes.GroupShapes(g.ID),
			Stats:        g.Stats,
			StatsVersion: g.StatsVersion,
		})
	}
	return out
}

// ReferenceView is one calibration slot.
type ReferenceView struct {
	Slot  roi.Slot           `json:"slot"`
	Shape *geometry.Shape    `json:"shape,omitempty"`
	Color *calibration.Color `json:"color,omitempty"`
}

// State is a JSON-friendly snapshot of the session.
type State struct {
	Image         *imaging.ImageInfo     `json:"image,omitempty"`
	Tab           roi.Tab                `json:"tab"`
	Tool          editor.Tool            `json:"tool"`
	EditorState   editor.State           `json:"editor_state"`
	Target        roi.Slot               `json:"calibration_target"`
	Mode          visualize.Mode         `json:"mode"`
	Threshold     float64                `json:"threshold"`
	Regression    analysis.Regression    `json:"regression"`
	PixelsPerUnit float64                `json:"pixels_per_unit"`
	Calibration   calibration.Correction `json:"calibration"`
	References    []ReferenceView        `json:"references"`
	Exclusions    []geometry.Shape       `json:"exclusions"`
	Groups        []GroupView            `json:"groups"`
	Selected      geometry.ShapeID       `json:"selected,omitempty"`
	Viewport      editor.Viewport        `json:"viewport"`
	Version       uint64                 `json:"version"`
	ResultVersion uint64                 `json:"result_version"`
	Dirty         bool                   `json:"dirty"`
	Passes        int                    `json:"passes"`
	Totals        *analysis.Totals       `json:"totals,omitempty"`
	Marker        *marker.Estimate       `json:"marker,omitempty"`
	Rotation      float64                `json:"rotation_deg"`
	Narrative     string                 `json:"narrative,omitempty"`
	Pending       int                    `json:"pending_requests"`
}

// State returns a snapshot of the session without running the scheduler.
func (s *Session) State() State {
	st := State{
		Image:         s.info,
		Tab:           s.editor.Tab(),
		Tool:          s.editor.Tool(),
		EditorState:   s.editor.State(),
		Target:        s.editor.CalibrationTarget(),
		Mode:          s.mode,
		Threshold:     s.threshold,
		Regression:    s.regression,
		PixelsPerUnit: s.ppu,
		Calibration:   s.correction,
		Exclusions:    s.shapes.Exclusions(),
		Groups:        s.Groups(),
		Selected:      s.editor.Selected(),
		Viewport:      s.editor.Viewport(),
		Version:       s.version,
		ResultVersion: s.resultVersion,
		Dirty:         s.dirty,
		Passes:        s.passes,
		Marker:        s.marker,
		Rotation:      s.rotation,
		Narrative:     s.narrative,
		Pending:       s.inflight,
	}
	for _, slot := range []roi.Slot{roi.SlotGray, roi.SlotWhite, roi.SlotBlack} {
		ref := ReferenceView{Slot: slot}
		if shape, col, ok := s.shapes.Reference(slot); ok {
			ref.Shape = &shape
			ref.Color = col
		}
		st.References = append(st.References, ref)
	}
	if s.result != nil {
		totals := s.result.Totals
		st.Totals = &totals
	}
	return st
}

// AutoTune fits the regression to the committed group stats and applies it.
func (s *Session) AutoTune() (*analysis.TuneResult, error) {
	s.Flush()
	groups := s.shapes.Groups()
	stats := make([]analysis.GroupStats, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, g.Stats)
	}
	res, err := analysis.AutoTune(stats, s.regression.Target)
	if err != nil {
		return nil, err
	}
	if res.Fallback {
		s.logger.Info("auto-tune span below noise floor, using defaults",
			"min", res.ObservedMin, "max", res.ObservedMax)
	}
	s.SetRegression(res.Regression)
	return res, nil
}

// RenderKind selects what Render returns.
type RenderKind string

const (
	RenderResult    RenderKind = "result"
	RenderOverlay   RenderKind = "overlay"
	RenderComposite RenderKind = "composite"
	RenderRaster    RenderKind = "raster"
)

// ParseRenderKind validates a render kind name.
func ParseRenderKind(v string) (RenderKind, error) {
	switch k := RenderKind(v); k {
	case RenderResult, RenderOverlay, RenderComposite, RenderRaster:
		return k, nil
	case "":
		return RenderComposite, nil
	}
	return "", fmt.Errorf("unknown render kind: %q", v)
}

// Render flushes the scheduler and returns the requested image.
func (s *Session) Render(kind RenderKind) (image.Image, error) {
	if s.raster == nil {
		return nil, ErrNoImage
	}
	s.Flush()

	switch kind {
	case RenderRaster:
		return s.raster, nil
	case RenderResult:
		return s.out, nil
	case RenderOverlay:
		return s.overlay(), nil
	default:
		return blend.Normal(s.out, s.overlay()), nil
	}
}

func (s *Session) overlay() *image.RGBA {
	b := s.raster.Bounds()
	var items []visualize.OverlayItem
	for _, c := range s.shapes.HitOrder() {
		items = append(items, visualize.OverlayItem{Shape: c.Shape, Color: s.shapeColor(c.Owner)})
	}
	opts := visualize.DefaultOverlayOptions()
	opts.Zoom = s.editor.Viewport().Zoom
	opts.Selected = s.editor.Selected()
	return visualize.Overlay(b.Dx(), b.Dy(), items, opts)
}

func (s *Session) shapeColor(o roi.Owner) color.RGBA {
	switch o.Kind {
	case roi.OwnerExclusion:
		return roi.HexRGBA(exclusionColor)
	case roi.OwnerCalibration:
		switch o.Slot {
		case roi.SlotWhite:
			return roi.HexRGBA(whiteRefColor)
		case roi.SlotBlack:
			return roi.HexRGBA(blackRefColor)
		}
		return roi.HexRGBA(grayRefColor)
	}
	if g, ok := s.shapes.Group(o.Group); ok {
		return roi.HexRGBA(g.Color)
	}
	return roi.HexRGBA(exclusionColor)
}

// SampleColor describes the working raster color at (x, y).
func (s *Session) SampleColor(x, y int) (*imaging.ColorResult, error) {
	if s.raster == nil {
		return nil, ErrNoImage
	}
	return imaging.SampleColor(s.raster, x, y)
}

// BuildDocument flushes the scheduler and assembles the report document.
func (s *Session) BuildDocument() *report.Document {
	s.Flush()
	doc := report.NewDocument(s.opts.Now())
	if s.info != nil {
		doc.Image = *s.info
	}
	doc.Threshold = s.threshold
	doc.Calibration = s.correction
	doc.Regression = s.regression
	doc.PixelsPerUnit = s.ppu
	if s.result != nil {
		doc.Totals = s.result.Totals
	}
	for _, g := range s.shapes.Groups() {
		doc.Groups = append(doc.Groups, report.GroupEntry{
			ID:    string(g.ID),
			Name:  g.Name,
			Color: g.Color,
			Stats: g.Stats,
		})
	}
	doc.Narrative = s.narrative
	return doc
}

// ExportReport builds the report document and a composite snapshot and hands
// them to exp.
func (s *Session) ExportReport(ctx context.Context, exp report.Exporter, opts report.SnapshotOptions) (*report.Document, []string, error) {
	if s.raster == nil {
		return nil, nil, ErrNoImage
	}
	snap, err := s.Render(RenderComposite)
	if err != nil {
		return nil, nil, err
	}
	doc := s.BuildDocument()
	a, err := report.BuildArtifacts(doc, snap, opts)
	if err != nil {
		return nil, nil, err
	}
	paths, err := exp.Export(ctx, a)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to export report: %w", err)
	}
	s.logger.Info("report exported", "id", doc.ID, "paths", paths)
	return doc, paths, nil
}

// ReadLabel reads the text inside a shape's bounding box. With rename set and
// a group shape, the group takes the cleaned label as its name.
func (s *Session) ReadLabel(ctx context.Context, id geometry.ShapeID, rename bool) (*labels.Result, error) {
	if s.raster == nil {
		return nil, ErrNoImage
	}
	if s.opts.Labels == nil {
		return nil, ErrNoLabelReader
	}
	shape, owner, ok := s.shapes.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", roi.ErrUnknownShape, id)
	}
	res, err := labels.ReadShape(ctx, s.opts.Labels, s.raster, shape, s.opts.LabelPadding)
	if err != nil {
		return nil, err
	}
	if rename && owner.Kind == roi.OwnerGroup && res.Label != "" {
		if err := s.shapes.RenameGroup(owner.Group, res.Label); err != nil {
			return nil, err
		}
	}
	return res, nil
}
