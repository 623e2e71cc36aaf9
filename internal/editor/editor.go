package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/roi"
)

// DefaultHandleTolerance is the handle grab radius in screen pixels.
const DefaultHandleTolerance = 8.0

// ErrNothingSelected is returned by DeleteSelected without a selection.
var ErrNothingSelected = errors.New("no shape selected")

// Editor is the ROI editing state machine. It is not safe for concurrent use.
type Editor struct {
	shapes    *roi.Collections
	logger    *slog.Logger
	tab       roi.Tab
	tool      Tool
	slot      roi.Slot
	selected  geometry.ShapeID
	state     State
	drag      *Drag
	view      Viewport
	tolerance float64
}

// New returns an idle editor on the segmentation tab with the select tool.
func New(shapes *roi.Collections, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		shapes:    shapes,
		logger:    logger,
		tab:       roi.TabSegmentation,
		tool:      ToolSelect,
		view:      DefaultViewport(),
		tolerance: DefaultHandleTolerance,
	}
}

// Tab returns the active tab.
func (e *Editor) Tab() roi.Tab { return e.tab }

// Tool returns the active tool.
func (e *Editor) Tool() Tool { return e.tool }

// CalibrationTarget returns the slot new calibration shapes fill.
func (e *Editor) CalibrationTarget() roi.Slot { return e.slot }

// Selected returns the selected shape id, empty when nothing is selected.
func (e *Editor) Selected() geometry.ShapeID { return e.selected }

// State returns the interaction state.
func (e *Editor) State() State { return e.state }

// Viewport returns the current zoom and pan.
func (e *Editor) Viewport() Viewport { return e.view }

// Dragging reports whether a move, resize or creation drag is in progress.
func (e *Editor) Dragging() bool { return e.drag != nil }

// SetHandleTolerance sets the screen-pixel radius for handle hits.
func (e *Editor) SetHandleTolerance(px float64) { e.tolerance = px }

// SetTab switches the active tab. A drag in progress is cancelled and the
// selection is cleared when the selected shape is not editable on the new tab.
func (e *Editor) SetTab(t roi.Tab) Change {
	ch := e.Cancel()
	e.tab = t
	if _, owner, ok := e.shapes.Lookup(e.selected); ok && !owner.Editable(t) {
		e.selected = ""
		ch.Selection = true
	}
	return ch
}

// SetTool selects the active tool, cancelling a drag in progress.
func (e *Editor) SetTool(t Tool) Change {
	ch := e.Cancel()
	e.tool = t
	return ch
}

// SetCalibrationTarget selects the slot new calibration shapes go to.
func (e *Editor) SetCalibrationTarget(s roi.Slot) {
	e.slot = s
}

// Select makes id the selected shape. An empty id clears the selection.
func (e *Editor) Select(id geometry.ShapeID) error {
	if id != "" {
		if _, _, ok := e.shapes.Lookup(id); !ok {
			return fmt.Errorf("%w: %s", roi.ErrUnknownShape, id)
		}
	}
	e.selected = id
	return nil
}

// SetViewport replaces the viewport. Zoom values <= 0 are ignored.
func (e *Editor) SetViewport(v Viewport) {
	if v.Zoom <= 0 {
		v.Zoom = e.view.Zoom
	}
	e.view = v
}

// ZoomAt changes the zoom while keeping the raster point under screen anchor
// fixed.
func (e *Editor) ZoomAt(zoom float64, anchor geometry.Point) {
	if zoom <= 0 {
		return
	}
	r := e.view.ToRaster(anchor)
	e.view.Zoom = zoom
	e.view.Pan = anchor.Sub(r.Scale(zoom))
}

func (e *Editor) transition(next State) {
	if e.state == next {
		return
	}
	e.logger.Debug("editor transition", "from", e.state.String(), "to", next.String(), "tool", e.tool.String())
	e.state = next
}

func ownerPtr(o roi.Owner) *roi.Owner { return &o }

// PointerDown starts a drag at a screen position.
func (e *Editor) PointerDown(screen geometry.Point) (Change, error) {
	if e.drag != nil {
		return Change{}, nil
	}
	p := e.view.ToRaster(screen)

	if e.tool == ToolPan {
		e.drag = &Drag{Mode: StatePanning, Start: screen, InitialPan: e.view.Pan}
		e.transition(StatePanning)
		return Change{}, nil
	}
	if kind, ok := e.tool.shapeKind(); ok {
		return e.create(kind, p)
	}
	return e.pick(p), nil
}

func (e *Editor) create(kind geometry.Kind, p geometry.Point) (Change, error) {
	id := e.shapes.NewShapeID()
	var shape geometry.Shape
	switch kind {
	case geometry.KindLasso:
		shape, _ = geometry.NewLasso(id, p)
	case geometry.KindCircle:
		shape = geometry.NewCircle(id, p, p)
	default:
		shape = geometry.NewRect(id, p, p)
	}

	var err error
	switch e.tab {
	case roi.TabSegmentation:
		err = e.shapes.AddExclusion(shape)
	case roi.TabCalibration:
		err = e.shapes.SetReference(e.slot, shape)
	default:
		_, err = e.shapes.AddToActiveGroup(shape)
	}
	if err != nil {
		return Change{}, fmt.Errorf("failed to register new %s: %w", kind, err)
	}
	_, owner, _ := e.shapes.Lookup(id)

	e.selected = id
	e.drag = &Drag{Mode: StateCreating, Start: p, Shape: id, Owner: owner, Initial: shape}
	e.transition(StateCreating)
	return Change{Geometry: true, Created: true, Selection: true, Shape: id, Owner: ownerPtr(owner)}, nil
}

// pick tests the selected shape's handles, then every shape editable on the
// active tab in hit order.
func (e *Editor) pick(p geometry.Point) Change {
	if shape, owner, ok := e.shapes.Lookup(e.selected); ok && owner.Editable(e.tab) {
		if h := geometry.HandleAt(p, shape, e.tolerance, e.view.zoom()); h != geometry.HandleNone {
			e.drag = &Drag{
				Mode:       StateResizing,
				Start:      p,
				Handle:     h,
				Shape:      shape.ID(),
				Owner:      owner,
				Initial:    shape,
				InitialBox: geometry.BoundingBox(shape),
			}
			e.transition(StateResizing)
			return Change{Shape: shape.ID(), Owner: ownerPtr(owner)}
		}
	}

	for _, c := range e.shapes.HitOrder() {
		if !c.Owner.Editable(e.tab) || !geometry.PointInShape(p, c.Shape) {
			continue
		}
		changed := e.selected != c.Shape.ID()
		e.selected = c.Shape.ID()
		e.drag = &Drag{Mode: StateMoving, Start: p, Shape: c.Shape.ID(), Owner: c.Owner, Initial: c.Shape}
		e.transition(StateMoving)
		return Change{Selection: changed, Shape: c.Shape.ID(), Owner: ownerPtr(c.Owner)}
	}

	changed := e.selected != ""
	e.selected = ""
	return Change{Selection: changed}
}

// PointerMove updates the drag in progress.
func (e *Editor) PointerMove(screen geometry.Point) Change {
	d := e.drag
	if d == nil {
		return Change{}
	}
	if d.Mode == StatePanning {
		e.view.Pan = d.InitialPan.Add(screen.Sub(d.Start))
		return Change{Viewport: true}
	}

	p := e.view.ToRaster(screen)
	current, _, ok := e.shapes.Lookup(d.Shape)
	if !ok {
		e.drag = nil
		e.transition(StateIdle)
		return Change{}
	}

	var next geometry.Shape
	switch d.Mode {
	case StateCreating:
		if current.Kind() == geometry.KindLasso {
			next = current.Append(p)
		} else {
			next = d.Initial.WithFar(p)
		}
	case StateMoving:
		next = d.Initial.Translate(p.Sub(d.Start))
	case StateResizing:
		to := geometry.DragCorner(d.InitialBox, d.Handle, p.Sub(d.Start))
		pts := geometry.MapPoints(d.Initial.Points(), d.InitialBox, to)
		var err error
		if next, err = d.Initial.WithPoints(pts); err != nil {
			return Change{}
		}
	default:
		return Change{}
	}

	if err := e.shapes.Replace(next); err != nil {
		return Change{}
	}
	return Change{Geometry: true, Shape: d.Shape, Owner: ownerPtr(d.Owner)}
}

// PointerUp applies the final position and ends the drag. Ending a creation
// switches back to the select tool.
func (e *Editor) PointerUp(screen geometry.Point) Change {
	d := e.drag
	if d == nil {
		return Change{}
	}
	ch := e.PointerMove(screen)
	e.drag = nil
	e.transition(StateIdle)

	switch d.Mode {
	case StatePanning:
		return ch
	case StateCreating:
		e.tool = ToolSelect
		e.selected = d.Shape
		ch.Created = true
	}
	if _, _, ok := e.shapes.Lookup(d.Shape); ok {
		ch.Settled = true
		ch.Shape = d.Shape
		ch.Owner = ownerPtr(d.Owner)
	}
	return ch
}

// Cancel aborts the drag in progress. A shape being created is removed, other
// shapes return to their snapshot, and a pan restores the initial viewport.
func (e *Editor) Cancel() Change {
	d := e.drag
	if d == nil {
		return Change{}
	}
	e.drag = nil
	e.transition(StateIdle)

	switch d.Mode {
	case StatePanning:
		e.view.Pan = d.InitialPan
		return Change{Viewport: true}
	case StateCreating:
		if _, err := e.shapes.Delete(d.Shape); err != nil {
			return Change{}
		}
		if e.selected == d.Shape {
			e.selected = ""
		}
		return Change{Geometry: true, Deleted: true, Selection: true, Shape: d.Shape, Owner: ownerPtr(d.Owner)}
	}
	if err := e.shapes.Replace(d.Initial); err != nil {
		return Change{}
	}
	return Change{Geometry: true, Settled: true, Shape: d.Shape, Owner: ownerPtr(d.Owner)}
}

// Delete removes a shape from its collection.
func (e *Editor) Delete(id geometry.ShapeID) (Change, error) {
	if e.drag != nil && e.drag.Shape == id {
		e.drag = nil
		e.transition(StateIdle)
	}
	owner, err := e.shapes.Delete(id)
	if err != nil {
		return Change{}, err
	}
	ch := Change{Geometry: true, Deleted: true, Shape: id, Owner: ownerPtr(owner)}
	if e.selected == id {
		e.selected = ""
		ch.Selection = true
	}
	return ch, nil
}

// DeleteGroup removes a group with all its shapes. A drag or selection on one
// of those shapes is dropped.
func (e *Editor) DeleteGroup(id roi.GroupID) (Change, error) {
	members := make(map[geometry.ShapeID]bool)
	for _, s := range e.shapes.GroupShapes(id) {
		members[s.ID()] = true
	}
	if err := e.shapes.DeleteGroup(id); err != nil {
		return Change{}, err
	}
	ch := Change{Geometry: true, Deleted: true}
	if e.drag != nil && members[e.drag.Shape] {
		e.drag = nil
		e.transition(StateIdle)
	}
	if members[e.selected] {
		e.selected = ""
		ch.Selection = true
	}
	return ch, nil
}

// DeleteSelected removes the selected shape.
func (e *Editor) DeleteSelected() (Change, error) {
	if e.selected == "" {
		return Change{}, ErrNothingSelected
	}
	return e.Delete(e.selected)
}

// Reset drops the drag and selection and restores the select tool and default
// viewport. The active tab is kept.
func (e *Editor) Reset() {
	e.drag = nil
	e.selected = ""
	e.tool = ToolSelect
	e.view = DefaultViewport()
	e.transition(StateIdle)
}
