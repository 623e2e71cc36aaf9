package editor

import (
	"fmt"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/roi"
)

// Tool decides which transition a pointer-down takes.
type Tool int

const (
	ToolSelect Tool = iota
	ToolRect
	ToolCircle
	ToolLasso
	ToolPan
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolRect:
		return "rect"
	case ToolCircle:
		return "circle"
	case ToolLasso:
		return "lasso"
	case ToolPan:
		return "pan"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

// MarshalText encodes the tool name.
func (t Tool) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseTool converts a tool name into a Tool.
func ParseTool(s string) (Tool, error) {
	switch s {
	case "select":
		return ToolSelect, nil
	case "rect":
		return ToolRect, nil
	case "circle":
		return ToolCircle, nil
	case "lasso":
		return ToolLasso, nil
	case "pan":
		return ToolPan, nil
	}
	return 0, fmt.Errorf("unknown tool: %q", s)
}

func (t Tool) shapeKind() (geometry.Kind, bool) {
	switch t {
	case ToolRect:
		return geometry.KindRect, true
	case ToolCircle:
		return geometry.KindCircle, true
	case ToolLasso:
		return geometry.KindLasso, true
	}
	return 0, false
}

// State is the editor state.
type State int

const (
	StateIdle State = iota
	StateCreating
	StateMoving
	StateResizing
	StatePanning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCreating:
		return "creating"
	case StateMoving:
		return "moving"
	case StateResizing:
		return "resizing"
	case StatePanning:
		return "panning"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Viewport maps raster coordinates to the screen: screen = raster*Zoom + Pan.
type Viewport struct {
	Zoom float64        `json:"zoom"`
	Pan  geometry.Point `json:"pan"`
}

// DefaultViewport is zoom 1 without pan.
func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToRaster converts a screen position to raster coordinates.
func (v Viewport) ToRaster(p geometry.Point) geometry.Point {
	return p.Sub(v.Pan).Scale(1 / v.zoom())
}

// ToScreen converts a raster position to screen coordinates.
func (v Viewport) ToScreen(p geometry.Point) geometry.Point {
	return p.Scale(v.zoom()).Add(v.Pan)
}

// Drag is the snapshot taken at pointer-down.
type Drag struct {
	Mode State
	// Start is in raster space, except for Panning where it is in screen
	// space.
	Start      geometry.Point
	Handle     geometry.Handle
	Shape      geometry.ShapeID
	Owner      roi.Owner
	Initial    geometry.Shape
	InitialBox geometry.Box
	InitialPan geometry.Point
}

// Change reports what a pointer event altered.
type Change struct {
	// Geometry is set when any shape in the collections changed.
	Geometry bool `json:"geometry"`
	// Settled is set when a shape drag ended and its geometry is final.
	Settled   bool             `json:"settled"`
	Viewport  bool             `json:"viewport"`
	Selection bool             `json:"selection"`
	Created   bool             `json:"created"`
	Deleted   bool             `json:"deleted"`
	Shape     geometry.ShapeID `json:"shape,omitempty"`
	Owner     *roi.Owner       `json:"owner,omitempty"`
}
