package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/editor"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/imaging"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/report"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/roi"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/session"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/visualize"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "pointer").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Source
	case "image_load":
		return s.handleImageLoad(ctx, args)
	case "archive_list":
		return s.handleArchiveList(args)
	case "session_state":
		return s.session.State(), nil

	// Pipeline and Editor Inputs
	case "set_threshold":
		return s.handleSetThreshold(args)
	case "set_tab":
		return s.handleSetTab(args)
	case "set_mode":
		return s.handleSetMode(args)
	case "set_tool":
		return s.handleSetTool(args)
	case "set_target_index":
		return s.handleSetTargetIndex(args)
	case "set_regression":
		return s.handleSetRegression(args)
	case "set_pixels_per_unit":
		return s.handleSetPixelsPerUnit(args)

	// Targeting
	case "set_calibration_target":
		return s.handleSetCalibrationTarget(args)
	case "group_create":
		return s.handleGroupCreate(args)
	case "group_select":
		return s.handleGroupSelect(args)
	case "group_rename":
		return s.handleGroupRename(args)
	case "group_delete":
		return s.handleGroupDelete(args)

	// Interaction
	case "pointer":
		return s.handlePointer(args)
	case "viewport":
		return s.handleViewport(args)
	case "shape_delete":
		return s.handleShapeDelete(args)

	// Results
	case "group_stats":
		return s.handleGroupStats()
	case "auto_tune":
		return s.session.AutoTune()
	case "render":
		return s.handleRender(args)
	case "sample_color":
		return s.handleSampleColor(args)

	// Collaborators
	case "marker_detect":
		return s.handleMarkerDetect(ctx)
	case "narrative":
		return s.handleNarrative(ctx)
	case "report_export":
		return s.handleReportExport(ctx, args)
	case "label_read":
		return s.handleLabelRead(ctx, args)
	case "completions_wait":
		return s.handleCompletionsWait(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Absent arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Image Source Handlers ===

type imageLoadArgs struct {
	Path    string `json:"path"`
	Archive string `json:"archive"`
	Entry   string `json:"entry"`
	URL     string `json:"url"`
}

func (a imageLoadArgs) source() (imaging.Source, error) {
	switch {
	case a.Path != "" && a.Archive == "" && a.URL == "":
		return imaging.FileSource{Path: a.Path}, nil
	case a.Archive != "" && a.Path == "" && a.URL == "":
		if a.Entry == "" {
			return nil, errors.New("entry is required with archive")
		}
		return imaging.ArchiveSource{Archive: a.Archive, Entry: a.Entry}, nil
	case a.URL != "" && a.Path == "" && a.Archive == "":
		return imaging.URLSource{URL: a.URL}, nil
	}
	return nil, errors.New("exactly one of path, archive or url is required")
}

func (s *Server) handleImageLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	return s.session.LoadImage(ctx, src)
}

type archiveListArgs struct {
	Archive string `json:"archive"`
}

func (s *Server) handleArchiveList(args json.RawMessage) (interface{}, error) {
	var a archiveListArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Archive == "" {
		return nil, errors.New("archive is required")
	}
	entries, err := imaging.ListArchive(a.Archive)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"archive": a.Archive,
		"count":   len(entries),
		"entries": entries,
	}, nil
}

// === Pipeline and Editor Input Handlers ===

type valueArgs struct {
	Value *float64 `json:"value"`
}

func (s *Server) handleSetThreshold(args json.RawMessage) (interface{}, error) {
	var a valueArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Value == nil {
		return nil, errors.New("value is required")
	}
	s.session.SetThreshold(*a.Value)
	return s.inputs(), nil
}

func (s *Server) handleSetPixelsPerUnit(args json.RawMessage) (interface{}, error) {
	var a valueArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Value == nil {
		return nil, errors.New("value is required")
	}
	if err := s.session.SetPixelsPerUnit(*a.Value); err != nil {
		return nil, err
	}
	return s.inputs(), nil
}

type setTabArgs struct {
	Tab string `json:"tab"`
}

func (s *Server) handleSetTab(args json.RawMessage) (interface{}, error) {
	var a setTabArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	tab, err := roi.ParseTab(a.Tab)
	if err != nil {
		return nil, err
	}
	s.session.SetTab(tab)
	return s.inputs(), nil
}

type setModeArgs struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(args json.RawMessage) (interface{}, error) {
	var a setModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := visualize.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}
	s.session.SetMode(mode)
	return s.inputs(), nil
}

type setToolArgs struct {
	Tool string `json:"tool"`
}

func (s *Server) handleSetTool(args json.RawMessage) (interface{}, error) {
	var a setToolArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	tool, err := editor.ParseTool(a.Tool)
	if err != nil {
		return nil, err
	}
	s.session.SetTool(tool)
	return s.inputs(), nil
}

type setTargetArgs struct {
	Target string `json:"target"`
}

func (s *Server) handleSetTargetIndex(args json.RawMessage) (interface{}, error) {
	var a setTargetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	target, err := analysis.ParseTarget(a.Target)
	if err != nil {
		return nil, err
	}
	s.session.SetTarget(target)
	return s.inputs(), nil
}

type setRegressionArgs struct {
	Target    string   `json:"target"`
	Slope     *float64 `json:"slope"`
	Intercept *float64 `json:"intercept"`
}

func (s *Server) handleSetRegression(args json.RawMessage) (interface{}, error) {
	var a setRegressionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	reg := s.session.Regression()
	if a.Target != "" {
		target, err := analysis.ParseTarget(a.Target)
		if err != nil {
			return nil, err
		}
		if target != reg.Target {
			reg = analysis.DefaultRegression(target)
		}
	}
	if a.Slope != nil {
		reg.Slope = *a.Slope
	}
	if a.Intercept != nil {
		reg.Intercept = *a.Intercept
	}
	s.session.SetRegression(reg)
	return s.inputs(), nil
}

// inputs is the reply of every setter: the values that feed the next pass.
func (s *Server) inputs() map[string]interface{} {
	st := s.session.State()
	return map[string]interface{}{
		"tab":                st.Tab,
		"tool":               st.Tool,
		"mode":               st.Mode,
		"threshold":          st.Threshold,
		"regression":         st.Regression,
		"pixels_per_unit":    st.PixelsPerUnit,
		"calibration_target": st.Target,
		"version":            st.Version,
		"dirty":              st.Dirty,
	}
}

// === Targeting Handlers ===

type calibrationTargetArgs struct {
	Slot string `json:"slot"`
}

func (s *Server) handleSetCalibrationTarget(args json.RawMessage) (interface{}, error) {
	var a calibrationTargetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	slot, err := roi.ParseSlot(a.Slot)
	if err != nil {
		return nil, err
	}
	s.session.SetCalibrationTarget(slot)
	return s.inputs(), nil
}

type groupArgs struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleGroupCreate(args json.RawMessage) (interface{}, error) {
	var a groupArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	g := s.session.CreateGroup(a.Name)
	return map[string]interface{}{
		"id":     g.ID,
		"name":   g.Name,
		"color":  g.Color,
		"active": true,
	}, nil
}

func (s *Server) handleGroupSelect(args json.RawMessage) (interface{}, error) {
	var a groupArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.session.SelectGroup(roi.GroupID(a.ID)); err != nil {
		return nil, err
	}
	return map[string]interface{}{"active_group": a.ID}, nil
}

func (s *Server) handleGroupRename(args json.RawMessage) (interface{}, error) {
	var a groupArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.session.RenameGroup(roi.GroupID(a.ID), a.Name); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": a.ID, "name": a.Name}, nil
}

func (s *Server) handleGroupDelete(args json.RawMessage) (interface{}, error) {
	var a groupArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ch, err := s.session.DeleteGroup(roi.GroupID(a.ID))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"change": ch, "version": s.session.Version()}, nil
}

// === Interaction Handlers ===

type pointerArgs struct {
	Action string  `json:"action"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (s *Server) handlePointer(args json.RawMessage) (interface{}, error) {
	var a pointerArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p := geometry.Pt(a.X, a.Y)

	var ch editor.Change
	switch a.Action {
	case "down":
		var err error
		if ch, err = s.session.PointerDown(p); err != nil {
			return nil, err
		}
	case "move":
		ch = s.session.PointerMove(p)
	case "up":
		ch = s.session.PointerUp(p)
	case "cancel":
		ch = s.session.CancelDrag()
	default:
		return nil, fmt.Errorf("unknown pointer action: %q (use down, move, up or cancel)", a.Action)
	}

	ed := s.session.Editor()
	return map[string]interface{}{
		"change":   ch,
		"state":    ed.State(),
		"selected": ed.Selected(),
		"version":  s.session.Version(),
	}, nil
}

type viewportArgs struct {
	Zoom    *float64 `json:"zoom"`
	PanX    *float64 `json:"pan_x"`
	PanY    *float64 `json:"pan_y"`
	AnchorX *float64 `json:"anchor_x"`
	AnchorY *float64 `json:"anchor_y"`
}

func (s *Server) handleViewport(args json.RawMessage) (interface{}, error) {
	var a viewportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Zoom != nil && *a.Zoom <= 0 {
		return nil, fmt.Errorf("zoom must be positive, got %v", *a.Zoom)
	}

	if a.Zoom != nil && a.AnchorX != nil && a.AnchorY != nil {
		s.session.ZoomAt(*a.Zoom, geometry.Pt(*a.AnchorX, *a.AnchorY))
	} else {
		v := s.session.Editor().Viewport()
		if a.Zoom != nil {
			v.Zoom = *a.Zoom
		}
		if a.PanX != nil {
			v.Pan.X = *a.PanX
		}
		if a.PanY != nil {
			v.Pan.Y = *a.PanY
		}
		s.session.SetViewport(v)
	}
	return s.session.Editor().Viewport(), nil
}

type shapeArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleShapeDelete(args json.RawMessage) (interface{}, error) {
	var a shapeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ch, err := s.session.DeleteShape(geometry.ShapeID(a.ID))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"change":  ch,
		"version": s.session.Version(),
	}, nil
}

// === Result Handlers ===

func (s *Server) handleGroupStats() (interface{}, error) {
	s.session.Flush()
	res, version := s.session.Result()
	out := map[string]interface{}{
		"version":        s.session.Version(),
		"result_version": version,
		"groups":         s.session.Groups(),
		"calibration":    s.session.Correction(),
		"regression":     s.session.Regression(),
	}
	if res != nil {
		out["totals"] = res.Totals
	}
	return out, nil
}

type renderArgs struct {
	Kind    string `json:"kind"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
	MaxSide int    `json:"max_side"`
}

// RenderResult is an encoded session image.
type RenderResult struct {
	Kind     session.RenderKind `json:"kind"`
	Format   imaging.Format     `json:"format"`
	MimeType string             `json:"mime_type"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Data     string             `json:"image_base64"`
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	kind, err := session.ParseRenderKind(a.Kind)
	if err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = string(imaging.FormatPNG)
	}
	format, err := imaging.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	if a.Quality == 0 {
		a.Quality = s.cfg.Export.Quality
	}

	img, err := s.session.Render(kind)
	if err != nil {
		return nil, err
	}
	if a.MaxSide > 0 {
		img = imaging.Fit(img, a.MaxSide)
	}
	data, err := imaging.EncodeBytes(img, format, a.Quality)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &RenderResult{
		Kind:     kind,
		Format:   format,
		MimeType: format.MimeType(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

type sampleColorArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session.SampleColor(a.X, a.Y)
}

// === Collaborator Handlers ===

func (s *Server) handleMarkerDetect(ctx context.Context) (interface{}, error) {
	gen, err := s.session.RequestMarker(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"generation": gen,
		"pending":    s.session.Pending(),
	}, nil
}

func (s *Server) handleNarrative(ctx context.Context) (interface{}, error) {
	gen := s.session.RequestNarrative(ctx)
	return map[string]interface{}{
		"generation": gen,
		"pending":    s.session.Pending(),
	}, nil
}

type reportExportArgs struct {
	Dir     string `json:"dir"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
	MaxSide *int   `json:"max_side"`
}

func (s *Server) handleReportExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a reportExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = s.cfg.Export.Format
	}
	format, err := imaging.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	opts := report.SnapshotOptions{
		Format:  format,
		Quality: s.cfg.Export.Quality,
		MaxSide: s.cfg.Export.MaxSide,
	}
	if a.Quality > 0 {
		opts.Quality = a.Quality
	}
	if a.MaxSide != nil {
		opts.MaxSide = *a.MaxSide
	}

	exp := s.exporter
	if a.Dir != "" {
		exp = report.DirExporter{Dir: a.Dir}
	}

	doc, paths, err := s.session.ExportReport(ctx, exp, opts)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":     doc.ID,
		"paths":  paths,
		"groups": len(doc.Groups),
		"totals": doc.Totals,
	}, nil
}

type labelReadArgs struct {
	ShapeID string `json:"shape_id"`
	Rename  bool   `json:"rename"`
}

func (s *Server) handleLabelRead(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a labelReadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ShapeID == "" {
		return nil, errors.New("shape_id is required")
	}
	return s.session.ReadLabel(ctx, geometry.ShapeID(a.ShapeID), a.Rename)
}

type completionsWaitArgs struct {
	TimeoutMS int `json:"timeout_ms"`
}

const defaultWaitTimeout = 5 * time.Second

func (s *Server) handleCompletionsWait(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a completionsWaitArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	timeout := defaultWaitTimeout
	if a.TimeoutMS > 0 {
		timeout = time.Duration(a.TimeoutMS) * time.Millisecond
	}

	applied := s.session.WaitCompletions(ctx, timeout)
	st := s.session.State()
	return map[string]interface{}{
		"applied":         applied,
		"pending":         st.Pending,
		"marker":          st.Marker,
		"rotation_deg":    st.Rotation,
		"pixels_per_unit": st.PixelsPerUnit,
		"narrative":       st.Narrative,
		"version":         st.Version,
	}, nil
}
