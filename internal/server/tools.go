package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// emptySchema is the input schema of tools without arguments.
func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Source
		{
			Name:        "image_load",
			Description: "Load a tray photo as the working raster. Give exactly one of path, archive+entry or url. Clears every shape, group and calibration reference of the previous image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"archive": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a zip archive of images",
					},
					"entry": map[string]interface{}{
						"type":        "string",
						"description": "Entry name inside the archive (see archive_list)",
					},
					"url": map[string]interface{}{
						"type":        "string",
						"description": "http or https URL of the image",
					},
				},
			},
		},
		{
			Name:        "archive_list",
			Description: "List the image entries of a zip archive, sorted by name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"archive": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the zip archive",
					},
				},
				"required": []string{"archive"},
			},
		},
		{
			Name:        "session_state",
			Description: "Return the editor and pipeline state: tab, tool, mode, threshold, regression, calibration, groups with committed stats, selection, viewport, versions and async results.",
			InputSchema: emptySchema(),
		},

		// Pipeline and Editor Inputs
		{
			Name:        "set_threshold",
			Description: "Set the ExG vegetation threshold. Pixels with 2G-R-B strictly above it are vegetation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"value": map[string]interface{}{
						"type":        "number",
						"description": "Threshold on the ExG index",
						"default":     20,
					},
				},
				"required": []string{"value"},
			},
		},
		{
			Name:        "set_tab",
			Description: "Switch the workflow tab. The tab decides where new shapes go and which shapes can be edited.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tab": map[string]interface{}{
						"type": "string",
						"enum": []string{"segmentation", "calibration", "analysis", "report"},
					},
				},
				"required": []string{"tab"},
			},
		},
		{
			Name:        "set_mode",
			Description: "Select the display mode of the analysis tab.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"rgb", "ngrdi", "maci", "gi"},
						"description": "rgb shows corrected color, the others a false-color index ramp",
					},
				},
				"required": []string{"mode"},
			},
		},
		{
			Name:        "set_tool",
			Description: "Select the pointer tool.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tool": map[string]interface{}{
						"type": "string",
						"enum": []string{"select", "rect", "circle", "lasso", "pan"},
					},
				},
				"required": []string{"tool"},
			},
		},
		{
			Name:        "set_target_index",
			Description: "Select the index the regression reads. Switching resets slope and intercept to that index's defaults.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target": map[string]interface{}{
						"type": "string",
						"enum": []string{"maci", "ngrdi"},
					},
				},
				"required": []string{"target"},
			},
		},
		{
			Name:        "set_regression",
			Description: "Set the linear model estimate = slope * mean(target) + intercept. Omitted values are kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target": map[string]interface{}{
						"type": "string",
						"enum": []string{"maci", "ngrdi"},
					},
					"slope": map[string]interface{}{
						"type": "number",
					},
					"intercept": map[string]interface{}{
						"type": "number",
					},
				},
			},
		},
		{
			Name:        "set_pixels_per_unit",
			Description: "Set the physical scale used for group areas. 0 clears it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"value": map[string]interface{}{
						"type":        "number",
						"description": "Pixels per physical unit (e.g. per cm)",
						"minimum":     0,
					},
				},
				"required": []string{"value"},
			},
		},

		// Targeting
		{
			Name:        "set_calibration_target",
			Description: "Select the reference slot that new calibration shapes fill.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": map[string]interface{}{
						"type": "string",
						"enum": []string{"gray", "white", "black"},
					},
				},
				"required": []string{"slot"},
			},
		},
		{
			Name:        "group_create",
			Description: "Create an analysis group and make it the target of new analysis shapes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Display name; a numbered default is used when empty",
					},
				},
			},
		},
		{
			Name:        "group_select",
			Description: "Make a group the target of new analysis shapes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type": "string",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "group_rename",
			Description: "Rename a group.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type": "string",
					},
					"name": map[string]interface{}{
						"type": "string",
					},
				},
				"required": []string{"id", "name"},
			},
		},
		{
			Name:        "group_delete",
			Description: "Delete a group together with all of its shapes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type": "string",
					},
				},
				"required": []string{"id"},
			},
		},

		// Interaction
		{
			Name:        "pointer",
			Description: "Send a pointer event at screen coordinates. With a drawing tool, down-move-up creates a shape; with select it moves or resizes the shape or handle under the pointer.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"action": map[string]interface{}{
						"type": "string",
						"enum": []string{"down", "move", "up", "cancel"},
					},
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Screen X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Screen Y coordinate",
					},
				},
				"required": []string{"action"},
			},
		},
		{
			Name:        "viewport",
			Description: "Set the zoom and pan. With anchor_x and anchor_y the zoom keeps that screen point fixed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"zoom": map[string]interface{}{
						"type":             "number",
						"exclusiveMinimum": 0,
					},
					"pan_x": map[string]interface{}{
						"type": "number",
					},
					"pan_y": map[string]interface{}{
						"type": "number",
					},
					"anchor_x": map[string]interface{}{
						"type": "number",
					},
					"anchor_y": map[string]interface{}{
						"type": "number",
					},
				},
			},
		},
		{
			Name:        "shape_delete",
			Description: "Delete a shape by id, or the selected shape when id is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type": "string",
					},
				},
			},
		},

		// Results
		{
			Name:        "group_stats",
			Description: "Run pending analysis passes and return per-group stats, vegetation cover and the calibration in use.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "auto_tune",
			Description: "Fit the regression so the lowest group mean maps to 1 and the highest to 40. Needs two groups with vegetation.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "render",
			Description: "Return an image of the session as base64: the analysis result, the shape overlay, both composited, or the working raster.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kind": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"composite", "result", "overlay", "raster"},
						"default": "composite",
					},
					"format": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"png", "jpeg", "webp"},
						"default": "png",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG/WebP quality 1-100",
					},
					"max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale so the longer side is at most this",
					},
				},
			},
		},
		{
			Name:        "sample_color",
			Description: "Get the working raster color at a pixel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type": "integer",
					},
					"y": map[string]interface{}{
						"type": "integer",
					},
				},
				"required": []string{"x", "y"},
			},
		},

		// Collaborators
		{
			Name:        "marker_detect",
			Description: "Start fiducial marker detection on the working raster. The scale (and rotation when auto-straighten is on) is applied when the result arrives; see completions_wait.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "narrative",
			Description: "Start generating the report narrative from the committed group stats. A fixed notice is used when the language model is unavailable.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "report_export",
			Description: "Write the report document (JSON) and a composite snapshot.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Output directory; the configured export directory when empty",
					},
					"format": map[string]interface{}{
						"type": "string",
						"enum": []string{"png", "jpeg", "webp"},
					},
					"quality": map[string]interface{}{
						"type": "integer",
					},
					"max_side": map[string]interface{}{
						"type": "integer",
					},
				},
			},
		},
		{
			Name:        "label_read",
			Description: "OCR the text inside a shape's bounding box. With rename, the owning group takes the cleaned text as its name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"shape_id": map[string]interface{}{
						"type": "string",
					},
					"rename": map[string]interface{}{
						"type":    "boolean",
						"default": false,
					},
				},
				"required": []string{"shape_id"},
			},
		},
		{
			Name:        "completions_wait",
			Description: "Apply async results that have arrived. Blocks up to timeout_ms for the first one when requests are pending.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"timeout_ms": map[string]interface{}{
						"type":    "integer",
						"default": 5000,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
