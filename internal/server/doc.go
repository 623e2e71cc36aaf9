// Package server implements the MCP (Model Context Protocol) server for plant
// tray ROI analysis.
//
// The server owns one session.Session and is its control thread: requests are
// read from stdin and async completions from the session are applied on the
// same goroutine, and the session scheduler ticks after each of them.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Source:
//   - image_load: Load a photo from a file, zip entry or URL
//   - archive_list: List images in a zip
//   - session_state: Snapshot of the editor and pipeline
//
// Pipeline and Editor Inputs:
//   - set_threshold, set_tab, set_mode, set_tool
//   - set_target_index, set_regression, set_pixels_per_unit
//
// Targeting:
//   - set_calibration_target, group_create, group_select, group_rename
//   - group_delete: Remove a group and its shapes
//
// Interaction:
//   - pointer: down/move/up/cancel at screen coordinates
//   - viewport: zoom and pan
//   - shape_delete: Delete by id or the selection
//
// Results:
//   - group_stats: Flush pending passes and report group stats
//   - auto_tune: Fit the regression to the groups
//   - render: Result, overlay or composite as base64
//   - sample_color: Raster color at a pixel
//
// Collaborators:
//   - marker_detect: Async fiducial marker scale
//   - narrative: Async report text from Ollama
//   - report_export: Write report JSON and snapshot
//   - label_read: OCR a tray label
//   - completions_wait: Apply arrived async results
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
