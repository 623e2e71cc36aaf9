package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"image_load",
		"archive_list",
		"session_state",
		"set_threshold",
		"set_tab",
		"set_mode",
		"set_tool",
		"set_target_index",
		"set_regression",
		"set_pixels_per_unit",
		"set_calibration_target",
		"group_create",
		"group_select",
		"group_rename",
		"group_delete",
		"pointer",
		"viewport",
		"shape_delete",
		"group_stats",
		"auto_tune",
		"render",
		"sample_color",
		"marker_detect",
		"narrative",
		"report_export",
		"label_read",
		"completions_wait",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Tool %s defined twice", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	// Check all expected tools exist
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Dispatched(t *testing.T) {
	s := newTestServer(t, nil)
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(context.Background(), tool.Name, json.RawMessage(`{}`))
			if err != nil && strings.HasPrefix(err.Error(), "unknown tool") {
				t.Errorf("tool %s is listed but not dispatched", tool.Name)
			}
		})
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			// Name should not be empty
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}

			// Description should not be empty
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}

			// InputSchema should exist
			if tool.InputSchema == nil {
				t.Error("Tool InputSchema is nil")
			}

			// InputSchema should be an object type
			schemaType, ok := tool.InputSchema["type"]
			if !ok {
				t.Error("InputSchema missing 'type' field")
			}
			if schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}

			// InputSchema should have properties
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema missing 'properties' map")
			}

			// Required fields must be declared properties
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required field %s is not a property", r)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	toolRequired := map[string][]string{
		"archive_list":           {"archive"},
		"set_threshold":          {"value"},
		"set_tab":                {"tab"},
		"set_mode":               {"mode"},
		"set_tool":               {"tool"},
		"set_target_index":       {"target"},
		"set_pixels_per_unit":    {"value"},
		"set_calibration_target": {"slot"},
		"group_select":           {"id"},
		"group_rename":           {"id", "name"},
		"group_delete":           {"id"},
		"pointer":                {"action"},
		"sample_color":           {"x", "y"},
		"label_read":             {"shape_id"},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for name, want := range toolRequired {
		tool, ok := toolMap[name]
		if !ok {
			t.Errorf("Tool %s not found", name)
			continue
		}

		t.Run(name, func(t *testing.T) {
			requiredList, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			have := make(map[string]bool)
			for _, r := range requiredList {
				have[r] = true
			}
			for _, w := range want {
				if !have[w] {
					t.Errorf("%s should require '%s'", name, w)
				}
			}
		})
	}
}

func TestToolDefinitions_Enums(t *testing.T) {
	toolEnums := map[string]map[string][]string{
		"set_tab":                {"tab": {"segmentation", "calibration", "analysis", "report"}},
		"set_mode":               {"mode": {"rgb", "ngrdi", "maci", "gi"}},
		"set_tool":               {"tool": {"select", "rect", "circle", "lasso", "pan"}},
		"set_target_index":       {"target": {"maci", "ngrdi"}},
		"set_calibration_target": {"slot": {"gray", "white", "black"}},
		"pointer":                {"action": {"down", "move", "up", "cancel"}},
		"render":                 {"kind": {"composite", "result", "overlay", "raster"}},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for toolName, params := range toolEnums {
		tool, ok := toolMap[toolName]
		if !ok {
			t.Errorf("Tool %s not found", toolName)
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})

		for paramName, expected := range params {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found", toolName, paramName)
				continue
			}
			enum, ok := param["enum"].([]string)
			if !ok {
				t.Errorf("%s.%s: should have enum", toolName, paramName)
				continue
			}

			enumMap := make(map[string]bool)
			for _, e := range enum {
				enumMap[e] = true
			}
			for _, v := range expected {
				if !enumMap[v] {
					t.Errorf("%s.%s: expected '%s' in enum", toolName, paramName, v)
				}
			}
		}
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	toolDefaults := map[string]map[string]interface{}{
		"set_threshold":    {"value": 20},
		"render":           {"kind": "composite", "format": "png"},
		"label_read":       {"rename": false},
		"completions_wait": {"timeout_ms": 5000},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for toolName, expectedDefaults := range toolDefaults {
		tool, ok := toolMap[toolName]
		if !ok {
			t.Errorf("Tool %s not found", toolName)
			continue
		}

		props, ok := tool.InputSchema["properties"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: properties should be a map", toolName)
			continue
		}

		for paramName, expectedDefault := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}

			actualDefault, ok := param["default"]
			if !ok {
				t.Errorf("%s.%s: missing default value", toolName, paramName)
				continue
			}
			if actualDefault != expectedDefault {
				t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, actualDefault, expectedDefault)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t, nil)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}

	tools, ok := result["tools"]
	if !ok {
		t.Fatal("Result should contain 'tools' key")
	}

	toolsList, ok := tools.([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}

	// Should match GetToolDefinitions
	expected := GetToolDefinitions()
	if len(toolsList) != len(expected) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(expected))
	}
}

func TestToolStruct(t *testing.T) {
	tool := Tool{
		Name:        "test_tool",
		Description: "A test tool",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"param1": map[string]interface{}{
					"type":        "string",
					"description": "A test parameter",
				},
			},
			"required": []string{"param1"},
		},
	}

	if tool.Name != "test_tool" {
		t.Errorf("Name: got %s, want test_tool", tool.Name)
	}
	if tool.Description != "A test tool" {
		t.Errorf("Description: got %s, want 'A test tool'", tool.Description)
	}
	if tool.InputSchema == nil {
		t.Error("InputSchema should not be nil")
	}
}
