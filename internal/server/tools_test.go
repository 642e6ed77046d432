package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	expectedTools := []string{
		"omr_scan_page",
		"omr_list_candidates",
		"omr_resolve_target",
		"omr_check_candidate",
		"omr_crop_candidate",
		"omr_overlay",
		"omr_constants",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required parameter must be described
			required, _ := tool.InputSchema["required"].([]string)
			for _, name := range required {
				if _, ok := props[name]; !ok {
					t.Errorf("required parameter %s has no schema", name)
				}
			}
		})
	}
}

func TestToolDefinitions_ReviewToolsNeedRun(t *testing.T) {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range []string{"omr_list_candidates", "omr_resolve_target", "omr_check_candidate", "omr_crop_candidate", "omr_overlay"} {
		required, _ := toolMap[name].InputSchema["required"].([]string)
		found := false
		for _, r := range required {
			if r == "run_id" {
				found = true
			}
		}
		if !found {
			t.Errorf("%s should require run_id", name)
		}
	}
}
