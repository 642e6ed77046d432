package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func runProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"run_id": map[string]interface{}{
			"type":        "string",
			"description": "Run identifier returned by omr_scan_page",
		},
		"system": map[string]interface{}{
			"type":        "integer",
			"description": "System identifier from the grid description",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

var glyphProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Candidate glyph identifier, as listed by omr_list_candidates",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "omr_scan_page",
			Description: "Load a page and its grid description, then retrieve the ledgers and attach the flags of every system. Returns a run identifier for the review tools and a per-system report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the page image",
					},
					"staff_free_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path to the same page with staff lines removed. Defaults to the page itself.",
					},
					"grid_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the YAML grid description (scale, staves, beams, stems, flags)",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Optional gray level below which a pixel is ink. Defaults to the configured threshold.",
					},
				},
				"required": []string{"path", "grid_path"},
			},
		},

		// Review
		{
			Name:        "omr_list_candidates",
			Description: "List the ledger candidates of a system with their geometry, accepted shape and failure reasons.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": runProperties(nil),
				"required":   []string{"run_id", "system"},
			},
		},
		{
			Name:        "omr_resolve_target",
			Description: "Find the staff, virtual line index and theoretical ordinate a ledger candidate should lie on.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": runProperties(map[string]interface{}{"glyph": glyphProperty}),
				"required":   []string{"run_id", "system", "glyph"},
			},
		},
		{
			Name:        "omr_check_candidate",
			Description: "Run the ledger check suite on one candidate and return every check value, impact and the resulting grade.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": runProperties(map[string]interface{}{
					"glyph": glyphProperty,
					"target_y": map[string]interface{}{
						"type":        "number",
						"description": "Optional target ordinate. When omitted, the target is resolved from the staff and accepted ledgers.",
					},
				}),
				"required": []string{"run_id", "system", "glyph"},
			},
		},
		{
			Name:        "omr_crop_candidate",
			Description: "Crop the page around a candidate and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": runProperties(map[string]interface{}{
					"glyph": glyphProperty,
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Margin around the candidate in pixels. Default one interline.",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 4.0",
						"default":     4.0,
					},
				}),
				"required": []string{"run_id", "system", "glyph"},
			},
		},
		{
			Name:        "omr_overlay",
			Description: "Draw the accepted interpretations of a run on the page, colored by kind and saturated by grade.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"run_id": map[string]interface{}{
						"type":        "string",
						"description": "Run identifier returned by omr_scan_page",
					},
					"kinds": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string", "enum": []string{"ledger", "flag", "small-flag", "stem", "head", "beam", "beam-hook"}},
						"description": "Optional kinds to draw. Default ledgers and flags.",
					},
				},
				"required": []string{"run_id"},
			},
		},

		// Configuration
		{
			Name:        "omr_constants",
			Description: "List the tunable constants with their current value, unit and description.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
