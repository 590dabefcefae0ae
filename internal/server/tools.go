package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func pathOnlySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": pathProperty(),
		},
		"required": []string{"path"},
	}
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "plate_recognize",
			Description: "Read the license plate in an image. Returns the plate text, the number of enhanced views that agreed on it, and whether a plate was found. Nothing is recorded.",
			InputSchema: pathOnlySchema(),
		},
		{
			Name:        "plate_recognize_debug",
			Description: "Read the license plate in an image and return the full trace: every candidate plate region with its bounds and confidence, the chosen region, and the text read from each enhanced view.",
			InputSchema: pathOnlySchema(),
		},
		{
			Name:        "plate_predict",
			Description: "Run the gate workflow on an image: read the plate, check it against the blacklist, save a capture and record it in the history.",
			InputSchema: pathOnlySchema(),
		},

		// Image views
		{
			Name:        "plate_enhance",
			Description: "Return the enhanced image (denoised, upscaled, contrast-equalized, sharpened) as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"standard", "aggressive"},
						"description": "Enhancement strength. Aggressive upscales small images to at least 150px high. Default standard",
						"default":     "standard",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_variants",
			Description: "Return the four enhanced views (standard, high-contrast, brightened, darkened) of an image as base64-encoded PNGs, in that order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"aggressive": map[string]interface{}{
						"type":        "boolean",
						"description": "Base the views on aggressive enhancement. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_annotate",
			Description: "Locate plate regions and return the enhanced frame with each region outlined and labelled with its confidence. The chosen region is drawn in red.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline thickness in pixels. Default 2",
						"default":     2,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: pathOnlySchema(),
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to zoom into a plate region reported by plate_recognize_debug.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Blacklist and history
		{
			Name:        "blacklist_add",
			Description: "Add a plate text to the blacklist. Plates containing it are refused.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"plate": map[string]interface{}{
						"type":        "string",
						"description": "Plate text as recognized, e.g. \"ب أ ١٢٣\"",
					},
				},
				"required": []string{"plate"},
			},
		},
		{
			Name:        "blacklist_add_by_photo",
			Description: "Read the plate in an image and add it to the blacklist. Fails when no plate is read.",
			InputSchema: pathOnlySchema(),
		},
		{
			Name:        "blacklist_list",
			Description: "List every blacklist entry.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "blacklist_remove",
			Description: "Remove a blacklist entry by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Entry ID from blacklist_list",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "plate_history",
			Description: "Return the most recent recorded predictions, newest first.",
			InputSchema: emptySchema(),
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
