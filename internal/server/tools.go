package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func channelProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"luma", "lightness", "value", "red", "green", "blue", "alpha"},
		"description": "Channel extracted from color images. Default luma",
		"default":     "luma",
	}
}

func connectivityProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"face", "full"},
		"description": "Neighborhood: face (4-connected in 2D) or full (8-connected). Default from server config",
	}
}

// withROI adds the optional x1, y1, x2, y2 rectangle to props.
func withROI(props map[string]interface{}, what string) map[string]interface{} {
	props["x1"] = intProp("Left edge X coordinate of the " + what + " (0-based)")
	props["y1"] = intProp("Top edge Y coordinate of the " + what + " (0-based)")
	props["x2"] = intProp("Right edge X coordinate of the " + what + " (exclusive)")
	props["y2"] = intProp("Bottom edge Y coordinate of the " + what + " (exclusive)")
	return props
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and channel layout. The decoded image is cached for later tool calls.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Absolute path to the image file"),
			}, "path"),
		},

		// Geodesic Erosion
		{
			Name:        "morph_geodesic_erode",
			Description: "Run one geodesic erosion of a marker image under a mask image: each output pixel is the larger of the mask and the minimum of the marker over the pixel's neighborhood. An optional rectangle limits the computed output. Set mode to converge to iterate to a fixed point instead.",
			InputSchema: objectSchema(withROI(map[string]interface{}{
				"marker_path":  stringProp("Absolute path to the marker image (pixelwise >= mask)"),
				"mask_path":    stringProp("Absolute path to the mask image (same size as the marker)"),
				"channel":      channelProp(),
				"connectivity": connectivityProp(),
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"single", "converge"},
					"description": "single runs one pass, converge iterates until stable. Default single",
					"default":     "single",
				},
			}, "output region"), "marker_path", "mask_path"),
		},
		{
			Name:        "morph_reconstruct",
			Description: "Grayscale reconstruction by erosion: repeat geodesic erosion of the marker under the mask until the image stops changing. Always computed over the whole image; the optional rectangle only crops the returned PNG.",
			InputSchema: objectSchema(withROI(map[string]interface{}{
				"marker_path":    stringProp("Absolute path to the marker image (pixelwise >= mask)"),
				"mask_path":      stringProp("Absolute path to the mask image (same size as the marker)"),
				"channel":        channelProp(),
				"connectivity":   connectivityProp(),
				"max_iterations": intProp("Give up after this many passes. Default from server config (0 = no limit)"),
			}, "returned image"), "marker_path", "mask_path"),
		},

		// Applications
		{
			Name:        "morph_fill_holes",
			Description: "Fill dark regions that are completely enclosed by brighter pixels, raising each to the level of its surrounding wall.",
			InputSchema: objectSchema(withROI(map[string]interface{}{
				"path":         stringProp("Absolute path to the image file"),
				"channel":      channelProp(),
				"connectivity": connectivityProp(),
			}, "returned image"), "path"),
		},
		{
			Name:        "morph_h_minima",
			Description: "Suppress every regional minimum shallower than h. Deeper minima remain, raised by h.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":         stringProp("Absolute path to the image file"),
				"h":            intProp("Minimum depth to keep (0-255)"),
				"channel":      channelProp(),
				"connectivity": connectivityProp(),
			}, "path", "h"),
		},
		{
			Name:        "morph_regional_minima",
			Description: "Mark every regional minimum (a connected plateau with no darker neighbor) white on a black image.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":         stringProp("Absolute path to the image file"),
				"channel":      channelProp(),
				"connectivity": connectivityProp(),
			}, "path"),
		},
		{
			Name:        "morph_detect_basins",
			Description: "Find the regional minima of an image and report each one's bounding box, area, level and depth below the level at which it would spill over to the image border. Sorted deepest first.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":         stringProp("Absolute path to the image file"),
				"channel":      channelProp(),
				"connectivity": connectivityProp(),
				"min_area": map[string]interface{}{
					"type":        "integer",
					"description": "Ignore basins with fewer pixels. Default 1",
					"default":     1,
				},
			}, "path"),
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
