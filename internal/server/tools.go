package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// colorProperties are the input properties shared by color_fetch and
// color_cache_evict.
func colorProperties() map[string]interface{} {
	return map[string]interface{}{
		"url": map[string]interface{}{
			"type":        "string",
			"description": "HTTP or HTTPS URL of the image",
		},
		"strategy": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"median_cut", "named_palette"},
			"description": "Extraction algorithm",
			"default":     "median_cut",
		},
		"normalize": map[string]interface{}{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Optional minimum HSB brightness applied to both colors",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "color_fetch",
			Description: "Extract a primary (foreground) and secondary (background) color plus an average brightness from an image URL. Results are cached per url, strategy, and normalize value; unreachable or undecodable images yield white on white.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": colorProperties(),
				"required":   []string{"url"},
			},
		},
		{
			Name:        "color_cache_evict",
			Description: "Drop one cached result so the next color_fetch with the same url, strategy, and normalize value recomputes it. Use this after a transient fetch failure.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": colorProperties(),
				"required":   []string{"url"},
			},
		},
		{
			Name:        "color_cache_stats",
			Description: "Report cache size, capacity, hit and miss counts, computations, and fallbacks.",
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
