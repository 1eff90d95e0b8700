package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// limitProperty returns the schema of a limit argument bounded by MaxLimit
func limitProperty(defaultValue int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of entries to return (1-1000)",
		"default":     defaultValue,
		"minimum":     1,
		"maximum":     MaxLimit,
	}
}

// stringArrayProperty returns the schema of an array-of-strings argument
func stringArrayProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type": "string",
		},
	}
}

// recordAttemptTool returns the tool definition for record_attempt
func recordAttemptTool() mcp.Tool {
	return mcp.Tool{
		Name:        "record_attempt",
		Description: "Record the outcome of one synthesis attempt in the corpus",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Entry id; generated when omitted. Re-recording an existing id is a no-op",
				},
				"timestamp": map[string]interface{}{
					"type":        "string",
					"description": "ISO-8601 timestamp; defaults to now (UTC)",
				},
				"func_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the synthesized function",
				},
				"func_signature": map[string]interface{}{
					"type":        "string",
					"description": "Human-readable signature, e.g. parse_int(s: str) -> int",
				},
				"sig_key": map[string]interface{}{
					"type":        "string",
					"description": "Signature key name|args|return; derived from func_signature when omitted",
				},
				"passed": map[string]interface{}{
					"type":        "integer",
					"description": "Number of passing checks",
					"minimum":     0,
				},
				"total": map[string]interface{}{
					"type":        "integer",
					"description": "Total number of checks",
					"minimum":     0,
				},
				"score": map[string]interface{}{
					"type":        "number",
					"description": "Quality score, lower is better",
				},
				"snippet": map[string]interface{}{
					"type":        "string",
					"description": "Generated code",
				},
				"spec_text": map[string]interface{}{
					"type":        "string",
					"description": "Specification text; hashed into spec_hash and spec_id when those are omitted",
				},
				"spec_id":          map[string]interface{}{"type": "string"},
				"spec_hash":        map[string]interface{}{"type": "string"},
				"failing_tests":    stringArrayProperty("Names of failing checks"),
				"calls_functions":  stringArrayProperty("Functions called by the snippet"),
				"post_conditions":  stringArrayProperty("Postconditions; tokenized into post_bow when post_bow is omitted"),
				"post_bow":         stringArrayProperty("Pre-tokenized postcondition bag"),
				"complexity":       map[string]interface{}{"type": "integer"},
				"iteration":        map[string]interface{}{"type": "integer"},
				"duration_ms":      map[string]interface{}{"type": "integer"},
				"synthesis_method": map[string]interface{}{"type": "string"},
			},
			Required: []string{"func_name", "passed", "total", "snippet"},
		},
	}
}

// getEntriesTool returns the tool definition for get_entries
func getEntriesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_entries",
		Description: "List corpus entries newest first, with optional filters and pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"func_name": map[string]interface{}{
					"type":        "string",
					"description": "Exact function name",
				},
				"perfect_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only entries where every check passed",
					"default":     false,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Inclusive lower score bound",
				},
				"max_score": map[string]interface{}{
					"type":        "number",
					"description": "Inclusive upper score bound",
				},
				"start_date": map[string]interface{}{
					"type":        "string",
					"description": "Inclusive lower timestamp bound (ISO-8601)",
				},
				"end_date": map[string]interface{}{
					"type":        "string",
					"description": "Inclusive upper timestamp bound (ISO-8601)",
				},
				"limit": limitProperty(100),
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries to skip",
					"default":     0,
					"minimum":     0,
				},
			},
		},
	}
}

// getTopByFuncTool returns the tool definition for get_top_by_func
func getTopByFuncTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_top_by_func",
		Description: "Best attempts for a function: perfect solutions first, then lowest score, then newest",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"func_name": map[string]interface{}{
					"type":        "string",
					"description": "Exact function name",
				},
				"limit": limitProperty(10),
			},
			Required: []string{"func_name"},
		},
	}
}

// getRecentTool returns the tool definition for get_recent
func getRecentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_recent",
		Description: "Most recently recorded attempts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": limitProperty(10),
			},
		},
	}
}

// getSimilarTool returns the tool definition for get_similar
func getSimilarTool() mcp.Tool {
	return mcp.Tool{
		Name: "get_similar",
		Description: "Stored attempts most similar to a target, by signature structure and postcondition tokens. " +
			"Give either sig_key (with optional post_bow) or func_signature (with optional description)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sig_key": map[string]interface{}{
					"type":        "string",
					"description": "Target signature key name|args|return",
				},
				"post_bow": stringArrayProperty("Target token bag"),
				"func_signature": map[string]interface{}{
					"type":        "string",
					"description": "Target signature, e.g. parse_int(s: str) -> int",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Free text tokenized into the target bag",
				},
				"limit": limitProperty(DefaultSimilarLimit),
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Corpus statistics and store health",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
