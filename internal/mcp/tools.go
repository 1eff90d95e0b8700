package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/synthcorpus/internal/storage"
	"github.com/dshills/synthcorpus/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeStoreClosed   = -32001 // The corpus store is no longer available
)

// handleRecordAttempt handles the record_attempt tool invocation
func (s *Server) handleRecordAttempt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	for _, key := range []string{"passed", "total"} {
		if _, ok := args[key].(float64); !ok {
			if _, ok := args[key].(int); !ok {
				return nil, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
					"param":  key,
					"reason": "missing or not a number",
				})
			}
		}
	}

	// The argument object has the same shape as a journal line
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	var attempt types.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid attempt", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	entry, err := s.recorder.Record(ctx, attempt)
	if err != nil {
		if errors.Is(err, types.ErrNegativeCount) || errors.Is(err, types.ErrPassedExceedsTotal) {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid counts", map[string]interface{}{
				"passed": attempt.Passed,
				"total":  attempt.Total,
				"reason": err.Error(),
			})
		}
		return nil, s.internalError("failed to record attempt", err)
	}

	response := map[string]interface{}{
		"recorded":  true,
		"id":        entry.ID,
		"timestamp": entry.Timestamp,
		"sig_key":   entry.SigKey,
		"spec_id":   entry.SpecID,
		"perfect":   entry.Perfect(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetEntries handles the get_entries tool invocation
func (s *Server) handleGetEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		// Every parameter is optional
		args = map[string]interface{}{}
	}

	limit, err := getLimit(args, 100)
	if err != nil {
		return nil, err
	}
	offset := getIntDefault(args, "offset", 0)
	if offset < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "offset must not be negative", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}

	filter := types.EntryFilter{
		FuncName:    getStringDefault(args, "func_name", ""),
		PerfectOnly: getBoolDefault(args, "perfect_only", false),
		MinScore:    getOptionalFloat(args, "min_score"),
		MaxScore:    getOptionalFloat(args, "max_score"),
		StartDate:   getStringDefault(args, "start_date", ""),
		EndDate:     getStringDefault(args, "end_date", ""),
		Limit:       limit,
		Offset:      offset,
	}
	if filter.MinScore != nil && filter.MaxScore != nil && *filter.MinScore > *filter.MaxScore {
		return nil, newMCPError(ErrorCodeInvalidParams, "min_score exceeds max_score", map[string]interface{}{
			"min_score": *filter.MinScore,
			"max_score": *filter.MaxScore,
		})
	}

	page, err := s.storage.GetEntries(ctx, filter)
	if err != nil {
		return nil, s.internalError("failed to get entries", err)
	}

	response := map[string]interface{}{
		"entries":  page.Entries,
		"count":    len(page.Entries),
		"has_more": page.HasMore,
		"offset":   offset,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetTopByFunc handles the get_top_by_func tool invocation
func (s *Server) handleGetTopByFunc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	funcName, ok := args["func_name"].(string)
	if !ok || funcName == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "func_name parameter is required", map[string]interface{}{
			"param":  "func_name",
			"reason": "missing or empty",
		})
	}

	limit, err := getLimit(args, 10)
	if err != nil {
		return nil, err
	}

	entries, err := s.storage.GetTopByFunc(ctx, funcName, limit)
	if err != nil {
		return nil, s.internalError("failed to get top entries", err)
	}

	response := map[string]interface{}{
		"func_name": funcName,
		"entries":   entries,
		"count":     len(entries),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetRecent handles the get_recent tool invocation
func (s *Server) handleGetRecent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	limit, err := getLimit(args, 10)
	if err != nil {
		return nil, err
	}

	entries, err := s.storage.GetRecent(ctx, limit)
	if err != nil {
		return nil, s.internalError("failed to get recent entries", err)
	}

	response := map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetSimilar handles the get_similar tool invocation
func (s *Server) handleGetSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	limit, err := getLimit(args, s.similarLimit)
	if err != nil {
		return nil, err
	}

	sigKey := getStringDefault(args, "sig_key", "")
	signature := getStringDefault(args, "func_signature", "")

	var results []types.SimilarResult
	switch {
	case sigKey != "" && signature != "":
		return nil, newMCPError(ErrorCodeInvalidParams, "give either sig_key or func_signature, not both", nil)
	case sigKey != "":
		bow, err := getStringSlice(args, "post_bow")
		if err != nil {
			return nil, err
		}
		results, err = s.engine.GetSimilar(ctx, sigKey, bow, limit)
		if err != nil {
			return nil, s.internalError("similarity search failed", err)
		}
	case signature != "":
		results, err = s.engine.GetSimilarText(ctx, signature, getStringDefault(args, "description", ""), limit)
		if err != nil {
			return nil, s.internalError("similarity search failed", err)
		}
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "sig_key or func_signature parameter is required", map[string]interface{}{
			"param":  "sig_key",
			"reason": "missing or empty",
		})
	}

	response := map[string]interface{}{
		"results": results,
		"count":   len(results),
		"window":  s.engine.Window(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, s.internalError("failed to get status", err)
	}

	response := map[string]interface{}{
		"schema_version": status.SchemaVersion,
		"statistics": map[string]interface{}{
			"total_entries":    status.TotalEntries,
			"perfect_entries":  status.PerfectEntries,
			"distinct_funcs":   status.DistinctFuncs,
			"latest_timestamp": status.LatestTimestamp,
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"wal_enabled":         status.Health.WALEnabled,
		},
		"similarity_window": s.engine.Window(),
		"build_mode":        storage.BuildMode,
		"driver":            storage.DriverName,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// internalError logs err and maps it to an MCP error
func (s *Server) internalError(message string, err error) error {
	s.logger.Error(message, zap.Error(err))
	code := ErrorCodeInternalError
	if errors.Is(err, storage.ErrClosed) {
		code = ErrorCodeStoreClosed
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a response as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getLimit extracts and bounds the limit parameter
func getLimit(args map[string]interface{}, defaultValue int) (int, error) {
	limit := getIntDefault(args, "limit", defaultValue)
	if limit < 1 || limit > MaxLimit {
		return 0, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	return limit, nil
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getOptionalFloat extracts a number parameter; nil when absent
func getOptionalFloat(args map[string]interface{}, key string) *float64 {
	switch val := args[key].(type) {
	case float64:
		return &val
	case int:
		f := float64(val)
		return &f
	}
	return nil
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return strings.TrimSpace(val)
	}
	return defaultValue
}

// getStringSlice extracts an optional array of strings
func getStringSlice(args map[string]interface{}, key string) ([]string, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	switch val := raw.(type) {
	case []string:
		return val, nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, newMCPError(ErrorCodeInvalidParams, key+" must be an array of strings", map[string]interface{}{
					"param": key,
				})
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, newMCPError(ErrorCodeInvalidParams, key+" must be an array of strings", map[string]interface{}{
		"param": key,
	})
}
