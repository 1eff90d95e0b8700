package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/synthcorpus/internal/recorder"
	"github.com/dshills/synthcorpus/internal/similarity"
	"github.com/dshills/synthcorpus/internal/storage"
	"github.com/dshills/synthcorpus/pkg/types"
)

func setupTestServer(t *testing.T) (*Server, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := NewServer(store, recorder.New(store), similarity.New(store), Options{})
	require.NotNil(t, s)
	return s, store
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// decodeResult unmarshals the single text content of a tool result
func decodeResult(t *testing.T, result *mcp.CallToolResult, out interface{}) {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "result should be text content")
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %T", err)
	assert.Equal(t, code, mcpErr.Code)
}

func record(t *testing.T, s *Server, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	result, err := s.handleRecordAttempt(context.Background(), callRequest("record_attempt", args))
	require.NoError(t, err)
	var out map[string]interface{}
	decodeResult(t, result, &out)
	return out
}

func TestNewServer(t *testing.T) {
	s, _ := setupTestServer(t)

	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.storage)
	assert.NotNil(t, s.recorder)
	assert.NotNil(t, s.engine)
	assert.Equal(t, DefaultSimilarLimit, s.similarLimit)
}

func TestRecordAttempt(t *testing.T) {
	s, store := setupTestServer(t)

	out := record(t, s, map[string]interface{}{
		"func_name":       "parse_int",
		"func_signature":  "parse_int(s: str) -> int",
		"passed":          float64(3),
		"total":           float64(3),
		"score":           0.12,
		"snippet":         "def parse_int(s): return int(s)",
		"post_conditions": []interface{}{"result is an integer"},
		"complexity":      float64(2),
	})
	assert.Equal(t, true, out["recorded"])
	assert.Equal(t, "parse_int|str|int", out["sig_key"])
	assert.Equal(t, true, out["perfect"])
	assert.NotEmpty(t, out["id"])

	stored, err := store.GetRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, out["id"], stored[0].ID)
	assert.Equal(t, []string{"result", "is", "an", "integer"}, stored[0].PostBow)
	require.NotNil(t, stored[0].Complexity)
	assert.Equal(t, 2, *stored[0].Complexity)
}

func TestRecordAttempt_InvalidParams(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args interface{}
	}{
		{"not an object", "nope"},
		{"missing passed", map[string]interface{}{"total": float64(1)}},
		{"missing total", map[string]interface{}{"passed": float64(1)}},
		{"passed exceeds total", map[string]interface{}{"passed": float64(4), "total": float64(3)}},
		{"negative", map[string]interface{}{"passed": float64(-1), "total": float64(3)}},
		{"fractional count", map[string]interface{}{"passed": 1.5, "total": float64(3)}},
		{"wrong list type", map[string]interface{}{"passed": float64(1), "total": float64(1), "failing_tests": "t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "record_attempt", Arguments: tt.args}}
			_, err := s.handleRecordAttempt(ctx, req)
			requireMCPError(t, err, ErrorCodeInvalidParams)
		})
	}
}

func TestRecordAttempt_DuplicateIDKeepsFirst(t *testing.T) {
	s, store := setupTestServer(t)

	record(t, s, map[string]interface{}{"id": "x", "passed": float64(1), "total": float64(2), "score": 0.9})
	record(t, s, map[string]interface{}{"id": "x", "passed": float64(2), "total": float64(2), "score": 0.1})

	stored, err := store.GetRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 0.9, stored[0].Score)
}

func seedEntries(t *testing.T, store storage.Storage) {
	t.Helper()
	entries := []types.Entry{
		{ID: "a", Timestamp: "2026-01-01T00:00:01Z", FuncName: "f", SigKey: "f|int|int", Passed: 2, Total: 2, Score: 0.5, Snippet: "a", PostBow: []string{"sum"}},
		{ID: "b", Timestamp: "2026-01-01T00:00:02Z", FuncName: "f", SigKey: "f|int|int", Passed: 1, Total: 2, Score: 0.1, Snippet: "b"},
		{ID: "c", Timestamp: "2026-01-01T00:00:03Z", FuncName: "g", SigKey: "g|str|str", Passed: 1, Total: 1, Score: 0.2, Snippet: "c"},
	}
	for i := range entries {
		require.NoError(t, store.InsertEntry(context.Background(), &entries[i]))
	}
}

type entriesResponse struct {
	Entries []types.Entry `json:"entries"`
	Count   int           `json:"count"`
	HasMore bool          `json:"has_more"`
}

func ids(entries []types.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestGetEntries(t *testing.T) {
	s, store := setupTestServer(t)
	seedEntries(t, store)
	ctx := context.Background()

	result, err := s.handleGetEntries(ctx, callRequest("get_entries", map[string]interface{}{
		"func_name":    "f",
		"perfect_only": true,
		"limit":        float64(10),
	}))
	require.NoError(t, err)
	var resp entriesResponse
	decodeResult(t, result, &resp)
	assert.Equal(t, []string{"a"}, ids(resp.Entries))
	assert.False(t, resp.HasMore)

	result, err = s.handleGetEntries(ctx, callRequest("get_entries", map[string]interface{}{
		"limit": float64(2),
	}))
	require.NoError(t, err)
	resp = entriesResponse{}
	decodeResult(t, result, &resp)
	assert.Equal(t, []string{"c", "b"}, ids(resp.Entries))
	assert.True(t, resp.HasMore)

	result, err = s.handleGetEntries(ctx, callRequest("get_entries", map[string]interface{}{
		"min_score": 0.15,
		"max_score": float64(1),
	}))
	require.NoError(t, err)
	resp = entriesResponse{}
	decodeResult(t, result, &resp)
	assert.Equal(t, []string{"c", "a"}, ids(resp.Entries))
}

func TestGetEntries_NoArguments(t *testing.T) {
	s, store := setupTestServer(t)
	seedEntries(t, store)

	result, err := s.handleGetEntries(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	var resp entriesResponse
	decodeResult(t, result, &resp)
	assert.Equal(t, 3, resp.Count)
}

func TestGetEntries_InvalidParams(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	for name, args := range map[string]map[string]interface{}{
		"zero limit":      {"limit": float64(0)},
		"limit too large": {"limit": float64(MaxLimit + 1)},
		"negative offset": {"offset": float64(-1)},
		"inverted scores": {"min_score": 0.9, "max_score": 0.1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.handleGetEntries(ctx, callRequest("get_entries", args))
			requireMCPError(t, err, ErrorCodeInvalidParams)
		})
	}
}

func TestGetTopByFunc(t *testing.T) {
	s, store := setupTestServer(t)
	seedEntries(t, store)
	ctx := context.Background()

	result, err := s.handleGetTopByFunc(ctx, callRequest("get_top_by_func", map[string]interface{}{
		"func_name": "f",
	}))
	require.NoError(t, err)
	var resp entriesResponse
	decodeResult(t, result, &resp)
	// a is perfect, so it leads despite b's lower score
	assert.Equal(t, []string{"a", "b"}, ids(resp.Entries))

	_, err = s.handleGetTopByFunc(ctx, callRequest("get_top_by_func", map[string]interface{}{}))
	requireMCPError(t, err, ErrorCodeInvalidParams)
}

func TestGetRecent(t *testing.T) {
	s, store := setupTestServer(t)
	seedEntries(t, store)

	result, err := s.handleGetRecent(context.Background(), callRequest("get_recent", map[string]interface{}{
		"limit": float64(2),
	}))
	require.NoError(t, err)
	var resp entriesResponse
	decodeResult(t, result, &resp)
	assert.Equal(t, []string{"c", "b"}, ids(resp.Entries))
}

type similarResponse struct {
	Results []types.SimilarResult `json:"results"`
	Count   int                   `json:"count"`
	Window  int                   `json:"window"`
}

func TestGetSimilar_BySigKey(t *testing.T) {
	s, store := setupTestServer(t)
	seedEntries(t, store)

	result, err := s.handleGetSimilar(context.Background(), callRequest("get_similar", map[string]interface{}{
		"sig_key":  "f|int|int",
		"post_bow": []interface{}{"sum"},
		"limit":    float64(1),
	}))
	require.NoError(t, err)
	var resp similarResponse
	decodeResult(t, result, &resp)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a", resp.Results[0].Entry.ID)
	assert.InDelta(t, 0.86, resp.Results[0].Similarity, 1e-9)
	assert.Equal(t, similarity.DefaultWindow, resp.Window)
}

func TestGetSimilar_BySignature(t *testing.T) {
	s, store := setupTestServer(t)
	seedEntries(t, store)

	result, err := s.handleGetSimilar(context.Background(), callRequest("get_similar", map[string]interface{}{
		"func_signature": "g(x: str) -> str",
	}))
	require.NoError(t, err)
	var resp similarResponse
	decodeResult(t, result, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "c", resp.Results[0].Entry.ID)
	assert.LessOrEqual(t, resp.Count, DefaultSimilarLimit)
}

func TestGetSimilar_InvalidParams(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	for name, args := range map[string]interface{}{
		"not an object":  []interface{}{},
		"no target":      map[string]interface{}{},
		"both targets":   map[string]interface{}{"sig_key": "f||", "func_signature": "f()"},
		"bad bag":        map[string]interface{}{"sig_key": "f||", "post_bow": []interface{}{1.0}},
		"bag not a list": map[string]interface{}{"sig_key": "f||", "post_bow": "sum"},
	} {
		t.Run(name, func(t *testing.T) {
			req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "get_similar", Arguments: args}}
			_, err := s.handleGetSimilar(ctx, req)
			requireMCPError(t, err, ErrorCodeInvalidParams)
		})
	}
}

func TestGetStatus(t *testing.T) {
	s, store := setupTestServer(t)
	seedEntries(t, store)

	result, err := s.handleGetStatus(context.Background(), callRequest("get_status", nil))
	require.NoError(t, err)

	var resp struct {
		SchemaVersion string `json:"schema_version"`
		Statistics    struct {
			TotalEntries   int    `json:"total_entries"`
			PerfectEntries int    `json:"perfect_entries"`
			DistinctFuncs  int    `json:"distinct_funcs"`
			Latest         string `json:"latest_timestamp"`
		} `json:"statistics"`
		Health struct {
			DatabaseAccessible bool `json:"database_accessible"`
		} `json:"health"`
	}
	decodeResult(t, result, &resp)
	assert.Equal(t, storage.CurrentSchemaVersion, resp.SchemaVersion)
	assert.Equal(t, 3, resp.Statistics.TotalEntries)
	assert.Equal(t, 2, resp.Statistics.PerfectEntries)
	assert.Equal(t, 2, resp.Statistics.DistinctFuncs)
	assert.Equal(t, "2026-01-01T00:00:03Z", resp.Statistics.Latest)
	assert.True(t, resp.Health.DatabaseAccessible)
}

func TestHandlers_StoreClosed(t *testing.T) {
	s, store := setupTestServer(t)
	require.NoError(t, store.Close())

	_, err := s.handleGetRecent(context.Background(), callRequest("get_recent", nil))
	requireMCPError(t, err, ErrorCodeStoreClosed)

	_, err = s.handleGetStatus(context.Background(), callRequest("get_status", nil))
	requireMCPError(t, err, ErrorCodeStoreClosed)
}

func TestSchemaProperties(t *testing.T) {
	limit := limitProperty(25)
	assert.Equal(t, "integer", limit["type"])
	assert.Equal(t, 25, limit["default"])
	assert.Equal(t, 1, limit["minimum"])
	assert.Equal(t, MaxLimit, limit["maximum"])

	arr := stringArrayProperty("failing test names")
	assert.Equal(t, "array", arr["type"])
	assert.Equal(t, "failing test names", arr["description"])
	assert.Equal(t, map[string]interface{}{"type": "string"}, arr["items"])
}
