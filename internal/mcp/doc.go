// Package mcp implements the Model Context Protocol (MCP) server for the
// synthesis corpus.
//
// The server exposes six tools to a synthesis pipeline or assistant:
//   - record_attempt: Store the outcome of one synthesis attempt
//   - get_entries: Filtered, paginated listing, newest first
//   - get_top_by_func: Best attempts for one function
//   - get_recent: Most recent attempts
//   - get_similar: Attempts most similar to a target signature and description
//   - get_status: Corpus statistics and store health
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr; stdout carries only protocol messages.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	synthcorpus serve --db ~/.synthcorpus/corpus.db
//
// # Tool: record_attempt
//
//	Request:
//	{
//	  "name": "record_attempt",
//	  "arguments": {
//	    "func_name": "parse_int",
//	    "func_signature": "parse_int(s: str) -> int",
//	    "passed": 3,
//	    "total": 3,
//	    "score": 0.12,
//	    "snippet": "def parse_int(s): return int(s)",
//	    "post_conditions": ["result is an integer"]
//	  }
//	}
//
//	Response:
//	{
//	  "recorded": true,
//	  "id": "0b9a3c1e-...",
//	  "sig_key": "parse_int|str|int",
//	  "perfect": true
//	}
//
// Omitted ids, timestamps, signature keys and token bags are derived.
// Recording an id that already exists leaves the stored entry unchanged.
//
// # Tool: get_similar
//
//	Request:
//	{
//	  "name": "get_similar",
//	  "arguments": {
//	    "func_signature": "parse_int(s: str) -> int",
//	    "description": "parse an integer from a string",
//	    "limit": 3
//	  }
//	}
//
// Each result carries the entry, its similarity and a breakdown into
// return_match, arg_match, jaccard_score and perfect_bonus.
//
// # Error Handling
//
// Invalid parameters return MCPError with code -32602. Store failures return
// -32603, or -32001 once the store has been closed.
package mcp
