package mcp

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/synthcorpus/internal/recorder"
	"github.com/dshills/synthcorpus/internal/similarity"
	"github.com/dshills/synthcorpus/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "synthcorpus"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultSimilarLimit is used when get_similar omits limit
	DefaultSimilarLimit = 5
	// MaxLimit caps every limit parameter
	MaxLimit = 1000
)

// Options configures a Server
type Options struct {
	// SimilarLimit is the default result count for get_similar
	SimilarLimit int
	Logger       *zap.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	recorder *recorder.Recorder
	engine   *similarity.Engine
	logger   *zap.Logger

	similarLimit int
}

// NewServer creates a new MCP server over an open store. The caller keeps
// ownership of store and closes it after Serve returns.
func NewServer(store storage.Storage, rec *recorder.Recorder, engine *similarity.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.SimilarLimit
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	s := &Server{
		mcp:          server.NewMCPServer(ServerName, ServerVersion),
		storage:      store,
		recorder:     rec,
		engine:       engine,
		logger:       logger.Named("mcp"),
		similarLimit: limit,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP protocol on stdio until ctx is canceled or stdin closes
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	s.logger.Info("MCP server ready, listening on stdio")
	return stdio.Listen(ctx, stdin, stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(recordAttemptTool(), s.handleRecordAttempt)
	s.mcp.AddTool(getEntriesTool(), s.handleGetEntries)
	s.mcp.AddTool(getTopByFuncTool(), s.handleGetTopByFunc)
	s.mcp.AddTool(getRecentTool(), s.handleGetRecent)
	s.mcp.AddTool(getSimilarTool(), s.handleGetSimilar)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
