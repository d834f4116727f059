package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studyloop/course-rag-mcp/internal/retrieval"
	"github.com/studyloop/course-rag-mcp/internal/storage"
)

// DefaultRetrieveTimeout bounds one retrieval call end to end so a slow
// backend branch cannot stall a client indefinitely.
const DefaultRetrieveTimeout = 30 * time.Second

// Server wraps the MCP server with dependencies.
type Server struct {
	server       *mcp.Server
	storage      *storage.QdrantStorage
	orchestrator *retrieval.Orchestrator
}

// Config holds server dependencies.
type Config struct {
	Storage      *storage.QdrantStorage
	Orchestrator *retrieval.Orchestrator
	// RetrieveTimeout overrides DefaultRetrieveTimeout when positive.
	RetrieveTimeout time.Duration
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "course-rag-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	timeout := cfg.RetrieveTimeout
	if timeout <= 0 {
		timeout = DefaultRetrieveTimeout
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieve_course_context",
		Description: "Retrieve the most relevant course-material chunks for a study query. Adapts retrieval effort to corpus size and returns fused, context-expanded results.",
	}, makeRetrieveHandler(cfg.Orchestrator, timeout))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "corpus_status",
		Description: "Report how many chunks a user's corpus (optionally one course) holds and which retrieval strategy that size selects.",
	}, makeStatusHandler(cfg.Storage))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the distinct document file names in a user's corpus, optionally scoped to one course.",
	}, makeListDocumentsHandler(cfg.Storage))

	return &Server{
		server:       server,
		storage:      cfg.Storage,
		orchestrator: cfg.Orchestrator,
	}
}

// Run starts the server with stdio transport (blocks until client
// disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance. Used by transport
// handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
