// Package mcp exposes the detection pipeline over the Model Context
// Protocol so an AI agent (Claude Desktop, Cursor, or any MCP client) can
// invoke a run and read back a structured verdict, the same way the
// teacher exposed its profiler collectors as tools.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server instance.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server with the run_detection tool registered.
func NewServer(version string) *Server {
	s := server.NewMCPServer("sentrycheck", version, server.WithLogging())
	registerTools(s)
	return &Server{mcpServer: s}
}

// Start runs the server in stdio mode (blocking) until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func registerTools(s *server.MCPServer) {
	runTool := mcp.NewTool("run_detection",
		mcp.WithDescription("Run the full anti-debugging/anti-analysis detection pipeline on the current host and return the resulting verdict as JSON: score, per-source evidence, and any detected contradictions between sources."),
		mcp.WithString("quiet",
			mcp.Description("Set to \"false\" to also log per-phase progress to stderr during the run. Defaults to quiet."),
		),
	)
	s.AddTool(runTool, handleRunDetection)
}
