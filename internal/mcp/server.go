package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"larkmd/internal/domain"
	"larkmd/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the document operations over MCP so AI agents can
// read and edit documents without shelling out to the CLI.
type Server struct {
	mcp      *server.MCPServer
	docs     *service.DocumentService
	importer *service.ImportService
}

// Deps holds the services the tools are built on.
type Deps struct {
	Docs     *service.DocumentService
	Importer *service.ImportService
}

// New creates and configures an MCP server with all tools registered.
func New(deps Deps) *Server {
	s := &Server{
		docs:     deps.Docs,
		importer: deps.Importer,
	}

	s.mcp = server.NewMCPServer(
		"larkmd-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerDocTools()
	s.registerImportTools()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// refFromArgs parses the docUrl argument into a document reference.
func refFromArgs(args map[string]any) (domain.DocRef, error) {
	raw, ok := args["docUrl"].(string)
	if !ok || raw == "" {
		return domain.DocRef{}, fmt.Errorf("docUrl is required")
	}
	return domain.ParseDocURL(raw)
}
