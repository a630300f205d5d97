package mcpserver

import (
	"context"
	"fmt"

	"larkmd/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerImportTools() {
	s.mcp.AddTool(mcp.NewTool("doc_import",
		mcp.WithDescription("Run a read-only database query and append the result set to a document as a table"),
		mcp.WithString("docUrl", mcp.Description("Document share URL"), mcp.Required()),
		mcp.WithString("driver", mcp.Description("Database driver: mysql, postgres, sqlite or mongodb"), mcp.Required()),
		mcp.WithString("dsn", mcp.Description("Connection string"), mcp.Required()),
		mcp.WithString("query", mcp.Description("SELECT-style query, or a JSON find spec for mongodb"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to import (default 50)")),
		mcp.WithString("title", mcp.Description("Optional heading placed above the table")),
	), s.handleDocImport)
}

func (s *Server) handleDocImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, err := refFromArgs(args)
	if err != nil {
		return nil, err
	}

	driver, _ := args["driver"].(string)
	dsn, _ := args["dsn"].(string)
	query, _ := args["query"].(string)
	title, _ := args["title"].(string)
	if driver == "" || dsn == "" || query == "" {
		return nil, fmt.Errorf("driver, dsn and query are required")
	}

	res, err := s.importer.Import(ctx, service.ImportRequest{
		Ref:    ref,
		Driver: driver,
		DSN:    dsn,
		Query:  query,
		Limit:  int(getFloat(args, "limit", 0)),
		Title:  title,
	})
	if err != nil {
		return nil, fmt.Errorf("import into document: %w", err)
	}
	return jsonResult(res)
}
