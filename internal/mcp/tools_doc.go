package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDocTools() {
	s.mcp.AddTool(mcp.NewTool("doc_read",
		mcp.WithDescription("Read a document and return its content as Markdown"),
		mcp.WithString("docUrl", mcp.Description("Document share URL"), mcp.Required()),
	), s.handleDocRead)

	s.mcp.AddTool(mcp.NewTool("doc_write",
		mcp.WithDescription("Write Markdown to a document: the first '# ' heading becomes the document title, everything else is appended as blocks"),
		mcp.WithString("docUrl", mcp.Description("Document share URL"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Markdown content"), mcp.Required()),
	), s.handleDocWrite)

	s.mcp.AddTool(mcp.NewTool("doc_append",
		mcp.WithDescription("Append Markdown to the end of a document, keeping the existing title"),
		mcp.WithString("docUrl", mcp.Description("Document share URL"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Markdown content"), mcp.Required()),
	), s.handleDocAppend)

	s.mcp.AddTool(mcp.NewTool("doc_clear",
		mcp.WithDescription("Delete every block in a document and blank its title"),
		mcp.WithString("docUrl", mcp.Description("Document share URL"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDocClear)

	s.mcp.AddTool(mcp.NewTool("doc_history",
		mcp.WithDescription("List recent sync runs, newest first"),
		mcp.WithString("docUrl", mcp.Description("Document share URL (optional, all documents if omitted)")),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default 20)")),
	), s.handleDocHistory)
}

func (s *Server) handleDocRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := refFromArgs(req.GetArguments())
	if err != nil {
		return nil, err
	}
	res, err := s.docs.Read(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return jsonResult(res)
}

func (s *Server) handleDocWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, err := refFromArgs(args)
	if err != nil {
		return nil, err
	}
	content, _ := args["content"].(string)

	res, err := s.docs.Write(ctx, ref, content)
	if err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return jsonResult(res)
}

func (s *Server) handleDocAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, err := refFromArgs(args)
	if err != nil {
		return nil, err
	}
	content, _ := args["content"].(string)

	res, err := s.docs.Append(ctx, ref, content)
	if err != nil {
		return nil, fmt.Errorf("append to document: %w", err)
	}
	return jsonResult(res)
}

func (s *Server) handleDocClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := refFromArgs(req.GetArguments())
	if err != nil {
		return nil, err
	}
	res, err := s.docs.Clear(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("clear document: %w", err)
	}
	return jsonResult(res)
}

func (s *Server) handleDocHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	docToken := ""
	if raw, ok := args["docUrl"].(string); ok && raw != "" {
		ref, err := refFromArgs(args)
		if err != nil {
			return nil, err
		}
		docToken = ref.Token
	}
	limit := int(getFloat(args, "limit", 20))

	runs, err := s.docs.History(docToken, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if len(runs) == 0 {
		return textResult("No sync runs recorded"), nil
	}
	return jsonResult(runs)
}

func boolPtr(v bool) *bool { return &v }

// getFloat reads a numeric argument, falling back when absent.
func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}
