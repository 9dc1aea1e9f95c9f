// Package mcpadapter exposes document routing and history reads as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/core/ports"
)

const (
	serverName    = "document-processing-system"
	serverVersion = "1.0.0"
)

type Tools struct {
	documents ports.DocumentRouter
	history   ports.HistoryReader
}

func NewTools(documents ports.DocumentRouter, history ports.HistoryReader) *Tools {
	return &Tools{documents: documents, history: history}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("submit_document",
		mcp.WithDescription("Classify a document and run the matching extraction agent. Returns the thread id and final step."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw document text")),
		mcp.WithString("name", mcp.Description("Declared filename, used as an extension hint")),
	), tools.SubmitDocument)

	s.AddTool(mcp.NewTool("fetch_history",
		mcp.WithDescription("List recorded steps in timestamp order, optionally for a single thread."),
		mcp.WithString("thread_id", mcp.Description("Restrict the listing to one thread")),
	), tools.FetchHistory)

	s.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Return one stored record with its full payload."),
		mcp.WithString("record_id", mcp.Required(), mcp.Description("Record identifier")),
	), tools.GetRecord)

	return s
}

func (t *Tools) SubmitDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := req.GetString("name", "")

	outcome, err := t.documents.Route(ctx, domain.NewDocument(name, []byte(content)))
	if err != nil {
		return toolError("submit_document", err), nil
	}
	return jsonResult(outcome)
}

func (t *Tools) FetchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	views, err := t.history.FetchHistory(ctx, req.GetString("thread_id", ""))
	if err != nil {
		return toolError("fetch_history", err), nil
	}
	return jsonResult(map[string]any{"records": views, "count": len(views)})
}

func (t *Tools) GetRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recordID, err := req.RequireString("record_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	record, err := t.history.GetRecord(ctx, recordID)
	if err != nil {
		return toolError("get_record", err), nil
	}
	return jsonResult(record)
}

func toolError(tool string, err error) *mcp.CallToolResult {
	if !domain.IsKind(err, domain.ErrInvalidInput) && !domain.IsKind(err, domain.ErrRecordNotFound) {
		slog.Warn("mcp_tool_failed", "tool", tool, "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
