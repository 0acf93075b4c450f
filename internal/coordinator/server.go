package coordinator

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/segmentio/encoding/json"
)

const (
	// Tool names
	toolAuditCreate = "audit.create"
	toolAuditStatus = "audit.status"
	toolAuditTrace  = "audit.trace"
)

// MCPServer exposes the session API over the Model Context Protocol
type MCPServer struct {
	server      *server.MCPServer
	coordinator *Coordinator
}

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	Name    string
	Version string
}

// NewMCPServer creates and configures a new MCP server
func NewMCPServer(cfg ServerConfig, coordinator *Coordinator) *MCPServer {
	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	ms := &MCPServer{
		server:      mcpServer,
		coordinator: coordinator,
	}
	ms.registerTools()
	return ms
}

// registerTools registers all MCP tools with handlers
func (ms *MCPServer) registerTools() {
	createTool := mcp.NewTool(toolAuditCreate,
		mcp.WithDescription("Submit a repository path for auditing; returns the session id"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Repository path to audit"),
		),
		mcp.WithObject("options",
			mcp.Description("Optional audit options"),
		),
	)
	ms.server.AddTool(createTool, ms.handleCreate)

	statusTool := mcp.NewTool(toolAuditStatus,
		mcp.WithDescription("Get the current snapshot of an audit session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by audit.create"),
		),
	)
	ms.server.AddTool(statusTool, ms.handleStatus)

	traceTool := mcp.NewTool(toolAuditTrace,
		mcp.WithDescription("Get the span timeline recorded for an audit session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id returned by audit.create"),
		),
	)
	ms.server.AddTool(traceTool, ms.handleTrace)
}

// handleCreate implements the audit.create tool
func (ms *MCPServer) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	options, _ := request.GetArguments()["options"].(map[string]any)

	id, err := ms.coordinator.Create(ctx, Request{Path: path, Options: options})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"session_id": id})
}

// handleStatus implements the audit.status tool
func (ms *MCPServer) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, ok := ms.coordinator.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", id)), nil
	}
	return jsonResult(session)
}

// handleTrace implements the audit.trace tool
func (ms *MCPServer) handleTrace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	timeline, ok := ms.coordinator.Trace(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no trace for session: %s", id)), nil
	}
	return jsonResult(timeline)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
