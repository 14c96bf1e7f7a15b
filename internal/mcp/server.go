package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tides-mcp/internal/services"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server registers the tidal workflow tools on an MCP server. The
// host owns transport and framing; handlers here only turn a parsed
// argument map into a service call and marshal the result.
type Server struct {
	mcpServer *server.MCPServer
	tides     *services.TideService
}

// NewServer creates the MCP server and registers the four tools.
func NewServer(tides *services.TideService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"tides",
			"0.1.0",
			server.WithToolCapabilities(true),
		),
		tides: tides,
	}

	s.registerTools()
	return s
}

// GetMCPServer returns the underlying MCP server.
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_tide",
			mcp.WithDescription("Create a new tidal workflow for rhythmic productivity"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Name of the tidal workflow")),
			mcp.WithString("flow_type", mcp.Required(), mcp.Description("Type of tidal flow"),
				mcp.Enum("daily", "weekly", "project", "seasonal")),
			mcp.WithString("description", mcp.Description("Description of the workflow")),
		),
		s.handleCreateTide,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_tides",
			mcp.WithDescription("List all tidal workflows with their current status"),
			mcp.WithString("flow_type", mcp.Description("Filter by flow type"),
				mcp.Enum("daily", "weekly", "project", "seasonal")),
			mcp.WithBoolean("active_only", mcp.Description("Show only active tides")),
		),
		s.handleListTides,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"flow_tide",
			mcp.WithDescription("Start a flow session for a specific tidal workflow"),
			mcp.WithString("tide_id", mcp.Required(), mcp.Description("ID of the tide to flow")),
			mcp.WithString("intensity", mcp.Description("Flow intensity"),
				mcp.Enum("gentle", "moderate", "strong")),
			mcp.WithNumber("duration", mcp.Description("Flow duration in minutes")),
		),
		s.handleFlowTide,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"end_tide",
			mcp.WithDescription("End a tidal workflow by completing or pausing it"),
			mcp.WithString("tide_id", mcp.Required(), mcp.Description("ID of the tide to end")),
			mcp.WithString("status", mcp.Description("How to end the tide"),
				mcp.Enum("completed", "paused")),
			mcp.WithString("notes", mcp.Description("Optional notes about ending the tide")),
		),
		s.handleEndTide,
	)
}

func (s *Server) handleCreateTide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("Missing required parameter: name"), nil
	}
	flowType, ok := args["flow_type"].(string)
	if !ok || flowType == "" {
		return mcp.NewToolResultError("Missing required parameter: flow_type"), nil
	}
	description, _ := args["description"].(string)

	result, err := s.tides.CreateTide(ctx, services.CreateTideInput{
		Name:        name,
		FlowType:    flowType,
		Description: description,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	return toolResultJSON(result), nil
}

func (s *Server) handleListTides(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	flowType, _ := args["flow_type"].(string)
	activeOnly, _ := args["active_only"].(bool)

	result, err := s.tides.ListTides(ctx, services.ListTidesInput{
		FlowType:   flowType,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	return toolResultJSON(result), nil
}

func (s *Server) handleFlowTide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	tideID, ok := args["tide_id"].(string)
	if !ok || tideID == "" {
		return mcp.NewToolResultError("Missing required parameter: tide_id"), nil
	}
	intensity, _ := args["intensity"].(string)
	duration := 0
	if v, ok := args["duration"].(float64); ok {
		duration = int(v)
	}

	result, err := s.tides.FlowTide(ctx, services.FlowTideInput{
		TideID:    tideID,
		Intensity: intensity,
		Duration:  duration,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	return toolResultJSON(result), nil
}

func (s *Server) handleEndTide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	tideID, ok := args["tide_id"].(string)
	if !ok || tideID == "" {
		return mcp.NewToolResultError("Missing required parameter: tide_id"), nil
	}
	status, _ := args["status"].(string)
	notes, _ := args["notes"].(string)

	result, err := s.tides.EndTide(ctx, services.EndTideInput{
		TideID: tideID,
		Status: status,
		Notes:  notes,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	return toolResultJSON(result), nil
}

func toolResultJSON(v interface{}) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(v)
	return mcp.NewToolResultText(string(jsonBytes))
}

// MountHTTPHandlers mounts the MCP SSE endpoints on mux for the HTTP
// transport mode.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
