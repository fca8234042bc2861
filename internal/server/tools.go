package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sqltools/bigdata-connector/pkg/cluster"
	"github.com/sqltools/bigdata-connector/pkg/connection"
	"github.com/sqltools/bigdata-connector/pkg/explorer"
)

// registerTools registers the Object Explorer operations as MCP tools.
func registerTools(s *server.MCPServer, provider *explorer.Provider) {
	registerCreateSession(s, provider)
	registerExpandNode(s, "expand_node", "Expand an Object Explorer node and fetch its children.", provider.ExpandNode)
	registerExpandNode(s, "refresh_node", "Refresh an Object Explorer node, rebuilding its children cache.", provider.RefreshNode)
	registerCloseSession(s, provider)
	registerFindNodes(s, provider)
	registerClusterEndpoints(s)
}

func registerCreateSession(s *server.MCPServer, provider *explorer.Provider) {
	tool := mcp.NewTool("create_session",
		mcp.WithDescription("Create an Object Explorer session for a cluster connection. "+
			"The session-created notification follows asynchronously."),
		mcp.WithString("host", mcp.Required(), mcp.Description("Cluster gateway host")),
		mcp.WithString("port", mcp.Description("Cluster gateway port, defaults to "+connection.DefaultPort)),
		mcp.WithString("user", mcp.Required(), mcp.Description("Connection user")),
		mcp.WithString("password", mcp.Description("Connection password; omit to resolve from the credential store")),
		mcp.WithString("profile_id", mcp.Description("Saved profile ID, for credential resolution")),
		mcp.WithString("connection_id", mcp.Description("Live connection ID, for credential resolution")),
	)

	s.AddTool(tool, func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		host, err := req.RequireString("host")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		user, err := req.RequireString("user")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		shape := shapeFromRequest(req, host, user)
		sessionID, err := provider.CreateSession(shape)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"sessionId": sessionID})
	})
}

// shapeFromRequest builds the tagged connection shape from tool arguments.
// A profile_id marks the profile shape; everything else is a connection.
func shapeFromRequest(req mcp.CallToolRequest, host, user string) connection.Shape {
	port := req.GetString("port", "")
	password := req.GetString("password", "")

	if profileID := req.GetString("profile_id", ""); profileID != "" {
		return connection.Profile{
			ID:       profileID,
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
		}
	}
	return connection.Connection{
		ConnectionID: req.GetString("connection_id", ""),
		Host:         host,
		Port:         port,
		User:         user,
		Password:     password,
	}
}

func registerExpandNode(s *server.MCPServer, name, description string, op func(*explorer.ExpandInfo) bool) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description+" The expansion-complete notification follows asynchronously."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session key from create_session")),
		mcp.WithString("node_path", mcp.Description("Slash-joined node path, '/' for the root")),
	)

	s.AddTool(tool, func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		accepted := op(&explorer.ExpandInfo{
			SessionID: sessionID,
			NodePath:  req.GetString("node_path", "/"),
		})
		return jsonResult(map[string]any{"accepted": accepted})
	})
}

func registerCloseSession(s *server.MCPServer, provider *explorer.Provider) {
	tool := mcp.NewTool("close_session",
		mcp.WithDescription("Close an Object Explorer session and drop it from the registry."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session key from create_session")),
	)

	s.AddTool(tool, func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(provider.CloseSession(sessionID))
	})
}

func registerFindNodes(s *server.MCPServer, provider *explorer.Provider) {
	tool := mcp.NewTool("find_nodes",
		mcp.WithDescription("Search Object Explorer nodes. Currently always returns an empty list."),
		mcp.WithString("session_id", mcp.Description("Session key to search in")),
		mcp.WithString("pattern", mcp.Description("Search pattern")),
	)

	s.AddTool(tool, func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(provider.FindNodes(explorer.FindNodesInfo{
			SessionID: req.GetString("session_id", ""),
			Pattern:   req.GetString("pattern", ""),
		}))
	})
}

func registerClusterEndpoints(s *server.MCPServer) {
	tool := mcp.NewTool("cluster_endpoints",
		mcp.WithDescription("Build the cluster's Spark history, Yarn history and WebHDFS web endpoint URLs."),
		mcp.WithString("host", mcp.Required(), mcp.Description("Cluster gateway host")),
		mcp.WithString("port", mcp.Description("Cluster gateway port, defaults to "+cluster.DefaultGatewayPort)),
	)

	s.AddTool(tool, func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		host, err := req.RequireString("host")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		port := req.GetString("port", "")

		return jsonResult(map[string]any{
			"sparkHistory": cluster.SparkHistoryURL(host, port),
			"yarnHistory":  cluster.YarnHistoryURL(host, port),
			"webhdfs":      cluster.WebHDFSURL(host, port),
		})
	})
}

// jsonResult renders a tool result as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
