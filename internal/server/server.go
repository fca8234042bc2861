// Package server provides a factory for creating the MCP server that
// exposes the Object Explorer to the host.
package server

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/server"

	"github.com/sqltools/bigdata-connector/pkg/config"
	"github.com/sqltools/bigdata-connector/pkg/credentials"
	"github.com/sqltools/bigdata-connector/pkg/explorer"
)

// Version is set at build time.
var Version = "dev"

// New creates the MCP server and the provider behind it from configuration.
func New(cfg *config.Config) (*server.MCPServer, *explorer.Provider, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	provider := explorer.NewProvider(
		&notificationNotifier{server: mcpServer},
		explorer.WithCredentialStore(credentialStore(cfg)),
		explorer.WithProtocol(cfg.Gateway.Protocol),
		explorer.WithBasePath(cfg.Gateway.BasePath),
	)

	registerTools(mcpServer, provider)

	return mcpServer, provider, nil
}

// NewWithDefaults creates the server with default configuration.
func NewWithDefaults() (*server.MCPServer, *explorer.Provider, error) {
	return New(config.Default())
}

// credentialStore builds the configured credential store backend.
func credentialStore(cfg *config.Config) credentials.Store {
	if cfg.Credentials.Backend == "keyring" {
		return credentials.NewKeyringStore(cfg.Credentials.Service)
	}
	return credentials.NewMemoryStore()
}

// notificationNotifier forwards provider events to every connected client
// as MCP notifications.
type notificationNotifier struct {
	server *server.MCPServer
}

// SessionCreated forwards the session-created event.
func (n *notificationNotifier) SessionCreated(result explorer.SessionResult) {
	n.server.SendNotificationToAllClients("bigdata/sessionCreated", toParams(result))
}

// ExpandCompleted forwards the expansion-complete event.
func (n *notificationNotifier) ExpandCompleted(result explorer.ExpandResult) {
	n.server.SendNotificationToAllClients("bigdata/expandCompleted", toParams(result))
}

// toParams converts an event payload to the notification parameter map.
func toParams(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	params := make(map[string]any)
	if err := json.Unmarshal(data, &params); err != nil {
		return map[string]any{"error": err.Error()}
	}
	return params
}

// Verify interface compliance.
var _ explorer.Notifier = (*notificationNotifier)(nil)
