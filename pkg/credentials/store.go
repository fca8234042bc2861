// Package credentials provides the credential and server-info collaborator
// consumed during session construction. It defines the Store interface and
// in-memory and OS-keyring implementations.
package credentials

import "context"

// ServerInfo describes a known cluster endpoint.
type ServerInfo struct {
	// ID is the profile or connection identifier the host uses.
	ID string

	// Host is the cluster gateway host.
	Host string

	// Port is the cluster gateway port.
	Port string
}

// Credential is a stored user/password pair.
type Credential struct {
	User     string
	Password string
}

// Store defines the interface for credential resolution.
type Store interface {
	// GetServerInfo retrieves endpoint details by ID. Returns nil, nil if
	// not found.
	GetServerInfo(ctx context.Context, id string) (*ServerInfo, error)

	// GetCredentials retrieves the stored credential by ID. Returns nil, nil
	// if not found.
	GetCredentials(ctx context.Context, id string) (*Credential, error)
}
