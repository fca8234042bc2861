package credentials

import (
	"context"
	"sync"
)

// MemoryStore implements Store using in-memory maps. It is the default
// backend when no OS keychain is configured and the fixture store in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	servers map[string]*ServerInfo
	creds   map[string]*Credential
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		servers: make(map[string]*ServerInfo),
		creds:   make(map[string]*Credential),
	}
}

// PutServerInfo registers endpoint details under an ID.
func (s *MemoryStore) PutServerInfo(info *ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.servers[info.ID] = info
}

// PutCredentials registers a credential under an ID.
func (s *MemoryStore) PutCredentials(id string, cred *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[id] = cred
}

// GetServerInfo retrieves endpoint details by ID. Returns nil, nil if not found.
func (s *MemoryStore) GetServerInfo(_ context.Context, id string) (*ServerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.servers[id]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return info, nil
}

// GetCredentials retrieves the stored credential by ID. Returns nil, nil if
// not found.
func (s *MemoryStore) GetCredentials(_ context.Context, id string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[id]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return cred, nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
