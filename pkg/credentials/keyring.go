package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// defaultKeyringService is the service name used in OS keyring storage.
const defaultKeyringService = "bigdata-connector"

// KeyringStore implements Store on top of the OS keyring. Each entry is a
// JSON record stored under the profile/connection ID as the account name.
type KeyringStore struct {
	service string
}

// keyringRecord is the stored JSON shape for one ID.
type keyringRecord struct {
	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// NewKeyringStore creates a keyring-backed credential store. An empty
// service falls back to the default service name.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = defaultKeyringService
	}
	return &KeyringStore{service: service}
}

// Put stores endpoint details and credential for an ID.
func (s *KeyringStore) Put(id string, info *ServerInfo, cred *Credential) error {
	rec := keyringRecord{
		User:     cred.User,
		Password: cred.Password,
	}
	if info != nil {
		rec.Host = info.Host
		rec.Port = info.Port
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding keyring record: %w", err)
	}
	if err := keyring.Set(s.service, id, string(data)); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// Delete removes the stored record for an ID.
func (s *KeyringStore) Delete(id string) error {
	if err := keyring.Delete(s.service, id); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// GetServerInfo retrieves endpoint details by ID. Returns nil, nil if not found.
func (s *KeyringStore) GetServerInfo(_ context.Context, id string) (*ServerInfo, error) {
	rec, err := s.get(id)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.Host == "" {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return &ServerInfo{ID: id, Host: rec.Host, Port: rec.Port}, nil
}

// GetCredentials retrieves the stored credential by ID. Returns nil, nil if
// not found.
func (s *KeyringStore) GetCredentials(_ context.Context, id string) (*Credential, error) {
	rec, err := s.get(id)
	if err != nil || rec == nil {
		return nil, err
	}
	return &Credential{User: rec.User, Password: rec.Password}, nil
}

func (s *KeyringStore) get(id string) (*keyringRecord, error) {
	data, err := keyring.Get(s.service, id)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil //nolint:nilnil // translated to the Store not-found convention
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}

	var rec keyringRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decoding keyring record: %w", err)
	}
	return &rec, nil
}

// Verify interface compliance.
var _ Store = (*KeyringStore)(nil)
