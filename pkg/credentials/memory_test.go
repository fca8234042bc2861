package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ServerInfo(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.PutServerInfo(&ServerInfo{ID: "profile-1", Host: "gateway.example", Port: "30443"})

	info, err := store.GetServerInfo(ctx, "profile-1")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "gateway.example", info.Host)
	assert.Equal(t, "30443", info.Port)
}

func TestMemoryStore_ServerInfoNotFound(t *testing.T) {
	store := NewMemoryStore()

	info, err := store.GetServerInfo(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestMemoryStore_Credentials(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.PutCredentials("profile-1", &Credential{User: "root", Password: "pw"})

	cred, err := store.GetCredentials(ctx, "profile-1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "root", cred.User)
	assert.Equal(t, "pw", cred.Password)
}

func TestMemoryStore_CredentialsNotFound(t *testing.T) {
	store := NewMemoryStore()

	cred, err := store.GetCredentials(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, cred)
}
