package filesource

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OpenDispatchesOnProtocol(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterFactory("memory", MemoryFactory)

	source, err := registry.Open(Options{Protocol: "memory"})
	require.NoError(t, err)
	require.NotNil(t, source)
	require.NoError(t, source.Close())
}

func TestRegistry_UnknownProtocol(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Open(Options{Protocol: "ftp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown file source protocol")
}

func TestRegistry_FactoryErrorWrapped(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterFactory("broken", func(_ Options) (Source, error) {
		return nil, fmt.Errorf("boom")
	})

	_, err := registry.Open(Options{Protocol: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening broken source")
	assert.Contains(t, err.Error(), "boom")
}

func TestRegisterBuiltinFactories(t *testing.T) {
	registry := NewRegistry()
	RegisterBuiltinFactories(registry)

	// Factories that validate options eagerly reject an empty host.
	_, err := registry.Open(Options{Protocol: "webhdfs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a host")

	_, err = registry.Open(Options{Protocol: "hdfs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a host")

	source, err := registry.Open(Options{Protocol: "memory"})
	require.NoError(t, err)
	require.NoError(t, source.Close())
}
