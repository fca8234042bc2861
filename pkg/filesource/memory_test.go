package filesource

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource_ListRoot(t *testing.T) {
	source := NewMemorySource()
	source.PutDir("data")
	source.PutFile("readme.txt", []byte("hello"))

	entries, err := source.List(context.Background(), "/")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{Name: "data", Dir: true}, entries[0])
	assert.Equal(t, Entry{Name: "readme.txt", Size: 5}, entries[1])
}

func TestMemorySource_ImpliedParents(t *testing.T) {
	source := NewMemorySource()
	source.PutFile("a/b/c.txt", []byte("x"))

	entries, err := source.List(context.Background(), "/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name)
	assert.True(t, entries[0].Dir)

	entries, err = source.List(context.Background(), "/a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Name)

	entries, err = source.List(context.Background(), "/a/b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c.txt", entries[0].Name)
	assert.False(t, entries[0].Dir)
}

func TestMemorySource_ListMissingDirectory(t *testing.T) {
	source := NewMemorySource()

	_, err := source.List(context.Background(), "/nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such directory")
}

func TestMemorySource_Read(t *testing.T) {
	source := NewMemorySource()
	source.PutFile("data/events.csv", []byte("a,b"))

	rc, err := source.Read(context.Background(), "/data/events.csv")
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(content))
}

func TestMemorySource_ReadMissingFile(t *testing.T) {
	source := NewMemorySource()

	_, err := source.Read(context.Background(), "/nope.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}
