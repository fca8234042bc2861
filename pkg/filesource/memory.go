package filesource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemorySource is an in-process Source backed by a path-keyed map. It backs
// tests and offline demos; directories exist implicitly as file prefixes.
type MemorySource struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// MemoryFactory creates an empty in-memory source. Options are ignored
// beyond protocol dispatch.
func MemoryFactory(_ Options) (Source, error) {
	return NewMemorySource(), nil
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
	}
}

// PutFile stores file content, creating implied parent directories.
func (s *MemorySource) PutFile(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = "/" + strings.Trim(path, "/")
	s.files[path] = content
	s.addParents(path)
}

// PutDir creates a directory and its implied parents.
func (s *MemorySource) PutDir(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = "/" + strings.Trim(path, "/")
	s.dirs[path] = true
	s.addParents(path)
}

func (s *MemorySource) addParents(path string) {
	for {
		idx := strings.LastIndex(path, "/")
		if idx <= 0 {
			break
		}
		path = path[:idx]
		s.dirs[path] = true
	}
}

// List returns the entries of the directory at path.
func (s *MemorySource) List(_ context.Context, path string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path = "/" + strings.Trim(path, "/")
	if path != "/" && !s.dirs[path] {
		return nil, fmt.Errorf("no such directory: %s", path)
	}

	prefix := path
	if prefix != "/" {
		prefix += "/"
	}

	seen := make(map[string]Entry)
	for p := range s.dirs {
		if name, ok := directChild(p, prefix); ok {
			seen[name] = Entry{Name: name, Dir: true}
		}
	}
	for p, content := range s.files {
		if name, ok := directChild(p, prefix); ok {
			seen[name] = Entry{Name: name, Size: int64(len(content))}
		}
	}

	entries := make([]Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// directChild reports the name of p when it is an immediate child of prefix.
func directChild(p, prefix string) (string, bool) {
	if !strings.HasPrefix(p, prefix) || p == strings.TrimSuffix(prefix, "/") {
		return "", false
	}
	rest := strings.TrimPrefix(p, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// Read opens the file at path for reading.
func (s *MemorySource) Read(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path = "/" + strings.Trim(path, "/")
	content, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Close releases resources.
func (s *MemorySource) Close() error {
	return nil
}

// Verify interface compliance.
var _ Source = (*MemorySource)(nil)
