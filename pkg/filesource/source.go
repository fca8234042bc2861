// Package filesource provides the opaque file-source capability the Object
// Explorer expands against. A Source exposes directory listing and read
// operations over a cluster file system; callers never see past this
// interface. Implementations are selected by protocol through a Registry.
package filesource

import (
	"context"
	"io"
)

// Entry describes one item in a directory listing.
type Entry struct {
	// Name is the base name of the entry, without any path.
	Name string

	// Dir reports whether the entry is a directory.
	Dir bool

	// Size is the entry size in bytes; zero for directories.
	Size int64
}

// Options describes the endpoint a factory should connect to.
type Options struct {
	// Protocol selects the factory ("webhdfs", "hdfs", "memory").
	Protocol string

	// Host is the gateway or namenode host.
	Host string

	// Port is the gateway or namenode port.
	Port string

	// User authenticates listing and read calls.
	User string

	// Password authenticates listing and read calls where the protocol
	// requires one.
	Password string

	// BasePath is prepended to every path handed to the source.
	BasePath string
}

// Source exposes listing and read operations over a remote file tree.
type Source interface {
	// List returns the entries of the directory at path.
	List(ctx context.Context, path string) ([]Entry, error)

	// Read opens the file at path for reading.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Close releases resources.
	Close() error
}

// Factory creates a Source from options.
type Factory func(opts Options) (Source, error)
