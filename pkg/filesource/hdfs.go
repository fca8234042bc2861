package filesource

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/colinmarc/hdfs/v2"
)

// defaultNamenodePort is the HDFS namenode RPC port used when the options
// omit one. The webhdfs protocol owns the gateway default instead.
const defaultNamenodePort = "8020"

// HDFSSource lists and reads HDFS by talking to the namenode directly with
// the native protocol. Used when the connector runs inside the cluster
// network and does not need to hop through the gateway.
type HDFSSource struct {
	client   *hdfs.Client
	basePath string
}

// HDFSFactory creates a native HDFS source from options.
func HDFSFactory(opts Options) (Source, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("hdfs source requires a host")
	}
	port := opts.Port
	if port == "" {
		port = defaultNamenodePort
	}

	client, err := hdfs.NewClient(hdfs.ClientOptions{
		Addresses: []string{net.JoinHostPort(opts.Host, port)},
		User:      opts.User,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to namenode: %w", err)
	}

	return &HDFSSource{
		client:   client,
		basePath: strings.TrimSuffix(opts.BasePath, "/"),
	}, nil
}

// List returns the entries of the directory at path.
func (s *HDFSSource) List(_ context.Context, path string) ([]Entry, error) {
	infos, err := s.client.ReadDir(joinPath(s.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("listing directory: %w", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name: info.Name(),
			Dir:  info.IsDir(),
			Size: info.Size(),
		})
	}
	return entries, nil
}

// Read opens the file at path for reading.
func (s *HDFSSource) Read(_ context.Context, path string) (io.ReadCloser, error) {
	reader, err := s.client.Open(joinPath(s.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return reader, nil
}

// Close releases resources.
func (s *HDFSSource) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("closing hdfs client: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ Source = (*HDFSSource)(nil)
