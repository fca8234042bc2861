package explorer

import (
	"github.com/sqltools/bigdata-connector/pkg/connection"
	"github.com/sqltools/bigdata-connector/pkg/filesource"
)

// Session is the live binding between a validated cluster connection and
// its tree root. It lives in the provider's registry from the moment its
// deferred construction succeeds until it is closed.
type Session struct {
	// Key is the canonical session URI derived from the connection.
	Key string

	// Connection is the normalized descriptor the session was built from.
	Connection *connection.Descriptor

	// Root is the session's tree root, assigned exactly once after async
	// construction completes.
	Root *RootNode

	source filesource.Source
}

// Close releases the session's file source.
func (s *Session) Close() error {
	if s.source == nil {
		return nil
	}
	return s.source.Close()
}
