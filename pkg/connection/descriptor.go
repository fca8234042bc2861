// Package connection normalizes the heterogeneous connection shapes a SQL
// tooling host hands us (saved profiles vs. live connections) into a single
// canonical descriptor used for session keying and credential resolution.
package connection

import (
	"fmt"
	"strings"
)

// DefaultPort is the Knox gateway port big-data clusters expose by default.
const DefaultPort = "30443"

// uriScheme is the scheme of the canonical session URI.
const uriScheme = "bigdata"

// Shape is the tagged union of inbound connection shapes. Exactly one of the
// concrete types below is handed to Normalize; no runtime field probing
// happens past this boundary.
type Shape interface {
	// shapeID returns the stable identifier of the shape, used for
	// credential lookups against the host's credential store.
	shapeID() string

	fields() (host, port, user, password string)
}

// Profile is a saved connection profile from the host's settings store.
type Profile struct {
	ID       string
	Host     string
	Port     string
	User     string
	Password string
}

func (p Profile) shapeID() string { return p.ID }

func (p Profile) fields() (string, string, string, string) {
	return p.Host, p.Port, p.User, p.Password
}

// Connection is a live connection the host already established.
type Connection struct {
	ConnectionID string
	Host         string
	Port         string
	User         string
	Password     string
}

func (c Connection) shapeID() string { return c.ConnectionID }

func (c Connection) fields() (string, string, string, string) {
	return c.Host, c.Port, c.User, c.Password
}

// InvalidConnectionError reports a descriptor that is incomplete after
// normalization.
type InvalidConnectionError struct {
	Missing []string
}

func (e *InvalidConnectionError) Error() string {
	return fmt.Sprintf("invalid connection: missing %s", strings.Join(e.Missing, ", "))
}

// Descriptor is the canonical, immutable connection record.
type Descriptor struct {
	host     string
	port     string
	user     string
	password string
	sourceID string
}

// Normalize converts a profile or connection shape into a Descriptor. The
// port defaults to DefaultPort when the shape omits it; every other field is
// required.
func Normalize(shape Shape) (*Descriptor, error) {
	if shape == nil {
		return nil, &InvalidConnectionError{Missing: []string{"connection"}}
	}

	host, port, user, password := shape.fields()
	if port == "" {
		port = DefaultPort
	}

	var missing []string
	if host == "" {
		missing = append(missing, "host")
	}
	if user == "" {
		missing = append(missing, "user")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, &InvalidConnectionError{Missing: missing}
	}

	return &Descriptor{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		sourceID: shape.shapeID(),
	}, nil
}

// Host returns the cluster gateway host.
func (d *Descriptor) Host() string { return d.host }

// Port returns the cluster gateway port.
func (d *Descriptor) Port() string { return d.port }

// User returns the connection user name.
func (d *Descriptor) User() string { return d.user }

// Password returns the connection password.
func (d *Descriptor) Password() string { return d.password }

// SourceID returns the identifier of the originating shape (profile ID or
// connection ID), used for credential store lookups.
func (d *Descriptor) SourceID() string { return d.sourceID }

// Matches reports whether two descriptors address the same endpoint as the
// same user. Passwords are deliberately excluded so session reuse checks do
// not require re-authentication.
func (d *Descriptor) Matches(other *Descriptor) bool {
	if other == nil {
		return false
	}
	return d.host == other.host && d.port == other.port && d.user == other.user
}

// URI returns the canonical session URI for this descriptor.
func (d *Descriptor) URI() string {
	return SessionURI(d.host, d.port, d.user)
}

// SessionURI builds the canonical session URI from raw endpoint fields. An
// empty port falls back to DefaultPort so keys derived before and after
// normalization agree.
func SessionURI(host, port, user string) string {
	if port == "" {
		port = DefaultPort
	}
	return fmt.Sprintf("%s://%s@%s:%s/", uriScheme, user, host, port)
}

// KeyFor derives the canonical session key from a shape without validating
// it. Session keys must be derivable synchronously, before normalization and
// credential resolution run.
func KeyFor(shape Shape) string {
	if shape == nil {
		return ""
	}
	host, port, user, _ := shape.fields()
	return SessionURI(host, port, user)
}

// ShapeID returns the identifier of a shape (profile ID or connection ID),
// empty when the shape is nil.
func ShapeID(shape Shape) string {
	if shape == nil {
		return ""
	}
	return shape.shapeID()
}

// FillPassword returns a copy of the shape carrying the given password, or
// the shape unchanged when it already has one. Used to merge credentials
// resolved from a credential store into a password-less shape.
func FillPassword(shape Shape, password string) Shape {
	if shape == nil {
		return nil
	}
	if _, _, _, existing := shape.fields(); existing != "" {
		return shape
	}
	switch s := shape.(type) {
	case Profile:
		s.Password = password
		return s
	case Connection:
		s.Password = password
		return s
	default:
		return shape
	}
}

// FillEndpoint returns a copy of the shape with empty host and port fields
// filled from the given endpoint; fields the shape already carries win.
// Used to merge server details resolved from a credential store into an
// ID-only shape, the endpoint counterpart of FillPassword.
func FillEndpoint(shape Shape, host, port string) Shape {
	if shape == nil {
		return nil
	}
	switch s := shape.(type) {
	case Profile:
		if s.Host == "" {
			s.Host = host
		}
		if s.Port == "" {
			s.Port = port
		}
		return s
	case Connection:
		if s.Host == "" {
			s.Host = host
		}
		if s.Port == "" {
			s.Port = port
		}
		return s
	default:
		return shape
	}
}

// EndpointOf builds a descriptor carrying only the endpoint fields of a
// shape, without completeness validation. The result is suitable for
// Matches checks only; its password is always empty.
func EndpointOf(shape Shape) *Descriptor {
	if shape == nil {
		return nil
	}
	host, port, user, _ := shape.fields()
	if port == "" {
		port = DefaultPort
	}
	return &Descriptor{
		host:     host,
		port:     port,
		user:     user,
		sourceID: shape.shapeID(),
	}
}
