package boardclient

import (
	"errors"
	"net/url"
	"strings"
)

// Server is one entry of the server registry: a logical id and the network
// address of a board server.
//
// Server is immutable after creation via [NewServer]. Addresses are
// host:port, optionally followed by a path prefix
// ("127.0.0.1:8000/nodes/0"). An explicit http:// or https:// scheme is
// accepted; without one, http:// is assumed.
type Server struct {
	id      string
	address string
}

// ID returns the server's registry identifier.
func (s Server) ID() string {
	return s.id
}

// Address returns the server's network address as configured.
func (s Server) Address() string {
	return s.address
}

// URL returns the full URL of path on this server, e.g. URL("/entries").
func (s Server) URL(path string) string {
	address := strings.TrimSuffix(s.address, "/")
	if !hasScheme(address) {
		address = "http://" + address
	}
	return address + path
}

// NewServer creates a registry entry.
//
// Returns an error if the id is blank or the address has no host.
//
// Example:
//
//	s1, err := boardclient.NewServer("0", "127.0.0.1:8000/nodes/0")
func NewServer(id, address string) (Server, error) {
	if strings.TrimSpace(id) == "" {
		return Server{}, errors.New("server id cannot be empty")
	}
	if strings.TrimSpace(address) == "" {
		return Server{}, errors.New("server address cannot be empty")
	}

	raw := address
	if !hasScheme(raw) {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return Server{}, errors.New("invalid server address: " + err.Error())
	}
	if parsed.Host == "" {
		return Server{}, errors.New("server address must include a host")
	}

	return Server{id: id, address: address}, nil
}

// MustServer is like [NewServer] but panics on error. Intended for
// literal registries in examples and tests.
func MustServer(id, address string) Server {
	s, err := NewServer(id, address)
	if err != nil {
		panic("boardclient: " + err.Error())
	}
	return s
}

func hasScheme(address string) bool {
	return strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://")
}
