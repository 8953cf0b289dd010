package provider

import (
	"context"
	"regexp"

	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/jsonview"
	"github.com/jojo-liu/acmecore/pebbletest"
	"github.com/jojo-liu/acmecore/session"
)

var pebbleURIRegexp = regexp.MustCompile(`^https://(localhost|127\.0\.0\.1)(:\d+)?/dir$`)

// pebbleProvider matches a local Pebble instance (the teacher's
// pebbletest integration target) and wires in pebbletest.HTTPClient,
// which disables TLS certificate verification for Pebble's self-signed
// test certificate. TestingAllowHTTP is left to the caller; Pebble
// itself only ever serves HTTPS.
type pebbleProvider struct{}

// Pebble is the built-in provider for a local Pebble test server.
var Pebble Provider = pebbleProvider{}

func (pebbleProvider) Accepts(serverURI string) bool {
	return pebbleURIRegexp.MatchString(serverURI)
}

func (p pebbleProvider) Directory(ctx context.Context, s *session.Session, serverURI string) (jsonview.View, error) {
	conn := p.CreateConnection(s)
	v, _, err := conn.Get(ctx, serverURI)
	return v, err
}

func (pebbleProvider) CreateConnection(s *session.Session) *connection.Connection {
	return connection.New(s, connection.Config{HTTPClient: pebbletest.HTTPClient})
}
