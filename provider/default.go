package provider

import (
	"context"

	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/jsonview"
	"github.com/jojo-liu/acmecore/session"
)

// defaultProvider accepts any URI connection.ValidURL accepts that no
// other built-in provider claims, and has no CA-specific behavior: a plain GET for the directory, the teacher
// default retry parameters, and no challenge specialization.
type defaultProvider struct{}

// Default is the fallback provider: every server URI connection.ValidURL
// accepts and no more specific provider claims.
var Default Provider = defaultProvider{}

// Accepts matches any valid ACME URL not already claimed by a more
// specific provider. Checking the other built-ins directly (rather
// than, say, first-match-wins registry order) keeps Resolve's
// exactly-one-match invariant true for every built-in combination,
// regardless of registration order.
func (defaultProvider) Accepts(serverURI string) bool {
	if !connection.ValidURL(serverURI) {
		return false
	}
	return !LetsEncrypt.Accepts(serverURI) && !Pebble.Accepts(serverURI)
}

func (p defaultProvider) Directory(ctx context.Context, s *session.Session, serverURI string) (jsonview.View, error) {
	conn := p.CreateConnection(s)
	v, _, err := conn.Get(ctx, serverURI)
	return v, err
}

func (defaultProvider) CreateConnection(s *session.Session) *connection.Connection {
	return connection.New(s, connection.Config{})
}
