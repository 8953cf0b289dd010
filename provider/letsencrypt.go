package provider

import (
	"context"

	"github.com/jojo-liu/acmecore/acmeendpoints"
	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/jsonview"
	"github.com/jojo-liu/acmecore/session"
)

// letsEncryptProvider matches the teacher's acmeendpoints
// LetsEncryptLiveV2/LetsEncryptStagingV2 entries, including their
// deprecated-URL regexps for seamless ACMEv1-to-v2 upgrade. It defers
// to Default for directory retrieval; the only CA-specific behavior is
// which URIs it claims.
type letsEncryptProvider struct{}

// LetsEncrypt is the built-in provider for Let's Encrypt's live and
// staging v2 endpoints.
var LetsEncrypt Provider = letsEncryptProvider{}

func (letsEncryptProvider) Accepts(serverURI string) bool {
	return acmeendpoints.LetsEncryptLiveV2.Matches(serverURI) ||
		acmeendpoints.LetsEncryptStagingV2.Matches(serverURI)
}

func (p letsEncryptProvider) Directory(ctx context.Context, s *session.Session, serverURI string) (jsonview.View, error) {
	conn := p.CreateConnection(s)
	v, _, err := conn.Get(ctx, serverURI)
	return v, err
}

func (letsEncryptProvider) CreateConnection(s *session.Session) *connection.Connection {
	return connection.New(s, connection.Config{})
}
