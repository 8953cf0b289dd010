// Package provider binds CA-specific behavior — directory retrieval
// and connection parameters — to a realm's directory URL. It
// generalizes the teacher's acmeendpoints package from "CA metadata
// lookup" to "CA-specific behavior injection."
package provider

import (
	"context"
	"fmt"

	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/jsonview"
	"github.com/jojo-liu/acmecore/session"
)

// Provider binds realm-specific behavior to the directory URLs it
// accepts. CreateConnection lets a CA-specific provider supply its own
// retry/backoff parameters or User-Agent.
//
// An earlier revision also carried a CreateChallenge method, letting a
// provider construct a Challenge with CA-specific logic before falling
// back to the process-wide challenge registry. No built-in provider
// ever needed one (every CA-specific difference this module models is
// in directory retrieval and transport, not challenge construction),
// and the only two call sites that dispatch a Challenge —
// challenge.Client.Bind and resource.Authorization.UnmarshalJSON —
// already go straight to challenge.Create; wiring a rarely-used
// override through both would mean threading a *Provider (or a
// closure) into resource's JSON unmarshaling, which encoding/json gives
// no hook for. Dropped rather than left stubbed; see DESIGN.md.
type Provider interface {
	// Accepts reports whether serverURI belongs to this provider's
	// realm (or realms, for providers matching a family of URLs).
	Accepts(serverURI string) bool

	// Directory fetches and returns the realm's directory resource as
	// an unparsed jsonview.View. s is supplied so the fetch can reuse
	// the Connection this provider would construct for it.
	Directory(ctx context.Context, s *session.Session, serverURI string) (jsonview.View, error)

	// CreateConnection builds the Connection this provider believes is
	// appropriate for s, e.g. with CA-specific backoff parameters.
	CreateConnection(s *session.Session) *connection.Connection
}

var registry []Provider

// Register adds p to the global registry. Providers are tried in
// registration order by Resolve.
func Register(p Provider) {
	registry = append(registry, p)
}

// ErrNoProvider is returned by Resolve when no registered provider
// accepts serverURI.
var ErrNoProvider = fmt.Errorf("provider: no registered provider accepts this server URI")

// ErrAmbiguousProvider is returned by Resolve when more than one
// registered provider accepts serverURI.
type ErrAmbiguousProvider struct {
	ServerURI string
	Matches   []string
}

func (e *ErrAmbiguousProvider) Error() string {
	return fmt.Sprintf("provider: %d providers accept %q: %v", len(e.Matches), e.ServerURI, e.Matches)
}

// Resolve returns the single registered Provider accepting serverURI.
// Exactly one match is required: zero is ErrNoProvider, two or more is
// *ErrAmbiguousProvider naming every matching provider's type.
func Resolve(serverURI string) (Provider, error) {
	var matched []Provider
	for _, p := range registry {
		if p.Accepts(serverURI) {
			matched = append(matched, p)
		}
	}

	switch len(matched) {
	case 0:
		return nil, ErrNoProvider
	case 1:
		return matched[0], nil
	default:
		names := make([]string, len(matched))
		for i, p := range matched {
			names[i] = fmt.Sprintf("%T", p)
		}
		return nil, &ErrAmbiguousProvider{ServerURI: serverURI, Matches: names}
	}
}

func init() {
	Register(Default)
	Register(LetsEncrypt)
	Register(Pebble)
}
