// Package acmecore provides a client for ACME (RFC 8555) certificate
// authorities: directory discovery, account management, order and
// authorization polling, challenge response, and certificate
// retrieval and revocation.
//
// Client composes the session, connection, provider, challenge and
// resource packages into the single entry point most callers need,
// mirroring the ergonomics of the teacher's RealmClient while letting
// each concern be used independently (e.g. a caller juggling several
// realms can share one Provider registry across several Sessions).
package acmecore

import (
	"context"
	"fmt"

	"github.com/jojo-liu/acmecore/challenge"
	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/jsonview"
	"github.com/jojo-liu/acmecore/provider"
	"github.com/jojo-liu/acmecore/resource"
	"github.com/jojo-liu/acmecore/session"
)

// Config configures a new Client.
type Config struct {
	// DirectoryURL is the ACME realm's directory URL. Usually mandatory;
	// see session.Session for the auto-discovery case in which it may be
	// left empty.
	DirectoryURL string
}

// Client is a single ACME realm's account key, connection, and the
// resource/challenge operations performed against it.
type Client struct {
	Session    *session.Session
	Connection *connection.Connection
	Provider   provider.Provider
	Resource   *resource.Client
	Challenge  *challenge.Client
}

// New resolves a provider.Provider for cfg.DirectoryURL (falling back
// to provider.Default via provider.Resolve) and wires a Client around
// it. If cfg.DirectoryURL is empty, provider.Default is used and the
// realm is expected to be auto-discovered from the first resource
// response that carries a directory Link header.
func New(cfg Config) (*Client, error) {
	var p provider.Provider
	var err error

	if cfg.DirectoryURL != "" {
		p, err = provider.Resolve(cfg.DirectoryURL)
		if err != nil {
			return nil, fmt.Errorf("acmecore: %w", err)
		}
	} else {
		p = provider.Default
	}

	sess := session.New(cfg.DirectoryURL, nil)
	sess.SetFetcher(func(ctx context.Context, uri string) (jsonview.View, error) {
		return p.Directory(ctx, sess, uri)
	})

	conn := p.CreateConnection(sess)

	return &Client{
		Session:    sess,
		Connection: conn,
		Provider:   p,
		Resource:   resource.NewClient(conn, sess),
		Challenge:  challenge.NewClient(conn, sess),
	}, nil
}

// Metadata returns the realm's directory metadata, fetching and
// caching the directory if necessary.
func (c *Client) Metadata(ctx context.Context) (session.Metadata, error) {
	return c.Session.Metadata(ctx)
}
