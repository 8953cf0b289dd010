package resource

import (
	"context"
	"fmt"
	"time"

	gnet "github.com/hlandau/goutils/net"

	"github.com/jojo-liu/acmecore/acmeutils"
	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/errs"
	"github.com/jojo-liu/acmecore/session"
)

// Client performs account, order, authorization and certificate
// operations against a single realm, generalizing the teacher's
// RealmClient (api-res.go methods) off a concrete client type and onto
// an injected session.Session/connection.Connection pair.
type Client struct {
	conn *connection.Connection
	sess *session.Session
}

// NewClient builds a resource.Client.
func NewClient(conn *connection.Connection, sess *session.Session) *Client {
	return &Client{conn: conn, sess: sess}
}

type postAccount struct {
	TermsOfServiceAgreed bool          `json:"termsOfServiceAgreed,omitempty"`
	ContactURIs          []string      `json:"contact,omitempty"`
	Status               AccountStatus `json:"status,omitempty"`
	OnlyReturnExisting   bool          `json:"onlyReturnExisting,omitempty"`
}

func (c *Client) postAccount(ctx context.Context, acct *Account, onlyReturnExisting bool) error {
	body := &postAccount{
		ContactURIs:          acct.ContactURIs,
		TermsOfServiceAgreed: acct.TermsOfServiceAgreed,
		OnlyReturnExisting:   onlyReturnExisting,
	}
	if acct.Status == AccountDeactivated {
		body.Status = acct.Status
	}

	endpoint := acct.URL
	updating := true
	kid := c.sess.KeyID()

	if endpoint == "" {
		u, ok, err := c.sess.ResourceURL(ctx, session.NewAccount)
		if err != nil {
			return err
		}
		if !ok {
			return errs.NewProtocolError("realm directory does not advertise newAccount")
		}
		endpoint = u
		updating = false
		kid = "" // embed the JWK; no account URL exists yet
	}

	res, err := c.conn.SignedPost(ctx, endpoint, c.sess.Key(), kid, body, acct)
	if err != nil {
		return err
	}

	loc := res.Header.Get("Location")
	if !updating {
		if !connection.ValidURL(loc) {
			return errs.NewProtocolError(fmt.Sprintf("newAccount response carried an invalid Location: %q", loc))
		}
		acct.URL = loc
		c.sess.SetKeyID(loc)
	} else if loc != "" {
		return errs.NewProtocolError(fmt.Sprintf("unexpected Location header on account update: %q", loc))
	}

	return nil
}

// RegisterAccount creates a new account. acct.URL must be empty and
// acct.TermsOfServiceAgreed should be true if the realm requires it
// (see session.Metadata's TermsOfServiceURL).
func (c *Client) RegisterAccount(ctx context.Context, acct *Account) error {
	if acct.URL != "" {
		return errs.NewIllegalArgument("cannot register an account which already has a URL")
	}
	return c.postAccount(ctx, acct, false)
}

// LocateAccount finds an existing account by the session's key,
// without creating one if none exists.
func (c *Client) LocateAccount(ctx context.Context, acct *Account) error {
	if acct.URL != "" {
		return errs.NewIllegalArgument("cannot locate an account which already has a URL")
	}
	return c.postAccount(ctx, acct, true)
}

// UpdateAccount updates an existing account. acct.URL must be set.
func (c *Client) UpdateAccount(ctx context.Context, acct *Account) error {
	if acct.URL == "" {
		return errs.NewIllegalArgument("cannot update an account whose URL is unknown")
	}
	return c.postAccount(ctx, acct, false)
}

// normalizeIdentifier punycode-encodes and strips trailing dots from a
// DNS identifier's value, leaving other identifier types untouched.
func normalizeIdentifier(ident Identifier) (Identifier, error) {
	if ident.Type != IdentifierDNS {
		return ident, nil
	}
	normalized, err := acmeutils.NormalizeHostname(ident.Value)
	if err != nil {
		return ident, errs.NewIllegalArgument(fmt.Sprintf("identifier %q: %v", ident.Value, err))
	}
	ident.Value = normalized
	return ident, nil
}

// NewAuthorization creates a pre-authorization for ident. Rarely
// needed; most issuance flows should use NewOrder instead, which
// creates the authorizations an order requires automatically.
func (c *Client) NewAuthorization(ctx context.Context, ident Identifier) (*Authorization, error) {
	ident, err := normalizeIdentifier(ident)
	if err != nil {
		return nil, err
	}

	u, ok, err := c.sess.ResourceURL(ctx, session.NewAuthz)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NewProtocolError("realm directory does not advertise newAuthz")
	}

	az := &Authorization{}
	res, err := c.conn.SignedPost(ctx, u, c.sess.Key(), c.sess.KeyID(), struct {
		Identifier Identifier `json:"identifier"`
	}{ident}, az)
	if err != nil {
		return nil, err
	}

	loc := res.Header.Get("Location")
	if !connection.ValidURL(loc) {
		return nil, errs.NewProtocolError(fmt.Sprintf("newAuthz response carried an invalid Location: %q", loc))
	}
	az.URL = loc

	if len(az.Challenges) == 0 {
		return nil, errs.NewProtocolError("authorization carries no challenges")
	}

	return az, nil
}

// LoadAuthorization loads or reloads the authorization at az.URL. az is
// populated from a successful response body even when a
// *errs.RetryAfter is returned; on a transport or server error it is
// not updated. If
// the response carries a Retry-After header, LoadAuthorization returns
// it as a *errs.RetryAfter rather than blocking; the caller decides
// whether and how long to wait before calling again.
func (c *Client) LoadAuthorization(ctx context.Context, az *Authorization) error {
	if az.URL == "" {
		return errs.NewIllegalArgument("authorization URL is unknown")
	}

	res, err := c.conn.PostAsGet(ctx, az.URL, c.sess.Key(), c.sess.KeyID(), az)
	if err != nil {
		return err
	}

	if len(az.Challenges) == 0 {
		return errs.NewProtocolError("authorization carries no challenges")
	}

	if ra := connection.HandleRetryAfter(res.Header); ra != nil {
		return ra
	}
	return nil
}

type postOrder struct {
	Identifiers []Identifier `json:"identifiers,omitempty"`
	NotBefore   *time.Time   `json:"notBefore,omitempty"`
	NotAfter    *time.Time   `json:"notAfter,omitempty"`
}

// NewOrder creates a new order for order.Identifiers (and, optionally,
// order.NotBefore/order.NotAfter). The other fields are populated from
// the server's response.
func (c *Client) NewOrder(ctx context.Context, order *Order) error {
	for i, ident := range order.Identifiers {
		normalized, err := normalizeIdentifier(ident)
		if err != nil {
			return err
		}
		order.Identifiers[i] = normalized
	}

	u, ok, err := c.sess.ResourceURL(ctx, session.NewOrder)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NewProtocolError("realm directory does not advertise newOrder")
	}

	body := &postOrder{Identifiers: order.Identifiers}
	if !order.NotBefore.IsZero() {
		body.NotBefore = &order.NotBefore
	}
	if !order.NotAfter.IsZero() {
		body.NotAfter = &order.NotAfter
	}

	res, err := c.conn.SignedPost(ctx, u, c.sess.Key(), c.sess.KeyID(), body, order)
	if err != nil {
		return err
	}

	loc := res.Header.Get("Location")
	if !connection.ValidURL(loc) {
		return errs.NewProtocolError(fmt.Sprintf("newOrder response carried an invalid Location: %q", loc))
	}
	order.URL = loc
	return nil
}

// LoadOrder loads or reloads the order at order.URL. order is
// populated from a successful response body even when a
// *errs.RetryAfter is returned; on a transport or server error it is
// not updated. If
// the response carries a Retry-After header, LoadOrder returns it as a
// *errs.RetryAfter rather than blocking; the caller decides whether and
// how long to wait before calling again. No automatic waiting happens
// beyond the transport layer's bad-nonce retries.
func (c *Client) LoadOrder(ctx context.Context, order *Order) error {
	if order.URL == "" {
		return errs.NewIllegalArgument("order URL is unknown")
	}

	res, err := c.conn.PostAsGet(ctx, order.URL, c.sess.Key(), c.sess.KeyID(), order)
	if err != nil {
		return err
	}

	if ra := connection.HandleRetryAfter(res.Header); ra != nil {
		return ra
	}
	return nil
}

// LoadCertificate downloads the certificate chain at cert.URL.
func (c *Client) LoadCertificate(ctx context.Context, cert *Certificate) error {
	if !connection.ValidURL(cert.URL) {
		return errs.NewIllegalArgument(fmt.Sprintf("invalid certificate URL: %q", cert.URL))
	}

	_, body, err := c.conn.GetRaw(ctx, cert.URL)
	if err != nil {
		return err
	}

	chain, err := acmeutils.LoadCertificates(body)
	if err != nil {
		return &errs.ProtocolError{Context: "decoding certificate chain", Err: err}
	}

	cert.CertificateChain = chain
	return nil
}

// Finalize submits a CSR to complete issuance for a "ready" order.
func (c *Client) Finalize(ctx context.Context, order *Order, csr []byte) error {
	if order.FinalizeURL == "" {
		return errs.NewIllegalArgument("order carries no finalize URL")
	}

	req := struct {
		CSR gnet.Base64up `json:"csr"`
	}{gnet.Base64up(csr)}

	_, err := c.conn.SignedPost(ctx, order.FinalizeURL, c.sess.Key(), c.sess.KeyID(), &req, order)
	return err
}

type revokeReq struct {
	Certificate gnet.Base64up `json:"certificate"`
	Reason      int           `json:"reason,omitempty"`
}

// Revoke requests revocation of certificateDER (DER-encoded). If
// revocationKey is nil, the request is signed with the session's
// account key; otherwise it is signed with revocationKey directly
// (e.g. the certificate's own key), bypassing the account entirely.
func (c *Client) Revoke(ctx context.Context, certificateDER []byte, revocationKey interface{}, reason int) error {
	u, ok, err := c.sess.ResourceURL(ctx, session.RevokeCert)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NewProtocolError("realm does not support certificate revocation")
	}

	req := &revokeReq{Certificate: gnet.Base64up(certificateDER), Reason: reason}

	key := revocationKey
	kid := c.sess.KeyID()
	if key == nil {
		key = c.sess.Key()
	} else {
		kid = "" // sign with an embedded JWK, not the account
	}

	_, err = c.conn.SignedPost(ctx, u, key, kid, req, nil)
	return err
}
