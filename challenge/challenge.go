// Package challenge implements the polymorphic ACME challenge
// hierarchy (RFC 8555 §8): a type-dispatched Challenge interface with
// a registry of constructors, generalizing the flat, single-struct
// Challenge the teacher used before tls-alpn-01 existed. The
// registration idiom is grounded on tommie-acme-go's
// Challenge/GenericChallenge pair.
package challenge

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/errs"
	"github.com/jojo-liu/acmecore/problem"
	"github.com/jojo-liu/acmecore/session"
)

// Status mirrors the teacher's ChallengeStatus closed enum, except
// that unrecognised strings map to StatusUnknown instead of failing
// UnmarshalJSON: a server advertising a new challenge status should
// not break decoding of the rest of the authorization it belongs to.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusValid      Status = "valid"
	StatusInvalid    Status = "invalid"
	StatusUnknown    Status = ""
)

// IsFinal reports whether s is a terminal challenge status.
func (s Status) IsFinal() bool {
	switch s {
	case StatusValid, StatusInvalid:
		return true
	default:
		return false
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var ss string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	switch Status(ss) {
	case StatusPending, StatusProcessing, StatusValid, StatusInvalid:
		*s = Status(ss)
	default:
		*s = StatusUnknown
	}
	return nil
}

// Challenge is satisfied by every challenge variant. Type-specific
// behavior (constructing the key authorization response) is reached
// through KeyAuthorization and prepareResponse; everything else is
// common fields carried by Base.
type Challenge interface {
	Type() string
	Status() Status
	Location() string
	Validated() time.Time
	Error() *problem.Problem
	Token() string
	KeyAuthorization(key crypto.PrivateKey) (string, error)
	prepareResponse(key crypto.PrivateKey) (interface{}, error)
}

// Base holds the fields common to every RFC 8555 challenge object.
// Variants embed it and add type-specific accessors.
type Base struct {
	url       string
	typ       string
	status    Status
	validated time.Time
	err       *problem.Problem
	token     string
	raw       json.RawMessage
}

func (b *Base) Type() string            { return b.typ }
func (b *Base) Status() Status          { return b.status }
func (b *Base) Location() string        { return b.url }
func (b *Base) Validated() time.Time    { return b.validated }
func (b *Base) Error() *problem.Problem { return b.err }
func (b *Base) Token() string           { return b.token }

type wireChallenge struct {
	URL       string          `json:"url"`
	Type      string          `json:"type"`
	Status    Status          `json:"status"`
	Validated time.Time       `json:"validated,omitempty"`
	Error     *problem.Problem `json:"error,omitempty"`
	Token     string          `json:"token,omitempty"`
}

func parseBase(raw json.RawMessage) (Base, error) {
	var w wireChallenge
	if err := json.Unmarshal(raw, &w); err != nil {
		return Base{}, &errs.ProtocolError{Context: "unmarshaling challenge", Err: err}
	}
	return Base{
		url:       w.URL,
		typ:       w.Type,
		status:    w.Status,
		validated: w.Validated,
		err:       w.Error,
		token:     w.Token,
		raw:       raw,
	}, nil
}

// Constructor builds a Challenge from the still-undispatched JSON body
// of a challenge object. Any error it returns, a type mismatch
// included, aborts construction of the entire authorization it belongs
// to.
type Constructor func(raw json.RawMessage) (Challenge, error)

var registry = map[string]Constructor{}

// Register binds typ (e.g. "http-01") to a constructor. Called from
// each variant's package init.
func Register(typ string, ctor Constructor) {
	registry[typ] = ctor
}

// Create dispatches raw to the constructor registered for its "type"
// field. An unrecognised type falls back to Generic rather than
// failing, so that a server offering a challenge type this library
// predates does not break authorization loading entirely.
func Create(raw json.RawMessage) (Challenge, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, &errs.ProtocolError{Context: "unmarshaling challenge type", Err: err}
	}
	if head.Type == "" {
		return nil, errs.NewProtocolError("challenge object carries no \"type\" field")
	}

	if ctor, ok := registry[head.Type]; ok {
		return ctor(raw)
	}
	return newGeneric(raw)
}

func init() {
	Register(TypeHTTP01, newHTTP01)
	Register(TypeDNS01, newDNS01)
	Register(TypeTLSALPN01, newTLSALPN01)
}

// Client pairs a connection.Connection with the owning session.Session
// to perform the operations a Challenge supports: Bind (load from a
// URL), Trigger (tell the server to begin validation) and Update
// (poll). Scoped narrowly to challenges, mirroring the teacher's
// RespondToChallenge but generalized across variants.
type Client struct {
	conn *connection.Connection
	sess *session.Session
}

// NewClient builds a challenge.Client.
func NewClient(conn *connection.Connection, sess *session.Session) *Client {
	return &Client{conn: conn, sess: sess}
}

// Bind fetches the challenge resource at url and dispatches it to the
// appropriate Challenge variant.
func (c *Client) Bind(ctx context.Context, url string) (Challenge, error) {
	_, body, err := c.conn.GetRaw(ctx, url)
	if err != nil {
		return nil, err
	}
	return Create(body)
}

// Trigger tells the server to begin validating ch, POSTing the response
// payload ch's variant builds from key (an empty JSON object for every
// built-in variant; the key authorization itself is not sent). The
// request is signed with the session's account key. Returns the updated
// Challenge as reported by the server.
func (c *Client) Trigger(ctx context.Context, ch Challenge, key crypto.PrivateKey) (Challenge, error) {
	payload, err := ch.prepareResponse(key)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if _, err := c.conn.SignedPost(ctx, ch.Location(), c.sess.Key(), c.sess.KeyID(), payload, &raw); err != nil {
		return nil, err
	}
	return Create(raw)
}

// Update re-fetches ch via POST-as-GET, returning its current state. If
// the response carries a Retry-After header, Update returns the parsed
// challenge alongside a *errs.RetryAfter rather than blocking; the
// challenge's status is still updated from the response body either
// way, so a caller that ignores the RetryAfter still sees the latest
// state. The caller decides whether and how long to wait before
// calling again.
func (c *Client) Update(ctx context.Context, ch Challenge) (Challenge, error) {
	var raw json.RawMessage
	res, err := c.conn.PostAsGet(ctx, ch.Location(), c.sess.Key(), c.sess.KeyID(), &raw)
	if err != nil {
		return nil, err
	}

	updated, err := Create(raw)
	if err != nil {
		return nil, err
	}

	if ra := connection.HandleRetryAfter(res.Header); ra != nil {
		return updated, ra
	}
	return updated, nil
}

// typeMismatch builds the *errs.ProtocolError each variant's
// constructor returns when the unmarshaled "type" field does not match
// the variant being constructed, before any other field is populated.
func typeMismatch(want, got string) error {
	return &errs.ProtocolError{Context: fmt.Sprintf("challenge type mismatch: expected %q, got %q", want, got)}
}
