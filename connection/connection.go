// Package connection implements the signed and unsigned HTTP exchange
// with an ACME server: JWS construction, nonce handling, Retry-After
// and directory-URL link discovery, and the bad-nonce retry loop. It
// generalizes the teacher's RealmClient.doReq family into a value
// produced by a provider.Provider rather than a client method, so that
// different realms can carry different retry parameters and User-Agent
// strings.
package connection

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	gnet "github.com/hlandau/goutils/net"
	"github.com/hlandau/xlog"
	"github.com/peterhellberg/link"
	"golang.org/x/net/context/ctxhttp"
	"gopkg.in/square/go-jose.v2"

	"github.com/jojo-liu/acmecore/errs"
	"github.com/jojo-liu/acmecore/jsonview"
	"github.com/jojo-liu/acmecore/problem"
	"github.com/jojo-liu/acmecore/session"
)

var log, Log = xlog.NewQuiet("acmecore.connection")

// TestingAllowHTTP permits "http" directory/resource URLs. Set only by
// tests driving a local ACME server without TLS configured.
var TestingAllowHTTP = false

// ValidURL reports whether u is a (potentially) valid ACME resource
// URL: an HTTPS URL, or an HTTP URL when TestingAllowHTTP is set.
func ValidURL(u string) bool {
	pu, err := url.Parse(u)
	return err == nil && (pu.Scheme == "https" || (TestingAllowHTTP && pu.Scheme == "http"))
}

// UserAgent is appended to the product-token User-Agent sent with every
// request. Optional; mirrors the teacher's package-scope UserAgent var.
var UserAgent string

// Config carries the per-realm parameters a provider.Provider supplies
// when constructing a Connection.
type Config struct {
	HTTPClient   *http.Client
	UserAgent    string
	Backoff      gnet.Backoff
}

// DefaultBackoff matches the teacher's doReqAccept retry parameters.
func DefaultBackoff() gnet.Backoff {
	return gnet.Backoff{
		MaxTries:           20,
		InitialDelay:       100 * time.Millisecond,
		MaxDelay:           1 * time.Second,
		MaxDelayAfterTries: 4,
		Jitter:             0.10,
	}
}

// Connection performs signed and unsigned requests against a single
// ACME realm on behalf of a session.Session. It holds no directory or
// account state of its own; that lives in the Session.
type Connection struct {
	sess *session.Session
	cfg  Config
}

// New builds a Connection bound to sess using cfg. If cfg.Backoff is
// the zero value, DefaultBackoff is substituted.
func New(sess *session.Session, cfg Config) *Connection {
	if cfg.Backoff.MaxTries == 0 {
		cfg.Backoff = DefaultBackoff()
	}
	return &Connection{sess: sess, cfg: cfg}
}

// noKeyID is passed as the kid argument of SignedPost to request an
// embedded-JWK signature instead of a "kid" header reference, for the
// newAccount request that precedes the existence of an account URL.
const noKeyID = ""

// Get performs an unsigned GET, parsing a JSON response body (if any)
// into a jsonview.View. Directory auto-discovery and nonce caching
// happen exactly as for signed requests.
func (c *Connection) Get(ctx context.Context, u string) (jsonview.View, *http.Response, error) {
	res, body, err := c.GetRaw(ctx, u)
	if err != nil {
		return jsonview.View{}, res, err
	}

	if len(body) == 0 {
		return jsonview.View{}, res, nil
	}

	v, err := jsonview.Parse(body)
	if err != nil {
		return jsonview.View{}, res, &errs.ProtocolError{Context: "parsing JSON response", Err: err}
	}

	return v, res, nil
}

// GetRaw performs an unsigned GET and returns the undecoded response
// body, for callers (such as the challenge registry) that need to
// inspect a discriminator field before choosing how to unmarshal.
func (c *Connection) GetRaw(ctx context.Context, u string) (*http.Response, []byte, error) {
	return c.doReq(ctx, "GET", u, "application/json", nil, nil, noKeyID)
}

// PostAsGet performs a POST-as-GET (RFC 8555 §6.3): a signed request
// with an empty JWS payload, used to fetch a resource that requires
// authentication to read.
func (c *Connection) PostAsGet(ctx context.Context, u string, key crypto.PrivateKey, kid string, out interface{}) (*http.Response, error) {
	return c.SignedPost(ctx, u, key, kid, "", out)
}

// SignedPost performs a signed POST. claims is marshaled to JSON and
// signed unless it is the empty string "", which the teacher's doReq
// chain treats as a special case producing an empty JWS payload (used
// by PostAsGet). out, if non-nil, receives the unmarshaled JSON
// response body. Every 2xx status code is accepted; the status is not
// checked against a list of allowed codes.
func (c *Connection) SignedPost(ctx context.Context, u string, key crypto.PrivateKey, kid string, claims interface{}, out interface{}) (*http.Response, error) {
	res, body, err := c.doReq(ctx, "POST", u, "application/json", key, claims, kid)
	if err != nil {
		return res, err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return res, &errs.ProtocolError{Context: "unmarshaling response body", Err: err}
		}
	}

	return res, nil
}

// doReq implements the teacher's doReqAccept bad-nonce retry loop.
func (c *Connection) doReq(ctx context.Context, method, u, accepts string, key crypto.PrivateKey, claims interface{}, kid string) (*http.Response, []byte, error) {
	backoff := c.cfg.Backoff

	for {
		res, body, err := c.doReqOneTry(ctx, method, u, accepts, key, claims, kid)
		if err == nil {
			return res, body, nil
		}

		if se, ok := err.(*errs.ServerError); ok && se.IsBadNonce() {
			if backoff.Sleep() {
				log.Debugf("retrying after bad nonce: %v", se)
				continue
			}
		}

		return res, body, err
	}
}

func (c *Connection) doReqOneTry(ctx context.Context, method, u, accepts string, key crypto.PrivateKey, claims interface{}, kid string) (*http.Response, []byte, error) {
	if !ValidURL(u) {
		return nil, nil, errs.NewIllegalArgument(fmt.Sprintf("invalid request URL: %q", u))
	}

	var rdr io.Reader
	if claims != nil {
		if key == nil {
			return nil, nil, errs.NewIllegalArgument("account key must be specified for a signed request")
		}

		var b []byte
		var err error
		if s, ok := claims.(string); ok && s == "" {
			b = []byte{}
		} else {
			b, err = json.Marshal(claims)
			if err != nil {
				return nil, nil, err
			}
		}

		alg, err := algorithmFromKey(key)
		if err != nil {
			return nil, nil, err
		}

		signKey := jose.SigningKey{Algorithm: alg, Key: key}
		extraHeaders := map[jose.HeaderKey]interface{}{"url": u}

		nonce := c.sess.TakeNonce()
		useInlineKey := kid == noKeyID
		if !useInlineKey {
			extraHeaders["kid"] = kid
		}

		signOptions := jose.SignerOptions{
			EmbedJWK:     useInlineKey,
			ExtraHeaders: extraHeaders,
		}
		if nonce != "" {
			signOptions.NonceSource = staticNonce(nonce)
		} else {
			signOptions.NonceSource = fetchNonce{ctx: ctx, c: c}
		}

		signer, err := jose.NewSigner(signKey, &signOptions)
		if err != nil {
			return nil, nil, err
		}

		sig, err := signer.Sign(b)
		if err != nil {
			return nil, nil, err
		}

		rdr = strings.NewReader(sig.FullSerialize())
	}

	req, err := http.NewRequest(method, u, rdr)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", accepts)
	if method != "GET" && method != "HEAD" {
		req.Header.Set("Content-Type", "application/jose+json")
	}
	if loc := c.sess.Locale(); loc != "" {
		req.Header.Set("Accept-Language", loc)
	}
	req.Header.Set("User-Agent", formUserAgent(c.cfg.UserAgent))

	res, err := ctxhttp.Do(ctx, c.cfg.HTTPClient, req)
	if err != nil {
		return nil, nil, &errs.NetworkError{URL: u, Err: err}
	}

	if n := res.Header.Get("Replay-Nonce"); n != "" {
		c.sess.SetNonce(n)
	}

	if lnk := link.ParseResponse(res)["index"]; lnk != nil && ValidURL(lnk.URI) {
		c.sess.SetServerURI(lnk.URI)
	}

	defer res.Body.Close()
	body, err := ioutil.ReadAll(gnet.LimitReader(res.Body, 4*1024*1024))
	if err != nil {
		return res, nil, &errs.NetworkError{URL: u, Err: err}
	}

	if res.StatusCode >= 400 && res.StatusCode < 600 {
		return res, body, newServerError(res, body)
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 && len(body) > 0 {
		if mimeType, params, err := mime.ParseMediaType(res.Header.Get("Content-Type")); err == nil {
			if err := validateContentType(mimeType, params); err != nil {
				return res, body, err
			}
		}
	}

	return res, body, nil
}

func validateContentType(mimeType string, params map[string]string) error {
	switch mimeType {
	case "application/json", "application/pem-certificate-chain", "application/pkix-cert", "application/problem+json":
		// the charset is checked only for these types; any other
		// content type is accepted unchecked.
	default:
		return nil
	}

	if ch, ok := params["charset"]; ok && ch != "" && strings.ToLower(ch) != "utf-8" {
		return &errs.ProtocolError{Context: fmt.Sprintf("unexpected charset %q for %q", ch, mimeType)}
	}
	return nil
}

func newServerError(res *http.Response, body []byte) error {
	se := &errs.ServerError{StatusCode: res.StatusCode, RawBody: body}

	mimeType, _, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err == nil && mimeType == "application/problem+json" && len(body) > 0 {
		var p problem.Problem
		if json.Unmarshal(body, &p) == nil {
			se.Problem = &p
		}
	}

	return se
}

// HandleRetryAfter parses the Retry-After header (seconds or an
// HTTP-date, RFC 7231 §7.1.3) and returns the instant at which the
// caller should retry, or nil if the header is absent or unparseable.
func HandleRetryAfter(h http.Header) *errs.RetryAfter {
	v := h.Get("Retry-After")
	if v == "" {
		return nil
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return &errs.RetryAfter{At: time.Now().Add(time.Duration(secs) * time.Second)}
	}

	if t, err := http.ParseTime(v); err == nil {
		return &errs.RetryAfter{At: t}
	}

	return nil
}

func algorithmFromKey(key crypto.PrivateKey) (jose.SignatureAlgorithm, error) {
	switch v := key.(type) {
	case *rsa.PrivateKey:
		return jose.RS256, nil
	case *ecdsa.PrivateKey:
		switch v.Curve.Params().Name {
		case "P-256":
			return jose.ES256, nil
		case "P-384":
			return jose.ES384, nil
		case "P-521":
			return jose.ES512, nil
		default:
			return "", fmt.Errorf("connection: unsupported ECDSA curve: %s", v.Curve.Params().Name)
		}
	default:
		return "", fmt.Errorf("connection: unsupported private key type: %T", key)
	}
}

func formUserAgent(userAgent string) string {
	if userAgent == "" {
		userAgent = UserAgent
	}
	if userAgent != "" {
		userAgent += " "
	}
	return fmt.Sprintf("%sacmecore/1 Go-http-client/1.1 %s/%s", userAgent, runtime.GOOS, runtime.GOARCH)
}

// staticNonce adapts a single already-known nonce to jose.NonceSource.
type staticNonce string

func (n staticNonce) Nonce() (string, error) { return string(n), nil }

// fetchNonce adapts a HEAD request against the realm's newNonce
// endpoint to jose.NonceSource, used when the Session's nonce slot is
// empty (e.g. the very first signed request).
type fetchNonce struct {
	ctx context.Context
	c   *Connection
}

func (f fetchNonce) Nonce() (string, error) {
	u, ok, err := f.c.sess.ResourceURL(f.ctx, session.NewNonce)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.NewIllegalArgument("realm directory does not advertise newNonce")
	}

	req, err := http.NewRequest("HEAD", u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", formUserAgent(f.c.cfg.UserAgent))

	res, err := ctxhttp.Do(f.ctx, f.c.cfg.HTTPClient, req)
	if err != nil {
		return "", &errs.NetworkError{URL: u, Err: err}
	}
	defer res.Body.Close()

	n := res.Header.Get("Replay-Nonce")
	if n == "" {
		return "", errs.NewProtocolError("newNonce response carried no Replay-Nonce header")
	}
	return n, nil
}
