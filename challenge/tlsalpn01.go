package challenge

import (
	"crypto"
	"encoding/json"

	"github.com/jojo-liu/acmecore/acmeutils"
)

// TypeTLSALPN01 is the RFC 8737 challenge type string. It supersedes
// the teacher's deprecated TLS-SNI-02 scheme (tls-sni-02), which this
// library does not implement since Let's Encrypt and the rest of the
// ecosystem retired it.
const TypeTLSALPN01 = "tls-alpn-01"

// TLSALPN01 is the tls-alpn-01 challenge: the client serves a
// self-signed certificate over TLS carrying the acmeIdentifier
// extension (RFC 8737 §3) during the ACME TLS ALPN protocol exchange.
type TLSALPN01 struct {
	Base
}

func newTLSALPN01(raw json.RawMessage) (Challenge, error) {
	base, err := parseBase(raw)
	if err != nil {
		return nil, err
	}
	if base.typ != TypeTLSALPN01 {
		return nil, typeMismatch(TypeTLSALPN01, base.typ)
	}
	return &TLSALPN01{Base: base}, nil
}

// KeyAuthorization returns the plain key authorization; use
// ValidationDigest for the acmeIdentifier extension contents.
func (c *TLSALPN01) KeyAuthorization(key crypto.PrivateKey) (string, error) {
	return acmeutils.KeyAuthorization(key, c.token)
}

// ValidationDigest computes the SHA-256 digest embedded (DER-wrapped,
// critical) in the acmeIdentifier certificate extension
// (id-pe-acmeIdentifier, RFC 8737 §3) of the self-signed certificate
// served during validation.
func (c *TLSALPN01) ValidationDigest(key crypto.PrivateKey) ([32]byte, error) {
	return acmeutils.ACMEValidationDigest(key, c.token)
}

func (c *TLSALPN01) prepareResponse(key crypto.PrivateKey) (interface{}, error) {
	return struct{}{}, nil
}
