package challenge

import (
	"crypto"
	"encoding/json"

	"github.com/jojo-liu/acmecore/acmeutils"
)

// TypeDNS01 is the RFC 8555 §8.4 challenge type string.
const TypeDNS01 = "dns-01"

// DNS01 is the dns-01 challenge: the client publishes a TXT record at
// _acme-challenge.<domain> containing the digest of the key
// authorization.
type DNS01 struct {
	Base
}

func newDNS01(raw json.RawMessage) (Challenge, error) {
	base, err := parseBase(raw)
	if err != nil {
		return nil, err
	}
	if base.typ != TypeDNS01 {
		return nil, typeMismatch(TypeDNS01, base.typ)
	}
	return &DNS01{Base: base}, nil
}

// KeyAuthorization returns the plain key authorization; use
// TXTRecordValue for the digest actually published in DNS.
func (c *DNS01) KeyAuthorization(key crypto.PrivateKey) (string, error) {
	return acmeutils.KeyAuthorization(key, c.token)
}

// TXTRecordValue computes the base64url(SHA-256(key authorization))
// value to publish as the _acme-challenge TXT record.
func (c *DNS01) TXTRecordValue(key crypto.PrivateKey) (string, error) {
	return acmeutils.DNSKeyAuthorization(key, c.token)
}

func (c *DNS01) prepareResponse(key crypto.PrivateKey) (interface{}, error) {
	return struct{}{}, nil
}
