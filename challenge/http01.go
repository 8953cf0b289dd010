package challenge

import (
	"crypto"
	"encoding/json"

	"github.com/jojo-liu/acmecore/acmeutils"
)

// TypeHTTP01 is the RFC 8555 §8.3 challenge type string.
const TypeHTTP01 = "http-01"

// HTTP01 is the http-01 challenge: the client serves the key
// authorization as the response body of a well-known HTTP resource.
type HTTP01 struct {
	Base
}

func newHTTP01(raw json.RawMessage) (Challenge, error) {
	base, err := parseBase(raw)
	if err != nil {
		return nil, err
	}
	if base.typ != TypeHTTP01 {
		return nil, typeMismatch(TypeHTTP01, base.typ)
	}
	return &HTTP01{Base: base}, nil
}

// KeyAuthorization computes the value the client must serve at
// http://<domain>/.well-known/acme-challenge/<token>.
func (c *HTTP01) KeyAuthorization(key crypto.PrivateKey) (string, error) {
	return acmeutils.KeyAuthorization(key, c.token)
}

func (c *HTTP01) prepareResponse(key crypto.PrivateKey) (interface{}, error) {
	// RFC 8555 §8.3: the response body triggering validation is {},
	// the key authorization is only ever served over HTTP, never sent
	// in the JWS payload.
	return struct{}{}, nil
}
