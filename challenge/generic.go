package challenge

import (
	"crypto"
	"encoding/json"

	"github.com/jojo-liu/acmecore/acmeutils"
)

// Generic backs any challenge type without a registered variant. It
// carries only the common Base fields; KeyAuthorization still computes
// the RFC 7638 thumbprint-based value, since every RFC 8555 challenge
// type defined so far shares that construction even when the
// validation mechanism differs.
type Generic struct {
	Base
}

func newGeneric(raw json.RawMessage) (Challenge, error) {
	base, err := parseBase(raw)
	if err != nil {
		return nil, err
	}
	return &Generic{Base: base}, nil
}

func (c *Generic) KeyAuthorization(key crypto.PrivateKey) (string, error) {
	return acmeutils.KeyAuthorization(key, c.token)
}

func (c *Generic) prepareResponse(key crypto.PrivateKey) (interface{}, error) {
	return struct{}{}, nil
}
