// Package acmeutils provides small self-contained helpers shared by the
// challenge and resource packages: key authorization math and
// certificate-chain decoding.
package acmeutils

import (
	"crypto"
	"crypto/sha256"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"gopkg.in/square/go-jose.v2"
)

// Base64Thumbprint calculates the base64url SHA-256 thumbprint (RFC
// 7638) of a public or private key. Returns an error if the key is of
// an unknown type.
func Base64Thumbprint(key interface{}) (string, error) {
	k := jose.JSONWebKey{Key: key}
	thumbprint, err := k.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(thumbprint), nil
}

// KeyAuthorization calculates a key authorization using the given
// account public or private key and the challenge token: token +
// "." + base64url(RFC 7638 SHA-256 JWK thumbprint).
func KeyAuthorization(accountKey interface{}, token string) (string, error) {
	thumbprint, err := Base64Thumbprint(accountKey)
	if err != nil {
		return "", err
	}

	return token + "." + thumbprint, nil
}

// DNSKeyAuthorization calculates the key authorization, then hashes and
// base64url-encodes it as required for the dns-01 challenge's TXT
// record value.
func DNSKeyAuthorization(accountKey interface{}, token string) (string, error) {
	ka, err := KeyAuthorization(accountKey, token)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(sha256Bytes([]byte(ka))), nil
}

// ACMEValidationDigest calculates the SHA-256 digest of the key
// authorization for the tls-alpn-01 challenge (RFC 8737 §3), the raw
// bytes to be embedded (DER-wrapped) in the acmeIdentifier certificate
// extension.
func ACMEValidationDigest(accountKey interface{}, token string) ([32]byte, error) {
	ka, err := KeyAuthorization(accountKey, token)
	if err != nil {
		return [32]byte{}, err
	}

	return sha256.Sum256([]byte(ka)), nil
}

func sha256Bytes(b []byte) []byte {
	h := sha256.New()
	h.Write(b)
	return h.Sum(nil)
}

// LoadCertificates decodes a sequence of concatenated PEM-encoded
// certificates (as returned in the application/pem-certificate-chain
// body of a certificate resource) into their DER-encoded form, in the
// order they appear.
func LoadCertificates(data []byte) ([][]byte, error) {
	var ders [][]byte

	for {
		var blk *pem.Block
		blk, data = pem.Decode(data)
		if blk == nil {
			break
		}

		if blk.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("acmeutils: unexpected PEM block type: %q", blk.Type)
		}

		ders = append(ders, blk.Bytes)
	}

	if len(ders) == 0 {
		return nil, fmt.Errorf("acmeutils: no certificates found in PEM data")
	}

	return ders, nil
}
