package acmecore

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"net/http"

	gnet "github.com/hlandau/goutils/net"
	"golang.org/x/crypto/ocsp"
	"golang.org/x/net/context/ctxhttp"
)

// CheckOCSP checks OCSP for a certificate. The immediate issuer must
// be specified. If the certificate does not support OCSP, (nil, nil,
// nil) is returned. Uses HTTP GET rather than POST. The response is
// returned whether or not it parses, so a caller can inspect the raw
// bytes on error. The caller must check the response status itself;
// this realm-independent operation does not consult a Session.
func CheckOCSP(ctx context.Context, httpClient *http.Client, crt, issuer *x509.Certificate) (parsedResponse *ocsp.Response, rawResponse []byte, err error) {
	if len(crt.OCSPServer) == 0 {
		return
	}

	b, err := ocsp.CreateRequest(crt, issuer, nil)
	if err != nil {
		return
	}

	b64 := base64.StdEncoding.EncodeToString(b)
	path := crt.OCSPServer[0] + "/" + b64

	req, err := http.NewRequest("GET", path, nil)
	if err != nil {
		return
	}
	req.Header.Set("Accept", "application/ocsp-response")

	res, err := ctxhttp.Do(ctx, httpClient, req)
	if err != nil {
		return
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		err = fmt.Errorf("acmecore: OCSP response has status %#v", res.Status)
		return
	}

	if res.Header.Get("Content-Type") != "application/ocsp-response" {
		err = fmt.Errorf("acmecore: response to OCSP request had unexpected content type")
		return
	}

	rawResponse, err = ioutil.ReadAll(gnet.LimitReader(res.Body, 1*1024*1024))
	if err != nil {
		return
	}

	parsedResponse, err = ocsp.ParseResponse(rawResponse, issuer)
	return
}
