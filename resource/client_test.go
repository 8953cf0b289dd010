package resource

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jojo-liu/acmecore/connection"
	"github.com/jojo-liu/acmecore/jsonview"
	"github.com/jojo-liu/acmecore/session"
)

func init() {
	connection.TestingAllowHTTP = true
}

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}
	return key
}

// directoryFetcher builds a session.Fetcher that performs a plain HTTP
// GET, for tests that need a realistic directory round trip without
// going through connection.Connection (which would require signing).
func directoryFetcher(client *http.Client) session.Fetcher {
	return func(ctx context.Context, uri string) (jsonview.View, error) {
		res, err := client.Get(uri)
		if err != nil {
			return jsonview.View{}, err
		}
		defer res.Body.Close()
		body, err := ioutil.ReadAll(res.Body)
		if err != nil {
			return jsonview.View{}, err
		}
		return jsonview.Parse(body)
	}
}

// testRig starts a fake ACME realm serving a directory at /dir that
// advertises the remaining well-known endpoints relative to its own
// URL, mirroring the three-resource-URL minimum session requires.
type testRig struct {
	srv  *httptest.Server
	mux  *http.ServeMux
	sess *session.Session
	conn *connection.Connection
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	rig := &testRig{mux: http.NewServeMux()}
	rig.mux.HandleFunc("/dir", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"newNonce": %q,
			"newAccount": %q,
			"newOrder": %q,
			"newAuthz": %q,
			"revokeCert": %q
		}`, rig.srv.URL+"/new-nonce", rig.srv.URL+"/new-account",
			rig.srv.URL+"/new-order", rig.srv.URL+"/new-authz", rig.srv.URL+"/revoke-cert")
	})
	rig.mux.HandleFunc("/new-nonce", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", "nonce-seed")
		w.WriteHeader(200)
	})

	rig.srv = httptest.NewServer(rig.mux)

	rig.sess = session.New(rig.srv.URL+"/dir", directoryFetcher(rig.srv.Client()))
	rig.conn = connection.New(rig.sess, connection.Config{HTTPClient: rig.srv.Client()})
	rig.sess.SetKey(testKey(t))

	return rig
}

func (rig *testRig) Close() { rig.srv.Close() }

func TestRegisterAccountSetsURLAndKeyID(t *testing.T) {
	rig := newTestRig(t)
	defer rig.Close()

	rig.mux.HandleFunc("/new-account", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", "nonce-1")
		w.Header().Set("Location", rig.srv.URL+"/account/1")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "valid"}`))
	})

	client := NewClient(rig.conn, rig.sess)
	acct := &Account{TermsOfServiceAgreed: true}

	if err := client.RegisterAccount(context.Background(), acct); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acct.URL != rig.srv.URL+"/account/1" {
		t.Fatalf("unexpected account URL: %q", acct.URL)
	}
	if rig.sess.KeyID() != acct.URL {
		t.Fatalf("expected session KeyID to be set to the account URL")
	}
	if acct.Status != AccountValid {
		t.Fatalf("unexpected account status: %q", acct.Status)
	}
}

func TestRegisterAccountRejectsAlreadyRegistered(t *testing.T) {
	rig := newTestRig(t)
	defer rig.Close()

	client := NewClient(rig.conn, rig.sess)
	acct := &Account{URL: rig.srv.URL + "/account/1"}

	if err := client.RegisterAccount(context.Background(), acct); err == nil {
		t.Fatalf("expected an error for an account that already has a URL")
	}
}

func TestNewOrderSetsURL(t *testing.T) {
	rig := newTestRig(t)
	defer rig.Close()

	rig.mux.HandleFunc("/new-order", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", "nonce-2")
		w.Header().Set("Location", rig.srv.URL+"/order/1")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "pending",
			"identifiers": [{"type": "dns", "value": "example.com"}],
			"authorizations": [` + fmt.Sprintf("%q", rig.srv.URL+"/authz/1") + `],
			"finalize": ` + fmt.Sprintf("%q", rig.srv.URL+"/order/1/finalize") + `
		}`))
	})

	client := NewClient(rig.conn, rig.sess)
	rig.sess.SetKeyID(rig.srv.URL + "/account/1")

	order := &Order{Identifiers: []Identifier{{Type: IdentifierDNS, Value: "example.com"}}}
	if err := client.NewOrder(context.Background(), order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.URL != rig.srv.URL+"/order/1" {
		t.Fatalf("unexpected order URL: %q", order.URL)
	}
	if order.Status != OrderPending {
		t.Fatalf("unexpected order status: %q", order.Status)
	}
	if order.FinalizeURL != rig.srv.URL+"/order/1/finalize" {
		t.Fatalf("unexpected finalize URL: %q", order.FinalizeURL)
	}
}

func TestLoadAuthorizationDecodesChallenges(t *testing.T) {
	rig := newTestRig(t)
	defer rig.Close()

	authzURL := rig.srv.URL + "/authz/1"
	rig.mux.HandleFunc("/authz/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", "nonce-3")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"identifier": {"type": "dns", "value": "example.com"},
			"status": "pending",
			"challenges": [
				{"type": "http-01", "url": ` + fmt.Sprintf("%q", rig.srv.URL+"/chal/1") + `, "status": "pending", "token": "tok123"}
			]
		}`))
	})

	client := NewClient(rig.conn, rig.sess)
	rig.sess.SetKeyID(rig.srv.URL + "/account/1")

	az := &Authorization{URL: authzURL}
	if err := client.LoadAuthorization(context.Background(), az); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(az.Challenges) != 1 {
		t.Fatalf("expected exactly one challenge, got %d", len(az.Challenges))
	}
	if az.Challenges[0].Type() != "http-01" {
		t.Fatalf("unexpected challenge type: %q", az.Challenges[0].Type())
	}
	if az.Challenges[0].Token() != "tok123" {
		t.Fatalf("unexpected challenge token: %q", az.Challenges[0].Token())
	}
}

func TestLoadAuthorizationWithoutChallengesIsProtocolError(t *testing.T) {
	rig := newTestRig(t)
	defer rig.Close()

	authzURL := rig.srv.URL + "/authz/empty"
	rig.mux.HandleFunc("/authz/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", "nonce-4")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"identifier": {"type": "dns", "value": "example.com"}, "status": "pending"}`))
	})

	client := NewClient(rig.conn, rig.sess)
	rig.sess.SetKeyID(rig.srv.URL + "/account/1")

	az := &Authorization{URL: authzURL}
	if err := client.LoadAuthorization(context.Background(), az); err == nil {
		t.Fatalf("expected an error for an authorization with no challenges")
	}
}

func TestFinalizeSubmitsCSRAndUpdatesOrder(t *testing.T) {
	rig := newTestRig(t)
	defer rig.Close()

	var gotBody []byte
	finalizeURL := rig.srv.URL + "/order/1/finalize"
	rig.mux.HandleFunc("/order/1/finalize", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Replay-Nonce", "nonce-5")
		w.Header().Set("Content-Type", "application/json")
		body, _ := ioutil.ReadAll(r.Body)
		gotBody = body
		w.Write([]byte(`{"status": "processing"}`))
	})

	client := NewClient(rig.conn, rig.sess)
	rig.sess.SetKeyID(rig.srv.URL + "/account/1")

	order := &Order{FinalizeURL: finalizeURL}
	if err := client.Finalize(context.Background(), order, []byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotBody) == 0 {
		t.Fatalf("expected the finalize request to reach the server")
	}
	if order.Status != OrderProcessing {
		t.Fatalf("unexpected order status after finalize: %q", order.Status)
	}
}

func TestRevokeRejectsUnsupportedRealm(t *testing.T) {
	rig := newTestRig(t)
	defer rig.Close()

	// this realm's directory (built by newTestRig) advertises
	// revokeCert, so build a bare session without it to exercise the
	// "not supported" path.
	sess := session.New(rig.srv.URL+"/dir", func(ctx context.Context, uri string) (jsonview.View, error) {
		return jsonview.Parse([]byte(`{
			"newNonce": ` + fmt.Sprintf("%q", rig.srv.URL+"/new-nonce") + `,
			"newAccount": ` + fmt.Sprintf("%q", rig.srv.URL+"/new-account") + `,
			"newOrder": ` + fmt.Sprintf("%q", rig.srv.URL+"/new-order") + `
		}`))
	})
	conn := connection.New(sess, connection.Config{HTTPClient: rig.srv.Client()})
	sess.SetKey(testKey(t))

	client := NewClient(conn, sess)
	if err := client.Revoke(context.Background(), []byte{0x01}, nil, 0); err == nil {
		t.Fatalf("expected an error revoking against a realm with no revokeCert endpoint")
	}
}
