// Package session holds per-realm ACME client state: the account key
// pair, the current replay nonce, and a cached, TTL-bounded copy of the
// realm's directory resource. It has no knowledge of HTTP transport or
// CA-specific behavior; those live in connection and provider, which
// both depend on session rather than the reverse.
package session

import (
	"context"
	"crypto"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jojo-liu/acmecore/errs"
	"github.com/jojo-liu/acmecore/jsonview"
)

// DefaultDirectoryTTL is how long a fetched directory snapshot is
// considered fresh before the next ResourceURL or Metadata call
// re-fetches it through the Fetcher. A negative TTL (used by tests)
// disables caching: every ResourceURL or Metadata call forces a fresh
// fetch.
const DefaultDirectoryTTL = 1 * time.Hour

// ErrUnknownServerURI is returned by ResourceURL/Metadata when no
// directory snapshot is cached and no fetch function has been supplied.
var ErrUnknownServerURI = errors.New("session: server URI is unknown and no directory is cached")

// Fetcher retrieves a fresh directory resource from serverURI and
// returns it as an unparsed jsonview.View. Supplied by whatever owns
// the Session (typically a provider.Provider's Directory method,
// plumbed in by acmecore.New through SetFetcher), since Session itself
// performs no network I/O. Returning a View rather than a parsed
// struct keeps Session from needing to export its directoryInfo type,
// which would otherwise force an import cycle between session and the
// provider package that supplies the Fetcher.
type Fetcher func(ctx context.Context, serverURI string) (jsonview.View, error)

// Session is the mutable, concurrency-safe state of a single ACME
// realm: which server, which account, which nonce, and the realm's
// cached directory. All methods are safe for concurrent use.
type Session struct {
	serverURIMutex sync.RWMutex
	serverURI      string

	fetch Fetcher

	dirMutex sync.Mutex // single-flight guard for directory fetches
	snapshot atomic.Value // *directorySnapshot

	ttl time.Duration

	keyMutex sync.RWMutex
	key      crypto.PrivateKey
	keyID    string

	nonceMutex sync.Mutex
	nonce      string

	localeMutex sync.RWMutex
	locale      string
}

type directorySnapshot struct {
	dir       *directoryInfo
	meta      Metadata
	expiresAt time.Time
}

// New creates a Session bound to serverURI (which may be empty if the
// realm is to be auto-discovered from a resource response, mirroring
// the teacher's RealmClientConfig.DirectoryURL optionality). fetch is
// called at most once per TTL expiry, single-flighted across
// concurrent callers.
func New(serverURI string, fetch Fetcher) *Session {
	return &Session{
		serverURI: serverURI,
		fetch:     fetch,
		ttl:       DefaultDirectoryTTL,
	}
}

// SetFetcher overrides the directory-fetch function, for callers (such
// as a root client facade) that must resolve a provider.Provider after
// the Session already exists in order to build a Fetcher that closes
// over both.
func (s *Session) SetFetcher(fetch Fetcher) {
	s.fetch = fetch
}

// SetTTL overrides the directory cache lifetime. A negative value
// disables caching entirely (every call re-fetches).
func (s *Session) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

// ServerURI returns the realm's directory URL, or "" if not yet known.
func (s *Session) ServerURI() string {
	s.serverURIMutex.RLock()
	defer s.serverURIMutex.RUnlock()
	return s.serverURI
}

// SetServerURI binds the session to a realm once its directory URL has
// been auto-discovered from a resource response's Link header. A no-op
// if a URI is already set, matching the teacher's doReqServer
// auto-discovery, which only ever sets cfg.DirectoryURL once.
func (s *Session) SetServerURI(uri string) {
	s.serverURIMutex.Lock()
	defer s.serverURIMutex.Unlock()
	if s.serverURI == "" {
		s.serverURI = uri
	}
}

func (s *Session) getSnapshot() *directorySnapshot {
	v, _ := s.snapshot.Load().(*directorySnapshot)
	if v == nil {
		return nil
	}
	if s.ttl < 0 || time.Now().After(v.expiresAt) {
		return nil
	}
	return v
}

// directory returns a cached snapshot if fresh, otherwise fetches one
// via the configured Fetcher, single-flighting concurrent callers
// exactly as the teacher's getDirectory/getDirp/setDirp trio does.
func (s *Session) directory(ctx context.Context) (*directorySnapshot, error) {
	if snap := s.getSnapshot(); snap != nil {
		return snap, nil
	}

	s.dirMutex.Lock()
	defer s.dirMutex.Unlock()

	if snap := s.getSnapshot(); snap != nil {
		return snap, nil
	}

	uri := s.ServerURI()
	if uri == "" {
		return nil, ErrUnknownServerURI
	}
	if s.fetch == nil {
		return nil, ErrUnknownServerURI
	}

	view, err := s.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	dir, meta, err := parseDirectoryView(view)
	if err != nil {
		return nil, err
	}

	snap := &directorySnapshot{dir: dir, meta: meta, expiresAt: time.Now().Add(s.ttl)}
	s.snapshot.Store(snap)
	return snap, nil
}

// parseDirectoryView extracts the well-known resource URLs and
// metadata from a directory resource's decoded JSON, mirroring the
// teacher's getDirectoryActual's required-endpoint validation.
func parseDirectoryView(v jsonview.View) (*directoryInfo, Metadata, error) {
	dir := &directoryInfo{}

	newNonce, ok := v.URL("newNonce")
	if !ok {
		return nil, Metadata{}, &errs.ProtocolError{Context: "directory is missing a valid newNonce URL"}
	}
	dir.NewNonce = newNonce

	newAccount, ok := v.URL("newAccount")
	if !ok {
		return nil, Metadata{}, &errs.ProtocolError{Context: "directory is missing a valid newAccount URL"}
	}
	dir.NewAccount = newAccount

	newOrder, ok := v.URL("newOrder")
	if !ok {
		return nil, Metadata{}, &errs.ProtocolError{Context: "directory is missing a valid newOrder URL"}
	}
	dir.NewOrder = newOrder

	if u, ok := v.URL("newAuthz"); ok {
		dir.NewAuthz = u
	}
	if u, ok := v.URL("revokeCert"); ok {
		dir.RevokeCert = u
	}
	if u, ok := v.URL("keyChange"); ok {
		dir.KeyChange = u
	}

	meta := Metadata{}
	if mv, ok := v.Object("meta"); ok {
		if s, ok := mv.URL("termsOfService"); ok {
			meta.TermsOfServiceURL = s
		}
		if s, ok := mv.URL("website"); ok {
			meta.WebsiteURL = s
		}
		if b, ok := mv.Bool("externalAccountRequired"); ok {
			meta.ExternalAccountRequired = b
		}
		if arr, ok := mv.Array("caaIdentities"); ok {
			for _, e := range arr {
				if s, ok := e.Str(); ok {
					meta.CAAIdentities = append(meta.CAAIdentities, s)
				}
			}
		}
	}
	dir.Meta = meta

	return dir, meta, nil
}

// ResourceURL returns the URL for a well-known directory resource. The
// bool result is false if the realm's directory does not advertise r
// (e.g. keyChange is optional).
func (s *Session) ResourceURL(ctx context.Context, r Resource) (string, bool, error) {
	snap, err := s.directory(ctx)
	if err != nil {
		return "", false, err
	}

	u := snap.dir.path(r)
	return u, u != "", nil
}

// Metadata returns the realm's directory metadata, fetching and
// caching the directory if necessary.
func (s *Session) Metadata(ctx context.Context) (Metadata, error) {
	snap, err := s.directory(ctx)
	if err != nil {
		return Metadata{}, err
	}
	return snap.meta, nil
}

// InvalidateDirectory forces the next directory access to re-fetch,
// regardless of TTL. Used after a server signals its directory has
// changed (not an RFC 8555 requirement, but defensive against a realm
// migrating resources without a client restart).
func (s *Session) InvalidateDirectory() {
	s.snapshot.Store((*directorySnapshot)(nil))
}

// Key returns the account's signing key, or nil if none is set yet
// (e.g. before RegisterAccount has been called).
func (s *Session) Key() crypto.PrivateKey {
	s.keyMutex.RLock()
	defer s.keyMutex.RUnlock()
	return s.key
}

// SetKey sets the account's signing key.
func (s *Session) SetKey(key crypto.PrivateKey) {
	s.keyMutex.Lock()
	defer s.keyMutex.Unlock()
	s.key = key
}

// KeyID returns the account URL used as the JWS "kid" header, or "" if
// the account has not yet been registered or located.
func (s *Session) KeyID() string {
	s.keyMutex.RLock()
	defer s.keyMutex.RUnlock()
	return s.keyID
}

// SetKeyID sets the account URL used as the JWS "kid" header.
func (s *Session) SetKeyID(keyID string) {
	s.keyMutex.Lock()
	defer s.keyMutex.Unlock()
	s.keyID = keyID
}

// Nonce returns the last cached replay nonce, or "" if none is cached.
// Unlike the teacher's nonceSource pool, a Session holds at most one
// nonce at a time: RFC 8555 servers return a fresh Replay-Nonce with
// every response, so a pool of more than one is never productively
// filled in practice, and a single slot makes reasoning about nonce
// staleness across retries simpler.
func (s *Session) Nonce() string {
	s.nonceMutex.Lock()
	defer s.nonceMutex.Unlock()
	return s.nonce
}

// SetNonce replaces the cached replay nonce.
func (s *Session) SetNonce(nonce string) {
	s.nonceMutex.Lock()
	defer s.nonceMutex.Unlock()
	s.nonce = nonce
}

// TakeNonce atomically returns and clears the cached nonce, so a
// connection can consume it for exactly one signed request.
func (s *Session) TakeNonce() string {
	s.nonceMutex.Lock()
	defer s.nonceMutex.Unlock()
	n := s.nonce
	s.nonce = ""
	return n
}

// Locale returns the Accept-Language value sent with requests, or ""
// to omit the header.
func (s *Session) Locale() string {
	s.localeMutex.RLock()
	defer s.localeMutex.RUnlock()
	return s.locale
}

// SetLocale sets the Accept-Language value sent with requests.
func (s *Session) SetLocale(locale string) {
	s.localeMutex.Lock()
	defer s.localeMutex.Unlock()
	s.locale = locale
}
