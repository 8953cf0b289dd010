package session

import "github.com/jojo-liu/acmecore/problem"

// Resource identifies a well-known ACME directory entry (RFC 8555
// §7.1.1).
type Resource int

const (
	NewNonce Resource = iota
	NewAccount
	NewOrder
	NewAuthz
	RevokeCert
	KeyChange
)

func (r Resource) String() string {
	switch r {
	case NewNonce:
		return "newNonce"
	case NewAccount:
		return "newAccount"
	case NewOrder:
		return "newOrder"
	case NewAuthz:
		return "newAuthz"
	case RevokeCert:
		return "revokeCert"
	case KeyChange:
		return "keyChange"
	default:
		return "unknown"
	}
}

// directoryInfo mirrors the directory resource's wire shape, exactly as
// the teacher's directoryInfo struct does.
type directoryInfo struct {
	NewNonce   string `json:"newNonce"`
	NewAccount string `json:"newAccount"`
	NewOrder   string `json:"newOrder"`
	NewAuthz   string `json:"newAuthz"`
	RevokeCert string `json:"revokeCert"`
	KeyChange  string `json:"keyChange"`
	Meta       Metadata `json:"meta"`
}

func (d *directoryInfo) path(r Resource) string {
	switch r {
	case NewNonce:
		return d.NewNonce
	case NewAccount:
		return d.NewAccount
	case NewOrder:
		return d.NewOrder
	case NewAuthz:
		return d.NewAuthz
	case RevokeCert:
		return d.RevokeCert
	case KeyChange:
		return d.KeyChange
	default:
		return ""
	}
}

// Metadata is derived from the directory's "meta" field. It may be
// empty but is never nil.
type Metadata struct {
	TermsOfServiceURL       string   `json:"termsOfService,omitempty"`
	WebsiteURL              string   `json:"website,omitempty"`
	CAAIdentities           []string `json:"caaIdentities,omitempty"`
	ExternalAccountRequired bool     `json:"externalAccountRequired,omitempty"`
}

// Problem re-exports problem.Problem under the session package for
// callers that only import session; the errs, resource and challenge
// packages use problem.Problem directly.
type Problem = problem.Problem
