// Package resource implements the RFC 8555 Account, Order,
// Authorization, and Certificate resources and the operations that
// create, load, and mutate them. It generalizes the teacher's
// api-res.go, which held these operations as methods of a single
// RealmClient, into resource.Client methods operating over an
// injected session.Session and connection.Connection.
package resource

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jojo-liu/acmecore/challenge"
	"github.com/jojo-liu/acmecore/problem"
)

// IdentifierType is the type of an Identifier value. RFC 8555 defines
// only "dns"; RFC 8738 adds "ip".
type IdentifierType string

const (
	IdentifierDNS IdentifierType = "dns"
	IdentifierIP  IdentifierType = "ip"
)

// Identifier names a resource for which authorization is required.
type Identifier struct {
	Type  IdentifierType `json:"type"`
	Value string         `json:"value"`
}

// AccountStatus is the closed set of RFC 8555 §7.1.2 account statuses.
type AccountStatus string

const (
	AccountValid       AccountStatus = "valid"
	AccountDeactivated AccountStatus = "deactivated"
	AccountRevoked     AccountStatus = "revoked"
)

// IsWellFormed reports whether s is a recognized account status.
func (s AccountStatus) IsWellFormed() bool {
	switch s {
	case AccountValid, AccountDeactivated, AccountRevoked:
		return true
	default:
		return false
	}
}

// IsFinal reports whether s is a terminal account status.
func (s AccountStatus) IsFinal() bool {
	switch s {
	case AccountDeactivated, AccountRevoked:
		return true
	default:
		return false
	}
}

func (s *AccountStatus) UnmarshalJSON(data []byte) error {
	var ss string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	if !AccountStatus(ss).IsWellFormed() {
		return fmt.Errorf("resource: not a valid account status: %#v", ss)
	}
	*s = AccountStatus(ss)
	return nil
}

// Account represents an ACME account. The only fields a client may
// modify are ContactURIs, TermsOfServiceAgreed, and Status (only to
// AccountDeactivated); the rest are read-only, sent by the server.
type Account struct {
	URL string `json:"-"`

	Status               AccountStatus `json:"status,omitempty"`
	ContactURIs           []string      `json:"contact,omitempty"`
	TermsOfServiceAgreed  bool          `json:"termsOfServiceAgreed,omitempty"`
	OrdersURL             string        `json:"orders,omitempty"`
}

// OrderStatus is the closed set of RFC 8555 §7.1.6 order statuses.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderReady      OrderStatus = "ready"
	OrderProcessing OrderStatus = "processing"
	OrderValid      OrderStatus = "valid"
	OrderInvalid    OrderStatus = "invalid"
)

func (s OrderStatus) IsWellFormed() bool {
	switch s {
	case OrderPending, OrderReady, OrderProcessing, OrderValid, OrderInvalid:
		return true
	default:
		return false
	}
}

func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderValid, OrderInvalid:
		return true
	default:
		return false
	}
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var ss string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	if !OrderStatus(ss).IsWellFormed() {
		return fmt.Errorf("resource: not a valid order status: %#v", ss)
	}
	*s = OrderStatus(ss)
	return nil
}

// Order represents a certificate issuance request.
type Order struct {
	URL string `json:"-"`

	Status            OrderStatus  `json:"status,omitempty"`
	Expires           time.Time    `json:"expires,omitempty"`
	Identifiers       []Identifier `json:"identifiers,omitempty"`
	NotBefore         time.Time    `json:"notBefore,omitempty"`
	NotAfter          time.Time    `json:"notAfter,omitempty"`
	Error             *problem.Problem `json:"error,omitempty"`
	AuthorizationURLs []string     `json:"authorizations,omitempty"`
	FinalizeURL       string       `json:"finalize,omitempty"`
	CertificateURL    string       `json:"certificate,omitempty"`
}

// AuthorizationStatus is the closed set of RFC 8555 §7.1.6 authorization
// statuses.
type AuthorizationStatus string

const (
	AuthorizationPending      AuthorizationStatus = "pending"
	AuthorizationValid        AuthorizationStatus = "valid"
	AuthorizationInvalid      AuthorizationStatus = "invalid"
	AuthorizationDeactivated  AuthorizationStatus = "deactivated"
	AuthorizationExpired      AuthorizationStatus = "expired"
	AuthorizationRevoked      AuthorizationStatus = "revoked"
)

func (s AuthorizationStatus) IsWellFormed() bool {
	switch s {
	case AuthorizationPending, AuthorizationValid, AuthorizationInvalid,
		AuthorizationDeactivated, AuthorizationExpired, AuthorizationRevoked:
		return true
	default:
		return false
	}
}

func (s AuthorizationStatus) IsFinal() bool {
	switch s {
	case AuthorizationValid, AuthorizationInvalid, AuthorizationDeactivated,
		AuthorizationExpired, AuthorizationRevoked:
		return true
	default:
		return false
	}
}

func (s *AuthorizationStatus) UnmarshalJSON(data []byte) error {
	var ss string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	if !AuthorizationStatus(ss).IsWellFormed() {
		return fmt.Errorf("resource: not a valid authorization status: %#v", ss)
	}
	*s = AuthorizationStatus(ss)
	return nil
}

// Authorization represents an authorization which must be completed
// for one identifier before an order including it can be finalized.
// Challenges is decoded through the polymorphic challenge registry
// rather than a single concrete struct, unlike the teacher's
// Authorization.Challenges []Challenge.
type Authorization struct {
	URL string `json:"-"`

	Identifier Identifier             `json:"identifier,omitempty"`
	Status     AuthorizationStatus    `json:"status,omitempty"`
	Expires    time.Time              `json:"expires,omitempty"`
	Wildcard   bool                   `json:"wildcard,omitempty"`
	Challenges []challenge.Challenge  `json:"-"`
}

// wireAuthorization mirrors Authorization's JSON shape with an
// untyped challenges array, so each element can be dispatched through
// challenge.Create before being exposed as a challenge.Challenge.
type wireAuthorization struct {
	Identifier Identifier          `json:"identifier,omitempty"`
	Status     AuthorizationStatus `json:"status,omitempty"`
	Expires    time.Time           `json:"expires,omitempty"`
	Wildcard   bool                `json:"wildcard,omitempty"`
	Challenges []json.RawMessage   `json:"challenges,omitempty"`
}

// UnmarshalJSON dispatches each challenge object through the
// challenge package's type registry.
func (a *Authorization) UnmarshalJSON(data []byte) error {
	var w wireAuthorization
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	a.Identifier = w.Identifier
	a.Status = w.Status
	a.Expires = w.Expires
	a.Wildcard = w.Wildcard

	a.Challenges = make([]challenge.Challenge, 0, len(w.Challenges))
	for _, raw := range w.Challenges {
		ch, err := challenge.Create(raw)
		if err != nil {
			return err
		}
		a.Challenges = append(a.Challenges, ch)
	}

	return nil
}

// Certificate represents an issued certificate resource.
type Certificate struct {
	URL string `json:"-"`

	// DER-encoded certificate chain, end-entity certificate first.
	CertificateChain [][]byte `json:"-"`

	RootCertificateURL string `json:"-"`
}
