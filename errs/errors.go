// Package errs provides the typed error taxonomy used across acmecore.
//
// The ACME core distinguishes transport failures, malformed responses,
// well-formed server-side problems and a few special control values
// (bad-nonce retry, Retry-After, terms-of-service prompts) from plain
// caller-contract violations. See package problem for the RFC 7807
// payload these errors often carry.
package errs

import (
	"fmt"
	"time"

	"github.com/jojo-liu/acmecore/problem"
)

// NetworkError wraps a transport-level failure: DNS, TLS, connection
// reset, timeout. Retriable at the application's discretion.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error requesting %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Temporary() bool { return true }

// ProtocolError indicates a malformed server response: a missing
// required field, a type mismatch on unmarshal, an invalid URL where a
// valid one was required. Not retriable.
type ProtocolError struct {
	Context string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Context)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NewProtocolError builds a ProtocolError with just a context message.
func NewProtocolError(context string) *ProtocolError {
	return &ProtocolError{Context: context}
}

// ServerError represents an HTTP 4xx or 5xx response. Problem is set
// when the body is an application/problem+json document, and nil
// otherwise. Sub-kinds are discriminated by Problem.Type.
type ServerError struct {
	StatusCode int
	Problem    *problem.Problem
	RawBody    []byte
}

func (e *ServerError) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("server error (HTTP %d): %s: %s", e.StatusCode, e.Problem.Type, e.Problem.Detail)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.StatusCode)
}

// Temporary reports whether the status code suggests the request is
// worth retrying later.
func (e *ServerError) Temporary() bool {
	switch e.StatusCode {
	case 202, 408, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsBadNonce reports whether this ServerError is the badNonce problem
// type, the one case the transport retries transparently.
func (e *ServerError) IsBadNonce() bool {
	return e.Problem != nil && e.Problem.Type == "urn:ietf:params:acme:error:badNonce"
}

// IsRateLimited reports whether the server rejected the request for
// exceeding a rate limit.
func (e *ServerError) IsRateLimited() bool {
	return e.Problem != nil && e.Problem.Type == "urn:ietf:params:acme:error:rateLimited"
}

// BadNonce is a convenience constructor recognising the special
// server error the connection layer retries, with backoff, until its
// Backoff.MaxTries is reached.
func BadNonce(statusCode int, p *problem.Problem) *ServerError {
	return &ServerError{StatusCode: statusCode, Problem: p}
}

// RetryAfter is not strictly an error condition; it carries the instant
// at which the caller should retry a poll. LoadOrder, LoadAuthorization
// and challenge.Client.Update return it instead of blocking, so the
// application decides whether to sleep.
type RetryAfter struct {
	At time.Time
}

func (e *RetryAfter) Error() string {
	return fmt.Sprintf("retry after %s", e.At.Format(time.RFC3339))
}

// UserActionRequired signals that the server demands agreement to new
// terms of service before the request can proceed.
type UserActionRequired struct {
	TermsOfServiceURL string
	Problem           *problem.Problem
}

func (e *UserActionRequired) Error() string {
	return fmt.Sprintf("user action required: agree to terms of service at %s", e.TermsOfServiceURL)
}

// IllegalArgument indicates a caller contract violation: a nil URL, an
// unrecognised Resource, a nil Session passed where one was mandatory.
type IllegalArgument struct {
	Context string
}

func (e *IllegalArgument) Error() string {
	return fmt.Sprintf("illegal argument: %s", e.Context)
}

// NewIllegalArgument builds an IllegalArgument with the given context
// message.
func NewIllegalArgument(context string) *IllegalArgument {
	return &IllegalArgument{Context: context}
}
