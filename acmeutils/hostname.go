package acmeutils

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeHostname validates and normalizes a hostname for use as a
// DNS identifier value: a single trailing dot is stripped, empty labels
// are rejected, IDN labels are punycode-encoded, and a single leading
// wildcard label ("*.") is preserved but not itself validated as a DNS
// label.
func NormalizeHostname(hostname string) (string, error) {
	hostname = strings.TrimSuffix(hostname, ".")
	if hostname == "" {
		return "", fmt.Errorf("acmeutils: empty hostname")
	}

	wildcard := false
	if strings.HasPrefix(hostname, "*.") {
		wildcard = true
		hostname = hostname[2:]
	}

	if strings.Contains(hostname, "*") {
		return "", fmt.Errorf("acmeutils: wildcard must be a single leading label: %q", hostname)
	}

	for _, label := range strings.Split(hostname, ".") {
		if label == "" {
			return "", fmt.Errorf("acmeutils: empty label in hostname %q", hostname)
		}
	}

	out, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return "", fmt.Errorf("acmeutils: invalid hostname %q: %w", hostname, err)
	}

	if wildcard {
		out = "*." + out
	}

	return out, nil
}
