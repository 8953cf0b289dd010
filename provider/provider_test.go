package provider

import "testing"

func TestResolveDefaultForArbitraryHTTPS(t *testing.T) {
	p, err := Resolve("https://ca.example.com/directory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != Default {
		t.Fatalf("expected Default provider, got %T", p)
	}
}

func TestResolveLetsEncryptLive(t *testing.T) {
	p, err := Resolve("https://acme-v02.api.letsencrypt.org/directory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != LetsEncrypt {
		t.Fatalf("expected LetsEncrypt provider, got %T", p)
	}
}

func TestResolveLetsEncryptDeprecatedV1URL(t *testing.T) {
	p, err := Resolve("https://acme-v01.api.letsencrypt.org/directory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != LetsEncrypt {
		t.Fatalf("expected LetsEncrypt provider for the deprecated v1 URL, got %T", p)
	}
}

func TestResolvePebble(t *testing.T) {
	p, err := Resolve("https://localhost:14000/dir")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != Pebble {
		t.Fatalf("expected Pebble provider, got %T", p)
	}
}

func TestResolveNoProvider(t *testing.T) {
	if _, err := Resolve("http://insecure.example.com/directory"); err != ErrNoProvider {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}
