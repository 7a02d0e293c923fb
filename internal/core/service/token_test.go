package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/core/domain"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	token, err := signer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	username, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if username != "alice" {
		t.Errorf("expected alice, got %q", username)
	}
}

func TestTokenSigner_WrongSecret(t *testing.T) {
	token, err := NewTokenSigner("secret-a", time.Hour).Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewTokenSigner("secret-b", time.Hour).Verify(token); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestTokenSigner_Tampered(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	token, err := signer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := signer.Verify(tampered); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestTokenSigner_Expired(t *testing.T) {
	// A non-positive ttl falls back to the default, so a tiny positive ttl
	// is the shortest-lived token we can build.
	signer := NewTokenSigner("secret", time.Nanosecond)
	token, err := signer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(time.Second + 100*time.Millisecond)

	if _, err := signer.Verify(token); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestTokenSigner_Garbage(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	for _, token := range []string{"", "abc", "a.b.c"} {
		if _, err := signer.Verify(token); !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Errorf("token %q: expected ErrNotAuthenticated, got %v", token, err)
		}
	}
}
