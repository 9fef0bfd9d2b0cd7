package auth

import (
	"errors"
	"testing"
	"time"
)

func TestVerifierRoundTrip(t *testing.T) {
	v, err := NewVerifier("s3cret", "dev")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	token, err := v.Sign(Claims{Sub: "user-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Sub != "user-1" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifierRejectsTamperedAndExpired(t *testing.T) {
	v, _ := NewVerifier("s3cret", "dev")
	other, _ := NewVerifier("different", "dev")

	token, _ := other.Sign(Claims{Sub: "user-1"})
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	past := time.Now().Add(-48 * time.Hour)
	v.now = func() time.Time { return past }
	expired, _ := v.Sign(Claims{Sub: "user-1"})
	v.now = time.Now
	if _, err := v.Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestNewVerifierRequiresSecretInProduction(t *testing.T) {
	if _, err := NewVerifier("", "production"); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
