package security

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenCodec_RoundTrip(t *testing.T) {
	codec := NewSessionTokenCodec("test-secret", time.Hour)

	token, err := codec.Wrap("key-123", "cred-1", "pc")
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if token == "" {
		t.Fatal("Wrap returned empty token")
	}

	key, err := codec.Unwrap(token)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if key != "key-123" {
		t.Errorf("Unwrap key = %q, want %q", key, "key-123")
	}
}

func TestSessionTokenCodec_EmptySessionKey(t *testing.T) {
	codec := NewSessionTokenCodec("test-secret", time.Hour)
	if _, err := codec.Wrap("", "cred-1", "pc"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Wrap with empty key: err = %v, want ErrInvalidToken", err)
	}
}

func TestSessionTokenCodec_WrongSecret(t *testing.T) {
	codec := NewSessionTokenCodec("test-secret", time.Hour)
	other := NewSessionTokenCodec("other-secret", time.Hour)

	token, err := codec.Wrap("key-123", "cred-1", "pc")
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if _, err := other.Unwrap(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Unwrap with wrong secret: err = %v, want ErrInvalidToken", err)
	}
}

func TestSessionTokenCodec_Expired(t *testing.T) {
	codec := NewSessionTokenCodec("test-secret", -time.Minute)

	token, err := codec.Wrap("key-123", "cred-1", "pc")
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if _, err := codec.Unwrap(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Unwrap expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestSessionTokenCodec_Malformed(t *testing.T) {
	codec := NewSessionTokenCodec("test-secret", time.Hour)

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.Unwrap(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Unwrap(%q): err = %v, want ErrInvalidToken", tc.token, err)
			}
		})
	}
}
