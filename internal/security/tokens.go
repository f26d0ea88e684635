package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a session token is malformed, tampered, or expired.
	ErrInvalidToken = errors.New("invalid session token")
)

// SessionClaims holds the JWT claims wrapped around an opaque session key on the wire.
// The session key travels in jti; sub carries the credential id and DeviceClass the
// device class so a forged wrapper is rejected before any store round-trip.
type SessionClaims struct {
	jwt.RegisteredClaims
	DeviceClass string `json:"device_class"`
}

// SessionTokenCodec wraps opaque session keys in signed HS256 tokens for transport.
// The ledger and cache only ever see the unwrapped key.
type SessionTokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionTokenCodec returns a codec signing with secret. ttl bounds the
// wrapper lifetime and should equal the configured session TTL.
func NewSessionTokenCodec(secret string, ttl time.Duration) *SessionTokenCodec {
	return &SessionTokenCodec{secret: []byte(secret), ttl: ttl}
}

// Wrap signs a transport token carrying the session key, credential id, and device class.
func (c *SessionTokenCodec) Wrap(sessionKey, credentialID, deviceClass string) (string, error) {
	if sessionKey == "" {
		return "", ErrInvalidToken
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionKey,
			Subject:   credentialID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		DeviceClass: deviceClass,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Unwrap verifies the wrapper signature and expiry and returns the embedded
// session key. Returns ErrInvalidToken on any verification failure; the caller
// must not distinguish failure causes to clients.
func (c *SessionTokenCodec) Unwrap(token string) (sessionKey string, err error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
