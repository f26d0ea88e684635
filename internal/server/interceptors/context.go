package interceptors

import (
	"context"

	credentialdomain "session-authority/internal/credential/domain"
	sessiondomain "session-authority/internal/session/domain"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// Identity is the validated request identity attached by the request gate:
// the credential, its freshly resolved effective role, the device class
// recorded at login, and the opaque session key.
type Identity struct {
	CredentialID string
	Role         credentialdomain.Role
	DeviceClass  sessiondomain.DeviceClass
	SessionKey   string
}

// WithIdentity returns a context carrying the validated identity.
// Authorization filters and handlers read it via GetIdentity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the validated identity and true if the request passed
// the gate; otherwise a zero Identity and false.
func GetIdentity(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok
}
