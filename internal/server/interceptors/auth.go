package interceptors

import (
	"context"
	"errors"
	"log"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	authservice "session-authority/internal/auth/service"
	"session-authority/internal/security"
	"session-authority/internal/sessioncache"
)

// SessionTokenHeader is the gRPC metadata key carrying the signed session token.
const SessionTokenHeader = "x-session-token"

// errUnauthorized is the uniform denial. Internal failure reasons never reach
// the client.
var errUnauthorized = status.Error(codes.Unauthenticated, "missing or invalid session")

// AuthUnary returns the request gate: a unary interceptor that unwraps the
// session token from metadata, loads the claimed identity from the ephemeral
// cache, validates it against the session ledger, and resyncs the cached role
// on drift. When validation denies the session it tears down both stores
// best-effort; store failures deny the request but leave both stores alone.
// Either way the client sees a uniform Unauthenticated.
// publicMethods is the set of full method names that bypass the gate.
func AuthUnary(
	codec *security.SessionTokenCodec,
	cache sessioncache.Cache,
	auth *authservice.AuthService,
	publicMethods map[string]bool,
) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		token := extractSessionToken(ctx)
		if token == "" {
			return nil, errUnauthorized
		}
		sessionKey, err := codec.Unwrap(token)
		if err != nil {
			return nil, errUnauthorized
		}

		payload, err := cache.Get(ctx, sessionKey)
		if err != nil {
			log.Printf("gate: cache get: %v", err)
			return nil, errUnauthorized
		}
		if payload == nil {
			// No claimed identity; nothing to tear down.
			return nil, errUnauthorized
		}

		role, err := auth.ValidateActiveSession(ctx, authservice.Claim{
			SessionKey:   sessionKey,
			CredentialID: payload.CredentialID,
			DeviceClass:  payload.DeviceClass,
		})
		if err != nil {
			if isSessionDenial(err) {
				// Dual-store teardown, best-effort in both stores: neither failure
				// changes the verdict, and the next request retries implicitly.
				if derr := auth.DeactivateSessionByKey(ctx, sessionKey); derr != nil {
					log.Printf("gate: deactivate session: %v", derr)
				}
				if derr := cache.Destroy(ctx, sessionKey); derr != nil {
					log.Printf("gate: destroy cache entry: %v", derr)
				}
			} else {
				// Transient store failure. The session may still be valid, so the
				// request is denied without touching either store.
				log.Printf("gate: validate session: %v", err)
			}
			return nil, errUnauthorized
		}

		if role != payload.CachedRole {
			// Rank changes take effect here, without re-login. Persist failure
			// is tolerated; the next validated request resyncs again.
			payload.CachedRole = role
			if serr := cache.Save(ctx, sessionKey, payload); serr != nil {
				log.Printf("gate: resync cached role: %v", serr)
			}
		}

		ctx = WithIdentity(ctx, Identity{
			CredentialID: payload.CredentialID,
			Role:         role,
			DeviceClass:  payload.DeviceClass,
			SessionKey:   sessionKey,
		})
		return handler(ctx, req)
	}
}

// isSessionDenial reports whether err is a verdict about the session itself
// rather than a store failure. Only denials warrant tearing the session down.
func isSessionDenial(err error) bool {
	for _, denial := range []error{
		authservice.ErrNoCredential,
		authservice.ErrDisabled,
		authservice.ErrNoSession,
		authservice.ErrExpired,
		authservice.ErrMismatch,
	} {
		if errors.Is(err, denial) {
			return true
		}
	}
	return false
}

// extractSessionToken returns the session token from ctx metadata, or "" if missing.
func extractSessionToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(SessionTokenHeader)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
