// Package service implements the administrative force-logout operation across
// the session ledger and the ephemeral session cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"session-authority/internal/audit"
	sessiondomain "session-authority/internal/session/domain"
	"session-authority/internal/sessioncache"
)

// ErrNoActiveSessions is returned when the target credential has no active
// session in any requested device class.
var ErrNoActiveSessions = errors.New("no active sessions for credential")

// SessionRepo is the minimal ledger repository needed by the force-logout service.
type SessionRepo interface {
	ListActiveByCredential(ctx context.Context, credentialID string, classes []sessiondomain.DeviceClass) ([]*sessiondomain.SessionRecord, error)
	DeactivateAllByCredential(ctx context.Context, credentialID string, classes []sessiondomain.DeviceClass) (int64, error)
}

// ForceLogoutService destroys a credential's sessions across both stores.
type ForceLogoutService struct {
	sessions SessionRepo
	cache    sessioncache.Cache
	auditLog audit.AuditLogger
}

// NewForceLogoutService returns a ForceLogoutService with the given dependencies.
// auditLog may be nil; then nothing is audited.
func NewForceLogoutService(sessions SessionRepo, cache sessioncache.Cache, auditLog audit.AuditLogger) *ForceLogoutService {
	return &ForceLogoutService{sessions: sessions, cache: cache, auditLog: auditLog}
}

// ForceLogout deactivates every active session of credentialID across the
// requested device classes. Cache entries are destroyed before the ledger rows
// flip: if the bulk update then fails, the worst outcome is a ledger row still
// active whose key no longer resolves in the cache, which the request gate
// cannot observe without a live key. The inverse ordering would leave a window
// where the cache still grants access to a deactivated session.
// Returns the number of ledger rows deactivated; ErrNoActiveSessions when the
// credential had none.
func (s *ForceLogoutService) ForceLogout(ctx context.Context, credentialID string, classes []sessiondomain.DeviceClass) (int64, error) {
	if len(classes) == 0 {
		classes = sessiondomain.AllDeviceClasses
	}
	for _, c := range classes {
		if !c.Valid() {
			return 0, fmt.Errorf("force logout: unknown device class %q", c)
		}
	}

	active, err := s.sessions.ListActiveByCredential(ctx, credentialID, classes)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, ErrNoActiveSessions
	}

	// Best-effort cache teardown; individual failures never abort the sweep.
	for _, rec := range active {
		if derr := s.cache.Destroy(ctx, rec.SessionKey); derr != nil {
			log.Printf("force logout: destroy cache entry %s: %v", rec.SessionKey, derr)
		}
	}

	n, err := s.sessions.DeactivateAllByCredential(ctx, credentialID, classes)
	if err != nil {
		return 0, fmt.Errorf("force logout: deactivate ledger rows: %w", err)
	}
	if s.auditLog != nil {
		s.auditLog.LogEvent(ctx, credentialID, "forced_logout", "session", strconv.FormatInt(n, 10))
	}
	return n, nil
}
