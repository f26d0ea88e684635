package repository

import (
	"context"
	"time"

	"session-authority/internal/session/domain"
)

// Repository defines persistence for the session ledger.
type Repository interface {
	// GetBySessionKey returns the record for key regardless of active state, or nil if absent.
	GetBySessionKey(ctx context.Context, sessionKey string) (*domain.SessionRecord, error)
	// Supersede atomically deactivates every active record for the new record's
	// (credential, device class) pair and inserts the new record, all in one
	// transaction serialized by a row lock. Returns the session keys of the
	// records it deactivated, for ephemeral-cache teardown by the caller.
	Supersede(ctx context.Context, rec *domain.SessionRecord) (oldKeys []string, err error)
	// Deactivate flips the active record with the given key to inactive.
	// Idempotent: a no-op when the key is absent or already inactive.
	Deactivate(ctx context.Context, sessionKey string) error
	// ListActiveByCredential returns the active records for credentialID across
	// the given device classes.
	ListActiveByCredential(ctx context.Context, credentialID string, classes []domain.DeviceClass) ([]*domain.SessionRecord, error)
	// DeactivateAllByCredential deactivates every active record for credentialID
	// across the given device classes in one statement. Returns rows affected.
	DeactivateAllByCredential(ctx context.Context, credentialID string, classes []domain.DeviceClass) (int64, error)
	// UpdateLastAccessed sets the record's last-accessed timestamp.
	UpdateLastAccessed(ctx context.Context, sessionKey string, at time.Time) error
	// DeactivateExpired deactivates active records whose expiry has passed.
	// Hygiene only; readers already reject expired rows. Returns rows affected.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
