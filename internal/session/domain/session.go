package domain

import "time"

// SessionRecord is one row of the durable session ledger: the system of record
// for whether a session key is currently valid. One row per login; rows are
// deactivated, never deleted, so the ledger doubles as an audit trail.
type SessionRecord struct {
	ID             string
	SessionKey     string // matches the ephemeral cache key, unique
	CredentialID   string
	DeviceClass    DeviceClass
	IsActive       bool
	ExpiresAt      *time.Time // nil means no expiry
	UserAgent      string
	IP             string
	LastAccessedAt *time.Time
	DeactivatedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Expired reports whether the record's expiry is set and has passed at now.
// An active row past its expiry must never be treated as valid by any reader,
// even before it is physically deactivated.
func (s *SessionRecord) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
