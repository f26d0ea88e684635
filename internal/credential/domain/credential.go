package domain

import (
	"errors"
	"time"
)

// Role is the authorization role attached to a credential. BaseRole is what is
// stored; the effective role additionally folds in organizational rank.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// Credential is the login identity. Never hard-deleted; disabled credentials
// keep their rows and fail every authority check.
type Credential struct {
	ID             string
	Email          string
	PasswordDigest string
	BaseRole       Role
	IsDisabled     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the credential for persistence. Returns an error describing the first validation failure.
func (c *Credential) Validate() error {
	if c.Email == "" {
		return errors.New("email is required")
	}
	if c.PasswordDigest == "" {
		return errors.New("password digest is required")
	}
	if c.BaseRole == "" {
		c.BaseRole = RoleStaff
	}
	if !c.BaseRole.Valid() {
		return errors.New("unknown base role")
	}
	return nil
}

// UpdatePatch carries the mutable credential fields. Nil fields are left unchanged.
type UpdatePatch struct {
	PasswordDigest *string
	BaseRole       *Role
	IsDisabled     *bool
}
