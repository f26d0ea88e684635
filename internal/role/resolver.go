// Package role derives the effective authorization role from organizational state.
package role

import (
	"context"
	"errors"
	"fmt"

	credentialdomain "session-authority/internal/credential/domain"
	profiledomain "session-authority/internal/profile/domain"
)

// ErrUnauthorized is returned when the credential is missing or disabled.
var ErrUnauthorized = errors.New("credential missing or disabled")

// CredentialGetter is the minimal credential lookup needed by the resolver.
type CredentialGetter interface {
	GetByID(ctx context.Context, id string) (*credentialdomain.Credential, error)
}

// ProfileGetter is the minimal profile lookup needed by the resolver.
type ProfileGetter interface {
	GetByCredentialID(ctx context.Context, credentialID string) (*profiledomain.AccountProfile, error)
}

// Resolver computes the effective role for a credential. The derivation is
// recomputed from current store state whenever authority decisions matter;
// cached roles are never trusted for decisions.
type Resolver struct {
	credentials CredentialGetter
	profiles    ProfileGetter
}

// NewResolver returns a Resolver over the given stores.
func NewResolver(credentials CredentialGetter, profiles ProfileGetter) *Resolver {
	return &Resolver{credentials: credentials, profiles: profiles}
}

// EffectiveRole returns the credential's effective role. An admin base role is
// never downgraded by organizational rank. Otherwise a manager-equivalent rank
// lifts the role to manager, else staff. Returns ErrUnauthorized when the
// credential is absent or disabled.
func (r *Resolver) EffectiveRole(ctx context.Context, credentialID string) (credentialdomain.Role, error) {
	cred, err := r.credentials.GetByID(ctx, credentialID)
	if err != nil {
		return "", fmt.Errorf("role: load credential: %w", err)
	}
	if cred == nil || cred.IsDisabled {
		return "", ErrUnauthorized
	}
	if cred.BaseRole == credentialdomain.RoleAdmin {
		return credentialdomain.RoleAdmin, nil
	}
	profile, err := r.profiles.GetByCredentialID(ctx, credentialID)
	if err != nil {
		return "", fmt.Errorf("role: load profile: %w", err)
	}
	if profile != nil && profile.OrganizationalRank != nil && profile.OrganizationalRank.ManagerEquivalent() {
		return credentialdomain.RoleManager, nil
	}
	return credentialdomain.RoleStaff, nil
}
