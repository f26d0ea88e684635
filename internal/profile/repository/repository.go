package repository

import (
	"context"

	"session-authority/internal/profile/domain"
)

// Repository defines persistence for account profiles.
type Repository interface {
	GetByCredentialID(ctx context.Context, credentialID string) (*domain.AccountProfile, error)
	Create(ctx context.Context, p *domain.AccountProfile) error
}
