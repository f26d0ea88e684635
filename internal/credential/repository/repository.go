package repository

import (
	"context"

	"session-authority/internal/credential/domain"
)

// Repository defines persistence for credentials.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	Create(ctx context.Context, c *domain.Credential) error
	Update(ctx context.Context, id string, patch domain.UpdatePatch) error
}
