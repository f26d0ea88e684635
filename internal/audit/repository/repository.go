package repository

import (
	"context"

	"session-authority/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	ListByCredential(ctx context.Context, credentialID string, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
