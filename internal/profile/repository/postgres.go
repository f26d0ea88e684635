package repository

import (
	"context"
	"database/sql"
	"errors"

	"session-authority/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByCredentialID returns the profile owned by credentialID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByCredentialID(ctx context.Context, credentialID string) (*domain.AccountProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, credential_id, organizational_rank, created_at, updated_at
		 FROM account_profiles WHERE credential_id = $1`, credentialID)
	var p domain.AccountProfile
	var rank sql.NullString
	err := row.Scan(&p.ID, &p.CredentialID, &rank, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if rank.Valid {
		v := domain.OrganizationalRank(rank.String)
		p.OrganizationalRank = &v
	}
	return &p, nil
}

// Create persists the profile. The profile must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.AccountProfile) error {
	var rank sql.NullString
	if p.OrganizationalRank != nil {
		rank = sql.NullString{String: string(*p.OrganizationalRank), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_profiles (id, credential_id, organizational_rank, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.CredentialID, rank, p.CreatedAt, p.UpdatedAt)
	return err
}
