package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"session-authority/internal/credential/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const credentialColumns = `id, email, password_digest, base_role, is_disabled, created_at, updated_at`

// GetByID returns the credential for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)
	return scanCredential(row)
}

// GetByEmail returns the credential for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE email = $1`, email)
	return scanCredential(row)
}

// CountByRole returns the number of credentials whose base role is role,
// including disabled ones. Admin bootstrap uses this as its single-use guard.
func (r *PostgresRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credentials WHERE base_role = $1`, string(role)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Create persists the credential. The credential must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, email, password_digest, base_role, is_disabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Email, c.PasswordDigest, string(c.BaseRole), c.IsDisabled, c.CreatedAt, c.UpdatedAt)
	return err
}

// Update applies the non-nil fields of patch to the credential with the given id.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch domain.UpdatePatch) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET
		   password_digest = COALESCE($2, password_digest),
		   base_role       = COALESCE($3, base_role),
		   is_disabled     = COALESCE($4, is_disabled),
		   updated_at      = $5
		 WHERE id = $1`,
		id, patch.PasswordDigest, roleToNull(patch.BaseRole), patch.IsDisabled, now)
	return err
}

func roleToNull(r *domain.Role) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}

func scanCredential(row *sql.Row) (*domain.Credential, error) {
	var c domain.Credential
	var role string
	err := row.Scan(&c.ID, &c.Email, &c.PasswordDigest, &role, &c.IsDisabled, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.BaseRole = domain.Role(role)
	return &c, nil
}
