package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"session-authority/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session ledger repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, session_key, credential_id, device_class, is_active, expires_at,
	user_agent, ip, last_accessed_at, deactivated_at, created_at, updated_at`

// GetBySessionKey returns the record for sessionKey, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetBySessionKey(ctx context.Context, sessionKey string) (*domain.SessionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM session_records WHERE session_key = $1`, sessionKey)
	return scanSession(row)
}

// Supersede runs the supersede-on-login transaction: serialize on the
// (credential, device class) pair, collect and deactivate its active rows,
// insert the new row. Row locks alone cannot serialize the empty-set case
// (two first logins both lock nothing and both insert), so the transaction
// first takes a pair-scoped advisory lock, held until commit; the partial
// unique index on active rows backstops it.
func (r *PostgresRepository) Supersede(ctx context.Context, rec *domain.SessionRecord) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || '/' || $2, 0))`,
		rec.CredentialID, string(rec.DeviceClass))
	if err != nil {
		return nil, fmt.Errorf("supersede: acquire pair lock: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT session_key FROM session_records
		 WHERE credential_id = $1 AND device_class = $2 AND is_active
		 FOR UPDATE`,
		rec.CredentialID, string(rec.DeviceClass))
	if err != nil {
		return nil, fmt.Errorf("supersede: lock active rows: %w", err)
	}
	var oldKeys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		oldKeys = append(oldKeys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if len(oldKeys) > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE session_records
			 SET is_active = FALSE, deactivated_at = $3, updated_at = $3
			 WHERE credential_id = $1 AND device_class = $2 AND is_active`,
			rec.CredentialID, string(rec.DeviceClass), now)
		if err != nil {
			return nil, fmt.Errorf("supersede: deactivate old rows: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_records (id, session_key, credential_id, device_class, is_active,
		   expires_at, user_agent, ip, last_accessed_at, deactivated_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8, NULL, $9, $9)`,
		rec.ID, rec.SessionKey, rec.CredentialID, string(rec.DeviceClass),
		timeToNullTime(rec.ExpiresAt), rec.UserAgent, rec.IP,
		timeToNullTime(rec.LastAccessedAt), now)
	if err != nil {
		return nil, fmt.Errorf("supersede: insert new row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return oldKeys, nil
}

// Deactivate marks the active record with sessionKey as inactive. No-op when
// the key is absent or the record is already inactive.
func (r *PostgresRepository) Deactivate(ctx context.Context, sessionKey string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_records
		 SET is_active = FALSE, deactivated_at = $2, updated_at = $2
		 WHERE session_key = $1 AND is_active`,
		sessionKey, now)
	return err
}

// ListActiveByCredential returns active records for credentialID limited to classes.
func (r *PostgresRepository) ListActiveByCredential(ctx context.Context, credentialID string, classes []domain.DeviceClass) ([]*domain.SessionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM session_records
		 WHERE credential_id = $1 AND device_class = ANY($2) AND is_active`,
		credentialID, classStrings(classes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.SessionRecord
	for rows.Next() {
		rec, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeactivateAllByCredential deactivates every active record for credentialID in classes.
func (r *PostgresRepository) DeactivateAllByCredential(ctx context.Context, credentialID string, classes []domain.DeviceClass) (int64, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE session_records
		 SET is_active = FALSE, deactivated_at = $3, updated_at = $3
		 WHERE credential_id = $1 AND device_class = ANY($2) AND is_active`,
		credentialID, classStrings(classes), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateLastAccessed sets the record's last-accessed timestamp for sessionKey.
func (r *PostgresRepository) UpdateLastAccessed(ctx context.Context, sessionKey string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_records SET last_accessed_at = $2, updated_at = $2 WHERE session_key = $1`,
		sessionKey, at)
	return err
}

// DeactivateExpired deactivates active records whose expiry has passed.
func (r *PostgresRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE session_records
		 SET is_active = FALSE, deactivated_at = $1, updated_at = $1
		 WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1`,
		now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func classStrings(classes []domain.DeviceClass) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = string(c)
	}
	return out
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInto(s rowScanner) (*domain.SessionRecord, error) {
	var rec domain.SessionRecord
	var class string
	var expiresAt, lastAccessedAt, deactivatedAt sql.NullTime
	err := s.Scan(&rec.ID, &rec.SessionKey, &rec.CredentialID, &class, &rec.IsActive,
		&expiresAt, &rec.UserAgent, &rec.IP, &lastAccessedAt, &deactivatedAt,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.DeviceClass = domain.DeviceClass(class)
	rec.ExpiresAt = nullTimeToPtr(expiresAt)
	rec.LastAccessedAt = nullTimeToPtr(lastAccessedAt)
	rec.DeactivatedAt = nullTimeToPtr(deactivatedAt)
	return &rec, nil
}

func scanSession(row *sql.Row) (*domain.SessionRecord, error) {
	rec, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanSessionRows(rows *sql.Rows) (*domain.SessionRecord, error) {
	return scanInto(rows)
}
