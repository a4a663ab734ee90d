package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"staybook/authcore/internal/mfa/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an enrollment repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByAccountID returns the account's enrollment, or nil if not enrolled.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Enrollment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT account_id, secret, confirmed_at, created_at
		 FROM mfa_enrollments WHERE account_id = $1`, accountID)

	var (
		e           domain.Enrollment
		confirmedAt sql.NullTime
	)
	err := row.Scan(&e.AccountID, &e.Secret, &confirmedAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		e.ConfirmedAt = &t
	}
	return &e, nil
}

// Upsert writes the enrollment, replacing any previous secret for the account.
// A replaced secret loses its confirmation.
func (r *PostgresRepository) Upsert(ctx context.Context, e *domain.Enrollment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mfa_enrollments (account_id, secret, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id)
		 DO UPDATE SET secret = EXCLUDED.secret, confirmed_at = NULL, created_at = EXCLUDED.created_at`,
		e.AccountID, e.Secret, e.CreatedAt)
	return err
}

// Confirm stamps confirmed_at for an unconfirmed enrollment.
func (r *PostgresRepository) Confirm(ctx context.Context, accountID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mfa_enrollments SET confirmed_at = $2
		 WHERE account_id = $1 AND confirmed_at IS NULL`, accountID, at)
	return err
}

// Delete removes the account's enrollment.
func (r *PostgresRepository) Delete(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM mfa_enrollments WHERE account_id = $1`, accountID)
	return err
}
