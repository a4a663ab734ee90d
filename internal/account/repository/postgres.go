package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"staybook/authcore/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_hash, role, active, deleted_at, created_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByEmail returns the account for email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// Create persists the account. The account must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	var deletedAt sql.NullTime
	if a.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *a.DeletedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, role, active, deleted_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Email, a.PasswordHash, string(a.Role), a.Active, deletedAt, a.CreatedAt)
	return err
}

// UpdatePasswordHash replaces the stored hash for the account with the given id.
// Used by rehash-on-login; live sessions are untouched.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return err
}

// UpdateRole changes the account's role. Takes effect for new sessions only;
// existing sessions keep their role snapshot.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET role = $2 WHERE id = $1`, id, string(role))
	return err
}

// SetActive flips the account's active flag.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET active = $2 WHERE id = $1`, id, active)
	return err
}

// SoftDelete marks the account deleted. Rows are never removed by this core.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, time.Now().UTC())
	return err
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		a         domain.Account
		role      string
		deletedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.Active, &deletedAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Role = domain.Role(role)
	if deletedAt.Valid {
		t := deletedAt.Time
		a.DeletedAt = &t
	}
	return &a, nil
}
