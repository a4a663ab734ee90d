package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	accountdomain "staybook/authcore/internal/account/domain"
	"staybook/authcore/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, role, state, created_at, last_activity_at, revoked_at
		 FROM sessions WHERE id = $1`, id)

	var (
		s         domain.Session
		role      string
		state     string
		revokedAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.AccountID, &role, &state, &s.CreatedAt, &s.LastActivityAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Role = accountdomain.Role(role)
	s.State = domain.State(state)
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return &s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, account_id, role, state, created_at, last_activity_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.AccountID, string(s.Role), string(s.State), s.CreatedAt, s.LastActivityAt)
	return err
}

// UpdateActivity moves last_activity_at forward. The predicate keeps the
// column monotonically non-decreasing even under racing touches.
func (r *PostgresRepository) UpdateActivity(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = $2
		 WHERE id = $1 AND state = 'active' AND last_activity_at <= $2`, id, at)
	return err
}

// SetState records a terminal transition. Only active sessions transition;
// a second revoke or expire is a no-op at the storage layer too.
func (r *PostgresRepository) SetState(ctx context.Context, id string, state domain.State, at time.Time) error {
	if state == domain.StateRevoked {
		_, err := r.db.ExecContext(ctx,
			`UPDATE sessions SET state = $2, revoked_at = $3
			 WHERE id = $1 AND state = 'active'`, id, string(state), at)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET state = $2 WHERE id = $1 AND state = 'active'`,
		id, string(state))
	return err
}

// ExpireIdleBefore marks idle active sessions expired and returns the count.
func (r *PostgresRepository) ExpireIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET state = 'expired'
		 WHERE state = 'active' AND last_activity_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
