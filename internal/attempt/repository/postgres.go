package repository

import (
	"context"
	"database/sql"
	"time"

	"staybook/authcore/internal/attempt/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an attempt repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append adds one attempt record.
func (r *PostgresRepository) Append(ctx context.Context, rec *domain.Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_attempts (email, success, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Email, rec.Success, rec.IP, rec.UserAgent, rec.At)
	return err
}

// RecentByEmail returns up to limit newest records for email, newest first.
func (r *PostgresRepository) RecentByEmail(ctx context.Context, email string, limit int) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email, success, ip, user_agent, created_at
		 FROM login_attempts
		 WHERE email = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.Email, &rec.Success, &rec.IP, &rec.UserAgent, &rec.At); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// PruneBefore removes records older than cutoff.
func (r *PostgresRepository) PruneBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM login_attempts WHERE created_at < $1`, cutoff)
	return err
}
