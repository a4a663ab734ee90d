package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"staybook/authcore/internal/audit/domain"
)

// defaultListLimit caps unpaginated List calls.
const defaultListLimit = 100

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists one entry. The entry must have ID set.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.Entry) error {
	actor := sql.NullString{String: e.ActorID, Valid: e.ActorID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, actor_id, action, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, actor, e.Action, e.IP, e.Metadata, e.CreatedAt)
	return err
}

// List returns entries matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*domain.Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ActorID != "" {
		where = append(where, "actor_id = "+arg(f.ActorID))
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "created_at < "+arg(f.To))
	}
	query := `SELECT id, actor_id, action, ip, metadata, created_at FROM audit_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		var (
			e     domain.Entry
			actor sql.NullString
		)
		if err := rows.Scan(&e.ID, &actor, &e.Action, &e.IP, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			e.ActorID = actor.String
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
