package repository

import (
	"context"
	"time"

	"staybook/authcore/internal/attempt/domain"
)

// Repository defines persistence for login attempt records.
type Repository interface {
	// Append adds one attempt record. Records are never updated.
	Append(ctx context.Context, rec *domain.Record) error
	// RecentByEmail returns up to limit newest records for email, newest first.
	RecentByEmail(ctx context.Context, email string, limit int) ([]*domain.Record, error)
	// PruneBefore removes records older than cutoff. Retention only; lockout
	// evaluation never depends on pruning having run.
	PruneBefore(ctx context.Context, cutoff time.Time) error
}
