package repository

import (
	"context"
	"time"

	"staybook/authcore/internal/session/domain"
)

// Repository defines persistence for sessions. Sessions are never deleted;
// lifecycle ends by state transition.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// UpdateActivity moves last_activity_at forward for an active session.
	UpdateActivity(ctx context.Context, id string, at time.Time) error
	// SetState records a terminal transition. at is stored as revoked_at when
	// the state is StateRevoked.
	SetState(ctx context.Context, id string, state domain.State, at time.Time) error
	// ExpireIdleBefore marks active sessions with last_activity_at older than
	// cutoff as expired, returning how many rows changed. Storage reclaim for
	// the sweeper; lazy expiry on access stays authoritative.
	ExpireIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
