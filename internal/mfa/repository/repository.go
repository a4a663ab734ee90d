package repository

import (
	"context"
	"time"

	"staybook/authcore/internal/mfa/domain"
)

// Repository defines persistence for TOTP enrollments. One enrollment per
// account; re-enrolling replaces the previous secret.
type Repository interface {
	GetByAccountID(ctx context.Context, accountID string) (*domain.Enrollment, error)
	Upsert(ctx context.Context, e *domain.Enrollment) error
	// Confirm stamps confirmed_at for the account's enrollment.
	Confirm(ctx context.Context, accountID string, at time.Time) error
	Delete(ctx context.Context, accountID string) error
}
