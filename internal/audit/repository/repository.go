package repository

import (
	"context"
	"time"

	"staybook/authcore/internal/audit/domain"
)

// Filter narrows a List query. Zero values mean "no constraint".
type Filter struct {
	ActorID string
	From    time.Time
	To      time.Time
	Limit   int32
	Offset  int32
}

// Repository defines persistence for audit entries. Append-only: there is no
// update or delete.
type Repository interface {
	Append(ctx context.Context, e *domain.Entry) error
	// List returns entries matching the filter, newest first, paginated by
	// Limit/Offset. Returns an error only on database failures.
	List(ctx context.Context, f Filter) ([]*domain.Entry, error)
}
