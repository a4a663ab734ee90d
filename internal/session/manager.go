// Package session issues, renews, expires, and revokes sessions on a sliding
// inactivity timeout. Expiry is evaluated lazily on access; no background
// sweep is needed for correctness.
package session

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	accountdomain "staybook/authcore/internal/account/domain"
	"staybook/authcore/internal/session/domain"
	"staybook/authcore/internal/session/repository"
)

// Sentinel errors for session resolution; callers map them to denial outcomes.
var (
	ErrNotFound        = errors.New("session not found")
	ErrExpired         = errors.New("session expired")
	ErrRevoked         = errors.New("session revoked")
	ErrAccountUnusable = errors.New("account is inactive or deleted")
)

// lockShards is the number of mutex shards serializing per-session writes.
const lockShards = 64

// Manager owns session lifecycle. Writes to a given session are serialized
// through a shard lock keyed by session id.
type Manager struct {
	store   repository.Repository
	timeout time.Duration
	shards  [lockShards]sync.Mutex
	nowF    func() time.Time
}

// NewManager returns a Manager over store with the given sliding inactivity timeout.
func NewManager(store repository.Repository, timeout time.Duration) *Manager {
	return &Manager{store: store, timeout: timeout, nowF: func() time.Time { return time.Now().UTC() }}
}

// Create mints an Active session for a verified account, snapshotting its role.
// Returns ErrAccountUnusable for inactive or soft-deleted accounts; those can
// never produce a valid session.
func (m *Manager) Create(ctx context.Context, acct *accountdomain.Account) (*domain.Session, error) {
	if !acct.Usable() {
		return nil, ErrAccountUnusable
	}
	now := m.nowF()
	s := &domain.Session{
		ID:             uuid.New().String(),
		AccountID:      acct.ID,
		Role:           acct.Role,
		CreatedAt:      now,
		LastActivityAt: now,
		State:          domain.StateActive,
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Touch slides the session's inactivity window forward to now and returns the
// still-Active session. If the timeout has elapsed since the last activity the
// session transitions to Expired and ErrExpired is returned. Touching an
// Expired or Revoked session always fails without resurrecting it.
func (m *Manager) Touch(ctx context.Context, id string, now time.Time) (*domain.Session, error) {
	shard := m.shardFor(id)
	shard.Lock()
	defer shard.Unlock()

	s, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	switch s.State {
	case domain.StateRevoked:
		return nil, ErrRevoked
	case domain.StateExpired:
		return nil, ErrExpired
	}
	if now.Sub(s.LastActivityAt) > m.timeout {
		if err := m.store.SetState(ctx, id, domain.StateExpired, now); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}
	if now.After(s.LastActivityAt) {
		if err := m.store.UpdateActivity(ctx, id, now); err != nil {
			return nil, err
		}
		s.LastActivityAt = now
	}
	return s, nil
}

// Revoke transitions the session to Revoked. Idempotent: revoking an already
// revoked or expired session is a no-op, not an error.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	shard := m.shardFor(id)
	shard.Lock()
	defer shard.Unlock()

	s, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s == nil || s.Terminal() {
		return nil
	}
	return m.store.SetState(ctx, id, domain.StateRevoked, m.nowF())
}

// Remaining returns how much inactivity budget the session has left as of now,
// clamped at zero. Terminal sessions always report zero.
func (m *Manager) Remaining(s *domain.Session, now time.Time) time.Duration {
	if s == nil || s.Terminal() {
		return 0
	}
	left := m.timeout - now.Sub(s.LastActivityAt)
	if left < 0 {
		return 0
	}
	return left
}

// Timeout returns the configured sliding inactivity timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

func (m *Manager) shardFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.shards[h.Sum32()%lockShards]
}
