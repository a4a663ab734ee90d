// Package domain holds the session entity and its lifecycle states.
package domain

import (
	"time"

	accountdomain "staybook/authcore/internal/account/domain"
)

// State is the session lifecycle state. Active is the only initial state;
// Expired and Revoked are terminal and nothing transitions out of them.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateRevoked State = "revoked"
)

// Session is an authenticated presence. Role is a snapshot taken at issuance
// and fixed for the session's lifetime; later role changes to the account only
// affect sessions issued afterwards.
type Session struct {
	ID             string
	AccountID      string
	Role           accountdomain.Role
	CreatedAt      time.Time
	LastActivityAt time.Time // monotonically non-decreasing
	State          State
	RevokedAt      *time.Time // nil unless State is StateRevoked
}

// Terminal reports whether the session is in a terminal state.
func (s *Session) Terminal() bool {
	return s.State == StateExpired || s.State == StateRevoked
}
