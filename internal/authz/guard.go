package authz

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	accountdomain "staybook/authcore/internal/account/domain"
	"staybook/authcore/internal/audit"
	auditdomain "staybook/authcore/internal/audit/domain"
	"staybook/authcore/internal/session"
	sessiondomain "staybook/authcore/internal/session/domain"
	"staybook/authcore/internal/telemetry"
)

// Decision is the outcome of a permission check.
type Decision int

const (
	// Allow permits the operation.
	Allow Decision = iota
	// DenyUnauthenticated means there is no usable session: none presented,
	// or the presented one is invalid, expired, or revoked. Collaborating
	// views redirect to a login surface.
	DenyUnauthenticated
	// DenyForbidden means the session is valid but its role snapshot lacks
	// the capability. Collaborating views show an access-denied surface.
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	}
	return "unknown"
}

// SessionResolver resolves and renews a session by id. *session.Manager satisfies it.
type SessionResolver interface {
	Touch(ctx context.Context, id string, now time.Time) (*sessiondomain.Session, error)
}

// TokenValidator validates a session token. *security.TokenProvider satisfies it.
type TokenValidator interface {
	Validate(token string) (sessionID, accountID string, err error)
}

// Guard arbitrates every protected operation against the static role →
// capability table. Callers must not perform work or return data unless the
// decision is Allow. Every denial is recorded to the audit log.
type Guard struct {
	sessions SessionResolver
	tokens   TokenValidator
	recorder audit.Recorder
	metrics  *telemetry.Metrics
	log      zerolog.Logger
}

// NewGuard returns a Guard using the given resolver, token validator, and
// audit recorder. metrics may be nil.
func NewGuard(sessions SessionResolver, tokens TokenValidator, recorder audit.Recorder, metrics *telemetry.Metrics, log zerolog.Logger) *Guard {
	return &Guard{sessions: sessions, tokens: tokens, recorder: recorder, metrics: metrics, log: log}
}

// Check resolves token (may be empty) and decides whether its holder may use
// capability as of now. An empty token is evaluated as the anonymous role, so
// browse-only capabilities stay open; anything else is DenyUnauthenticated.
// Touch slides the session's inactivity window as a side effect, so any
// checked action counts as activity. Returns the live session on Allow for
// authenticated callers, nil otherwise.
func (g *Guard) Check(ctx context.Context, token string, capability Capability, now time.Time) (Decision, *sessiondomain.Session) {
	if token == "" {
		if RoleHas(accountdomain.RoleAnonymous, capability) {
			return Allow, nil
		}
		g.deny(ctx, "", auditdomain.ActionPermissionDenied, capability, "unauthenticated", "no session")
		return DenyUnauthenticated, nil
	}

	sessionID, accountID, err := g.tokens.Validate(token)
	if err != nil {
		g.deny(ctx, "", auditdomain.ActionPermissionDenied, capability, "unauthenticated", "invalid token")
		return DenyUnauthenticated, nil
	}

	s, err := g.sessions.Touch(ctx, sessionID, now)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			g.deny(ctx, accountID, auditdomain.ActionSessionExpired, capability, "unauthenticated", "session expired")
		case errors.Is(err, session.ErrRevoked):
			g.deny(ctx, accountID, auditdomain.ActionPermissionDenied, capability, "unauthenticated", "session revoked")
		case errors.Is(err, session.ErrNotFound):
			g.deny(ctx, accountID, auditdomain.ActionPermissionDenied, capability, "unauthenticated", "unknown session")
		default:
			// Storage fault, not a security decision; the caller's surface
			// decides how to degrade. Fail closed.
			g.log.Error().Err(err).Str("capability", string(capability)).Msg("session resolution failed")
		}
		return DenyUnauthenticated, nil
	}

	if !RoleHas(s.Role, capability) {
		g.deny(ctx, s.AccountID, auditdomain.ActionPermissionDenied, capability, "forbidden", "role "+string(s.Role)+" lacks capability")
		return DenyForbidden, s
	}
	return Allow, s
}

func (g *Guard) deny(ctx context.Context, actorID, action string, capability Capability, kind, reason string) {
	g.metrics.Denial(ctx, kind)
	if g.recorder != nil {
		g.recorder.Record(ctx, actorID, action, "", map[string]string{
			"capability": string(capability),
			"reason":     reason,
		})
	}
}
