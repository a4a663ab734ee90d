// Package telemetry carries the auth core's meters and the best-effort
// security event stream.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds counters for the security decisions the core makes. A nil
// *Metrics is valid and counts nothing, so call sites need no guards.
type Metrics struct {
	logins          metric.Int64Counter
	lockouts        metric.Int64Counter
	denials         metric.Int64Counter
	sessionsExpired metric.Int64Counter
	rehashes        metric.Int64Counter
}

// NewMetrics builds the core's counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	logins, err := meter.Int64Counter("authcore.logins",
		metric.WithDescription("Authentication attempts by outcome"))
	if err != nil {
		return nil, err
	}
	lockouts, err := meter.Int64Counter("authcore.lockouts",
		metric.WithDescription("Lockouts triggered"))
	if err != nil {
		return nil, err
	}
	denials, err := meter.Int64Counter("authcore.permission_denials",
		metric.WithDescription("Permission denials by kind"))
	if err != nil {
		return nil, err
	}
	sessionsExpired, err := meter.Int64Counter("authcore.sessions_expired",
		metric.WithDescription("Sessions transitioned to expired"))
	if err != nil {
		return nil, err
	}
	rehashes, err := meter.Int64Counter("authcore.credential_rehashes",
		metric.WithDescription("Stored hashes upgraded on login"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		logins:          logins,
		lockouts:        lockouts,
		denials:         denials,
		sessionsExpired: sessionsExpired,
		rehashes:        rehashes,
	}, nil
}

// Login counts one authentication attempt with the given outcome tag
// (e.g. "success", "invalid_credentials", "locked", "inactive").
func (m *Metrics) Login(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Lockout counts one lockout trigger.
func (m *Metrics) Lockout(ctx context.Context) {
	if m == nil {
		return
	}
	m.lockouts.Add(ctx, 1)
}

// Denial counts one permission denial ("unauthenticated" or "forbidden").
func (m *Metrics) Denial(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.denials.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// SessionExpired counts one lazy expiry.
func (m *Metrics) SessionExpired(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsExpired.Add(ctx, 1)
}

// Rehash counts one rehash-on-login upgrade.
func (m *Metrics) Rehash(ctx context.Context) {
	if m == nil {
		return
	}
	m.rehashes.Add(ctx, 1)
}
