// Package audit appends security events to the append-only audit log.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"staybook/authcore/internal/audit/domain"
	auditrepo "staybook/authcore/internal/audit/repository"
)

// Recorder writes a single audit event. Used by the auth service, the session
// manager callers, and the permission guard. Record is best-effort: failures
// are logged and do not affect the caller's outcome.
type Recorder interface {
	Record(ctx context.Context, actorID, action, ip string, metadata map[string]string)
}

// Logger implements Recorder using the audit repository.
type Logger struct {
	repo auditrepo.Repository
	log  zerolog.Logger
	nowF func() time.Time
}

// NewLogger returns a Recorder that persists to repo.
func NewLogger(repo auditrepo.Repository, log zerolog.Logger) *Logger {
	return &Logger{repo: repo, log: log, nowF: func() time.Time { return time.Now().UTC() }}
}

// Record writes one audit entry. Best-effort: errors are logged and not
// returned. metadata must never include password material; callers pass only
// the keys they would show an operator.
func (l *Logger) Record(ctx context.Context, actorID, action, ip string, metadata map[string]string) {
	if l.repo == nil {
		return
	}
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		IP:        ip,
		Metadata:  encodeMetadata(metadata),
		CreatedAt: l.nowF(),
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		l.log.Error().Err(err).Str("action", action).Msg("audit append failed")
	}
}

func encodeMetadata(metadata map[string]string) string {
	if len(metadata) == 0 {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}
