package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// SecurityEvent mirrors an audit entry onto the telemetry stream so operators
// can watch security decisions without querying the audit table. Same rule as
// the audit log: never any credential material.
type SecurityEvent struct {
	ActorID   string
	Action    string
	IP        string
	Metadata  map[string]string
	CreatedAt time.Time
}

// EventEmitter sends one security event. Implementations are best-effort.
type EventEmitter interface {
	Emit(ctx context.Context, event *SecurityEvent) error
}

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not
// blocked. emitter and event may be nil; then EmitAsync returns immediately.
// The goroutine uses context.Background() so request cancellation does not
// abort an in-flight emit.
func EmitAsync(emitter EventEmitter, event *SecurityEvent) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("telemetry: async emit failed")
		}
	}()
}

// Recorder adapts an EventEmitter to the audit recorder shape so the wiring
// layer can tee audit entries onto the telemetry stream.
type Recorder struct {
	emitter EventEmitter
	nowF    func() time.Time
}

// NewRecorder returns a Recorder over emitter.
func NewRecorder(emitter EventEmitter) *Recorder {
	return &Recorder{emitter: emitter, nowF: func() time.Time { return time.Now().UTC() }}
}

// Record emits the event asynchronously; it never blocks the security decision.
func (r *Recorder) Record(ctx context.Context, actorID, action, ip string, metadata map[string]string) {
	EmitAsync(r.emitter, &SecurityEvent{
		ActorID:   actorID,
		Action:    action,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: r.nowF(),
	})
}
