package audit

import "context"

// Tee fans one Record call out to several recorders, e.g. the durable audit
// log plus the telemetry stream.
type Tee []Recorder

// Record calls every recorder in order.
func (t Tee) Record(ctx context.Context, actorID, action, ip string, metadata map[string]string) {
	for _, r := range t {
		r.Record(ctx, actorID, action, ip, metadata)
	}
}
