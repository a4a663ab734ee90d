// Package attempt records authentication attempts and derives lockout state
// from the history alone; there is no separately stored lock flag.
package attempt

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"staybook/authcore/internal/attempt/domain"
	"staybook/authcore/internal/attempt/repository"
)

// Origin is the request metadata recorded with every attempt.
type Origin struct {
	IP        string
	UserAgent string
}

// lockShards is the number of mutex shards serializing per-email writes.
const lockShards = 64

// Tracker evaluates lockout over the attempt history: an email is locked when
// its newest threshold records are all failures and the most recent of them is
// within window of now. One success resets the streak. Writes for an email are
// serialized through a shard lock; reads run unlocked and tolerate small
// staleness, since lock state is re-evaluated on the next request anyway.
type Tracker struct {
	store     repository.Repository
	threshold int
	window    time.Duration
	shards    [lockShards]sync.Mutex
}

// NewTracker returns a Tracker over store with the given lockout threshold and window.
func NewTracker(store repository.Repository, threshold int, window time.Duration) *Tracker {
	if threshold < 1 {
		threshold = 1
	}
	return &Tracker{store: store, threshold: threshold, window: window}
}

// Record appends one attempt. No other side effect: lockout is derived, never stored.
func (t *Tracker) Record(ctx context.Context, email string, success bool, origin Origin, at time.Time) error {
	shard := t.shardFor(email)
	shard.Lock()
	defer shard.Unlock()
	return t.store.Append(ctx, &domain.Record{
		Email:     email,
		Success:   success,
		IP:        origin.IP,
		UserAgent: origin.UserAgent,
		At:        at,
	})
}

// IsLocked reports whether email is locked out as of now.
func (t *Tracker) IsLocked(ctx context.Context, email string, now time.Time) (bool, error) {
	remaining, err := t.Remaining(ctx, email, now)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// Remaining returns how long the lock on email still holds as of now; zero
// when not locked. Drives collaborating views' countdowns.
func (t *Tracker) Remaining(ctx context.Context, email string, now time.Time) (time.Duration, error) {
	recs, err := t.store.RecentByEmail(ctx, email, t.threshold)
	if err != nil {
		return 0, err
	}
	if len(recs) < t.threshold {
		return 0, nil
	}
	for _, rec := range recs {
		if rec.Success {
			return 0, nil
		}
	}
	// recs are newest first; recs[0] is the most recent failure in the streak.
	elapsed := now.Sub(recs[0].At)
	if elapsed >= t.window {
		return 0, nil
	}
	return t.window - elapsed, nil
}

func (t *Tracker) shardFor(email string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return &t.shards[h.Sum32()%lockShards]
}
