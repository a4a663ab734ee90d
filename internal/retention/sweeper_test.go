package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	attemptdomain "staybook/authcore/internal/attempt/domain"
	sessiondomain "staybook/authcore/internal/session/domain"
)

type fakeAttempts struct {
	mu     sync.Mutex
	pruned []time.Time
}

func (f *fakeAttempts) Append(context.Context, *attemptdomain.Record) error { return nil }

func (f *fakeAttempts) RecentByEmail(context.Context, string, int) ([]*attemptdomain.Record, error) {
	return nil, nil
}

func (f *fakeAttempts) PruneBefore(_ context.Context, cutoff time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, cutoff)
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	expired  []time.Time
	returned int64
}

func (f *fakeSessions) GetByID(context.Context, string) (*sessiondomain.Session, error) {
	return nil, nil
}

func (f *fakeSessions) Create(context.Context, *sessiondomain.Session) error { return nil }

func (f *fakeSessions) UpdateActivity(context.Context, string, time.Time) error { return nil }

func (f *fakeSessions) SetState(context.Context, string, sessiondomain.State, time.Time) error {
	return nil
}

func (f *fakeSessions) ExpireIdleBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, cutoff)
	return f.returned, nil
}

func TestSweepUsesConfiguredCutoffs(t *testing.T) {
	attempts := &fakeAttempts{}
	sessions := &fakeSessions{returned: 3}
	s := NewSweeper(attempts, sessions, 720*time.Hour, time.Hour, zerolog.Nop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.nowF = func() time.Time { return now }

	s.Sweep(context.Background())

	if len(attempts.pruned) != 1 || !attempts.pruned[0].Equal(now.Add(-720*time.Hour)) {
		t.Errorf("attempt cutoffs = %v, want one at now-720h", attempts.pruned)
	}
	if len(sessions.expired) != 1 || !sessions.expired[0].Equal(now.Add(-time.Hour)) {
		t.Errorf("session cutoffs = %v, want one at now-1h", sessions.expired)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(&fakeAttempts{}, &fakeSessions{}, time.Hour, time.Hour, zerolog.Nop())
	if err := s.Start("not a cron spec"); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestStartAndStop(t *testing.T) {
	s := NewSweeper(&fakeAttempts{}, &fakeSessions{}, time.Hour, time.Hour, zerolog.Nop())
	if err := s.Start("0 0 * * * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
