// Package retention runs scheduled storage upkeep: pruning old attempt
// records and expiring idle sessions in bulk. Both are reclaim jobs; lockout
// and session expiry stay correct without the sweeper ever running.
package retention

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	attemptrepo "staybook/authcore/internal/attempt/repository"
	sessionrepo "staybook/authcore/internal/session/repository"
)

// sweepTimeout bounds one sweep run.
const sweepTimeout = 2 * time.Minute

// Sweeper schedules periodic pruning.
type Sweeper struct {
	attempts         attemptrepo.Repository
	sessions         sessionrepo.Repository
	attemptRetention time.Duration
	sessionTimeout   time.Duration
	log              zerolog.Logger
	cron             *cron.Cron
	nowF             func() time.Time
}

// NewSweeper returns a Sweeper pruning attempts older than attemptRetention
// and bulk-expiring sessions idle longer than sessionTimeout.
func NewSweeper(
	attempts attemptrepo.Repository,
	sessions sessionrepo.Repository,
	attemptRetention, sessionTimeout time.Duration,
	log zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		attempts:         attempts,
		sessions:         sessions,
		attemptRetention: attemptRetention,
		sessionTimeout:   sessionTimeout,
		log:              log,
		cron:             cron.New(cron.WithSeconds()),
		nowF:             func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the sweep on schedule (six-field cron expression) and starts
// the scheduler.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("retention sweeper started")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs one pass immediately. Exposed for seeds and tests; the scheduled
// path calls the same code.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.nowF()

	if err := s.attempts.PruneBefore(ctx, now.Add(-s.attemptRetention)); err != nil {
		s.log.Error().Err(err).Msg("attempt prune failed")
	}

	expired, err := s.sessions.ExpireIdleBefore(ctx, now.Add(-s.sessionTimeout))
	if err != nil {
		s.log.Error().Err(err).Msg("session expiry sweep failed")
		return
	}
	if expired > 0 {
		s.log.Info().Int64("sessions", expired).Msg("idle sessions expired")
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	s.Sweep(ctx)
}
