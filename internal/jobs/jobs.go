// Package jobs runs the periodic maintenance work of the service on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// InvitationExpirer flips stale pending invitations to EXPIRED.
type InvitationExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// Observer receives the outcome of every run; metrics.Metrics satisfies it.
type Observer interface {
	ObserveJob(job string, affected int64, err error)
}

const expireInvitationsJob = "expire_invitations"

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron     *cron.Cron
	log      zerolog.Logger
	observer Observer
	timeout  time.Duration
	now      func() time.Time
}

func NewScheduler(logger zerolog.Logger, observer Observer) *Scheduler {
	l := logger.With().Str("module", "jobs").Logger()
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:     cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:      l,
		observer: observer,
		timeout:  30 * time.Second,
		now:      time.Now,
	}
}

// ScheduleInvitationSweep registers the expiry sweep. An empty spec leaves it disabled.
func (s *Scheduler) ScheduleInvitationSweep(spec string, store InvitationExpirer) error {
	if spec == "" {
		s.log.Info().Msg("invitation sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.SweepInvitations(context.Background(), store) }); err != nil {
		return fmt.Errorf("schedule invitation sweep %q: %w", spec, err)
	}
	s.log.Info().Str("spec", spec).Msg("invitation sweep scheduled")
	return nil
}

// SweepInvitations runs one expiry pass and returns the number of invitations expired.
func (s *Scheduler) SweepInvitations(ctx context.Context, store InvitationExpirer) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := store.ExpireStale(ctx, s.now())
	if s.observer != nil {
		s.observer.ObserveJob(expireInvitationsJob, n, err)
	}
	if err != nil {
		s.log.Error().Err(err).Str("job", expireInvitationsJob).Msg("job failed")
		return 0
	}
	s.log.Debug().Str("job", expireInvitationsJob).Int64("expired", n).Dur("took", time.Since(start)).Msg("job finished")
	return n
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop prevents new runs and waits for running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}
