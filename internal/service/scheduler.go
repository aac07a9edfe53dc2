package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler runs the periodic lifecycle jobs.
type Scheduler struct {
	scheduler   gocron.Scheduler
	tournaments *TournamentService
	interval    time.Duration
	log         *zap.SugaredLogger
}

func NewScheduler(tournaments *TournamentService, interval time.Duration, log *zap.SugaredLogger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: sched, tournaments: tournaments, interval: interval, log: log}, nil
}

// Start registers the jobs and starts the scheduler. The registration job
// also runs immediately so a restart does not wait a full interval.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.openRegistrations(ctx)
		}),
		gocron.WithName("open-registrations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to register open-registrations job: %w", err)
	}

	s.scheduler.Start()
	s.log.Infow("scheduler started", "interval", s.interval)
	return nil
}

func (s *Scheduler) openRegistrations(ctx context.Context) {
	if _, err := s.tournaments.OpenDueRegistrations(ctx); err != nil {
		s.log.Errorw("scheduled job failed", "job", "open-registrations", "error", err)
	}
}

func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
