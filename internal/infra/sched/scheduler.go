package sched

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the periodic billing jobs on cron schedules. Each job is a
// single pass; overlap protection comes from the jobs being cheap and the
// underlying operations being idempotent.
type Scheduler struct {
	cron *cron.Cron
	log  *zerolog.Logger
}

func NewScheduler(logger *zerolog.Logger) *Scheduler {
	l := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{cron: cron.New(), log: &l}
}

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job.Run(context.Background()); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("scheduled job failed")
		}
	})
	return err
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }
