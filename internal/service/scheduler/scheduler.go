package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SkyIndex/internal/domain/models"
	"SkyIndex/internal/usecase"
	applogger "SkyIndex/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Runs at :00 and :30 of every hour.
const DefaultCronSpec = "0,30 * * * *"

// Runner is the calculation entry point the scheduler drives.
type Runner interface {
	Calculate(ctx context.Context) (*models.IndexSnapshot, error)
}

// Scheduler triggers index calculations on the half-hour grid. A tick that
// lands while a manual recalculation holds the gate is skipped, not queued.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	spec    string
	timeout time.Duration
	l       *applogger.Logger

	entryID cron.EntryID
}

func New(runner Runner, spec string, timeout time.Duration, l *applogger.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultCronSpec
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		spec:    spec,
		timeout: timeout,
		l:       l,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("schedule calculation: %w", err)
	}
	s.entryID = id
	s.cron.Start()

	if s.l != nil {
		s.l.Info("scheduler started", applogger.String("spec", s.spec))
	}
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	snap, err := s.runner.Calculate(ctx)
	switch {
	case errors.Is(err, usecase.ErrCalculationInProgress):
		if s.l != nil {
			s.l.Warn("scheduled calculation skipped, gate held")
		}
	case err != nil:
		if s.l != nil {
			s.l.Error("scheduled calculation failed", applogger.Error(err))
		}
	default:
		if s.l != nil {
			s.l.Info("scheduled calculation done",
				applogger.Any("value", snap.IndexValue),
				applogger.Duration("duration_ms", time.Since(start)),
			)
		}
	}
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	if s.l != nil {
		s.l.Info("scheduler stopped")
	}
}

// NextRun reports when the next scheduled calculation fires.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}
