package store

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "churchcal/internal/log"
)

// Scheduler runs jobs on cron schedules until Stop.
type Scheduler struct {
	c *cron.Cron
}

// NewScheduler returns a stopped scheduler using standard 5-field specs.
func NewScheduler() *Scheduler {
	return &Scheduler{c: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))}
}

// Add registers fn under spec. name is used in logs.
func (s *Scheduler) Add(ctx context.Context, name, spec string, fn func(context.Context) error) error {
	_, err := s.c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		appLog.Debug("scheduled job start", "job", name)
		if err := fn(ctx); err != nil {
			appLog.Error("scheduled job failed", err, "job", name)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	appLog.Info("scheduled job registered", "job", name, "spec", spec)
	return nil
}

// AddRefresh schedules st.Refresh.
func (s *Scheduler) AddRefresh(ctx context.Context, spec string, st *Store) error {
	return s.Add(ctx, "refresh", spec, st.Refresh)
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}
