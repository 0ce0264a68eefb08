// File: internal/scheduler/scheduler.go

// Package scheduler runs monitoring cycles on a cron cadence.
package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers a job on a cron expression. A tick that fires
// while the previous run is still going is skipped, never queued; a
// slow cycle must not pile up browser launches behind itself.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	running atomic.Bool
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.Named("scheduler"),
	}
}

// Schedule registers the job under the standard 5-field cron spec.
func (s *Scheduler) Schedule(ctx context.Context, spec string, job func(context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		if !s.running.CompareAndSwap(false, true) {
			s.logger.Warn("Previous cycle still running, skipping this tick")
			return
		}
		defer s.running.Store(false)
		job(ctx)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Monitoring scheduled", zap.String("spec", spec))
	return nil
}

// Start begins firing ticks.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the ticker and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
