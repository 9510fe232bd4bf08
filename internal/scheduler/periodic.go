package scheduler

import (
	"context"
	"fmt"

	"collab_pipeline_backend/platform/config"
	"collab_pipeline_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultOverdueSweepSpec = "@every 15m"

// Periodic enqueues the global overdue sweep on a cron spec.
type Periodic struct {
	scheduler *asynq.Scheduler
	spec      string
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	spec := cfg.GetOverdueSweepSpec()
	if spec == "" {
		spec = defaultOverdueSweepSpec
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})
	task, err := NewOverdueSweepTask(OverdueSweepPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := s.Register(spec, task, asynq.Queue(queueName(cfg))); err != nil {
		return nil, fmt.Errorf("register overdue sweep %q: %w", spec, err)
	}

	return &Periodic{scheduler: s, spec: spec, log: log}, nil
}

// Run starts the scheduler and stops it when ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	p.log.Info("periodic overdue sweep scheduled", "spec", p.spec)

	<-ctx.Done()
	p.scheduler.Shutdown()
}
