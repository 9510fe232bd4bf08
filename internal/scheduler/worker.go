package scheduler

import (
	"context"
	"fmt"

	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/platform/config"
	"collab_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// CheckRunner runs the overdue sweep and the deadline reminder scan.
type CheckRunner interface {
	RunChecks(ctx context.Context, tenantID *uuid.UUID) (transport.RunChecksResponse, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	checks CheckRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, checks CheckRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		checks: checks,
		log:    log,
	}
	w.mux.HandleFunc(TaskOverdueSweep, w.handleOverdueSweep)

	return w, nil
}

func (w *Worker) handleOverdueSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOverdueSweepPayload(task)
	if err != nil {
		return fmt.Errorf("parse overdue sweep payload: %v: %w", err, asynq.SkipRetry)
	}
	tenantID, err := payload.Tenant()
	if err != nil {
		return fmt.Errorf("invalid overdue sweep tenant: %v: %w", err, asynq.SkipRetry)
	}

	result, err := w.checks.RunChecks(ctx, tenantID)
	if err != nil {
		return err
	}

	w.log.Info("overdue checks completed",
		"marked", result.Overdue.Marked,
		"cleared", result.Overdue.Cleared,
		"deadlinesApproaching", result.DeadlinesApproaching,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
