package scheduler

import (
	"context"
	"errors"
	"testing"

	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string         { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool   { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string   { return "collab" }
func (c testSchedulerConfig) GetAsynqConcurrency() int    { return 1 }
func (c testSchedulerConfig) GetOverdueSweepSpec() string { return "@every 1m" }

type recordingChecks struct {
	calls   int
	tenants []*uuid.UUID
	err     error
}

func (r *recordingChecks) RunChecks(_ context.Context, tenantID *uuid.UUID) (transport.RunChecksResponse, error) {
	r.calls++
	r.tenants = append(r.tenants, tenantID)
	if r.err != nil {
		return transport.RunChecksResponse{}, r.err
	}
	return transport.RunChecksResponse{Overdue: transport.OverdueSweepResponse{Marked: 1, Total: 1}}, nil
}

func TestEnqueueOverdueSweepQueuesTenantTask(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	tenantID := uuid.New()
	if err := client.EnqueueOverdueSweep(context.Background(), &tenantID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("collab")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskOverdueSweep {
		t.Fatalf("unexpected task type %q", tasks[0].Type)
	}

	payload, err := ParseOverdueSweepPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.TenantID != tenantID.String() {
		t.Fatalf("expected tenant %s, got %q", tenantID, payload.TenantID)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatalf("expected error without redis url")
	}
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueOverdueSweep(context.Background(), nil); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}

func TestHandleOverdueSweepRunsChecksForScope(t *testing.T) {
	checks := &recordingChecks{}
	w := &Worker{checks: checks, log: logger.New("test")}

	global, _ := NewOverdueSweepTask(OverdueSweepPayload{})
	if err := w.handleOverdueSweep(context.Background(), global); err != nil {
		t.Fatalf("global sweep: %v", err)
	}
	tenantID := uuid.New()
	scoped, _ := NewOverdueSweepTask(OverdueSweepPayload{TenantID: tenantID.String()})
	if err := w.handleOverdueSweep(context.Background(), scoped); err != nil {
		t.Fatalf("scoped sweep: %v", err)
	}

	if checks.calls != 2 {
		t.Fatalf("expected 2 runs, got %d", checks.calls)
	}
	if checks.tenants[0] != nil {
		t.Fatalf("expected global sweep to pass nil tenant")
	}
	if checks.tenants[1] == nil || *checks.tenants[1] != tenantID {
		t.Fatalf("expected scoped sweep for %s", tenantID)
	}
}

func TestHandleOverdueSweepSkipsRetryOnBadTenant(t *testing.T) {
	checks := &recordingChecks{}
	w := &Worker{checks: checks, log: logger.New("test")}

	task, _ := NewOverdueSweepTask(OverdueSweepPayload{TenantID: "not-a-uuid"})
	err := w.handleOverdueSweep(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if checks.calls != 0 {
		t.Fatalf("expected no runs")
	}
}

func TestHandleOverdueSweepReturnsCheckError(t *testing.T) {
	checks := &recordingChecks{err: errors.New("db down")}
	w := &Worker{checks: checks, log: logger.New("test")}

	task, _ := NewOverdueSweepTask(OverdueSweepPayload{})
	if err := w.handleOverdueSweep(context.Background(), task); err == nil {
		t.Fatalf("expected error to be returned for retry")
	}
}
