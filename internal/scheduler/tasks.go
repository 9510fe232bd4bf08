package scheduler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskOverdueSweep = "collaborations.overdue.sweep"

// OverdueSweepPayload scopes a sweep to one tenant. An empty TenantID sweeps every tenant.
type OverdueSweepPayload struct {
	TenantID string `json:"tenantId,omitempty"`
}

func NewOverdueSweepTask(payload OverdueSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueSweep, data), nil
}

func ParseOverdueSweepPayload(task *asynq.Task) (OverdueSweepPayload, error) {
	var payload OverdueSweepPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OverdueSweepPayload{}, err
	}
	return payload, nil
}

// Tenant returns the parsed tenant scope, or nil for a global sweep.
func (p OverdueSweepPayload) Tenant() (*uuid.UUID, error) {
	if p.TenantID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(p.TenantID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
