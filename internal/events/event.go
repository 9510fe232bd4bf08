// Package events defines the collaboration pipeline's events and re-exports the
// in-process bus from platform/events so modules import a single package.
package events

import (
	"time"

	"collab_pipeline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Collaboration Domain Events
// =============================================================================

// CollaborationCreated is published when a staff member opens a collaboration with a creator.
type CollaborationCreated struct {
	BaseEvent
	CollaborationID uuid.UUID `json:"collaborationId"`
	TenantID        uuid.UUID `json:"tenantId"`
	InfluencerID    uuid.UUID `json:"influencerId"`
	BusinessStaffID uuid.UUID `json:"businessStaffId"`
	CreatedBy       uuid.UUID `json:"createdBy"`
	// ForcedOverConflict is true when the caller created it despite other open claims.
	ForcedOverConflict bool `json:"forcedOverConflict"`
}

func (e CollaborationCreated) EventName() string { return "collaborations.collaboration.created" }

// CollaborationStageChanged is published after a stage transition commits.
type CollaborationStageChanged struct {
	BaseEvent
	CollaborationID uuid.UUID `json:"collaborationId"`
	TenantID        uuid.UUID `json:"tenantId"`
	BusinessStaffID uuid.UUID `json:"businessStaffId"`
	FromStage       string    `json:"fromStage"`
	ToStage         string    `json:"toStage"`
	ActorID         uuid.UUID `json:"actorId"`
}

func (e CollaborationStageChanged) EventName() string { return "collaborations.stage.changed" }

// SampleDispatched is published when a sample shipment is recorded.
type SampleDispatched struct {
	BaseEvent
	DispatchID      uuid.UUID `json:"dispatchId"`
	CollaborationID uuid.UUID `json:"collaborationId"`
	TenantID        uuid.UUID `json:"tenantId"`
	SampleID        uuid.UUID `json:"sampleId"`
	Quantity        int       `json:"quantity"`
	TotalCost       int64     `json:"totalCost"`
}

func (e SampleDispatched) EventName() string { return "collaborations.sample.dispatched" }

// ResultRecorded is published when a collaboration's result is created.
type ResultRecorded struct {
	BaseEvent
	ResultID        uuid.UUID `json:"resultId"`
	CollaborationID uuid.UUID `json:"collaborationId"`
	TenantID        uuid.UUID `json:"tenantId"`
	ROI             float64   `json:"roi"`
	ProfitStatus    string    `json:"profitStatus"`
}

func (e ResultRecorded) EventName() string { return "collaborations.result.recorded" }

// OverdueCollaboration is one row of an overdue or reminder announcement.
type OverdueCollaboration struct {
	CollaborationID    uuid.UUID `json:"collaborationId"`
	TenantID           uuid.UUID `json:"tenantId"`
	BusinessStaffID    uuid.UUID `json:"businessStaffId"`
	InfluencerNickname string    `json:"influencerNickname"`
	Stage              string    `json:"stage"`
	Deadline           time.Time `json:"deadline"`
}

// OverdueDetected is published after a sweep newly flags collaborations as overdue.
type OverdueDetected struct {
	BaseEvent
	Collaborations []OverdueCollaboration `json:"collaborations"`
}

func (e OverdueDetected) EventName() string { return "collaborations.overdue.detected" }

// DeadlinesApproaching is published when open collaborations are close to their deadline.
type DeadlinesApproaching struct {
	BaseEvent
	Window         time.Duration          `json:"window"`
	Collaborations []OverdueCollaboration `json:"collaborations"`
}

func (e DeadlinesApproaching) EventName() string { return "collaborations.deadline.approaching" }
