// Package stages moves collaborations through the pipeline and keeps their audit trail.
package stages

import (
	"context"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/apperr"
	"collab_pipeline_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository defines the data access needed by the stage machine.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Collaboration, error)
	TransitionStage(ctx context.Context, p repository.TransitionParams, guard func(from domain.Stage) error) (repository.Collaboration, bool, error)
	ListStageHistory(ctx context.Context, tenantID, collaborationID uuid.UUID) ([]repository.StageHistoryEntry, error)
}

type Service struct {
	repo     Repository
	eventBus events.Bus
	policy   domain.TransitionPolicy
}

// New creates a stage service that allows every transition.
func New(repo Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus, policy: domain.AnyTransition}
}

// SetPolicy installs a transition policy. A nil policy restores the allow-all default.
func (s *Service) SetPolicy(policy domain.TransitionPolicy) {
	if policy == nil {
		policy = domain.AnyTransition
	}
	s.policy = policy
}

// Transition moves a collaboration to req.Stage and records the change. Asking for the
// current stage returns the collaboration untouched and writes no history.
func (s *Service) Transition(ctx context.Context, tenantID, actorID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID, req transport.TransitionStageRequest) (transport.CollaborationResponse, error) {
	to, ok := domain.ParseStage(req.Stage)
	if !ok {
		return transport.CollaborationResponse{}, apperr.ValidationField("stage", "unknown stage")
	}

	if visibility.Restricted() {
		current, err := s.repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return transport.CollaborationResponse{}, err
		}
		if !visibility.CanSee(current.BusinessStaffID) {
			return transport.CollaborationResponse{}, apperr.NotFound("collaboration not found")
		}
	}

	var from domain.Stage
	updated, changed, err := s.repo.TransitionStage(ctx, repository.TransitionParams{
		TenantID:        tenantID,
		CollaborationID: id,
		To:              to,
		Note:            sanitize.TextPtr(req.Note),
		ActorID:         actorID,
	}, func(current domain.Stage) error {
		from = current
		return s.policy.Allow(current, to)
	})
	if err != nil {
		return transport.CollaborationResponse{}, err
	}

	if changed {
		s.eventBus.Publish(ctx, events.CollaborationStageChanged{
			BaseEvent:       events.NewBaseEvent(),
			CollaborationID: updated.ID,
			TenantID:        tenantID,
			BusinessStaffID: updated.BusinessStaffID,
			FromStage:       string(from),
			ToStage:         string(to),
			ActorID:         actorID,
		})
	}

	return transport.ToCollaborationResponse(updated), nil
}

// History returns every stage change of the collaboration, oldest first.
func (s *Service) History(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID) (transport.StageHistoryListResponse, error) {
	current, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.StageHistoryListResponse{}, err
	}
	if !visibility.CanSee(current.BusinessStaffID) {
		return transport.StageHistoryListResponse{}, apperr.NotFound("collaboration not found")
	}

	entries, err := s.repo.ListStageHistory(ctx, tenantID, id)
	if err != nil {
		return transport.StageHistoryListResponse{}, err
	}

	items := make([]transport.StageHistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, transport.ToStageHistoryResponse(e))
	}
	return transport.StageHistoryListResponse{Items: items}, nil
}
