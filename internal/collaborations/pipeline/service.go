// Package pipeline builds the kanban view and per-stage statistics of collaborations.
package pipeline

import (
	"context"
	"strings"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// Repository defines the data access needed by the pipeline views.
type Repository interface {
	ListPipelineCards(ctx context.Context, tenantID uuid.UUID, f repository.CollaborationFilter) ([]repository.CollaborationCard, error)
	CountByStage(ctx context.Context, tenantID uuid.UUID, f repository.CollaborationFilter) ([]repository.StageCount, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetPipelineView groups visible collaborations by stage. Every stage appears, in
// pipeline order, even when it has no collaborations.
func (s *Service) GetPipelineView(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, req transport.PipelineViewRequest) (transport.PipelineViewResponse, error) {
	filter, ok, err := scopedFilter(visibility, req)
	if err != nil {
		return transport.PipelineViewResponse{}, err
	}

	var cards []repository.CollaborationCard
	if ok {
		cards, err = s.repo.ListPipelineCards(ctx, tenantID, filter)
		if err != nil {
			return transport.PipelineViewResponse{}, err
		}
	}

	byStage := make(map[domain.Stage][]transport.CollaborationCardResponse, len(domain.Stages()))
	for _, card := range cards {
		byStage[card.Stage] = append(byStage[card.Stage], transport.ToCardResponse(card))
	}

	resp := transport.PipelineViewResponse{Stages: make([]transport.PipelineStageResponse, 0, len(domain.Stages()))}
	for _, stage := range domain.Stages() {
		items := byStage[stage]
		if items == nil {
			items = []transport.CollaborationCardResponse{}
		}
		resp.Stages = append(resp.Stages, transport.PipelineStageResponse{
			Stage:          string(stage),
			Collaborations: items,
			Count:          len(items),
		})
		resp.TotalCount += len(items)
	}
	return resp, nil
}

// GetPipelineStats counts visible collaborations per stage, in pipeline order.
func (s *Service) GetPipelineStats(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, req transport.PipelineViewRequest) (transport.PipelineStatsResponse, error) {
	filter, ok, err := scopedFilter(visibility, req)
	if err != nil {
		return transport.PipelineStatsResponse{}, err
	}

	var counts []repository.StageCount
	if ok {
		counts, err = s.repo.CountByStage(ctx, tenantID, filter)
		if err != nil {
			return transport.PipelineStatsResponse{}, err
		}
	}

	byStage := make(map[domain.Stage]repository.StageCount, len(counts))
	for _, c := range counts {
		byStage[c.Stage] = c
	}

	resp := transport.PipelineStatsResponse{Stages: make([]transport.StageCountResponse, 0, len(domain.Stages()))}
	for _, stage := range domain.Stages() {
		c := byStage[stage]
		resp.Stages = append(resp.Stages, transport.StageCountResponse{
			Stage:        string(stage),
			Count:        c.Count,
			OverdueCount: c.OverdueCount,
		})
		resp.Total += c.Count
		resp.OverdueTotal += c.OverdueCount
	}
	return resp, nil
}

// scopedFilter applies the visibility policy to the request. ok is false when nothing can match.
func scopedFilter(visibility domain.VisibilityPolicy, req transport.PipelineViewRequest) (repository.CollaborationFilter, bool, error) {
	filter := repository.CollaborationFilter{Keyword: strings.TrimSpace(req.Keyword)}

	var requested *uuid.UUID
	if req.StaffID != "" {
		id, err := uuid.Parse(req.StaffID)
		if err != nil {
			return filter, false, apperr.ValidationField("staffId", "invalid staffId")
		}
		requested = &id
	}

	staffID, ok := visibility.StaffScope(requested)
	filter.StaffID = staffID
	return filter, ok, nil
}
