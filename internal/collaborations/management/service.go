// Package management handles collaboration CRUD, the creator conflict check
// and the follow-up log.
package management

import (
	"context"
	"strings"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/apperr"
	"collab_pipeline_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ConflictCode is the error code returned when a creator is already claimed by other staff.
const ConflictCode = "COLLABORATION_CONFLICT"

const (
	influencerNotFoundMsg = "influencer not found"
	staffNotFoundMsg      = "business staff member not found"
	conflictMsg           = "influencer already has an active collaboration with another staff member"
)

// Repository defines the data access needed by the management service.
type Repository interface {
	Create(ctx context.Context, p repository.CreateCollaborationParams) (repository.Collaboration, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Collaboration, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	UpdateDeadline(ctx context.Context, tenantID, id uuid.UUID, deadline *time.Time, now time.Time) (repository.Collaboration, error)
	UpdateBlockReason(ctx context.Context, tenantID, id uuid.UUID, reason *domain.BlockReason, followUp *repository.CreateFollowUpParams) (repository.Collaboration, error)
	CreateFollowUp(ctx context.Context, collaborationID uuid.UUID, p repository.CreateFollowUpParams) (repository.FollowUp, error)
	ListFollowUps(ctx context.Context, tenantID, collaborationID uuid.UUID, limit, offset int) ([]repository.FollowUp, int, error)
	FindActiveClaims(ctx context.Context, tenantID, influencerID, excludeStaffID uuid.UUID) ([]repository.ActiveClaim, error)
	ListCards(ctx context.Context, tenantID uuid.UUID, f repository.CollaborationFilter, limit, offset int) ([]repository.CollaborationCard, int, error)
	GetSample(ctx context.Context, tenantID, id uuid.UUID) (repository.Sample, error)
	InfluencerExists(ctx context.Context, tenantID, influencerID uuid.UUID) (bool, error)
	StaffExists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
}

// Service handles collaboration management operations.
type Service struct {
	repo     Repository
	eventBus events.Bus
	now      func() time.Time
}

// New creates a new collaboration management service.
func New(repo Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus, now: time.Now}
}

// SetClock replaces the time source used for overdue evaluation.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CheckConflict lists open collaborations for the creator held by staff other than staffID.
// Closed (REVIEWED) collaborations never count.
func (s *Service) CheckConflict(ctx context.Context, tenantID, influencerID, staffID uuid.UUID) (transport.ConflictCheckResponse, error) {
	claims, err := s.repo.FindActiveClaims(ctx, tenantID, influencerID, staffID)
	if err != nil {
		return transport.ConflictCheckResponse{}, err
	}

	conflicts := make([]transport.ConflictResponse, 0, len(claims))
	for _, claim := range claims {
		conflicts = append(conflicts, transport.ConflictResponse{
			CollaborationID: claim.CollaborationID,
			StaffID:         claim.StaffID,
			StaffName:       claim.StaffName,
			Stage:           string(claim.Stage),
			ClaimedAt:       claim.ClaimedAt,
		})
	}
	return transport.ConflictCheckResponse{HasConflict: len(conflicts) > 0, Conflicts: conflicts}, nil
}

// Create opens a collaboration at LEAD. Unless ForceCreate is set, an open claim on the
// same creator by another staff member rejects the request with the claims as details.
func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, req transport.CreateCollaborationRequest) (transport.CollaborationResponse, error) {
	exists, err := s.repo.InfluencerExists(ctx, tenantID, req.InfluencerID)
	if err != nil {
		return transport.CollaborationResponse{}, err
	}
	if !exists {
		return transport.CollaborationResponse{}, apperr.NotFound(influencerNotFoundMsg)
	}

	staffID := actorID
	if req.BusinessStaffID != nil && *req.BusinessStaffID != actorID {
		ok, err := s.repo.StaffExists(ctx, tenantID, *req.BusinessStaffID)
		if err != nil {
			return transport.CollaborationResponse{}, err
		}
		if !ok {
			return transport.CollaborationResponse{}, apperr.NotFound(staffNotFoundMsg)
		}
		staffID = *req.BusinessStaffID
	}

	if req.SampleID != nil {
		if _, err := s.repo.GetSample(ctx, tenantID, *req.SampleID); err != nil {
			return transport.CollaborationResponse{}, err
		}
	}
	if req.QuotedPrice != nil && *req.QuotedPrice < 0 {
		return transport.CollaborationResponse{}, apperr.ValidationField("quotedPrice", "quotedPrice must not be negative")
	}

	check, err := s.CheckConflict(ctx, tenantID, req.InfluencerID, staffID)
	if err != nil {
		return transport.CollaborationResponse{}, err
	}
	if check.HasConflict && !req.ForceCreate {
		return transport.CollaborationResponse{}, apperr.Conflict(conflictMsg).
			WithCode(ConflictCode).
			WithDetails(map[string]any{"conflicts": check.Conflicts})
	}

	created, err := s.repo.Create(ctx, repository.CreateCollaborationParams{
		BrandID:         tenantID,
		InfluencerID:    req.InfluencerID,
		BusinessStaffID: staffID,
		SampleID:        req.SampleID,
		QuotedPrice:     req.QuotedPrice,
		Deadline:        req.Deadline,
		IsOverdue:       domain.IsOverdue(req.Deadline, domain.StageLead, s.now()),
		Notes:           normalizeNotes(req.Notes),
		CreatedBy:       actorID,
	})
	if err != nil {
		return transport.CollaborationResponse{}, err
	}

	s.eventBus.Publish(ctx, events.CollaborationCreated{
		BaseEvent:          events.NewBaseEvent(),
		CollaborationID:    created.ID,
		TenantID:           tenantID,
		InfluencerID:       created.InfluencerID,
		BusinessStaffID:    created.BusinessStaffID,
		CreatedBy:          actorID,
		ForcedOverConflict: check.HasConflict,
	})

	return transport.ToCollaborationResponse(created), nil
}

// GetByID returns a collaboration the caller is allowed to see.
func (s *Service) GetByID(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID) (transport.CollaborationResponse, error) {
	c, err := s.getVisible(ctx, tenantID, visibility, id)
	if err != nil {
		return transport.CollaborationResponse{}, err
	}
	return transport.ToCollaborationResponse(c), nil
}

// List returns a filtered page of collaboration cards, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, req transport.ListCollaborationsRequest) (transport.CollaborationListResponse, error) {
	page := transport.NewPage(req.Page, req.PageSize)
	empty := transport.CollaborationListResponse{
		Items:    []transport.CollaborationCardResponse{},
		Page:     page.Number,
		PageSize: page.Size,
	}

	filter, err := buildFilter(req)
	if err != nil {
		return transport.CollaborationListResponse{}, err
	}
	staffID, ok := visibility.StaffScope(filter.StaffID)
	if !ok {
		return empty, nil
	}
	filter.StaffID = staffID

	cards, total, err := s.repo.ListCards(ctx, tenantID, filter, page.Size, page.Offset())
	if err != nil {
		return transport.CollaborationListResponse{}, err
	}

	return transport.CollaborationListResponse{
		Items:      transport.ToCardResponses(cards),
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// Delete removes a collaboration and everything hanging off it. Collaborations with a
// recorded result are kept.
func (s *Service) Delete(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID) error {
	if _, err := s.getVisible(ctx, tenantID, visibility, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tenantID, id)
}

// SetDeadline sets or clears the deadline; is_overdue is recomputed immediately.
func (s *Service) SetDeadline(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID, req transport.SetDeadlineRequest) (transport.CollaborationResponse, error) {
	if _, err := s.getVisible(ctx, tenantID, visibility, id); err != nil {
		return transport.CollaborationResponse{}, err
	}
	updated, err := s.repo.UpdateDeadline(ctx, tenantID, id, req.Deadline, s.now())
	if err != nil {
		return transport.CollaborationResponse{}, err
	}
	return transport.ToCollaborationResponse(updated), nil
}

// SetBlockReason records why a collaboration is stuck, or clears it when BlockReason is nil.
func (s *Service) SetBlockReason(ctx context.Context, tenantID, actorID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID, req transport.SetBlockReasonRequest) (transport.CollaborationResponse, error) {
	var reason *domain.BlockReason
	if req.BlockReason != nil {
		parsed, ok := domain.ParseBlockReason(*req.BlockReason)
		if !ok {
			return transport.CollaborationResponse{}, apperr.ValidationField("blockReason", "unknown block reason")
		}
		reason = &parsed
	}

	if _, err := s.getVisible(ctx, tenantID, visibility, id); err != nil {
		return transport.CollaborationResponse{}, err
	}

	var followUp *repository.CreateFollowUpParams
	if req.AddFollowUp && reason != nil {
		followUp = &repository.CreateFollowUpParams{
			UserID:  actorID,
			Content: domain.BlockFollowUpContent(*reason, sanitize.Text(req.Notes)),
		}
	}

	updated, err := s.repo.UpdateBlockReason(ctx, tenantID, id, reason, followUp)
	if err != nil {
		return transport.CollaborationResponse{}, err
	}
	return transport.ToCollaborationResponse(updated), nil
}

// AddFollowUp appends a note to the collaboration's follow-up log.
func (s *Service) AddFollowUp(ctx context.Context, tenantID, actorID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID, req transport.CreateFollowUpRequest) (transport.FollowUpResponse, error) {
	content := sanitize.Text(req.Content)
	if content == "" {
		return transport.FollowUpResponse{}, apperr.ValidationField("content", "content is required")
	}
	if _, err := s.getVisible(ctx, tenantID, visibility, id); err != nil {
		return transport.FollowUpResponse{}, err
	}

	created, err := s.repo.CreateFollowUp(ctx, id, repository.CreateFollowUpParams{UserID: actorID, Content: content})
	if err != nil {
		return transport.FollowUpResponse{}, err
	}
	return transport.ToFollowUpResponse(created), nil
}

// ListFollowUps returns the follow-up log, newest first.
func (s *Service) ListFollowUps(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID, req transport.PageRequest) (transport.FollowUpListResponse, error) {
	if _, err := s.getVisible(ctx, tenantID, visibility, id); err != nil {
		return transport.FollowUpListResponse{}, err
	}

	page := transport.NewPage(req.Page, req.PageSize)
	items, total, err := s.repo.ListFollowUps(ctx, tenantID, id, page.Size, page.Offset())
	if err != nil {
		return transport.FollowUpListResponse{}, err
	}

	resp := make([]transport.FollowUpResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, transport.ToFollowUpResponse(item))
	}
	return transport.FollowUpListResponse{
		Items:      resp,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// getVisible loads a collaboration and hides it when the policy does not cover its owner.
func (s *Service) getVisible(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID) (repository.Collaboration, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Collaboration{}, err
	}
	if !visibility.CanSee(c.BusinessStaffID) {
		return repository.Collaboration{}, apperr.NotFound("collaboration not found")
	}
	return c, nil
}

func buildFilter(req transport.ListCollaborationsRequest) (repository.CollaborationFilter, error) {
	filter := repository.CollaborationFilter{
		IsOverdue: req.IsOverdue,
		Keyword:   strings.TrimSpace(req.Keyword),
	}
	if req.Stage != "" {
		stage, ok := domain.ParseStage(req.Stage)
		if !ok {
			return filter, apperr.ValidationField("stage", "unknown stage")
		}
		filter.Stage = &stage
	}
	if req.StaffID != "" {
		id, err := uuid.Parse(req.StaffID)
		if err != nil {
			return filter, apperr.ValidationField("staffId", "invalid staffId")
		}
		filter.StaffID = &id
	}
	if req.InfluencerID != "" {
		id, err := uuid.Parse(req.InfluencerID)
		if err != nil {
			return filter, apperr.ValidationField("influencerId", "invalid influencerId")
		}
		filter.InfluencerID = &id
	}
	return filter, nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	cleaned := sanitize.Text(*notes)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
