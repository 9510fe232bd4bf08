// Package ledger keeps the sample catalogue and the cost of every sample shipment.
// Shipment costs are frozen when the shipment is recorded.
package ledger

import (
	"context"
	"errors"
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

// Repository defines the data access needed by the ledger.
type Repository interface {
	CreateSample(ctx context.Context, p repository.CreateSampleParams) (repository.Sample, error)
	GetSample(ctx context.Context, tenantID, id uuid.UUID) (repository.Sample, error)
	UpdateSample(ctx context.Context, tenantID, id uuid.UUID, u repository.SampleUpdate) (repository.Sample, error)
	ListSamples(ctx context.Context, tenantID uuid.UUID, keyword string, limit, offset int) ([]repository.Sample, int, error)
	DeleteSample(ctx context.Context, tenantID, id uuid.UUID) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Collaboration, error)
	CreateDispatch(ctx context.Context, p repository.CreateDispatchParams) (repository.SampleDispatch, error)
	GetDispatch(ctx context.Context, tenantID, id uuid.UUID) (repository.SampleDispatch, error)
	UpdateDispatchStatus(ctx context.Context, tenantID, id uuid.UUID, u repository.DispatchStatusUpdate) (repository.SampleDispatch, error)
	ListDispatches(ctx context.Context, tenantID, collaborationID uuid.UUID) ([]repository.SampleDispatch, error)
}

type Service struct {
	repo     Repository
	eventBus events.Bus
	now      func() time.Time
}

func New(repo Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus, now: time.Now}
}

// SetClock replaces the time source used to stamp received_at.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) CreateSample(ctx context.Context, tenantID uuid.UUID, req transport.CreateSampleRequest) (transport.SampleResponse, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return transport.SampleResponse{}, apperr.ValidationField("sku", "sku is required")
	}
	name := sanitize.Line(req.Name)
	if name == "" {
		return transport.SampleResponse{}, apperr.ValidationField("name", "name is required")
	}
	if req.UnitCost < 0 {
		return transport.SampleResponse{}, apperr.ValidationField("unitCost", "unitCost must not be negative")
	}
	if req.RetailPrice < 0 {
		return transport.SampleResponse{}, apperr.ValidationField("retailPrice", "retailPrice must not be negative")
	}

	canResend := true
	if req.CanResend != nil {
		canResend = *req.CanResend
	}

	created, err := s.repo.CreateSample(ctx, repository.CreateSampleParams{
		BrandID:     tenantID,
		SKU:         sku,
		Name:        name,
		UnitCost:    req.UnitCost,
		RetailPrice: req.RetailPrice,
		CanResend:   canResend,
		Notes:       sanitize.TextPtr(req.Notes),
	})
	if err != nil {
		return transport.SampleResponse{}, err
	}
	return transport.ToSampleResponse(created), nil
}

func (s *Service) GetSample(ctx context.Context, tenantID, id uuid.UUID) (transport.SampleResponse, error) {
	sample, err := s.repo.GetSample(ctx, tenantID, id)
	if err != nil {
		return transport.SampleResponse{}, err
	}
	return transport.ToSampleResponse(sample), nil
}

// UpdateSample edits catalogue data. Dispatches already recorded keep their cost snapshot.
func (s *Service) UpdateSample(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateSampleRequest) (transport.SampleResponse, error) {
	update := repository.SampleUpdate{
		UnitCost:    req.UnitCost,
		RetailPrice: req.RetailPrice,
		CanResend:   req.CanResend,
		Notes:       sanitize.TextPtr(req.Notes),
	}
	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku == "" {
			return transport.SampleResponse{}, apperr.ValidationField("sku", "sku must not be empty")
		}
		update.SKU = &sku
	}
	if req.Name != nil {
		name := sanitize.Line(*req.Name)
		if name == "" {
			return transport.SampleResponse{}, apperr.ValidationField("name", "name must not be empty")
		}
		update.Name = &name
	}
	if req.UnitCost != nil && *req.UnitCost < 0 {
		return transport.SampleResponse{}, apperr.ValidationField("unitCost", "unitCost must not be negative")
	}
	if req.RetailPrice != nil && *req.RetailPrice < 0 {
		return transport.SampleResponse{}, apperr.ValidationField("retailPrice", "retailPrice must not be negative")
	}

	updated, err := s.repo.UpdateSample(ctx, tenantID, id, update)
	if err != nil {
		return transport.SampleResponse{}, err
	}
	return transport.ToSampleResponse(updated), nil
}

func (s *Service) ListSamples(ctx context.Context, tenantID uuid.UUID, req transport.ListSamplesRequest) (transport.SampleListResponse, error) {
	page := transport.NewPage(req.Page, req.PageSize)
	samples, total, err := s.repo.ListSamples(ctx, tenantID, strings.TrimSpace(req.Keyword), page.Size, page.Offset())
	if err != nil {
		return transport.SampleListResponse{}, err
	}

	items := make([]transport.SampleResponse, 0, len(samples))
	for _, sample := range samples {
		items = append(items, transport.ToSampleResponse(sample))
	}
	return transport.SampleListResponse{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// DeleteSample removes a sample that was never shipped.
func (s *Service) DeleteSample(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteSample(ctx, tenantID, id)
}

// DispatchSample records a shipment for a collaboration. The sample's unit cost at this
// moment is copied onto the dispatch and both totals are computed once, here.
func (s *Service) DispatchSample(ctx context.Context, tenantID, actorID uuid.UUID, visibility domain.VisibilityPolicy, req transport.DispatchSampleRequest) (transport.DispatchResponse, error) {
	if req.Quantity < 1 {
		return transport.DispatchResponse{}, apperr.ValidationField("quantity", "quantity must be at least 1")
	}
	if req.ShippingCost < 0 {
		return transport.DispatchResponse{}, apperr.ValidationField("shippingCost", "shippingCost must not be negative")
	}

	sample, err := s.repo.GetSample(ctx, tenantID, req.SampleID)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	collab, err := s.repo.GetByID(ctx, tenantID, req.CollaborationID)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	if !visibility.CanSee(collab.BusinessStaffID) {
		return transport.DispatchResponse{}, apperr.NotFound("collaboration not found")
	}

	cost, err := domain.ComputeDispatchCost(req.Quantity, sample.UnitCost, req.ShippingCost)
	if err != nil {
		if errors.Is(err, domain.ErrAmountOverflow) {
			return transport.DispatchResponse{}, apperr.ValidationField("quantity", "dispatch cost is too large")
		}
		return transport.DispatchResponse{}, err
	}

	var tracking *string
	if req.TrackingNumber != nil {
		if trimmed := strings.TrimSpace(*req.TrackingNumber); trimmed != "" {
			tracking = &trimmed
		}
	}

	dispatch, err := s.repo.CreateDispatch(ctx, repository.CreateDispatchParams{
		SampleID:         sample.ID,
		CollaborationID:  collab.ID,
		BusinessStaffID:  actorID,
		Quantity:         req.Quantity,
		UnitCostSnapshot: cost.UnitCostSnapshot,
		ShippingCost:     req.ShippingCost,
		TotalSampleCost:  cost.TotalSampleCost,
		TotalCost:        cost.TotalCost,
		TrackingNumber:   tracking,
	})
	if err != nil {
		return transport.DispatchResponse{}, err
	}

	s.eventBus.Publish(ctx, events.SampleDispatched{
		BaseEvent:       events.NewBaseEvent(),
		DispatchID:      dispatch.ID,
		CollaborationID: collab.ID,
		TenantID:        tenantID,
		SampleID:        sample.ID,
		Quantity:        dispatch.Quantity,
		TotalCost:       dispatch.TotalCost,
	})

	return transport.ToDispatchResponse(dispatch), nil
}

// UpdateDispatchStatus tracks delivery and onboarding. Cost fields cannot be changed.
// A dispatch on a collaboration the caller cannot see is reported as not found.
func (s *Service) UpdateDispatchStatus(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID, req transport.UpdateDispatchStatusRequest) (transport.DispatchResponse, error) {
	update := repository.DispatchStatusUpdate{TrackingNumber: req.TrackingNumber}

	if req.ReceivedStatus != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.ReceivedStatus))
		switch status {
		case domain.ReceivedPending, domain.ReceivedReceived, domain.ReceivedLost:
		default:
			return transport.DispatchResponse{}, apperr.ValidationField("receivedStatus", "unknown received status")
		}
		update.ReceivedStatus = &status
		if status == domain.ReceivedReceived {
			now := s.now()
			update.MarkReceivedAt = &now
		}
	}
	if req.OnboardStatus != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.OnboardStatus))
		switch status {
		case domain.OnboardUnknown, domain.OnboardOnboard, domain.OnboardNotOnboard:
		default:
			return transport.DispatchResponse{}, apperr.ValidationField("onboardStatus", "unknown onboard status")
		}
		update.OnboardStatus = &status
	}

	dispatch, err := s.repo.GetDispatch(ctx, tenantID, id)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	collab, err := s.repo.GetByID(ctx, tenantID, dispatch.CollaborationID)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	if !visibility.CanSee(collab.BusinessStaffID) {
		return transport.DispatchResponse{}, apperr.NotFound("dispatch not found")
	}

	updated, err := s.repo.UpdateDispatchStatus(ctx, tenantID, id, update)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	return transport.ToDispatchResponse(updated), nil
}

// ListDispatches returns a collaboration's shipments with their summed cost.
func (s *Service) ListDispatches(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, collaborationID uuid.UUID) (transport.DispatchListResponse, error) {
	collab, err := s.repo.GetByID(ctx, tenantID, collaborationID)
	if err != nil {
		return transport.DispatchListResponse{}, err
	}
	if !visibility.CanSee(collab.BusinessStaffID) {
		return transport.DispatchListResponse{}, apperr.NotFound("collaboration not found")
	}

	dispatches, err := s.repo.ListDispatches(ctx, tenantID, collaborationID)
	if err != nil {
		return transport.DispatchListResponse{}, err
	}

	items := make([]transport.DispatchResponse, 0, len(dispatches))
	costs := make([]int64, 0, len(dispatches))
	for _, d := range dispatches {
		items = append(items, transport.ToDispatchResponse(d))
		costs = append(costs, d.TotalCost)
	}
	total, err := domain.SumCents(costs...)
	if err != nil {
		return transport.DispatchListResponse{}, err
	}
	return transport.DispatchListResponse{Items: items, TotalCost: total}, nil
}
