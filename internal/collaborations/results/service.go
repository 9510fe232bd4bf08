// Package results records collaboration outcomes and derives their ROI and profit status.
package results

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

const (
	// ReviewNote is written to the stage history when recording a result closes the collaboration.
	ReviewNote = "result recorded"

	maxCommissionBps = 10000
	reportDateLayout = "2006-01-02"
)

// Repository defines the data access needed by the results service.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Collaboration, error)
	CreateResult(ctx context.Context, p repository.CreateResultParams, evaluate repository.ResultEvaluator) (repository.Result, error)
	UpdateResult(ctx context.Context, tenantID, id uuid.UUID, apply func(current repository.Result) (repository.Result, error)) (repository.Result, error)
	GetResult(ctx context.Context, tenantID, id uuid.UUID) (repository.Result, error)
	ListResults(ctx context.Context, tenantID uuid.UUID, f repository.ResultFilter, limit, offset int) ([]repository.Result, int, error)
	AggregateResults(ctx context.Context, tenantID uuid.UUID, f repository.ReportFilter) ([]repository.ReportRow, error)
}

type Service struct {
	repo     Repository
	eventBus events.Bus
}

func New(repo Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus}
}

// CreateResult records the single result of a collaboration. The sample cost is the sum
// of its dispatches at this moment and is never recomputed afterwards. The collaboration
// is moved to REVIEWED in the same transaction.
func (s *Service) CreateResult(ctx context.Context, tenantID, actorID uuid.UUID, visibility domain.VisibilityPolicy, req transport.CreateResultRequest) (transport.ResultResponse, error) {
	contentType, err := parseContentType(req.ContentType)
	if err != nil {
		return transport.ResultResponse{}, err
	}
	if req.PublishedAt.IsZero() {
		return transport.ResultResponse{}, apperr.ValidationField("publishedAt", "publishedAt is required")
	}
	if err := validateAmounts(req.SalesQuantity, req.SalesGmv, req.CommissionRateBps, req.PitFee, req.ActualCommission); err != nil {
		return transport.ResultResponse{}, err
	}

	collab, err := s.repo.GetByID(ctx, tenantID, req.CollaborationID)
	if err != nil {
		return transport.ResultResponse{}, err
	}
	if !visibility.CanSee(collab.BusinessStaffID) {
		return transport.ResultResponse{}, apperr.NotFound("collaboration not found")
	}

	created, err := s.repo.CreateResult(ctx, repository.CreateResultParams{
		TenantID:          tenantID,
		CollaborationID:   collab.ID,
		ContentType:       contentType,
		PublishedAt:       req.PublishedAt,
		SalesQuantity:     req.SalesQuantity,
		SalesGmv:          req.SalesGmv,
		CommissionRateBps: req.CommissionRateBps,
		PitFee:            req.PitFee,
		ActualCommission:  req.ActualCommission,
		WillRepeat:        req.WillRepeat,
		Notes:             sanitize.TextPtr(req.Notes),
		ActorID:           actorID,
		ReviewNote:        ReviewNote,
	}, func(totalSampleCost int64) (domain.ResultOutcome, error) {
		return evaluate(domain.ResultInput{
			TotalSampleCost:  totalSampleCost,
			PitFee:           req.PitFee,
			ActualCommission: req.ActualCommission,
			SalesGmv:         req.SalesGmv,
		})
	})
	if err != nil {
		return transport.ResultResponse{}, err
	}

	s.eventBus.Publish(ctx, events.ResultRecorded{
		BaseEvent:       events.NewBaseEvent(),
		ResultID:        created.ID,
		CollaborationID: created.CollaborationID,
		TenantID:        tenantID,
		ROI:             created.ROI,
		ProfitStatus:    string(created.ProfitStatus),
	})

	return transport.ToResultResponse(created), nil
}

// UpdateResult edits a result. Cost, ROI and status are derived again from the stored
// sample cost whenever money fields change.
func (s *Service) UpdateResult(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID, req transport.UpdateResultRequest) (transport.ResultResponse, error) {
	var contentType *string
	if req.ContentType != nil {
		parsed, err := parseContentType(*req.ContentType)
		if err != nil {
			return transport.ResultResponse{}, err
		}
		contentType = &parsed
	}

	if err := s.ensureVisible(ctx, tenantID, visibility, id); err != nil {
		return transport.ResultResponse{}, err
	}

	updated, err := s.repo.UpdateResult(ctx, tenantID, id, func(current repository.Result) (repository.Result, error) {
		next := current
		if contentType != nil {
			next.ContentType = *contentType
		}
		if req.PublishedAt != nil {
			next.PublishedAt = *req.PublishedAt
		}
		if req.SalesQuantity != nil {
			next.SalesQuantity = *req.SalesQuantity
		}
		if req.SalesGmv != nil {
			next.SalesGmv = *req.SalesGmv
		}
		if req.CommissionRateBps != nil {
			next.CommissionRateBps = *req.CommissionRateBps
		}
		if req.PitFee != nil {
			next.PitFee = *req.PitFee
		}
		if req.ActualCommission != nil {
			next.ActualCommission = *req.ActualCommission
		}
		if req.WillRepeat != nil {
			next.WillRepeat = *req.WillRepeat
		}
		if req.Notes != nil {
			next.Notes = sanitize.TextPtr(req.Notes)
		}

		if err := validateAmounts(next.SalesQuantity, next.SalesGmv, next.CommissionRateBps, next.PitFee, next.ActualCommission); err != nil {
			return repository.Result{}, err
		}

		outcome, err := evaluate(domain.ResultInput{
			TotalSampleCost:  current.TotalSampleCost,
			PitFee:           next.PitFee,
			ActualCommission: next.ActualCommission,
			SalesGmv:         next.SalesGmv,
		})
		if err != nil {
			return repository.Result{}, err
		}
		next.TotalCollaborationCost = outcome.TotalCollaborationCost
		next.ROI = outcome.ROI
		next.ProfitStatus = outcome.ProfitStatus
		return next, nil
	})
	if err != nil {
		return transport.ResultResponse{}, err
	}
	return transport.ToResultResponse(updated), nil
}

func (s *Service) GetResult(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, id uuid.UUID) (transport.ResultResponse, error) {
	result, err := s.repo.GetResult(ctx, tenantID, id)
	if err != nil {
		return transport.ResultResponse{}, err
	}
	if visibility.Restricted() {
		collab, err := s.repo.GetByID(ctx, tenantID, result.CollaborationID)
		if err != nil {
			return transport.ResultResponse{}, err
		}
		if !visibility.CanSee(collab.BusinessStaffID) {
			return transport.ResultResponse{}, apperr.NotFound("result not found")
		}
	}
	return transport.ToResultResponse(result), nil
}

func (s *Service) ListResults(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, req transport.ListResultsRequest) (transport.ResultListResponse, error) {
	page := transport.NewPage(req.Page, req.PageSize)
	empty := transport.ResultListResponse{Items: []transport.ResultResponse{}, Page: page.Number, PageSize: page.Size}

	var filter repository.ResultFilter
	if req.ProfitStatus != "" {
		status, err := parseProfitStatus(req.ProfitStatus)
		if err != nil {
			return transport.ResultListResponse{}, err
		}
		filter.ProfitStatus = &status
	}
	if req.ContentType != "" {
		contentType, err := parseContentType(req.ContentType)
		if err != nil {
			return transport.ResultListResponse{}, err
		}
		filter.ContentType = &contentType
	}
	requested, err := parseOptionalUUID("staffId", req.StaffID)
	if err != nil {
		return transport.ResultListResponse{}, err
	}
	staffID, ok := visibility.StaffScope(requested)
	if !ok {
		return empty, nil
	}
	filter.StaffID = staffID

	items, total, err := s.repo.ListResults(ctx, tenantID, filter, page.Size, page.Offset())
	if err != nil {
		return transport.ResultListResponse{}, err
	}

	resp := make([]transport.ResultResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, transport.ToResultResponse(item))
	}
	return transport.ResultListResponse{
		Items:      resp,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ROIReport aggregates results per staff member, creator or month. Each group and the
// grand total are classified with the same rule as a single result.
func (s *Service) ROIReport(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, req transport.ROIReportRequest) (transport.ROIReportResponse, error) {
	filter := repository.ReportFilter{GroupBy: repository.ReportGroup(strings.ToLower(req.GroupBy))}
	switch filter.GroupBy {
	case repository.ReportByStaff, repository.ReportByInfluencer, repository.ReportByMonth:
	default:
		return transport.ROIReportResponse{}, apperr.ValidationField("groupBy", "groupBy must be one of staff, influencer, month")
	}

	from, err := parseReportDate("from", req.From)
	if err != nil {
		return transport.ROIReportResponse{}, err
	}
	to, err := parseReportDate("to", req.To)
	if err != nil {
		return transport.ROIReportResponse{}, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && !from.Before(*to) {
		return transport.ROIReportResponse{}, apperr.ValidationField("from", "from must not be after to")
	}
	filter.From, filter.To = from, to

	resp := transport.ROIReportResponse{GroupBy: string(filter.GroupBy), Rows: []transport.ROIReportRow{}}

	requested, err := parseOptionalUUID("staffId", req.StaffID)
	if err != nil {
		return transport.ROIReportResponse{}, err
	}
	staffID, ok := visibility.StaffScope(requested)
	if !ok {
		resp.Total = reportRow("total", "total", 0, 0, 0)
		return resp, nil
	}
	filter.StaffID = staffID

	rows, err := s.repo.AggregateResults(ctx, tenantID, filter)
	if err != nil {
		return transport.ROIReportResponse{}, err
	}

	var totalGmv, totalCost int64
	var count int
	for _, row := range rows {
		resp.Rows = append(resp.Rows, reportRow(row.Key, row.Label, row.Count, row.TotalGmv, row.TotalCost))
		if totalGmv, err = domain.SumCents(totalGmv, row.TotalGmv); err != nil {
			return transport.ROIReportResponse{}, err
		}
		if totalCost, err = domain.SumCents(totalCost, row.TotalCost); err != nil {
			return transport.ROIReportResponse{}, err
		}
		count += row.Count
	}
	resp.Total = reportRow("total", "total", count, totalGmv, totalCost)
	return resp, nil
}

func (s *Service) ensureVisible(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, resultID uuid.UUID) error {
	if !visibility.Restricted() {
		return nil
	}
	_, err := s.GetResult(ctx, tenantID, visibility, resultID)
	return err
}

func reportRow(key, label string, count int, gmv, cost int64) transport.ROIReportRow {
	return transport.ROIReportRow{
		Key:          key,
		Label:        label,
		Count:        count,
		TotalGmv:     gmv,
		TotalCost:    cost,
		ROI:          domain.ComputeROI(gmv, cost),
		ProfitStatus: string(domain.ClassifyProfit(gmv, cost)),
	}
}

func evaluate(in domain.ResultInput) (domain.ResultOutcome, error) {
	outcome, err := domain.EvaluateResult(in)
	if errors.Is(err, domain.ErrAmountOverflow) {
		return domain.ResultOutcome{}, apperr.Validation("collaboration cost is too large")
	}
	return outcome, err
}

func validateAmounts(salesQuantity int, gmv int64, commissionBps int, pitFee, commission int64) error {
	switch {
	case salesQuantity < 0:
		return apperr.ValidationField("salesQuantity", "salesQuantity must not be negative")
	case gmv < 0:
		return apperr.ValidationField("salesGmv", "salesGmv must not be negative")
	case commissionBps < 0 || commissionBps > maxCommissionBps:
		return apperr.ValidationField("commissionRateBps", "commissionRateBps must be between 0 and 10000")
	case pitFee < 0:
		return apperr.ValidationField("pitFee", "pitFee must not be negative")
	case commission < 0:
		return apperr.ValidationField("actualCommission", "actualCommission must not be negative")
	}
	return nil
}

func parseContentType(raw string) (string, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch value {
	case domain.ContentShortVideo, domain.ContentLiveStream:
		return value, nil
	}
	return "", apperr.ValidationField("contentType", "contentType must be SHORT_VIDEO or LIVE_STREAM")
}

func parseProfitStatus(raw string) (domain.ProfitStatus, error) {
	status := domain.ProfitStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case domain.ProfitLoss, domain.ProfitBreakEven, domain.ProfitProfit, domain.ProfitHighProfit:
		return status, nil
	}
	return "", apperr.ValidationField("profitStatus", "profitStatus must be LOSS, BREAK_EVEN, PROFIT or HIGH_PROFIT")
}

func parseReportDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(reportDateLayout, raw)
	if err != nil {
		return nil, apperr.ValidationField(field, field+" must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.ValidationField(field, "invalid "+field)
	}
	return &id, nil
}
