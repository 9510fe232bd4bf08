// Package overdue keeps the persisted is_overdue flags in line with deadlines and
// announces collaborations that fall behind or are about to.
package overdue

import (
	"context"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/apperr"
	"collab_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// DefaultReminderWindow is how far ahead deadline reminders look when no window is configured.
const DefaultReminderWindow = 24 * time.Hour

// Repository defines the data access needed by the reconciler.
type Repository interface {
	ReconcileOverdue(ctx context.Context, tenantID *uuid.UUID, now time.Time) ([]repository.OverdueCollaboration, int64, error)
	ListDeadlinesApproaching(ctx context.Context, tenantID *uuid.UUID, now, until time.Time) ([]repository.OverdueCollaboration, error)
	ListOverdueCards(ctx context.Context, tenantID uuid.UUID, f repository.CollaborationFilter, limit, offset int) ([]repository.CollaborationCard, int, error)
}

type Service struct {
	repo     Repository
	eventBus events.Bus
	log      *logger.Logger
	window   time.Duration
	now      func() time.Time
}

// New creates the reconciler. A non-positive window falls back to DefaultReminderWindow.
func New(repo Repository, eventBus events.Bus, log *logger.Logger, window time.Duration) *Service {
	if window <= 0 {
		window = DefaultReminderWindow
	}
	return &Service{repo: repo, eventBus: eventBus, log: log, window: window, now: time.Now}
}

// SetClock replaces the time source of the sweep.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CheckAndUpdateOverdueStatus flags collaborations past their deadline and clears flags
// that no longer hold. A nil tenantID sweeps every tenant. Newly flagged collaborations
// are announced after the sweep commits; announcing never fails the sweep.
func (s *Service) CheckAndUpdateOverdueStatus(ctx context.Context, tenantID *uuid.UUID) (transport.OverdueSweepResponse, error) {
	start := time.Now()
	now := s.now()
	marked, cleared, err := s.repo.ReconcileOverdue(ctx, tenantID, now)
	if err != nil {
		return transport.OverdueSweepResponse{}, err
	}

	s.log.OverdueSweep(scopeLabel(tenantID), int64(len(marked)), cleared, float64(time.Since(start).Microseconds())/1000.0)

	if len(marked) > 0 {
		s.eventBus.Publish(ctx, events.OverdueDetected{
			BaseEvent:      events.NewBaseEventAt(now),
			Collaborations: toEventRows(marked),
		})
	}

	return transport.OverdueSweepResponse{
		Marked:  int64(len(marked)),
		Cleared: cleared,
		Total:   int64(len(marked)) + cleared,
	}, nil
}

// DeadlinesApproaching lists open collaborations whose deadline falls within window from now
// and announces them for reminders. A non-positive window uses the configured one.
func (s *Service) DeadlinesApproaching(ctx context.Context, tenantID *uuid.UUID, window time.Duration) ([]transport.DeadlineReminderResponse, error) {
	if window <= 0 {
		window = s.window
	}
	now := s.now()
	rows, err := s.repo.ListDeadlinesApproaching(ctx, tenantID, now, now.Add(window))
	if err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		s.eventBus.Publish(ctx, events.DeadlinesApproaching{
			BaseEvent:      events.NewBaseEventAt(now),
			Window:         window,
			Collaborations: toEventRows(rows),
		})
	}

	items := make([]transport.DeadlineReminderResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, transport.DeadlineReminderResponse{
			CollaborationID:    row.ID,
			BusinessStaffID:    row.BusinessStaffID,
			InfluencerNickname: row.InfluencerNickname,
			Stage:              string(row.Stage),
			Deadline:           row.Deadline,
		})
	}
	return items, nil
}

// RunChecks runs the sweep followed by the reminder scan.
func (s *Service) RunChecks(ctx context.Context, tenantID *uuid.UUID) (transport.RunChecksResponse, error) {
	sweep, err := s.CheckAndUpdateOverdueStatus(ctx, tenantID)
	if err != nil {
		return transport.RunChecksResponse{}, err
	}
	reminders, err := s.DeadlinesApproaching(ctx, tenantID, 0)
	if err != nil {
		return transport.RunChecksResponse{}, err
	}
	return transport.RunChecksResponse{Overdue: sweep, DeadlinesApproaching: len(reminders)}, nil
}

// ListOverdue returns overdue collaborations the caller may see, nearest deadline first.
func (s *Service) ListOverdue(ctx context.Context, tenantID uuid.UUID, visibility domain.VisibilityPolicy, req transport.ListOverdueRequest) (transport.CollaborationListResponse, error) {
	page := transport.NewPage(req.Page, req.PageSize)
	empty := transport.CollaborationListResponse{Items: []transport.CollaborationCardResponse{}, Page: page.Number, PageSize: page.Size}

	var requested *uuid.UUID
	if req.StaffID != "" {
		id, err := uuid.Parse(req.StaffID)
		if err != nil {
			return transport.CollaborationListResponse{}, apperr.ValidationField("staffId", "invalid staffId")
		}
		requested = &id
	}
	staffID, ok := visibility.StaffScope(requested)
	if !ok {
		return empty, nil
	}

	cards, total, err := s.repo.ListOverdueCards(ctx, tenantID, repository.CollaborationFilter{StaffID: staffID}, page.Size, page.Offset())
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

func toEventRows(rows []repository.OverdueCollaboration) []events.OverdueCollaboration {
	out := make([]events.OverdueCollaboration, 0, len(rows))
	for _, row := range rows {
		out = append(out, events.OverdueCollaboration{
			CollaborationID:    row.ID,
			TenantID:           row.BrandID,
			BusinessStaffID:    row.BusinessStaffID,
			InfluencerNickname: row.InfluencerNickname,
			Stage:              string(row.Stage),
			Deadline:           row.Deadline,
		})
	}
	return out
}

func scopeLabel(tenantID *uuid.UUID) string {
	if tenantID == nil {
		return "all"
	}
	return tenantID.String()
}
