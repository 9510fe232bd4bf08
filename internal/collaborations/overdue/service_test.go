package overdue

import (
	"context"
	"testing"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type row struct {
	collab   repository.Collaboration
	nickname string
}

// memoryRepo applies the same flag rule as the SQL sweep.
type memoryRepo struct {
	rows        []*row
	lastUntil   time.Time
	lastFilter  repository.CollaborationFilter
	listedCards int
}

func (r *memoryRepo) add(tenantID, staffID uuid.UUID, stage domain.Stage, deadline *time.Time, overdue bool) *row {
	item := &row{
		collab: repository.Collaboration{
			ID:              uuid.New(),
			BrandID:         tenantID,
			BusinessStaffID: staffID,
			Stage:           stage,
			Deadline:        deadline,
			IsOverdue:       overdue,
		},
		nickname: "creator",
	}
	r.rows = append(r.rows, item)
	return item
}

func inScope(c repository.Collaboration, tenantID *uuid.UUID) bool {
	return tenantID == nil || c.BrandID == *tenantID
}

func (r *memoryRepo) ReconcileOverdue(_ context.Context, tenantID *uuid.UUID, now time.Time) ([]repository.OverdueCollaboration, int64, error) {
	var marked []repository.OverdueCollaboration
	var cleared int64
	for _, item := range r.rows {
		c := &item.collab
		if !inScope(*c, tenantID) {
			continue
		}
		want := domain.IsOverdue(c.Deadline, c.Stage, now)
		switch {
		case want && !c.IsOverdue:
			c.IsOverdue = true
			marked = append(marked, repository.OverdueCollaboration{
				ID:                 c.ID,
				BrandID:            c.BrandID,
				BusinessStaffID:    c.BusinessStaffID,
				InfluencerNickname: item.nickname,
				Stage:              c.Stage,
				Deadline:           *c.Deadline,
			})
		case !want && c.IsOverdue:
			c.IsOverdue = false
			cleared++
		}
	}
	return marked, cleared, nil
}

func (r *memoryRepo) ListDeadlinesApproaching(_ context.Context, tenantID *uuid.UUID, now, until time.Time) ([]repository.OverdueCollaboration, error) {
	r.lastUntil = until
	var out []repository.OverdueCollaboration
	for _, item := range r.rows {
		c := item.collab
		if !inScope(c, tenantID) || c.Deadline == nil || c.IsOverdue || c.Stage.IsTerminalComplete() {
			continue
		}
		if c.Deadline.Before(now) || !c.Deadline.Before(until) {
			continue
		}
		out = append(out, repository.OverdueCollaboration{ID: c.ID, BrandID: c.BrandID, BusinessStaffID: c.BusinessStaffID, Stage: c.Stage, Deadline: *c.Deadline})
	}
	return out, nil
}

func (r *memoryRepo) ListOverdueCards(_ context.Context, tenantID uuid.UUID, f repository.CollaborationFilter, _, _ int) ([]repository.CollaborationCard, int, error) {
	r.listedCards++
	r.lastFilter = f
	var cards []repository.CollaborationCard
	for _, item := range r.rows {
		c := item.collab
		if c.BrandID != tenantID || !c.IsOverdue {
			continue
		}
		if f.StaffID != nil && c.BusinessStaffID != *f.StaffID {
			continue
		}
		cards = append(cards, repository.CollaborationCard{Collaboration: c, InfluencerNickname: item.nickname})
	}
	return cards, len(cards), nil
}

type fixture struct {
	svc    *Service
	repo   *memoryRepo
	bus    *recordingBus
	tenant uuid.UUID
	staff  uuid.UUID
	now    time.Time
}

func newFixture() fixture {
	repo := &memoryRepo{}
	bus := &recordingBus{}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := New(repo, bus, logger.New("test"), 0)
	svc.SetClock(func() time.Time { return now })
	return fixture{svc: svc, repo: repo, bus: bus, tenant: uuid.New(), staff: uuid.New(), now: now}
}

func at(t time.Time) *time.Time { return &t }

func TestSweepMarksAndClearsFlags(t *testing.T) {
	f := newFixture()
	late := f.repo.add(f.tenant, f.staff, domain.StageSampled, at(f.now.Add(-time.Hour)), false)
	published := f.repo.add(f.tenant, f.staff, domain.StagePublished, at(f.now.Add(-time.Hour)), true)
	future := f.repo.add(f.tenant, f.staff, domain.StageQuoted, at(f.now.Add(time.Hour)), true)
	undated := f.repo.add(f.tenant, f.staff, domain.StageLead, nil, false)

	resp, err := f.svc.CheckAndUpdateOverdueStatus(context.Background(), nil)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if resp.Marked != 1 || resp.Cleared != 2 || resp.Total != 3 {
		t.Fatalf("unexpected sweep result %+v", resp)
	}
	if !late.collab.IsOverdue || published.collab.IsOverdue || future.collab.IsOverdue || undated.collab.IsOverdue {
		t.Fatalf("flags not reconciled")
	}

	detected, ok := f.bus.published[0].(events.OverdueDetected)
	if !ok || len(detected.Collaborations) != 1 || detected.Collaborations[0].CollaborationID != late.collab.ID {
		t.Fatalf("unexpected event %#v", f.bus.published)
	}
	if detected.Collaborations[0].TenantID != f.tenant || detected.Collaborations[0].Stage != "SAMPLED" {
		t.Fatalf("unexpected event row %+v", detected.Collaborations[0])
	}
	if !detected.OccurredAt().Equal(f.now) {
		t.Fatalf("expected event stamped with sweep time %v, got %v", f.now, detected.OccurredAt())
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newFixture()
	f.repo.add(f.tenant, f.staff, domain.StageContacted, at(f.now.Add(-time.Minute)), false)

	if _, err := f.svc.CheckAndUpdateOverdueStatus(context.Background(), nil); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	second, err := f.svc.CheckAndUpdateOverdueStatus(context.Background(), nil)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second.Total != 0 {
		t.Fatalf("expected no changes on second sweep, got %+v", second)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected only the first sweep to announce, got %d events", len(f.bus.published))
	}
}

func TestSweepScopedToTenant(t *testing.T) {
	f := newFixture()
	other := uuid.New()
	mine := f.repo.add(f.tenant, f.staff, domain.StageLead, at(f.now.Add(-time.Hour)), false)
	theirs := f.repo.add(other, f.staff, domain.StageLead, at(f.now.Add(-time.Hour)), false)

	if _, err := f.svc.CheckAndUpdateOverdueStatus(context.Background(), &f.tenant); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !mine.collab.IsOverdue || theirs.collab.IsOverdue {
		t.Fatalf("sweep leaked across tenants")
	}
}

func TestDeadlinesApproachingUsesDefaultWindow(t *testing.T) {
	f := newFixture()
	soon := f.repo.add(f.tenant, f.staff, domain.StageScheduled, at(f.now.Add(3*time.Hour)), false)
	f.repo.add(f.tenant, f.staff, domain.StageScheduled, at(f.now.Add(48*time.Hour)), false)
	f.repo.add(f.tenant, f.staff, domain.StagePublished, at(f.now.Add(time.Hour)), false)

	items, err := f.svc.DeadlinesApproaching(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("deadlines: %v", err)
	}
	if !f.repo.lastUntil.Equal(f.now.Add(DefaultReminderWindow)) {
		t.Fatalf("expected default window, got until %v", f.repo.lastUntil)
	}
	if len(items) != 1 || items[0].CollaborationID != soon.collab.ID {
		t.Fatalf("unexpected reminders %+v", items)
	}
	event, ok := f.bus.published[0].(events.DeadlinesApproaching)
	if !ok || event.Window != DefaultReminderWindow {
		t.Fatalf("unexpected event %#v", f.bus.published[0])
	}
}

func TestRunChecksReportsBothPasses(t *testing.T) {
	f := newFixture()
	f.repo.add(f.tenant, f.staff, domain.StageLead, at(f.now.Add(-time.Hour)), false)
	f.repo.add(f.tenant, f.staff, domain.StageLead, at(f.now.Add(time.Hour)), false)

	resp, err := f.svc.RunChecks(context.Background(), nil)
	if err != nil {
		t.Fatalf("run checks: %v", err)
	}
	if resp.Overdue.Marked != 1 || resp.DeadlinesApproaching != 1 {
		t.Fatalf("unexpected result %+v", resp)
	}
}

func TestListOverdueAppliesVisibilityFirst(t *testing.T) {
	f := newFixture()
	colleague := uuid.New()
	f.repo.add(f.tenant, f.staff, domain.StageLead, at(f.now.Add(-time.Hour)), true)
	f.repo.add(f.tenant, colleague, domain.StageLead, at(f.now.Add(-time.Hour)), true)

	own, err := f.svc.ListOverdue(context.Background(), f.tenant, domain.OwnOnly(f.staff), transport.ListOverdueRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if own.Total != 1 || own.Items[0].BusinessStaffID != f.staff {
		t.Fatalf("expected only own overdue row, got %+v", own)
	}

	calls := f.repo.listedCards
	peek, err := f.svc.ListOverdue(context.Background(), f.tenant, domain.OwnOnly(f.staff), transport.ListOverdueRequest{StaffID: colleague.String()})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if peek.Total != 0 || len(peek.Items) != 0 || f.repo.listedCards != calls {
		t.Fatalf("expected empty page without query, got %+v", peek)
	}

	all, err := f.svc.ListOverdue(context.Background(), f.tenant, domain.SeeAll(), transport.ListOverdueRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected 2 overdue rows, got %d", all.Total)
	}
}
