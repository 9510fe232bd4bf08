package management

import (
	"context"
	"errors"
	"testing"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/apperr"

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

type memoryRepo struct {
	influencers map[uuid.UUID]bool
	staff       map[uuid.UUID]string
	collabs     map[uuid.UUID]repository.Collaboration
	results     map[uuid.UUID]bool
	followUps   []repository.FollowUp
	created     []repository.CreateCollaborationParams
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		influencers: map[uuid.UUID]bool{},
		staff:       map[uuid.UUID]string{},
		collabs:     map[uuid.UUID]repository.Collaboration{},
		results:     map[uuid.UUID]bool{},
	}
}

func (r *memoryRepo) Create(_ context.Context, p repository.CreateCollaborationParams) (repository.Collaboration, error) {
	r.created = append(r.created, p)
	c := repository.Collaboration{
		ID:              uuid.New(),
		BrandID:         p.BrandID,
		InfluencerID:    p.InfluencerID,
		BusinessStaffID: p.BusinessStaffID,
		Stage:           domain.StageLead,
		SampleID:        p.SampleID,
		QuotedPrice:     p.QuotedPrice,
		Deadline:        p.Deadline,
		IsOverdue:       p.IsOverdue,
		Notes:           p.Notes,
	}
	r.collabs[c.ID] = c
	return c, nil
}

func (r *memoryRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (repository.Collaboration, error) {
	c, ok := r.collabs[id]
	if !ok || c.BrandID != tenantID {
		return repository.Collaboration{}, apperr.NotFound("collaboration not found")
	}
	return c, nil
}

func (r *memoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	if r.results[id] {
		return apperr.BadRequest("collaboration has a result and cannot be deleted")
	}
	delete(r.collabs, id)
	return nil
}

func (r *memoryRepo) UpdateDeadline(ctx context.Context, tenantID, id uuid.UUID, deadline *time.Time, now time.Time) (repository.Collaboration, error) {
	c, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Collaboration{}, err
	}
	c.Deadline = deadline
	c.IsOverdue = domain.IsOverdue(deadline, c.Stage, now)
	r.collabs[id] = c
	return c, nil
}

func (r *memoryRepo) UpdateBlockReason(ctx context.Context, tenantID, id uuid.UUID, reason *domain.BlockReason, followUp *repository.CreateFollowUpParams) (repository.Collaboration, error) {
	c, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return repository.Collaboration{}, err
	}
	c.BlockReason = reason
	r.collabs[id] = c
	if followUp != nil {
		if _, err := r.CreateFollowUp(ctx, id, *followUp); err != nil {
			return repository.Collaboration{}, err
		}
	}
	return c, nil
}

func (r *memoryRepo) CreateFollowUp(_ context.Context, collaborationID uuid.UUID, p repository.CreateFollowUpParams) (repository.FollowUp, error) {
	f := repository.FollowUp{ID: uuid.New(), CollaborationID: collaborationID, UserID: p.UserID, Content: p.Content}
	r.followUps = append(r.followUps, f)
	return f, nil
}

func (r *memoryRepo) ListFollowUps(_ context.Context, _, collaborationID uuid.UUID, _, _ int) ([]repository.FollowUp, int, error) {
	var out []repository.FollowUp
	for _, f := range r.followUps {
		if f.CollaborationID == collaborationID {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) FindActiveClaims(_ context.Context, tenantID, influencerID, excludeStaffID uuid.UUID) ([]repository.ActiveClaim, error) {
	var claims []repository.ActiveClaim
	for _, c := range r.collabs {
		if c.BrandID != tenantID || c.InfluencerID != influencerID || c.BusinessStaffID == excludeStaffID || c.Stage.IsClosed() {
			continue
		}
		claims = append(claims, repository.ActiveClaim{
			CollaborationID: c.ID,
			StaffID:         c.BusinessStaffID,
			StaffName:       r.staff[c.BusinessStaffID],
			Stage:           c.Stage,
		})
	}
	return claims, nil
}

func (r *memoryRepo) ListCards(_ context.Context, _ uuid.UUID, f repository.CollaborationFilter, _, _ int) ([]repository.CollaborationCard, int, error) {
	var cards []repository.CollaborationCard
	for _, c := range r.collabs {
		if f.StaffID != nil && c.BusinessStaffID != *f.StaffID {
			continue
		}
		cards = append(cards, repository.CollaborationCard{Collaboration: c})
	}
	return cards, len(cards), nil
}

func (r *memoryRepo) GetSample(context.Context, uuid.UUID, uuid.UUID) (repository.Sample, error) {
	return repository.Sample{}, apperr.NotFound("sample not found")
}

func (r *memoryRepo) InfluencerExists(_ context.Context, _, influencerID uuid.UUID) (bool, error) {
	return r.influencers[influencerID], nil
}

func (r *memoryRepo) StaffExists(_ context.Context, _, userID uuid.UUID) (bool, error) {
	_, ok := r.staff[userID]
	return ok, nil
}

type fixture struct {
	svc        *Service
	repo       *memoryRepo
	bus        *recordingBus
	tenant     uuid.UUID
	alice      uuid.UUID
	bob        uuid.UUID
	influencer uuid.UUID
	now        time.Time
}

func newFixture() fixture {
	repo := newMemoryRepo()
	bus := &recordingBus{}
	svc := New(repo, bus)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	f := fixture{svc: svc, repo: repo, bus: bus, tenant: uuid.New(), alice: uuid.New(), bob: uuid.New(), influencer: uuid.New(), now: now}
	repo.staff[f.alice] = "Alice"
	repo.staff[f.bob] = "Bob"
	repo.influencers[f.influencer] = true
	return f
}

func (f fixture) create(t *testing.T, actor uuid.UUID, force bool) (transport.CollaborationResponse, error) {
	t.Helper()
	return f.svc.Create(context.Background(), f.tenant, actor, transport.CreateCollaborationRequest{InfluencerID: f.influencer, ForceCreate: force})
}

func TestCreateDefaultsStaffToCaller(t *testing.T) {
	f := newFixture()

	resp, err := f.create(t, f.alice, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.BusinessStaffID != f.alice || resp.Stage != "LEAD" {
		t.Fatalf("unexpected collaboration %#v", resp)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected created event, got %d", len(f.bus.published))
	}
}

func TestCreateRejectsClaimedInfluencerWithConflictDetails(t *testing.T) {
	f := newFixture()
	first, err := f.create(t, f.alice, false)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err = f.create(t, f.bob, false)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if appErr.Code() != ConflictCode {
		t.Fatalf("expected code %s, got %s", ConflictCode, appErr.Code())
	}
	details, ok := appErr.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", appErr.Details)
	}
	conflicts, ok := details["conflicts"].([]transport.ConflictResponse)
	if !ok || len(conflicts) != 1 {
		t.Fatalf("expected one conflict, got %#v", details["conflicts"])
	}
	if conflicts[0].CollaborationID != first.ID || conflicts[0].StaffName != "Alice" {
		t.Fatalf("unexpected conflict %#v", conflicts[0])
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected nothing written for rejected create")
	}
}

func TestCreateSameStaffTwiceIsNotAConflict(t *testing.T) {
	f := newFixture()
	if _, err := f.create(t, f.alice, false); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := f.create(t, f.alice, false); err != nil {
		t.Fatalf("expected own claim to be ignored, got %v", err)
	}
}

func TestCreateIgnoresReviewedClaims(t *testing.T) {
	f := newFixture()
	first, err := f.create(t, f.alice, false)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	c := f.repo.collabs[first.ID]
	c.Stage = domain.StageReviewed
	f.repo.collabs[first.ID] = c

	check, err := f.svc.CheckConflict(context.Background(), f.tenant, f.influencer, f.bob)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.HasConflict || len(check.Conflicts) != 0 {
		t.Fatalf("expected reviewed collaboration not to conflict, got %#v", check)
	}
	if _, err := f.create(t, f.bob, false); err != nil {
		t.Fatalf("create after review: %v", err)
	}
}

func TestForceCreateOverridesConflict(t *testing.T) {
	f := newFixture()
	if _, err := f.create(t, f.alice, false); err != nil {
		t.Fatalf("first create: %v", err)
	}

	if _, err := f.create(t, f.bob, true); err != nil {
		t.Fatalf("forced create: %v", err)
	}
	created, ok := f.bus.published[len(f.bus.published)-1].(events.CollaborationCreated)
	if !ok || !created.ForcedOverConflict {
		t.Fatalf("expected forced-over-conflict event, got %#v", f.bus.published[len(f.bus.published)-1])
	}
}

func TestCreateUnknownInfluencerIsNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), f.tenant, f.alice, transport.CreateCollaborationRequest{InfluencerID: uuid.New()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateWithPastDeadlineStartsOverdue(t *testing.T) {
	f := newFixture()
	past := f.now.Add(-time.Hour)

	resp, err := f.svc.Create(context.Background(), f.tenant, f.alice, transport.CreateCollaborationRequest{InfluencerID: f.influencer, Deadline: &past})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !resp.IsOverdue {
		t.Fatalf("expected collaboration to start overdue")
	}
}

func TestDeleteKeepsCollaborationWithResult(t *testing.T) {
	f := newFixture()
	resp, err := f.create(t, f.alice, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.repo.results[resp.ID] = true

	err = f.svc.Delete(context.Background(), f.tenant, domain.SeeAll(), resp.ID)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if _, ok := f.repo.collabs[resp.ID]; !ok {
		t.Fatalf("collaboration was deleted")
	}
}

func TestDeleteHiddenFromOtherStaff(t *testing.T) {
	f := newFixture()
	resp, err := f.create(t, f.alice, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = f.svc.Delete(context.Background(), f.tenant, domain.OwnOnly(f.bob), resp.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetDeadlineRecomputesOverdue(t *testing.T) {
	f := newFixture()
	resp, err := f.create(t, f.alice, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	past := f.now.Add(-time.Minute)
	updated, err := f.svc.SetDeadline(context.Background(), f.tenant, domain.SeeAll(), resp.ID, transport.SetDeadlineRequest{Deadline: &past})
	if err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	if !updated.IsOverdue {
		t.Fatalf("expected overdue after past deadline")
	}

	cleared, err := f.svc.SetDeadline(context.Background(), f.tenant, domain.SeeAll(), resp.ID, transport.SetDeadlineRequest{})
	if err != nil {
		t.Fatalf("clear deadline: %v", err)
	}
	if cleared.IsOverdue || cleared.Deadline != nil {
		t.Fatalf("expected cleared deadline to clear overdue, got %#v", cleared)
	}
}

func TestSetBlockReasonAddsFollowUp(t *testing.T) {
	f := newFixture()
	resp, err := f.create(t, f.alice, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	reason := "PRICE_HIGH"

	updated, err := f.svc.SetBlockReason(context.Background(), f.tenant, f.alice, domain.SeeAll(), resp.ID, transport.SetBlockReasonRequest{BlockReason: &reason, Notes: "asks 2x", AddFollowUp: true})
	if err != nil {
		t.Fatalf("set block reason: %v", err)
	}
	if updated.BlockReason == nil || *updated.BlockReason != reason {
		t.Fatalf("unexpected block reason %v", updated.BlockReason)
	}
	if len(f.repo.followUps) != 1 {
		t.Fatalf("expected one follow-up, got %d", len(f.repo.followUps))
	}

	bogus := "BORED"
	_, err = f.svc.SetBlockReason(context.Background(), f.tenant, f.alice, domain.SeeAll(), resp.ID, transport.SetBlockReasonRequest{BlockReason: &bogus})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListRestrictedStaffAskingForColleagueIsEmpty(t *testing.T) {
	f := newFixture()
	if _, err := f.create(t, f.alice, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := f.svc.List(context.Background(), f.tenant, domain.OwnOnly(f.bob), transport.ListCollaborationsRequest{StaffID: f.alice.String()})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Items) != 0 || resp.Total != 0 {
		t.Fatalf("expected empty page, got %#v", resp)
	}
}
