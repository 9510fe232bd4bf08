package collaborations

import (
	"context"
	"testing"
	"time"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/ledger"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/results"
	"collab_pipeline_backend/internal/collaborations/stages"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

type discardBus struct{}

func (discardBus) Publish(context.Context, events.Event)           {}
func (discardBus) PublishSync(context.Context, events.Event) error { return nil }
func (discardBus) Subscribe(string, events.Handler)                {}

// memoryStore backs the stage, ledger and result services with one shared state, so costs
// flow from dispatches into results the way they do through the database.
type memoryStore struct {
	collabs    map[uuid.UUID]repository.Collaboration
	history    map[uuid.UUID][]repository.StageHistoryEntry
	samples    map[uuid.UUID]repository.Sample
	dispatches []repository.SampleDispatch
	results    map[uuid.UUID]repository.Result
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		collabs: map[uuid.UUID]repository.Collaboration{},
		history: map[uuid.UUID][]repository.StageHistoryEntry{},
		samples: map[uuid.UUID]repository.Sample{},
		results: map[uuid.UUID]repository.Result{},
	}
}

func (m *memoryStore) GetByID(_ context.Context, tenantID, id uuid.UUID) (repository.Collaboration, error) {
	c, ok := m.collabs[id]
	if !ok || c.BrandID != tenantID {
		return repository.Collaboration{}, apperr.NotFound("collaboration not found")
	}
	return c, nil
}

func (m *memoryStore) moveStage(id uuid.UUID, to domain.Stage, note *string) repository.Collaboration {
	c := m.collabs[id]
	from := c.Stage
	c.Stage = to
	m.collabs[id] = c
	m.history[id] = append(m.history[id], repository.StageHistoryEntry{ID: uuid.New(), CollaborationID: id, FromStage: &from, ToStage: to, Note: note})
	return c
}

func (m *memoryStore) TransitionStage(ctx context.Context, p repository.TransitionParams, guard func(domain.Stage) error) (repository.Collaboration, bool, error) {
	c, err := m.GetByID(ctx, p.TenantID, p.CollaborationID)
	if err != nil {
		return repository.Collaboration{}, false, err
	}
	if c.Stage == p.To {
		return c, false, nil
	}
	if err := guard(c.Stage); err != nil {
		return repository.Collaboration{}, false, err
	}
	return m.moveStage(c.ID, p.To, p.Note), true, nil
}

func (m *memoryStore) ListStageHistory(_ context.Context, _, id uuid.UUID) ([]repository.StageHistoryEntry, error) {
	return m.history[id], nil
}

func (m *memoryStore) CreateSample(_ context.Context, p repository.CreateSampleParams) (repository.Sample, error) {
	s := repository.Sample{ID: uuid.New(), BrandID: p.BrandID, SKU: p.SKU, Name: p.Name, UnitCost: p.UnitCost, RetailPrice: p.RetailPrice, CanResend: p.CanResend}
	m.samples[s.ID] = s
	return s, nil
}

func (m *memoryStore) GetSample(_ context.Context, tenantID, id uuid.UUID) (repository.Sample, error) {
	s, ok := m.samples[id]
	if !ok || s.BrandID != tenantID {
		return repository.Sample{}, apperr.NotFound("sample not found")
	}
	return s, nil
}

func (m *memoryStore) UpdateSample(ctx context.Context, tenantID, id uuid.UUID, u repository.SampleUpdate) (repository.Sample, error) {
	s, err := m.GetSample(ctx, tenantID, id)
	if err != nil {
		return repository.Sample{}, err
	}
	if u.UnitCost != nil {
		s.UnitCost = *u.UnitCost
	}
	m.samples[id] = s
	return s, nil
}

func (m *memoryStore) ListSamples(context.Context, uuid.UUID, string, int, int) ([]repository.Sample, int, error) {
	return nil, 0, nil
}

func (m *memoryStore) DeleteSample(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (m *memoryStore) CreateDispatch(_ context.Context, p repository.CreateDispatchParams) (repository.SampleDispatch, error) {
	d := repository.SampleDispatch{
		ID:               uuid.New(),
		SampleID:         p.SampleID,
		CollaborationID:  p.CollaborationID,
		BusinessStaffID:  p.BusinessStaffID,
		Quantity:         p.Quantity,
		UnitCostSnapshot: p.UnitCostSnapshot,
		ShippingCost:     p.ShippingCost,
		TotalSampleCost:  p.TotalSampleCost,
		TotalCost:        p.TotalCost,
		ReceivedStatus:   domain.ReceivedPending,
		OnboardStatus:    domain.OnboardUnknown,
	}
	m.dispatches = append(m.dispatches, d)
	return d, nil
}

func (m *memoryStore) GetDispatch(_ context.Context, _, id uuid.UUID) (repository.SampleDispatch, error) {
	for _, d := range m.dispatches {
		if d.ID == id {
			return d, nil
		}
	}
	return repository.SampleDispatch{}, apperr.NotFound("dispatch not found")
}

func (m *memoryStore) UpdateDispatchStatus(ctx context.Context, tenantID, id uuid.UUID, _ repository.DispatchStatusUpdate) (repository.SampleDispatch, error) {
	return m.GetDispatch(ctx, tenantID, id)
}

func (m *memoryStore) ListDispatches(_ context.Context, _, collaborationID uuid.UUID) ([]repository.SampleDispatch, error) {
	var out []repository.SampleDispatch
	for _, d := range m.dispatches {
		if d.CollaborationID == collaborationID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateResult(ctx context.Context, p repository.CreateResultParams, evaluate repository.ResultEvaluator) (repository.Result, error) {
	c, err := m.GetByID(ctx, p.TenantID, p.CollaborationID)
	if err != nil {
		return repository.Result{}, err
	}
	var sampleCost int64
	for _, d := range m.dispatches {
		if d.CollaborationID == c.ID {
			sampleCost += d.TotalCost
		}
	}
	outcome, err := evaluate(sampleCost)
	if err != nil {
		return repository.Result{}, err
	}
	res := repository.Result{
		ID:                     uuid.New(),
		CollaborationID:        c.ID,
		ContentType:            p.ContentType,
		PublishedAt:            p.PublishedAt,
		SalesGmv:               p.SalesGmv,
		CommissionRateBps:      p.CommissionRateBps,
		PitFee:                 p.PitFee,
		ActualCommission:       p.ActualCommission,
		TotalSampleCost:        outcome.TotalSampleCost,
		TotalCollaborationCost: outcome.TotalCollaborationCost,
		ROI:                    outcome.ROI,
		ProfitStatus:           outcome.ProfitStatus,
	}
	m.results[res.ID] = res
	if c.Stage != domain.StageReviewed {
		note := p.ReviewNote
		m.moveStage(c.ID, domain.StageReviewed, &note)
	}
	return res, nil
}

func (m *memoryStore) UpdateResult(context.Context, uuid.UUID, uuid.UUID, func(repository.Result) (repository.Result, error)) (repository.Result, error) {
	return repository.Result{}, apperr.NotFound("result not found")
}

func (m *memoryStore) GetResult(_ context.Context, _, id uuid.UUID) (repository.Result, error) {
	return m.results[id], nil
}

func (m *memoryStore) ListResults(context.Context, uuid.UUID, repository.ResultFilter, int, int) ([]repository.Result, int, error) {
	return nil, 0, nil
}

func (m *memoryStore) AggregateResults(context.Context, uuid.UUID, repository.ReportFilter) ([]repository.ReportRow, error) {
	return nil, nil
}

func TestLeadToReviewedComputesROIFromDispatchedSamples(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	bus := discardBus{}
	stageSvc := stages.New(store, bus)
	ledgerSvc := ledger.New(store, bus)
	resultSvc := results.New(store, bus)

	tenant, staff := uuid.New(), uuid.New()
	collab := repository.Collaboration{ID: uuid.New(), BrandID: tenant, BusinessStaffID: staff, Stage: domain.StageLead}
	store.collabs[collab.ID] = collab
	store.history[collab.ID] = []repository.StageHistoryEntry{{ID: uuid.New(), CollaborationID: collab.ID, ToStage: domain.StageLead}}
	own := domain.OwnOnly(staff)

	if _, err := stageSvc.Transition(ctx, tenant, staff, own, collab.ID, transport.TransitionStageRequest{Stage: "SAMPLED"}); err != nil {
		t.Fatalf("move to SAMPLED: %v", err)
	}

	sample, err := ledgerSvc.CreateSample(ctx, tenant, transport.CreateSampleRequest{SKU: "SERUM-30", Name: "Serum", UnitCost: 500})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}
	dispatch, err := ledgerSvc.DispatchSample(ctx, tenant, staff, own, transport.DispatchSampleRequest{SampleID: sample.ID, CollaborationID: collab.ID, Quantity: 3, ShippingCost: 200})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if dispatch.TotalCost != 1700 {
		t.Fatalf("expected dispatch total 1700, got %d", dispatch.TotalCost)
	}

	// A later price change must not reach the recorded shipment.
	price := int64(900)
	if _, err := ledgerSvc.UpdateSample(ctx, tenant, sample.ID, transport.UpdateSampleRequest{UnitCost: &price}); err != nil {
		t.Fatalf("update sample: %v", err)
	}

	if _, err := stageSvc.Transition(ctx, tenant, staff, own, collab.ID, transport.TransitionStageRequest{Stage: "PUBLISHED"}); err != nil {
		t.Fatalf("move to PUBLISHED: %v", err)
	}

	res, err := resultSvc.CreateResult(ctx, tenant, staff, own, transport.CreateResultRequest{
		CollaborationID:  collab.ID,
		ContentType:      "SHORT_VIDEO",
		PublishedAt:      time.Date(2026, 4, 20, 18, 0, 0, 0, time.UTC),
		SalesGmv:         10000,
		ActualCommission: 500,
	})
	if err != nil {
		t.Fatalf("create result: %v", err)
	}
	if res.TotalSampleCost != 1700 || res.TotalCollaborationCost != 2200 {
		t.Fatalf("unexpected costs %+v", res)
	}
	if res.ROI != 4.5455 || res.ProfitStatus != string(domain.ProfitHighProfit) {
		t.Fatalf("expected roi 4.5455 HIGH_PROFIT, got %v %s", res.ROI, res.ProfitStatus)
	}

	history, err := stageSvc.History(ctx, tenant, own, collab.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	last := history.Items[len(history.Items)-1]
	if len(history.Items) != 4 || last.ToStage != string(domain.StageReviewed) {
		t.Fatalf("expected history ending at REVIEWED, got %+v", history.Items)
	}
	if store.collabs[collab.ID].Stage != domain.StageReviewed {
		t.Fatalf("expected collaboration to be REVIEWED")
	}
}
