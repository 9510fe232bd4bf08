package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/repository"
	"collab_pipeline_backend/internal/collaborations/stages"
	"collab_pipeline_backend/internal/events"
	"collab_pipeline_backend/platform/apperr"
	"collab_pipeline_backend/platform/httpkit"
	"collab_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type noopBus struct{}

func (noopBus) Publish(context.Context, events.Event)           {}
func (noopBus) PublishSync(context.Context, events.Event) error { return nil }
func (noopBus) Subscribe(string, events.Handler)                {}

type staticAccess struct {
	access domain.StaffAccess
	err    error
}

func (a staticAccess) GetStaffAccess(context.Context, uuid.UUID, uuid.UUID) (domain.StaffAccess, error) {
	return a.access, a.err
}

type stageRepo struct {
	collabs map[uuid.UUID]repository.Collaboration
}

func (r *stageRepo) GetByID(_ context.Context, _, id uuid.UUID) (repository.Collaboration, error) {
	c, ok := r.collabs[id]
	if !ok {
		return repository.Collaboration{}, apperr.NotFound("collaboration not found")
	}
	return c, nil
}

func (r *stageRepo) TransitionStage(ctx context.Context, p repository.TransitionParams, guard func(domain.Stage) error) (repository.Collaboration, bool, error) {
	c, err := r.GetByID(ctx, p.TenantID, p.CollaborationID)
	if err != nil {
		return repository.Collaboration{}, false, err
	}
	if c.Stage == p.To {
		return c, false, nil
	}
	if err := guard(c.Stage); err != nil {
		return repository.Collaboration{}, false, err
	}
	c.Stage = p.To
	r.collabs[c.ID] = c
	return c, true, nil
}

func (r *stageRepo) ListStageHistory(context.Context, uuid.UUID, uuid.UUID) ([]repository.StageHistoryEntry, error) {
	return nil, nil
}

type caller struct {
	userID   uuid.UUID
	tenantID *uuid.UUID
	roles    []string
}

func newRouter(h *Handler, who *caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if who != nil {
			c.Set(httpkit.ContextUserIDKey, who.userID)
			c.Set(httpkit.ContextRolesKey, who.roles)
			if who.tenantID != nil {
				c.Set(httpkit.ContextTenantIDKey, *who.tenantID)
			}
		}
		c.Next()
	})
	h.RegisterRoutes(api)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) httpkit.ErrorResponse {
	t.Helper()
	var resp httpkit.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return resp
}

type fixture struct {
	repo   *stageRepo
	tenant uuid.UUID
	staff  uuid.UUID
	collab repository.Collaboration
}

func newFixture() fixture {
	tenant, staff := uuid.New(), uuid.New()
	collab := repository.Collaboration{ID: uuid.New(), BrandID: tenant, BusinessStaffID: staff, Stage: domain.StageLead}
	return fixture{
		repo:   &stageRepo{collabs: map[uuid.UUID]repository.Collaboration{collab.ID: collab}},
		tenant: tenant,
		staff:  staff,
		collab: collab,
	}
}

func (f fixture) handler(access AccessReader) *Handler {
	return New(Services{Stages: stages.New(f.repo, noopBus{})}, access, validator.New())
}

func TestUnauthenticatedRequestIsRejected(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handler(staticAccess{}), nil)

	w := doJSON(r, http.MethodPut, "/api/collaborations/"+f.collab.ID.String()+"/stage", `{"stage":"CONTACTED"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestTenantlessTokenIsRejected(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handler(staticAccess{}), &caller{userID: uuid.New(), roles: []string{domain.RoleBrand}})

	w := doJSON(r, http.MethodPut, "/api/collaborations/"+f.collab.ID.String()+"/stage", `{"stage":"CONTACTED"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestTransitionStageValidatesEnum(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handler(staticAccess{}), &caller{userID: uuid.New(), tenantID: &f.tenant, roles: []string{domain.RoleBrand}})

	w := doJSON(r, http.MethodPut, "/api/collaborations/"+f.collab.ID.String()+"/stage", `{"stage":"ARCHIVED"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Field != "stage" || resp.Code != apperr.KindValidation.String() {
		t.Fatalf("unexpected error body %+v", resp)
	}
	if f.repo.collabs[f.collab.ID].Stage != domain.StageLead {
		t.Fatalf("stage changed on invalid request")
	}
}

func TestTransitionStageRejectsBadID(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handler(staticAccess{}), &caller{userID: uuid.New(), tenantID: &f.tenant, roles: []string{domain.RoleBrand}})

	w := doJSON(r, http.MethodPut, "/api/collaborations/not-a-uuid/stage", `{"stage":"CONTACTED"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestBusinessStaffMovesOwnCollaboration(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handler(staticAccess{}), &caller{userID: f.staff, tenantID: &f.tenant, roles: []string{domain.RoleBusiness}})

	w := doJSON(r, http.MethodPut, "/api/collaborations/"+f.collab.ID.String()+"/stage", `{"stage":"CONTACTED","note":"first call"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Stage string `json:"stage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stage != "CONTACTED" {
		t.Fatalf("expected CONTACTED, got %s", body.Stage)
	}
}

func TestBusinessStaffCannotSeeColleagueCollaboration(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handler(staticAccess{}), &caller{userID: uuid.New(), tenantID: &f.tenant, roles: []string{domain.RoleBusiness}})

	w := doJSON(r, http.MethodPut, "/api/collaborations/"+f.collab.ID.String()+"/stage", `{"stage":"CONTACTED"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestViewOthersPermissionWidensVisibility(t *testing.T) {
	f := newFixture()
	access := staticAccess{access: domain.StaffAccess{CanViewOthers: true}}
	r := newRouter(f.handler(access), &caller{userID: uuid.New(), tenantID: &f.tenant, roles: []string{domain.RoleBusiness}})

	w := doJSON(r, http.MethodPut, "/api/collaborations/"+f.collab.ID.String()+"/stage", `{"stage":"QUOTED"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAccessLookupFailureHidesDetails(t *testing.T) {
	f := newFixture()
	access := staticAccess{err: errors.New("connection refused 10.0.0.5")}
	r := newRouter(f.handler(access), &caller{userID: f.staff, tenantID: &f.tenant, roles: []string{domain.RoleBusiness}})

	w := doJSON(r, http.MethodPut, "/api/collaborations/"+f.collab.ID.String()+"/stage", `{"stage":"CONTACTED"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Fatalf("infrastructure error leaked: %s", w.Body.String())
	}
}
