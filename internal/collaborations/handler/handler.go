package handler

import (
	"context"
	"net/http"

	"collab_pipeline_backend/internal/collaborations/domain"
	"collab_pipeline_backend/internal/collaborations/ledger"
	"collab_pipeline_backend/internal/collaborations/management"
	"collab_pipeline_backend/internal/collaborations/overdue"
	"collab_pipeline_backend/internal/collaborations/pipeline"
	"collab_pipeline_backend/internal/collaborations/results"
	"collab_pipeline_backend/internal/collaborations/stages"
	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/platform/httpkit"
	"collab_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
)

// AccessReader loads the stored permissions that decide what business staff may see.
type AccessReader interface {
	GetStaffAccess(ctx context.Context, tenantID, userID uuid.UUID) (domain.StaffAccess, error)
}

// Services groups the collaboration services served over HTTP.
type Services struct {
	Management *management.Service
	Stages     *stages.Service
	Ledger     *ledger.Service
	Results    *results.Service
	Overdue    *overdue.Service
	Pipeline   *pipeline.Service
}

type Handler struct {
	svc    Services
	access AccessReader
	val    *validator.Validator
}

func New(svc Services, access AccessReader, val *validator.Validator) *Handler {
	return &Handler{svc: svc, access: access, val: val}
}

// requestScope identifies the caller of a request.
type requestScope struct {
	tenantID   uuid.UUID
	userID     uuid.UUID
	visibility domain.VisibilityPolicy
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	collabs := rg.Group("/collaborations")
	collabs.POST("", h.Create)
	collabs.GET("", h.List)
	collabs.GET("/pipeline-view", h.PipelineView)
	collabs.GET("/pipeline-stats", h.PipelineStats)
	collabs.GET("/overdue", h.ListOverdue)
	collabs.GET("/conflicts", h.CheckConflict)
	collabs.GET("/:id", h.GetByID)
	collabs.DELETE("/:id", h.Delete)
	collabs.PUT("/:id/stage", h.TransitionStage)
	collabs.GET("/:id/history", h.History)
	collabs.PUT("/:id/deadline", h.SetDeadline)
	collabs.PUT("/:id/block-reason", h.SetBlockReason)
	collabs.POST("/:id/follow-ups", h.AddFollowUp)
	collabs.GET("/:id/follow-ups", h.ListFollowUps)
	collabs.GET("/:id/dispatches", h.ListDispatches)

	samples := rg.Group("/samples")
	samples.POST("", h.CreateSample)
	samples.GET("", h.ListSamples)
	samples.GET("/:id", h.GetSample)
	samples.PUT("/:id", h.UpdateSample)
	samples.DELETE("/:id", h.DeleteSample)

	dispatches := rg.Group("/dispatches")
	dispatches.POST("", h.DispatchSample)
	dispatches.PATCH("/:id/status", h.UpdateDispatchStatus)

	res := rg.Group("/results")
	res.POST("", h.CreateResult)
	res.GET("", h.ListResults)
	res.GET("/report", h.ROIReport)
	res.GET("/:id", h.GetResult)
	res.PUT("/:id", h.UpdateResult)
}

// scope resolves tenant, caller and visibility once per request. It writes the error
// response itself and returns false when the request cannot proceed.
func (h *Handler) scope(c *gin.Context) (requestScope, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return requestScope{}, false
	}
	tenantID, ok := httpkit.MustGetTenantID(c, identity)
	if !ok {
		return requestScope{}, false
	}

	var access domain.StaffAccess
	if !identity.HasRole(domain.RoleBrand) && !identity.HasRole(domain.RolePlatformAdmin) {
		loaded, err := h.access.GetStaffAccess(c.Request.Context(), tenantID, identity.UserID())
		if httpkit.HandleError(c, err) {
			return requestScope{}, false
		}
		access = loaded
	}

	return requestScope{
		tenantID:   tenantID,
		userID:     identity.UserID(),
		visibility: domain.NewVisibilityPolicy(identity.UserID(), identity.Roles(), access),
	}, true
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.ValidationFailed(c, err)
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.CreateCollaborationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.svc.Management.Create(c.Request.Context(), scope.tenantID, scope.userID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, created)
}

func (h *Handler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.ListCollaborationsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Management.List(c.Request.Context(), scope.tenantID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CheckConflict(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.CheckConflictRequest
	if !h.bindQuery(c, &req) {
		return
	}

	influencerID, _ := uuid.Parse(req.InfluencerID)
	staffID := scope.userID
	if req.StaffID != "" {
		staffID, _ = uuid.Parse(req.StaffID)
	}

	result, err := h.svc.Management.CheckConflict(c.Request.Context(), scope.tenantID, influencerID, staffID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Management.GetByID(c.Request.Context(), scope.tenantID, scope.visibility, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Management.Delete(c.Request.Context(), scope.tenantID, scope.visibility, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) TransitionStage(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.TransitionStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Stages.Transition(c.Request.Context(), scope.tenantID, scope.userID, scope.visibility, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) History(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Stages.History(c.Request.Context(), scope.tenantID, scope.visibility, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SetDeadline(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SetDeadlineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Management.SetDeadline(c.Request.Context(), scope.tenantID, scope.visibility, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SetBlockReason(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SetBlockReasonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Management.SetBlockReason(c.Request.Context(), scope.tenantID, scope.userID, scope.visibility, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) AddFollowUp(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CreateFollowUpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Management.AddFollowUp(c.Request.Context(), scope.tenantID, scope.userID, scope.visibility, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ListFollowUps(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.PageRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Management.ListFollowUps(c.Request.Context(), scope.tenantID, scope.visibility, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) PipelineView(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.PipelineViewRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Pipeline.GetPipelineView(c.Request.Context(), scope.tenantID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) PipelineStats(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.PipelineViewRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Pipeline.GetPipelineStats(c.Request.Context(), scope.tenantID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListOverdue(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.ListOverdueRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Overdue.ListOverdue(c.Request.Context(), scope.tenantID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
