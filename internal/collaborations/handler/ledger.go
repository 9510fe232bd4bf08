package handler

import (
	"net/http"

	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateSample(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.CreateSampleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Ledger.CreateSample(c.Request.Context(), scope.tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ListSamples(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.ListSamplesRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Ledger.ListSamples(c.Request.Context(), scope.tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetSample(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Ledger.GetSample(c.Request.Context(), scope.tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpdateSample(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateSampleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Ledger.UpdateSample(c.Request.Context(), scope.tenantID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DeleteSample(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Ledger.DeleteSample(c.Request.Context(), scope.tenantID, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DispatchSample(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.DispatchSampleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Ledger.DispatchSample(c.Request.Context(), scope.tenantID, scope.userID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) UpdateDispatchStatus(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateDispatchStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Ledger.UpdateDispatchStatus(c.Request.Context(), scope.tenantID, scope.visibility, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListDispatches(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Ledger.ListDispatches(c.Request.Context(), scope.tenantID, scope.visibility, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
