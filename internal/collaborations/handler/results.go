package handler

import (
	"net/http"

	"collab_pipeline_backend/internal/collaborations/transport"
	"collab_pipeline_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateResult(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.CreateResultRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Results.CreateResult(c.Request.Context(), scope.tenantID, scope.userID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ListResults(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.ListResultsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Results.ListResults(c.Request.Context(), scope.tenantID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ROIReport(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req transport.ROIReportRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.svc.Results.ROIReport(c.Request.Context(), scope.tenantID, scope.visibility, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetResult(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Results.GetResult(c.Request.Context(), scope.tenantID, scope.visibility, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpdateResult(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateResultRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Results.UpdateResult(c.Request.Context(), scope.tenantID, scope.visibility, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
