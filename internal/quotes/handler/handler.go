package handler

import (
	"net/http"

	"devis_backend/internal/quotes/service"
	"devis_backend/internal/quotes/transport"
	"devis_backend/platform/httpkit"
	"devis_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "requête invalide"
	msgValidationFailed = "validation échouée"
	msgInvalidID        = "identifiant de devis invalide"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterChatRoutes mounts the conversational endpoints.
func (h *Handler) RegisterChatRoutes(rg *gin.RouterGroup) {
	rg.POST("/start", h.StartChat)
	rg.POST("/turn", h.ChatTurn)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/preview-totals", h.PreviewTotals)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/pdf", h.DownloadPDF)
	rg.POST("/:id/send", h.Send)
}

// bindJSON decodes and validates a body, replying 400 on failure.
func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/v1/chat/start
func (h *Handler) StartChat(c *gin.Context) {
	var req transport.StartChatRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.StartChat(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// POST /api/v1/chat/turn
func (h *Handler) ChatTurn(c *gin.Context) {
	var req transport.ChatTurnRequest
	if !h.bindJSON(c, &req) {
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.ChatTurn(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/quotes?status=&page=&pageSize=
func (h *Handler) List(c *gin.Context) {
	var req transport.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/quotes/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), companyID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// PATCH /api/v1/quotes/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateQuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), companyID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DELETE /api/v1/quotes/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), companyID, id)) {
		return
	}
	httpkit.NoContent(c)
}

// POST /api/v1/quotes/preview-totals
func (h *Handler) PreviewTotals(c *gin.Context) {
	var req transport.PreviewTotalsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.PreviewTotals(req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/quotes/:id/pdf
func (h *Handler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	rendered, err := h.svc.RenderPDF(c.Request.Context(), companyID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	servePDFBytes(c, rendered.FileName, rendered.Content)
}

// POST /api/v1/quotes/:id/send
func (h *Handler) Send(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SendQuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.Send(c.Request.Context(), companyID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
