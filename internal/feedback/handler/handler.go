package handler

import (
	"net/http"
	"strings"

	"devis_backend/internal/feedback/service"
	"devis_backend/internal/feedback/transport"
	"devis_backend/platform/config"
	"devis_backend/platform/httpkit"
	"devis_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "requête invalide"
	msgValidationFailed = "validation échouée"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
	jwt config.JWTConfig
}

func New(svc *service.Service, val *validator.Validator, jwt config.JWTConfig) *Handler {
	return &Handler{svc: svc, val: val, jwt: jwt}
}

// Submit is public; a valid bearer token only links the feedback to its company.
// POST /api/v1/feedback
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), h.optionalCompanyID(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

func (h *Handler) optionalCompanyID(c *gin.Context) *uuid.UUID {
	if h.jwt == nil {
		return nil
	}
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	claims, err := httpkit.ParseAccessToken(strings.TrimSpace(raw), h.jwt.GetJWTAccessSecret())
	if err != nil {
		return nil
	}
	return &claims.CompanyID
}
