package handler

import (
	"net/http"

	"devis_backend/internal/company/service"
	"devis_backend/internal/company/transport"
	"devis_backend/platform/httpkit"
	"devis_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "requête invalide"
	msgValidationFailed = "validation échouée"
	msgMissingFile      = "fichier manquant"
	logoFormField       = "file"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Register creates a company account.
// POST /api/v1/company/register
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Register(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Login authenticates by company name and password.
// POST /api/v1/company/login
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/company/me
func (h *Handler) GetMe(c *gin.Context) {
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetMe(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// PATCH /api/v1/company/me
func (h *Handler) UpdateMe(c *gin.Context) {
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	var req transport.UpdateCompanyRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.UpdateMe(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UploadLogo accepts a multipart "file" field.
// POST /api/v1/company/me/logo
func (h *Handler) UploadLogo(c *gin.Context) {
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(logoFormField)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	defer file.Close()

	result, err := h.svc.UploadLogo(c.Request.Context(), companyID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
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
