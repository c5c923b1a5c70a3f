package handler

import (
	"io"
	"net/http"
	"strconv"

	"devis_backend/internal/catalog/service"
	"devis_backend/internal/catalog/transport"
	"devis_backend/platform/httpkit"
	"devis_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "requête invalide"
	msgValidationFailed = "validation échouée"
	msgInvalidID        = "identifiant article invalide"
	msgMissingFile      = "fichier manquant"
	msgFileTooLarge     = "fichier trop volumineux"

	maxImportSize = 10 << 20
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GET /api/v1/price-items?category=&q=&page=&pageSize=
func (h *Handler) List(c *gin.Context) {
	var req transport.ListPriceItemsRequest
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

// GET /api/v1/price-items/categories
func (h *Handler) Categories(c *gin.Context) {
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	result, err := h.svc.Categories(c.Request.Context(), companyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"categories": result})
}

// POST /api/v1/price-items
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePriceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	result, err := h.svc.Create(c.Request.Context(), companyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// PATCH /api/v1/price-items/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdatePriceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	result, err := h.svc.Update(c.Request.Context(), companyID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DELETE /api/v1/price-items/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
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

// POST /api/v1/price-items/import?commit=true (multipart "file")
func (h *Handler) Import(c *gin.Context) {
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	if fileHeader.Size > maxImportSize {
		httpkit.Error(c, http.StatusBadRequest, msgFileTooLarge, nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if httpkit.HandleError(c, err) {
		return
	}
	commit, _ := strconv.ParseBool(c.Query("commit"))

	result, err := h.svc.Import(c.Request.Context(), companyID, fileHeader.Filename, data, commit)
	if httpkit.HandleError(c, err) {
		return
	}
	if commit {
		httpkit.Created(c, result)
		return
	}
	httpkit.OK(c, result)
}
