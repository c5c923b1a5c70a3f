package handler

import (
	"net/http"

	"devis_backend/internal/uploads/service"
	"devis_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	fileFormField  = "file"
	msgMissingFile = "fichier manquant"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// POST /api/v1/uploads (multipart "file")
func (h *Handler) Upload(c *gin.Context) {
	companyID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(fileFormField)
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

	result, err := h.svc.Upload(c.Request.Context(), companyID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}
