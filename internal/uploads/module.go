// Package uploads stores arbitrary attachments (site photos, plans) for a
// company in object storage.
package uploads

import (
	"devis_backend/internal/adapters/storage"
	apphttp "devis_backend/internal/http"
	"devis_backend/internal/uploads/handler"
	"devis_backend/internal/uploads/service"
	"devis_backend/platform/logger"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(store storage.StorageService, bucket string, log *logger.Logger) *Module {
	return &Module{handler: handler.New(service.New(store, bucket, log))}
}

func (m *Module) Name() string {
	return "uploads"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/uploads", m.handler.Upload)
}

var _ apphttp.Module = (*Module)(nil)
