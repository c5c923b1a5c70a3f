// Package catalog manages each company's price list and its import from
// spreadsheets, PDFs and text files.
package catalog

import (
	"devis_backend/internal/assistant"
	"devis_backend/internal/catalog/handler"
	"devis_backend/internal/catalog/repository"
	"devis_backend/internal/catalog/service"
	apphttp "devis_backend/internal/http"
	"devis_backend/platform/logger"
	"devis_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, extractor assistant.PriceListExtractor, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), extractor, val, log)
}

func newModule(repo repository.Repository, extractor assistant.PriceListExtractor, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, extractor, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "catalog"
}

// Service feeds the quote assistant with the company's catalog.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/price-items", m.handler.List)
	ctx.Protected.POST("/price-items", m.handler.Create)
	ctx.Protected.GET("/price-items/categories", m.handler.Categories)
	ctx.Protected.POST("/price-items/import", m.handler.Import)
	ctx.Protected.PATCH("/price-items/:id", m.handler.Update)
	ctx.Protected.DELETE("/price-items/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
