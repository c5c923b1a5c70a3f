// Package clients manages the customers a company issues quotes to.
package clients

import (
	"devis_backend/internal/clients/handler"
	"devis_backend/internal/clients/repository"
	"devis_backend/internal/clients/service"
	apphttp "devis_backend/internal/http"
	"devis_backend/platform/logger"
	"devis_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), val, log)
}

func newModule(repo repository.Repository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "clients"
}

// Service is shared with the quotes module for client lookups.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/clients", m.handler.Create)
	ctx.Protected.GET("/clients", m.handler.Search)
	ctx.Protected.GET("/clients/:id", m.handler.Get)
	ctx.Protected.PATCH("/clients/:id", m.handler.Update)
}

var _ apphttp.Module = (*Module)(nil)
