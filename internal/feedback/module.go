// Package feedback collects product feedback from the app, signed in or not.
package feedback

import (
	"devis_backend/internal/events"
	"devis_backend/internal/feedback/handler"
	"devis_backend/internal/feedback/repository"
	"devis_backend/internal/feedback/service"
	apphttp "devis_backend/internal/http"
	"devis_backend/platform/config"
	"devis_backend/platform/logger"
	"devis_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, jwt config.JWTConfig, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), eventBus, jwt, val, log)
}

func newModule(repo repository.Repository, eventBus events.Bus, jwt config.JWTConfig, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: handler.New(service.New(repo, eventBus, log), val, jwt)}
}

func (m *Module) Name() string {
	return "feedback"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/feedback", ctx.AuthRateLimiter.RateLimit(), m.handler.Submit)
}

var _ apphttp.Module = (*Module)(nil)
