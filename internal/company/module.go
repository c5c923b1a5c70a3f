// Package company is the tenant account bounded context: registration,
// login, profile and logo.
package company

import (
	"devis_backend/internal/adapters/storage"
	"devis_backend/internal/company/handler"
	"devis_backend/internal/company/repository"
	"devis_backend/internal/company/service"
	"devis_backend/internal/events"
	apphttp "devis_backend/internal/http"
	"devis_backend/platform/config"
	"devis_backend/platform/logger"
	"devis_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, logoBucket string, cfg config.AuthServiceConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), storageSvc, logoBucket, cfg, eventBus, val, log)
}

func newModule(repo repository.Repository, storageSvc storage.StorageService, logoBucket string, cfg config.AuthServiceConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, storageSvc, logoBucket, cfg, eventBus, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "company"
}

// Service is used by the quotes module to load the issuer profile.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/company")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	public.POST("/register", m.handler.Register)
	public.POST("/login", m.handler.Login)

	ctx.Protected.GET("/company/me", m.handler.GetMe)
	ctx.Protected.PATCH("/company/me", m.handler.UpdateMe)
	ctx.Protected.POST("/company/me/logo", m.handler.UploadLogo)
}

var _ apphttp.Module = (*Module)(nil)
