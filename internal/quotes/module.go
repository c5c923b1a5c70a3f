// Package quotes is the devis module: chat-driven drafting, editing, PDF
// rendering and delivery by email.
package quotes

import (
	"devis_backend/internal/assistant"
	apphttp "devis_backend/internal/http"
	"devis_backend/internal/pdf"
	"devis_backend/internal/quotes/handler"
	"devis_backend/internal/quotes/repository"
	"devis_backend/internal/quotes/service"
	"devis_backend/platform/logger"
	"devis_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the core; optional collaborators (clients, issuer,
// catalog, storage, mail, queue) are set on Service() by the caller.
func NewModule(pool *pgxpool.Pool, quoteAssistant assistant.QuoteAssistant, renderer *pdf.Renderer, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), quoteAssistant, renderer, val, log)
}

func newModule(repo repository.Repository, quoteAssistant assistant.QuoteAssistant, renderer *pdf.Renderer, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, quoteAssistant, renderer, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "quotes"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterChatRoutes(ctx.Protected.Group("/chat"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/quotes"))
}

var _ apphttp.Module = (*Module)(nil)
