package service

import (
	"context"
	"strings"

	"devis_backend/internal/clients/repository"
	"devis_backend/internal/clients/transport"
	"devis_backend/platform/apperr"
	"devis_backend/platform/logger"
	"devis_backend/platform/phone"
	"devis_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, req transport.CreateClientRequest) (transport.ClientResponse, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return transport.ClientResponse{}, apperr.Validation("nom du client requis")
	}
	clientType := req.Type
	if clientType == "" {
		clientType = repository.TypeIndividual
	}

	client, err := s.repo.Create(ctx, repository.CreateParams{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Name:        name,
		Type:        clientType,
		Address:     sanitize.Multiline(req.Address),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       phone.NormalizeE164(req.Phone),
		SiteAddress: sanitize.Multiline(req.SiteAddress),
	})
	if err != nil {
		return transport.ClientResponse{}, err
	}
	s.log.Info("client created", "clientId", client.ID, "companyId", companyID)
	return toResponse(client), nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (transport.ClientResponse, error) {
	client, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toResponse(client), nil
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, req transport.UpdateClientRequest) (transport.ClientResponse, error) {
	params := repository.UpdateParams{
		ID:          id,
		CompanyID:   companyID,
		Name:        sanitize.TextPtr(req.Name),
		Type:        req.Type,
		Address:     multiline(req.Address),
		SiteAddress: multiline(req.SiteAddress),
	}
	if params.Name != nil && *params.Name == "" {
		return transport.ClientResponse{}, apperr.Validation("nom du client requis")
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		params.Email = &email
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	client, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toResponse(client), nil
}

// Search clamps limit to 1..50 with a default of 10.
func (s *Service) Search(ctx context.Context, companyID uuid.UUID, req transport.SearchClientsRequest) ([]transport.ClientResponse, error) {
	limit := req.Limit
	if limit < 1 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	clients, err := s.repo.Search(ctx, companyID, strings.TrimSpace(req.Query), limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toResponse(c))
	}
	return out, nil
}

func toResponse(c repository.Client) transport.ClientResponse {
	return transport.ClientResponse{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		Address:     c.Address,
		Email:       c.Email,
		Phone:       c.Phone,
		SiteAddress: c.SiteAddress,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func multiline(v *string) *string {
	if v == nil {
		return nil
	}
	out := sanitize.Multiline(*v)
	return &out
}
