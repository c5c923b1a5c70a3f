package adapters

import (
	"context"
	"fmt"

	clienttransport "devis_backend/internal/clients/transport"
	quotesvc "devis_backend/internal/quotes/service"
	quotestransport "devis_backend/internal/quotes/transport"

	"github.com/google/uuid"
)

// ClientStore is the slice of the clients service the quotes module needs.
type ClientStore interface {
	Get(ctx context.Context, companyID, id uuid.UUID) (clienttransport.ClientResponse, error)
	Create(ctx context.Context, companyID uuid.UUID, req clienttransport.CreateClientRequest) (clienttransport.ClientResponse, error)
}

// QuotesClientDirectory lets quotes look up and create clients without
// importing the clients domain.
type QuotesClientDirectory struct {
	clients ClientStore
}

func NewQuotesClientDirectory(clients ClientStore) *QuotesClientDirectory {
	return &QuotesClientDirectory{clients: clients}
}

func (a *QuotesClientDirectory) GetQuoteClient(ctx context.Context, companyID, clientID uuid.UUID) (quotesvc.ClientData, error) {
	c, err := a.clients.Get(ctx, companyID, clientID)
	if err != nil {
		return quotesvc.ClientData{}, err
	}
	return toClientData(c), nil
}

func (a *QuotesClientDirectory) CreateQuoteClient(ctx context.Context, companyID uuid.UUID, req quotestransport.NewClientRequest) (quotesvc.ClientData, error) {
	c, err := a.clients.Create(ctx, companyID, clienttransport.CreateClientRequest{
		Name:        req.Name,
		Type:        req.Type,
		Address:     req.Address,
		Email:       req.Email,
		Phone:       req.Phone,
		SiteAddress: req.SiteAddress,
	})
	if err != nil {
		return quotesvc.ClientData{}, fmt.Errorf("create client for quote: %w", err)
	}
	return toClientData(c), nil
}

func toClientData(c clienttransport.ClientResponse) quotesvc.ClientData {
	return quotesvc.ClientData{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		Address:     c.Address,
		Email:       c.Email,
		Phone:       c.Phone,
		SiteAddress: c.SiteAddress,
	}
}

var _ quotesvc.ClientDirectory = (*QuotesClientDirectory)(nil)
