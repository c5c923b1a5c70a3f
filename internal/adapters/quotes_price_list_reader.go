package adapters

import (
	"context"

	"devis_backend/internal/assistant"
	quotesvc "devis_backend/internal/quotes/service"

	"github.com/google/uuid"
)

// CatalogPromptReader is implemented by the catalog service.
type CatalogPromptReader interface {
	PromptCatalog(ctx context.Context, companyID uuid.UUID, limit int) ([]assistant.CatalogEntry, error)
}

// QuotesPriceListReader exposes the company catalog to the quote assistant.
type QuotesPriceListReader struct {
	catalog CatalogPromptReader
}

func NewQuotesPriceListReader(catalog CatalogPromptReader) *QuotesPriceListReader {
	return &QuotesPriceListReader{catalog: catalog}
}

func (a *QuotesPriceListReader) GetPriceList(ctx context.Context, companyID uuid.UUID, limit int) ([]assistant.CatalogEntry, error) {
	return a.catalog.PromptCatalog(ctx, companyID, limit)
}

var _ quotesvc.PriceListReader = (*QuotesPriceListReader)(nil)
