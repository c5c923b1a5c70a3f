package service

import (
	"context"
	"errors"
	"strings"

	"devis_backend/internal/assistant"
	"devis_backend/internal/catalog/importer"
	"devis_backend/internal/catalog/repository"
	"devis_backend/internal/catalog/transport"
	"devis_backend/platform/apperr"
	"devis_backend/platform/logger"
	"devis_backend/platform/money"
	"devis_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultUnit     = "u"
)

var (
	defaultTaxRatePercent = decimal.NewFromInt(20)
	maxTaxRatePercent     = decimal.NewFromInt(100)
)

type Service struct {
	repo      repository.Repository
	extractor assistant.PriceListExtractor
	log       *logger.Logger
}

func New(repo repository.Repository, extractor assistant.PriceListExtractor, log *logger.Logger) *Service {
	return &Service{repo: repo, extractor: extractor, log: log}
}

// List pages through the catalog. The category filter is matched without
// regard to accents or case; "Toutes" disables it.
func (s *Service) List(ctx context.Context, companyID uuid.UUID, req transport.ListPriceItemsRequest) (transport.PriceItemListResponse, error) {
	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	category := strings.TrimSpace(req.Category)
	if category != "" && foldKey(category) != foldKey(repository.AllCategories) {
		existing, err := s.repo.Categories(ctx, companyID)
		if err != nil {
			return transport.PriceItemListResponse{}, err
		}
		category = canonicalCategory(category, existing)
	} else {
		category = ""
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		CompanyID: companyID,
		Category:  category,
		Search:    strings.TrimSpace(req.Query),
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return transport.PriceItemListResponse{}, err
	}

	resp := transport.PriceItemListResponse{
		Items:      make([]transport.PriceItemResponse, 0, len(items)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toResponse(item))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, req transport.CreatePriceItemRequest) (transport.PriceItemResponse, error) {
	label := sanitize.Text(req.Label)
	if label == "" {
		return transport.PriceItemResponse{}, apperr.Validation("désignation requise")
	}
	rate := defaultTaxRatePercent
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}
	if err := validateAmounts(&req.PriceHT, &rate); err != nil {
		return transport.PriceItemResponse{}, err
	}

	existing, err := s.repo.Categories(ctx, companyID)
	if err != nil {
		return transport.PriceItemResponse{}, err
	}

	item, err := s.repo.Create(ctx, repository.CreateParams{
		ID:           uuid.New(),
		CompanyID:    companyID,
		Label:        label,
		PriceExclTax: req.PriceHT.Round(2),
		Unit:         orDefault(sanitize.Text(req.Unit), defaultUnit),
		Category:     canonicalCategory(orDefault(sanitize.Text(req.Category), repository.AllCategories), existing),
		TaxRate:      rate,
	})
	if err != nil {
		return transport.PriceItemResponse{}, err
	}
	return toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, req transport.UpdatePriceItemRequest) (transport.PriceItemResponse, error) {
	if err := validateAmounts(req.PriceHT, req.TaxRate); err != nil {
		return transport.PriceItemResponse{}, err
	}
	params := repository.UpdateParams{
		ID:        id,
		CompanyID: companyID,
		Label:     sanitize.TextPtr(req.Label),
		Unit:      sanitize.TextPtr(req.Unit),
		TaxRate:   req.TaxRate,
	}
	if params.Label != nil && *params.Label == "" {
		return transport.PriceItemResponse{}, apperr.Validation("désignation requise")
	}
	if req.PriceHT != nil {
		price := req.PriceHT.Round(2)
		params.PriceExclTax = &price
	}
	if req.Category != nil {
		existing, err := s.repo.Categories(ctx, companyID)
		if err != nil {
			return transport.PriceItemResponse{}, err
		}
		category := canonicalCategory(orDefault(sanitize.Text(*req.Category), repository.AllCategories), existing)
		params.Category = &category
	}

	item, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.PriceItemResponse{}, err
	}
	return toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.repo.Delete(ctx, companyID, id)
}

func (s *Service) Categories(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	return s.repo.Categories(ctx, companyID)
}

// Import extracts items from an uploaded file. Without commit the items are
// only returned for review.
func (s *Service) Import(ctx context.Context, companyID uuid.UUID, fileName string, data []byte, commit bool) (transport.ImportResponse, error) {
	text, err := importer.ExtractText(fileName, data)
	if err != nil {
		if errors.Is(err, importer.ErrUnsupportedFormat) {
			return transport.ImportResponse{}, apperr.BadRequest(err.Error()).WithDetails(importer.SupportedExtensions)
		}
		return transport.ImportResponse{}, apperr.Wrap(apperr.KindBadRequest, "fichier illisible", err)
	}

	extracted, err := s.extractor.ExtractPriceItems(ctx, text)
	if err != nil {
		if apperr.GetKind(err) != apperr.KindUnknown {
			return transport.ImportResponse{}, err
		}
		return transport.ImportResponse{}, apperr.Wrap(apperr.KindUnavailable, "extraction impossible, réessayez", err)
	}

	existing, err := s.repo.Categories(ctx, companyID)
	if err != nil {
		return transport.ImportResponse{}, err
	}

	params := make([]repository.CreateParams, 0, len(extracted))
	for _, it := range extracted {
		category := canonicalCategory(sanitize.Text(it.Category), existing)
		existing = appendIfNew(existing, category)
		params = append(params, repository.CreateParams{
			ID:           uuid.New(),
			CompanyID:    companyID,
			Label:        sanitize.Text(it.Label),
			PriceExclTax: decimal.NewFromFloat(it.PriceHT).Round(2),
			Unit:         orDefault(sanitize.Text(it.Unit), defaultUnit),
			Category:     category,
			TaxRate:      defaultTaxRatePercent,
		})
	}

	if !commit {
		preview := make([]transport.ImportedItem, 0, len(params))
		for _, p := range params {
			preview = append(preview, transport.ImportedItem{
				Label:    p.Label,
				PriceHT:  money.JSON(p.PriceExclTax),
				Unit:     p.Unit,
				Category: p.Category,
			})
		}
		return transport.ImportResponse{Count: len(preview), Preview: preview}, nil
	}

	if len(params) == 0 {
		return transport.ImportResponse{Committed: true}, nil
	}
	items, err := s.repo.CreateMany(ctx, params)
	if err != nil {
		return transport.ImportResponse{}, err
	}
	s.log.Info("price list imported", "companyId", companyID, "file", fileName, "count", len(items))

	resp := transport.ImportResponse{Committed: true, Count: len(items), Items: make([]transport.PriceItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, toResponse(item))
	}
	return resp, nil
}

// PromptCatalog returns the first limit items for the quote assistant.
func (s *Service) PromptCatalog(ctx context.Context, companyID uuid.UUID, limit int) ([]assistant.CatalogEntry, error) {
	items, _, err := s.repo.List(ctx, repository.ListParams{CompanyID: companyID, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]assistant.CatalogEntry, 0, len(items))
	for _, item := range items {
		out = append(out, assistant.CatalogEntry{
			Label:    item.Label,
			PriceHT:  item.PriceExclTax.InexactFloat64(),
			Unit:     item.Unit,
			Category: item.Category,
		})
	}
	return out, nil
}

func validateAmounts(price, rate *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return apperr.Validation("le prix doit être positif")
	}
	if rate != nil && (rate.IsNegative() || rate.GreaterThan(maxTaxRatePercent)) {
		return apperr.Validation("taux de TVA invalide")
	}
	return nil
}

func toResponse(item repository.PriceItem) transport.PriceItemResponse {
	return transport.PriceItemResponse{
		ID:        item.ID,
		Label:     item.Label,
		PriceHT:   money.JSON(item.PriceExclTax),
		Unit:      item.Unit,
		Category:  item.Category,
		TaxRate:   money.Rate(item.TaxRate),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func appendIfNew(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}
