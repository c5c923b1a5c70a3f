package service

import (
	"context"
	"time"

	"devis_backend/internal/adapters/storage"
	"devis_backend/internal/assistant"
	"devis_backend/internal/email"
	"devis_backend/internal/events"
	"devis_backend/internal/pdf"
	"devis_backend/internal/quotes/domain"
	"devis_backend/internal/quotes/repository"
	"devis_backend/internal/quotes/transport"
	"devis_backend/internal/scheduler"
	"devis_backend/platform/apperr"
	"devis_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ClientData is what a quote needs to know about its client.
type ClientData struct {
	ID          uuid.UUID
	Name        string
	Type        string
	Address     string
	Email       string
	Phone       string
	SiteAddress string
}

// ClientDirectory is implemented by an adapter over the clients module.
type ClientDirectory interface {
	GetQuoteClient(ctx context.Context, companyID, clientID uuid.UUID) (ClientData, error)
	CreateQuoteClient(ctx context.Context, companyID uuid.UUID, req transport.NewClientRequest) (ClientData, error)
}

// IssuerReader returns the company block printed on quotes, logo included.
type IssuerReader interface {
	GetIssuer(ctx context.Context, companyID uuid.UUID) (pdf.Company, error)
}

// PriceListReader feeds the assistant with the company catalog.
type PriceListReader interface {
	GetPriceList(ctx context.Context, companyID uuid.UUID, limit int) ([]assistant.CatalogEntry, error)
}

type Service struct {
	repo      repository.Repository
	assistant assistant.QuoteAssistant
	renderer  *pdf.Renderer
	log       *logger.Logger
	now       func() time.Time

	// optional collaborators, wired after construction
	clients    ClientDirectory
	issuers    IssuerReader
	priceList  PriceListReader
	eventBus   events.Bus
	storage    storage.StorageService
	pdfBucket  string
	mailer     email.Sender
	emailQueue scheduler.EmailQueue
}

func New(repo repository.Repository, quoteAssistant assistant.QuoteAssistant, renderer *pdf.Renderer, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		assistant: quoteAssistant,
		renderer:  renderer,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) SetClientDirectory(d ClientDirectory) { s.clients = d }

func (s *Service) SetIssuerReader(r IssuerReader) { s.issuers = r }

func (s *Service) SetPriceListReader(r PriceListReader) { s.priceList = r }

func (s *Service) SetEventBus(bus events.Bus) { s.eventBus = bus }

// SetPDFStorage keeps a copy of every sent PDF in bucket.
func (s *Service) SetPDFStorage(store storage.StorageService, bucket string) {
	s.storage = store
	s.pdfBucket = bucket
}

func (s *Service) SetMailer(sender email.Sender) { s.mailer = sender }

// SetEmailQueue routes quote emails through the background worker.
func (s *Service) SetEmailQueue(q scheduler.EmailQueue) { s.emailQueue = q }

func (s *Service) List(ctx context.Context, companyID uuid.UUID, req transport.ListQuotesRequest) (transport.QuoteListResponse, error) {
	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	quotes, total, err := s.repo.List(ctx, repository.ListParams{
		CompanyID: companyID,
		Status:    req.Status,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return transport.QuoteListResponse{}, err
	}

	resp := transport.QuoteListResponse{
		Items:      make([]transport.QuoteSummary, 0, len(quotes)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for _, q := range quotes {
		resp.Items = append(resp.Items, toSummary(q))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (transport.QuoteResponse, error) {
	q, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return transport.QuoteResponse{}, err
	}
	return toQuoteResponse(q), nil
}

// Update applies a partial edit. Lines, when present, replace the stored ones.
func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, req transport.UpdateQuoteRequest) (transport.QuoteResponse, error) {
	q, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return transport.QuoteResponse{}, err
	}

	if req.ClientID != nil {
		if err := s.ensureClient(ctx, companyID, *req.ClientID); err != nil {
			return transport.QuoteResponse{}, err
		}
		q.ClientID = req.ClientID
	}
	if err := applyMeta(q, req); err != nil {
		return transport.QuoteResponse{}, err
	}
	if req.Discount != nil {
		if q.Discount, err = toAdjustment(*req.Discount); err != nil {
			return transport.QuoteResponse{}, err
		}
	}
	if req.Deposit != nil {
		if q.Deposit, err = toAdjustment(*req.Deposit); err != nil {
			return transport.QuoteResponse{}, err
		}
	}
	replaceLines := req.Lines != nil
	if replaceLines {
		q.Lines = toDomainLines(req.Lines)
	}

	q.UpdatedAt = s.now()
	q.Totals()
	if err := s.repo.Save(ctx, q, replaceLines); err != nil {
		return transport.QuoteResponse{}, err
	}
	return toQuoteResponse(q), nil
}

func (s *Service) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.repo.Delete(ctx, companyID, id)
}

// PreviewTotals runs the engine on unsaved input.
func (s *Service) PreviewTotals(req transport.PreviewTotalsRequest) (transport.PreviewTotalsResponse, error) {
	discount, err := toAdjustment(req.Discount)
	if err != nil {
		return transport.PreviewTotalsResponse{}, err
	}
	deposit, err := toAdjustment(req.Deposit)
	if err != nil {
		return transport.PreviewTotalsResponse{}, err
	}
	lines := toDomainLines(req.Lines)
	totals := domain.ComputeTotals(lines, domain.TotalsConfig{Discount: discount, Deposit: deposit})
	return transport.PreviewTotalsResponse{Lines: toLineResponses(lines), Totals: toTotalsResponse(totals)}, nil
}

func (s *Service) ensureClient(ctx context.Context, companyID, clientID uuid.UUID) error {
	if s.clients == nil {
		return nil
	}
	_, err := s.clients.GetQuoteClient(ctx, companyID, clientID)
	return err
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

func toAdjustment(req transport.AdjustmentRequest) (domain.Adjustment, error) {
	if req.Value.IsNegative() {
		return domain.Adjustment{}, apperr.Validation("la remise et l'acompte doivent être positifs")
	}
	mode := domain.ModePercent
	if req.Mode != "" {
		parsed, err := domain.ParseAdjustmentMode(req.Mode)
		if err != nil {
			return domain.Adjustment{}, apperr.Validation(err.Error())
		}
		mode = parsed
	}
	return domain.Adjustment{Value: req.Value, Mode: mode}, nil
}
