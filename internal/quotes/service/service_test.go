package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu       sync.Mutex
	quotes   map[uuid.UUID]*domain.Quote
	counters map[string]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{quotes: map[uuid.UUID]*domain.Quote{}, counters: map[string]int{}}
}

func clone(q *domain.Quote) *domain.Quote {
	cp := *q
	cp.Lines = make([]*domain.LineItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		lc := *l
		cp.Lines = append(cp.Lines, &lc)
	}
	return &cp
}

func (r *memoryRepo) Create(_ context.Context, q *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s/%d", q.CompanyID, q.IssueDate.Year())
	r.counters[key]++
	q.Number = domain.FormatNumber(q.IssueDate.Year(), r.counters[key])
	r.quotes[q.ID] = clone(q)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, companyID, id uuid.UUID) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.CompanyID != companyID {
		return nil, apperr.NotFound("Devis non trouvé")
	}
	return clone(q), nil
}

func (r *memoryRepo) Save(_ context.Context, q *domain.Quote, replaceLines bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.quotes[q.ID]
	if !ok || prev.CompanyID != q.CompanyID {
		return apperr.NotFound("Devis non trouvé")
	}
	next := clone(q)
	if !replaceLines {
		next.Lines = prev.Lines
	}
	r.quotes[q.ID] = next
	return nil
}

func (r *memoryRepo) List(_ context.Context, p repository.ListParams) ([]*domain.Quote, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Quote
	for _, q := range r.quotes {
		if q.CompanyID == p.CompanyID {
			out = append(out, clone(q))
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) Delete(_ context.Context, companyID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.quotes[id]; !ok || q.CompanyID != companyID {
		return apperr.NotFound("Devis non trouvé")
	}
	delete(r.quotes, id)
	return nil
}

func (r *memoryRepo) MarkSent(_ context.Context, companyID, id uuid.UUID, pdfKey string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.CompanyID != companyID {
		return apperr.NotFound("Devis non trouvé")
	}
	q.Status = domain.StatusSent
	q.PDFKey = pdfKey
	q.SentAt = &sentAt
	return nil
}

type scriptedAssistant struct {
	proposal assistant.Proposal
	last     assistant.Request
}

func (a *scriptedAssistant) Propose(_ context.Context, req assistant.Request) assistant.Proposal {
	a.last = req
	return a.proposal
}

type fakeClients struct {
	clients map[uuid.UUID]ClientData
}

func (f *fakeClients) GetQuoteClient(_ context.Context, _, id uuid.UUID) (ClientData, error) {
	c, ok := f.clients[id]
	if !ok {
		return ClientData{}, apperr.NotFound("client introuvable")
	}
	return c, nil
}

func (f *fakeClients) CreateQuoteClient(_ context.Context, _ uuid.UUID, req transport.NewClientRequest) (ClientData, error) {
	c := ClientData{ID: uuid.New(), Name: req.Name, Type: req.Type, Email: req.Email}
	f.clients[c.ID] = c
	return c, nil
}

type fakeIssuer struct{ name string }

func (f fakeIssuer) GetIssuer(context.Context, uuid.UUID) (pdf.Company, error) {
	return pdf.Company{Name: f.name, SIRET: "12345678900011", IBAN: "FR7630006000011234567890189"}, nil
}

type fakePriceList struct{ calls int }

func (f *fakePriceList) GetPriceList(_ context.Context, _ uuid.UUID, limit int) ([]assistant.CatalogEntry, error) {
	f.calls++
	return []assistant.CatalogEntry{{Label: "Peinture murale", PriceHT: 25, Unit: "m2"}}, nil
}

type sentQuote struct {
	to, subject, number string
	attachments         []email.Attachment
}

type recordingMailer struct {
	sent []sentQuote
}

func (m *recordingMailer) SendQuoteEmail(_ context.Context, to, subject, _, _, number string, attachments ...email.Attachment) error {
	m.sent = append(m.sent, sentQuote{to: to, subject: subject, number: number, attachments: attachments})
	return nil
}

func (m *recordingMailer) SendWelcomeEmail(context.Context, string, string) error { return nil }

func (m *recordingMailer) SendFeedbackNotification(context.Context, string, string, string, time.Time) error {
	return nil
}

type recordingQueue struct {
	quotes []scheduler.QuoteEmailPayload
}

func (q *recordingQueue) EnqueueQuoteEmail(_ context.Context, p scheduler.QuoteEmailPayload) error {
	q.quotes = append(q.quotes, p)
	return nil
}

func (q *recordingQueue) EnqueueFeedbackNotification(context.Context, scheduler.FeedbackEmailPayload) error {
	return nil
}

type fixture struct {
	svc       *Service
	repo      *memoryRepo
	assistant *scriptedAssistant
	clients   *fakeClients
	priceList *fakePriceList
	mailer    *recordingMailer
	store     *storage.MemoryService
	bus       *events.InMemoryBus
	companyID uuid.UUID
}

func newFixture(issuerName string) *fixture {
	f := &fixture{
		repo:      newMemoryRepo(),
		assistant: &scriptedAssistant{proposal: assistant.Fallback()},
		clients:   &fakeClients{clients: map[uuid.UUID]ClientData{}},
		priceList: &fakePriceList{},
		mailer:    &recordingMailer{},
		store:     storage.NewMemoryService(10 << 20),
		bus:       events.NewInMemoryBus(logger.Discard()),
		companyID: uuid.New(),
	}
	f.svc = New(f.repo, f.assistant, pdf.NewRenderer(pdf.DefaultThemes()), logger.Discard())
	f.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	f.svc.SetClientDirectory(f.clients)
	f.svc.SetIssuerReader(fakeIssuer{name: issuerName})
	f.svc.SetPriceListReader(f.priceList)
	f.svc.SetEventBus(f.bus)
	f.svc.SetPDFStorage(f.store, "quote-pdfs")
	f.svc.SetMailer(f.mailer)
	return f
}

func (f *fixture) start(t *testing.T, req transport.StartChatRequest) transport.ChatResponse {
	t.Helper()
	resp, err := f.svc.StartChat(context.Background(), f.companyID, req)
	require.NoError(t, err)
	return resp
}

func price(v float64) *float64 { return &v }

func TestStartChatNumbersSequentially(t *testing.T) {
	f := newFixture("Martin BTP")
	var created []events.QuoteCreated
	var mu sync.Mutex
	f.bus.Subscribe(events.QuoteCreated{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		created = append(created, e.(events.QuoteCreated))
		return nil
	}))

	first := f.start(t, transport.StartChatRequest{})
	second := f.start(t, transport.StartChatRequest{Theme: "classic"})
	f.bus.Wait()

	require.Equal(t, "DV-2026-001", first.Quote.Number)
	require.Equal(t, "DV-2026-002", second.Quote.Number)
	require.Equal(t, welcomeMessage, first.AssistantMessage)
	require.Empty(t, first.Chips)
	require.Equal(t, "brouillon", first.Quote.Status)
	require.Equal(t, "modern_plus", first.Quote.Theme)
	require.Equal(t, "classic", second.Quote.Theme)
	require.Equal(t, "2026-04-13", first.Quote.ValidUntil)
	require.Equal(t, "0.00", first.Quote.Totals.TotalInclTax.String())
	require.Len(t, created, 2)
}

func TestStartChatWithInlineClient(t *testing.T) {
	f := newFixture("Martin BTP")
	resp := f.start(t, transport.StartChatRequest{Client: &transport.NewClientRequest{Name: "Mme Durand", Email: "durand@example.fr"}})
	require.NotNil(t, resp.Quote.ClientID)
	require.Contains(t, f.clients.clients, *resp.Quote.ClientID)

	_, err := f.svc.StartChat(context.Background(), f.companyID, transport.StartChatRequest{ClientID: ptr(uuid.New())})
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func ptr[T any](v T) *T { return &v }

func TestChatTurnReplacesLinesOnUpdate(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{})
	f.assistant.proposal = assistant.Proposal{
		Action: assistant.ActionUpdateQuote,
		Lines: []assistant.ProposedLine{
			{Label: "Peinture murale", Quantity: 2, Unit: "m2", UnitPriceHT: price(100)},
			{Label: "Déplacement", Quantity: 1},
		},
		DetailedDescription: "Travaux de peinture du salon.",
		AssistantMessage:    "J'ai ajouté la peinture.",
		Questions:           []string{"Quelle couleur ?"},
	}

	resp, err := f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{
		SessionID: started.SessionID,
		Message:   "Peindre 2 m2 de mur",
	})
	require.NoError(t, err)
	require.Equal(t, "update_quote", resp.Action)
	require.Equal(t, "J'ai ajouté la peinture.", resp.AssistantMessage)
	require.Equal(t, []string{"Quelle couleur ?"}, resp.Questions)
	require.Equal(t, []string{"Voir PDF", "Modifier"}, resp.Chips)
	require.Len(t, resp.Quote.Lines, 2)
	require.Nil(t, resp.Quote.Lines[1].UnitPriceExclTax)
	require.Equal(t, "200.00", resp.Quote.Totals.TotalExclTax.String())
	require.Equal(t, "240.00", resp.Quote.Totals.TotalInclTax.String())
	require.Empty(t, resp.Quote.DetailedDescription)

	stored, err := f.repo.GetByID(context.Background(), f.companyID, started.SessionID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	require.Equal(t, "200", stored.Lines[0].LineTotalExclTax.String())

	resp, err = f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{
		SessionID:                  started.SessionID,
		Message:                    "Ajoute la description",
		IncludeDetailedDescription: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Travaux de peinture du salon.", resp.Quote.DetailedDescription)
}

func TestChatTurnFallbackKeepsLines(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{})
	f.assistant.proposal = assistant.Proposal{
		Action:           assistant.ActionUpdateQuote,
		Lines:            []assistant.ProposedLine{{Label: "Pose", Quantity: 1, UnitPriceHT: price(50)}},
		AssistantMessage: "ok",
	}
	_, err := f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{SessionID: started.SessionID, Message: "pose"})
	require.NoError(t, err)

	f.assistant.proposal = assistant.Fallback()
	resp, err := f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{SessionID: started.SessionID, Message: "???"})
	require.NoError(t, err)
	require.Equal(t, "just_chat", resp.Action)
	require.Len(t, resp.Quote.Lines, 1)
	require.Equal(t, []string{"Voir PDF", "Modifier"}, resp.Chips)
	require.Equal(t, []string{}, resp.Questions)
}

func TestChatTurnPriceListSource(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{})

	_, err := f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{SessionID: started.SessionID, Message: "bonjour"})
	require.NoError(t, err)
	require.Equal(t, 1, f.priceList.calls)
	require.Equal(t, "Peinture murale", f.assistant.last.PriceList[0].Label)

	_, err = f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{
		SessionID: started.SessionID,
		Message:   "bonjour",
		PriceList: []transport.PriceListEntry{{Label: "Carrelage", Price: 35, Unit: "m2"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.priceList.calls)
	require.Equal(t, []assistant.CatalogEntry{{Label: "Carrelage", PriceHT: 35, Unit: "m2"}}, f.assistant.last.PriceList)
}

func TestChatTurnImageAndClientContext(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{Client: &transport.NewClientRequest{Name: "SCI Tilleuls", Type: "pro"}})

	raw := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	_, err := f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{
		SessionID:   started.SessionID,
		ImageBase64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
	})
	require.NoError(t, err)
	require.NotNil(t, f.assistant.last.Image)
	require.Equal(t, "image/png", f.assistant.last.Image.MIMEType)
	require.Equal(t, raw, f.assistant.last.Image.Data)
	require.Equal(t, "SCI Tilleuls", f.assistant.last.Client.Name)

	_, err = f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{SessionID: started.SessionID, ImageBase64: "%%%"})
	require.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = f.svc.ChatTurn(context.Background(), f.companyID, transport.ChatTurnRequest{SessionID: uuid.New(), Message: "x"})
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateAppliesAdjustmentsAndLines(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{})
	unit := decimal.NewFromInt(1000)
	rate := decimal.NewFromInt(10)

	resp, err := f.svc.Update(context.Background(), f.companyID, started.SessionID, transport.UpdateQuoteRequest{
		Subject:  ptr("Rénovation cuisine"),
		Status:   ptr("accepte"),
		Discount: &transport.AdjustmentRequest{Value: decimal.NewFromInt(10), Mode: "percent"},
		Deposit:  &transport.AdjustmentRequest{Value: decimal.NewFromInt(300), Mode: "amount"},
		Lines: []transport.LineItemRequest{
			{Label: "Meuble", Quantity: decimal.NewFromInt(1), UnitPriceExclTax: &unit, TaxRate: &rate},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Rénovation cuisine", resp.Subject)
	require.Equal(t, "accepte", resp.Status)
	require.Equal(t, "0.1", resp.Lines[0].TaxRate.String())
	require.Equal(t, "1000.00", resp.Totals.SubtotalExclTax.String())
	require.Equal(t, "900.00", resp.Totals.TotalExclTax.String())
	require.Equal(t, "100.00", resp.Totals.TotalTax.String())
	require.Equal(t, "1000.00", resp.Totals.TotalInclTax.String())
	require.Equal(t, "300.00", resp.Totals.DepositInclTax.String())
	require.Equal(t, "700.00", resp.Totals.RemainingInclTax.String())

	resp, err = f.svc.Update(context.Background(), f.companyID, started.SessionID, transport.UpdateQuoteRequest{Notes: ptr("Accès par la cour")})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 1)

	_, err = f.svc.Update(context.Background(), f.companyID, started.SessionID, transport.UpdateQuoteRequest{
		Discount: &transport.AdjustmentRequest{Value: decimal.NewFromInt(-5)},
	})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPreviewTotals(t *testing.T) {
	f := newFixture("Martin BTP")
	unit := decimal.RequireFromString("12.5")
	resp, err := f.svc.PreviewTotals(transport.PreviewTotalsRequest{
		Lines: []transport.LineItemRequest{{Label: "Prise", Quantity: decimal.NewFromInt(4), UnitPriceExclTax: &unit}},
	})
	require.NoError(t, err)
	require.Equal(t, "50.00", resp.Lines[0].LineTotalExclTax.String())
	require.Equal(t, "60.00", resp.Totals.TotalInclTax.String())
	require.Equal(t, "10.00", resp.Totals.TaxByRate["20%"].String())
	require.Empty(t, f.repo.quotes)
}

func TestPreviewTotalsKeepsSubCentUnitPrice(t *testing.T) {
	f := newFixture("Martin BTP")
	unit := decimal.RequireFromString("0.125")
	resp, err := f.svc.PreviewTotals(transport.PreviewTotalsRequest{
		Lines: []transport.LineItemRequest{{Label: "Cheville", Quantity: decimal.NewFromInt(3), UnitPriceExclTax: &unit}},
	})
	require.NoError(t, err)
	require.Equal(t, "0.125", resp.Lines[0].UnitPriceExclTax.String())
	require.Equal(t, "0.38", resp.Lines[0].LineTotalExclTax.String())
	require.Equal(t, "0.38", resp.Totals.TotalExclTax.String())
}

func TestRenderPDF(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{})

	rendered, err := f.svc.RenderPDF(context.Background(), f.companyID, started.SessionID)
	require.NoError(t, err)
	require.Equal(t, "devis-DV-2026-001.pdf", rendered.FileName)
	require.True(t, bytes.HasPrefix(rendered.Content, []byte("%PDF")))

	_, err = f.svc.RenderPDF(context.Background(), f.companyID, uuid.New())
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	incomplete := newFixture("  ")
	started = incomplete.start(t, transport.StartChatRequest{})
	_, err = incomplete.svc.RenderPDF(context.Background(), incomplete.companyID, started.SessionID)
	require.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestSendInline(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{Client: &transport.NewClientRequest{Name: "Mme Durand", Email: "durand@example.fr"}})
	var emailed events.QuoteEmailed
	f.bus.Subscribe(events.QuoteEmailed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		emailed = e.(events.QuoteEmailed)
		return nil
	}))

	resp, err := f.svc.Send(context.Background(), f.companyID, started.SessionID, transport.SendQuoteRequest{})
	require.NoError(t, err)
	f.bus.Wait()

	require.Equal(t, "envoye", resp.Status)
	require.Equal(t, "durand@example.fr", resp.SentTo)
	require.False(t, resp.Queued)
	require.Len(t, f.mailer.sent, 1)
	require.Equal(t, "DV-2026-001", f.mailer.sent[0].number)
	require.Len(t, f.mailer.sent[0].attachments, 1)
	require.Equal(t, "devis-DV-2026-001.pdf", f.mailer.sent[0].attachments[0].FileName)
	require.True(t, f.store.Exists("quote-pdfs", resp.PDFKey))
	require.Equal(t, started.SessionID, emailed.QuoteID)

	stored, err := f.repo.GetByID(context.Background(), f.companyID, started.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)
}

func TestSendThroughQueue(t *testing.T) {
	f := newFixture("Martin BTP")
	queue := &recordingQueue{}
	f.svc.SetEmailQueue(queue)
	started := f.start(t, transport.StartChatRequest{})

	resp, err := f.svc.Send(context.Background(), f.companyID, started.SessionID, transport.SendQuoteRequest{
		ToEmail: "client@example.fr", Subject: "Votre devis", Message: "Bonne journée",
	})
	require.NoError(t, err)
	require.True(t, resp.Queued)
	require.Empty(t, f.mailer.sent)
	require.Len(t, queue.quotes, 1)
	require.Equal(t, "quote-pdfs", queue.quotes[0].PDFBucket)
	require.Equal(t, resp.PDFKey, queue.quotes[0].PDFKey)
	require.Empty(t, queue.quotes[0].PDF)
	require.Equal(t, "Votre devis", queue.quotes[0].Subject)
}

func TestSendRequiresRecipient(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{})
	_, err := f.svc.Send(context.Background(), f.companyID, started.SessionID, transport.SendQuoteRequest{})
	require.True(t, apperr.Is(err, apperr.KindValidation))
	require.Empty(t, f.mailer.sent)
}

func TestListAndDelete(t *testing.T) {
	f := newFixture("Martin BTP")
	started := f.start(t, transport.StartChatRequest{})
	f.start(t, transport.StartChatRequest{})

	list, err := f.svc.List(context.Background(), f.companyID, transport.ListQuotesRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Equal(t, defaultPageSize, list.PageSize)

	require.NoError(t, f.svc.Delete(context.Background(), f.companyID, started.SessionID))
	_, err = f.svc.Get(context.Background(), f.companyID, started.SessionID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}
