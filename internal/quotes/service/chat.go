package service

import (
	"context"
	"encoding/base64"
	"strings"

	"devis_backend/internal/assistant"
	"devis_backend/internal/events"
	"devis_backend/internal/quotes/domain"
	"devis_backend/internal/quotes/transport"
	"devis_backend/platform/apperr"
	"devis_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	welcomeMessage   = "Bonjour ! Je suis prêt à créer votre devis. Dites-moi ce qu'il faut chiffrer."
	maxPromptCatalog = 200
	maxImageBytes    = 8 << 20
)

// StartChat opens a draft quote, optionally creating its client on the fly.
func (s *Service) StartChat(ctx context.Context, companyID uuid.UUID, req transport.StartChatRequest) (transport.ChatResponse, error) {
	q := domain.NewDraft(companyID, s.now())
	if req.Theme != "" {
		q.Theme = req.Theme
	}
	q.Subject = sanitize.Text(req.Subject)

	switch {
	case req.ClientID != nil:
		if err := s.ensureClient(ctx, companyID, *req.ClientID); err != nil {
			return transport.ChatResponse{}, err
		}
		q.ClientID = req.ClientID
	case req.Client != nil && s.clients != nil:
		client, err := s.clients.CreateQuoteClient(ctx, companyID, *req.Client)
		if err != nil {
			return transport.ChatResponse{}, err
		}
		q.ClientID = &client.ID
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return transport.ChatResponse{}, err
	}
	s.publish(ctx, events.QuoteCreated{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   q.ID,
		CompanyID: companyID,
		Number:    q.Number,
	})

	return transport.ChatResponse{
		SessionID:        q.ID,
		AssistantMessage: welcomeMessage,
		Chips:            chipsFor(q),
		Questions:        []string{},
		Quote:            toQuoteResponse(q),
	}, nil
}

// ChatTurn asks the assistant about the quote behind req.SessionID and
// applies an update_quote proposal by replacing every line.
func (s *Service) ChatTurn(ctx context.Context, companyID uuid.UUID, req transport.ChatTurnRequest) (transport.ChatResponse, error) {
	image, err := decodeImage(req.ImageBase64, req.ImageMIMEType)
	if err != nil {
		return transport.ChatResponse{}, err
	}

	q, err := s.repo.GetByID(ctx, companyID, req.SessionID)
	if err != nil {
		return transport.ChatResponse{}, err
	}

	proposal := s.assistant.Propose(ctx, assistant.Request{
		Message:                    strings.TrimSpace(req.Message),
		CurrentLines:               q.Lines,
		Client:                     s.clientInfo(ctx, q),
		PriceList:                  s.promptPriceList(ctx, companyID, req.PriceList),
		Image:                      image,
		IncludeDetailedDescription: req.IncludeDetailedDescription,
	})

	if proposal.Action == assistant.ActionUpdateQuote {
		q.Lines = proposal.LineItems()
		if req.IncludeDetailedDescription && strings.TrimSpace(proposal.DetailedDescription) != "" {
			q.DetailedDescription = sanitize.Multiline(proposal.DetailedDescription)
		}
		q.UpdatedAt = s.now()
		q.Totals()
		if err := s.repo.Save(ctx, q, true); err != nil {
			return transport.ChatResponse{}, err
		}
	}

	questions := proposal.Questions
	if questions == nil {
		questions = []string{}
	}
	return transport.ChatResponse{
		SessionID:        q.ID,
		Action:           string(proposal.Action),
		AssistantMessage: proposal.AssistantMessage,
		Chips:            chipsFor(q),
		Questions:        questions,
		Quote:            toQuoteResponse(q),
	}, nil
}

// promptPriceList prefers the list posted with the turn over the stored catalog.
func (s *Service) promptPriceList(ctx context.Context, companyID uuid.UUID, posted []transport.PriceListEntry) []assistant.CatalogEntry {
	if posted != nil {
		out := make([]assistant.CatalogEntry, 0, len(posted))
		for _, p := range posted {
			out = append(out, assistant.CatalogEntry{Label: p.Label, PriceHT: p.Price, Unit: p.Unit, Category: p.Category})
		}
		return out
	}
	if s.priceList == nil {
		return nil
	}
	entries, err := s.priceList.GetPriceList(ctx, companyID, maxPromptCatalog)
	if err != nil {
		s.log.WithContext(ctx).Warn("price list unavailable for chat turn", "error", err)
		return nil
	}
	return entries
}

func (s *Service) clientInfo(ctx context.Context, q *domain.Quote) *assistant.ClientInfo {
	if q.ClientID == nil || s.clients == nil {
		return nil
	}
	c, err := s.clients.GetQuoteClient(ctx, q.CompanyID, *q.ClientID)
	if err != nil {
		s.log.WithContext(ctx).Warn("client unavailable for chat turn", "clientId", q.ClientID, "error", err)
		return nil
	}
	return &assistant.ClientInfo{Name: c.Name, Type: c.Type, SiteAddress: c.SiteAddress}
}

// decodeImage accepts raw base64 or a data: URL.
func decodeImage(raw, mimeType string) (*assistant.Image, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, apperr.BadRequest("image invalide")
		}
		if mt, _, _ := strings.Cut(header, ";"); mt != "" && mimeType == "" {
			mimeType = mt
		}
		raw = payload
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > maxImageBytes {
		return nil, apperr.BadRequest("image trop volumineuse")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, apperr.BadRequest("image invalide")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = ""
	}
	return &assistant.Image{MIMEType: mimeType, Data: data}, nil
}

// chipsFor offers the PDF and edit shortcuts once the quote has lines.
func chipsFor(q *domain.Quote) []string {
	if len(q.Lines) == 0 {
		return []string{}
	}
	return transport.DefaultChips
}
