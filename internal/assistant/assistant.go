// Package assistant turns free text (and photos) into structured quote lines
// and price-list items through ADK agents.
package assistant

import (
	"context"
	"strings"

	"devis_backend/internal/quotes/domain"
	"devis_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionUpdateQuote      Action = "update_quote"
	ActionAskClarification Action = "ask_clarification"
	ActionJustChat         Action = "just_chat"
)

const (
	fallbackMessage      = "Désolé, j'ai rencontré une erreur interne lors de l'analyse (Structure invalide). Peux-tu reformuler ?"
	fallbackReasoning    = "fallback"
	maxPriceListInPrompt = 200
	defaultImageMIMEType = "image/jpeg"
)

// CatalogEntry is one price-list row offered to the model.
type CatalogEntry struct {
	Label    string  `json:"label"`
	PriceHT  float64 `json:"price_ht"`
	Unit     string  `json:"unit"`
	Category string  `json:"category,omitempty"`
}

// ClientInfo gives the model context about who the quote is for.
type ClientInfo struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	SiteAddress string `json:"site_address,omitempty"`
}

// Image is an optional photo attached to a chat turn.
type Image struct {
	MIMEType string
	Data     []byte
}

type Request struct {
	Message                    string
	CurrentLines               []*domain.LineItem
	Client                     *ClientInfo
	PriceList                  []CatalogEntry
	Image                      *Image
	IncludeDetailedDescription bool
}

// ProposedLine mirrors the tool schema the model fills in.
type ProposedLine struct {
	Label       string   `json:"label"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit,omitempty"`
	UnitPriceHT *float64 `json:"unit_price_ht,omitempty"`
	TaxRate     *float64 `json:"tva_rate,omitempty"`
	Lot         string   `json:"lot,omitempty"`
	Note        string   `json:"note,omitempty"`
}

type Proposal struct {
	Action              Action         `json:"action"`
	Lines               []ProposedLine `json:"lines"`
	DetailedDescription string         `json:"detailed_description,omitempty"`
	AssistantMessage    string         `json:"assistant_message"`
	Questions           []string       `json:"questions_for_user,omitempty"`
	Reasoning           string         `json:"reasoning,omitempty"`
}

// Fallback is returned whenever the model cannot produce a usable proposal.
func Fallback() Proposal {
	return Proposal{
		Action:           ActionJustChat,
		AssistantMessage: fallbackMessage,
		Reasoning:        fallbackReasoning,
		Lines:            []ProposedLine{},
	}
}

// IsFallback reports whether p is the error proposal.
func (p Proposal) IsFallback() bool {
	return p.Action == ActionJustChat && p.AssistantMessage == fallbackMessage && len(p.Lines) == 0
}

// LineItems converts the proposed lines to quote lines.
func (p Proposal) LineItems() []*domain.LineItem {
	items := make([]*domain.LineItem, 0, len(p.Lines))
	for _, l := range p.Lines {
		item := domain.NewLine(l.Label)
		item.Quantity = decimal.NewFromFloat(l.Quantity)
		if l.Unit != "" {
			item.Unit = l.Unit
		}
		if l.UnitPriceHT != nil {
			price := decimal.NewFromFloat(*l.UnitPriceHT)
			item.UnitPriceExclTax = &price
		}
		if l.TaxRate != nil {
			item.TaxRate = decimal.NewFromFloat(*l.TaxRate)
		}
		item.Lot = l.Lot
		item.Note = l.Note
		items = append(items, item)
	}
	return items
}

// QuoteAssistant proposes quote updates. Implementations never fail: errors
// collapse into Fallback().
type QuoteAssistant interface {
	Propose(ctx context.Context, req Request) Proposal
}

// ExtractedItem is one row pulled out of an imported price list.
type ExtractedItem struct {
	Label    string  `json:"label"`
	PriceHT  float64 `json:"price_ht"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

type PriceListExtractor interface {
	ExtractPriceItems(ctx context.Context, text string) ([]ExtractedItem, error)
}

// normalizeProposal cleans what the model sent back. Unknown actions become
// just_chat, tax rates above 1 are read as percentages.
func normalizeProposal(p Proposal) Proposal {
	switch p.Action {
	case ActionUpdateQuote, ActionAskClarification, ActionJustChat:
	default:
		p.Action = ActionJustChat
	}
	p.AssistantMessage = strings.TrimSpace(p.AssistantMessage)
	p.DetailedDescription = strings.TrimSpace(p.DetailedDescription)

	lines := make([]ProposedLine, 0, len(p.Lines))
	for _, l := range p.Lines {
		l.Label = strings.TrimSpace(l.Label)
		if l.Label == "" {
			continue
		}
		l.Unit = strings.TrimSpace(l.Unit)
		if l.Unit == "" {
			l.Unit = "u"
		}
		if l.TaxRate == nil {
			rate := 0.2
			l.TaxRate = &rate
		} else if *l.TaxRate > 1 {
			rate := *l.TaxRate / 100
			l.TaxRate = &rate
		}
		lines = append(lines, l)
	}
	p.Lines = lines

	questions := p.Questions[:0]
	for _, q := range p.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	p.Questions = questions
	return p
}

func normalizeExtracted(items []ExtractedItem) []ExtractedItem {
	out := make([]ExtractedItem, 0, len(items))
	for _, it := range items {
		it.Label = strings.TrimSpace(it.Label)
		if it.Label == "" || it.PriceHT < 0 {
			continue
		}
		it.Unit = strings.TrimSpace(it.Unit)
		if it.Unit == "" {
			it.Unit = "u"
		}
		it.Category = strings.TrimSpace(it.Category)
		if it.Category == "" {
			it.Category = "Général"
		}
		out = append(out, it)
	}
	return out
}

// Unconfigured stands in when no LLM key is set.
type Unconfigured struct{}

func (Unconfigured) Propose(context.Context, Request) Proposal { return Fallback() }

func (Unconfigured) ExtractPriceItems(context.Context, string) ([]ExtractedItem, error) {
	return nil, apperr.Unavailable("assistant IA non configuré")
}
