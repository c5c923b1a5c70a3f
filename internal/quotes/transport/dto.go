package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Chips offered under every assistant reply.
var DefaultChips = []string{"Voir PDF", "Modifier"}

type LineItemRequest struct {
	Kind             string           `json:"kind" validate:"max=30"`
	Label            string           `json:"label" validate:"max=500"`
	Quantity         decimal.Decimal  `json:"quantity"`
	Unit             string           `json:"unit" validate:"max=20"`
	UnitPriceExclTax *decimal.Decimal `json:"unitPriceExclTax"`
	// TaxRate is a fraction (0.2); values above 1 are read as percentages.
	TaxRate  *decimal.Decimal `json:"taxRate"`
	Lot      string           `json:"lot" validate:"max=200"`
	IsOption bool             `json:"isOption"`
	Note     string           `json:"note" validate:"max=2000"`
}

type AdjustmentRequest struct {
	Value decimal.Decimal `json:"value"`
	Mode  string          `json:"mode" validate:"omitempty,adjmode"`
}

type NewClientRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Type        string `json:"type" validate:"omitempty,oneof=particulier pro"`
	Address     string `json:"address" validate:"max=500"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Phone       string `json:"phone" validate:"max=30"`
	SiteAddress string `json:"siteAddress" validate:"max=500"`
}

type StartChatRequest struct {
	ClientID *uuid.UUID        `json:"clientId,omitempty"`
	Client   *NewClientRequest `json:"client,omitempty"`
	Theme    string            `json:"theme" validate:"omitempty,quotetheme"`
	Subject  string            `json:"subject" validate:"max=300"`
}

type PriceListEntry struct {
	Label    string  `json:"label" validate:"required,max=300"`
	Price    float64 `json:"price" validate:"min=0"`
	Unit     string  `json:"unit" validate:"max=20"`
	Category string  `json:"category" validate:"max=100"`
}

type ChatTurnRequest struct {
	SessionID                  uuid.UUID        `json:"sessionId" validate:"required"`
	Message                    string           `json:"message" validate:"required_without=ImageBase64,max=4000"`
	IncludeDetailedDescription bool             `json:"includeDetailedDescription"`
	PriceList                  []PriceListEntry `json:"priceList,omitempty" validate:"omitempty,max=500,dive"`
	// ImageBase64 accepts raw base64 or a data: URL.
	ImageBase64   string `json:"imageBase64,omitempty"`
	ImageMIMEType string `json:"imageMimeType,omitempty" validate:"omitempty,oneof=image/png image/jpeg image/webp image/gif"`
}

type ChatResponse struct {
	SessionID        uuid.UUID     `json:"sessionId"`
	Action           string        `json:"action,omitempty"`
	AssistantMessage string        `json:"assistantMessage"`
	Chips            []string      `json:"chips"`
	Questions        []string      `json:"questions"`
	Quote            QuoteResponse `json:"quote"`
}

type UpdateQuoteRequest struct {
	ClientID            *uuid.UUID         `json:"clientId,omitempty"`
	IssueDate           *string            `json:"issueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status              *string            `json:"status,omitempty" validate:"omitempty,oneof=brouillon envoye accepte refuse"`
	Theme               *string            `json:"theme,omitempty" validate:"omitempty,quotetheme"`
	AccentHex           *string            `json:"accentHex,omitempty" validate:"omitempty,hexcolor"`
	CTAURL              *string            `json:"ctaUrl,omitempty" validate:"omitempty,max=500"`
	Subject             *string            `json:"subject,omitempty" validate:"omitempty,max=300"`
	ValidityDays        *int               `json:"validityDays,omitempty" validate:"omitempty,min=1,max=365"`
	StartDate           *string            `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	WorksDuration       *string            `json:"worksDuration,omitempty" validate:"omitempty,max=100"`
	PaymentMethod       *string            `json:"paymentMethod,omitempty" validate:"omitempty,max=100"`
	PaymentTerms        *string            `json:"paymentTerms,omitempty" validate:"omitempty,max=1000"`
	Notes               *string            `json:"notes,omitempty" validate:"omitempty,max=5000"`
	Discount            *AdjustmentRequest `json:"discount,omitempty"`
	Deposit             *AdjustmentRequest `json:"deposit,omitempty"`
	DetailedDescription *string            `json:"detailedDescription,omitempty" validate:"omitempty,max=20000"`
	Lines               []LineItemRequest  `json:"lines,omitempty" validate:"omitempty,max=500,dive"`
}

type PreviewTotalsRequest struct {
	Lines    []LineItemRequest `json:"lines" validate:"max=500,dive"`
	Discount AdjustmentRequest `json:"discount"`
	Deposit  AdjustmentRequest `json:"deposit"`
}

type PreviewTotalsResponse struct {
	Lines  []LineItemResponse `json:"lines"`
	Totals TotalsResponse     `json:"totals"`
}

type ListQuotesRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=brouillon envoye accepte refuse"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1"`
}

type SendQuoteRequest struct {
	// ToEmail defaults to the client's address.
	ToEmail string `json:"toEmail" validate:"omitempty,email,max=254"`
	Subject string `json:"subject" validate:"max=300"`
	Message string `json:"message" validate:"max=5000"`
}

type SendQuoteResponse struct {
	Status string    `json:"status"`
	SentTo string    `json:"sentTo"`
	SentAt time.Time `json:"sentAt"`
	Queued bool      `json:"queued"`
	PDFKey string    `json:"pdfKey,omitempty"`
}

type LineItemResponse struct {
	Kind             string       `json:"kind"`
	Label            string       `json:"label"`
	Quantity         json.Number  `json:"quantity"`
	Unit             string       `json:"unit"`
	UnitPriceExclTax *json.Number `json:"unitPriceExclTax"`
	TaxRate          json.Number  `json:"taxRate"`
	Lot              string       `json:"lot"`
	IsOption         bool         `json:"isOption"`
	Note             string       `json:"note"`
	LineTotalExclTax json.Number  `json:"lineTotalExclTax"`
}

type AdjustmentResponse struct {
	Value json.Number `json:"value"`
	Mode  string      `json:"mode"`
}

type TotalsResponse struct {
	SubtotalExclTax  json.Number            `json:"subtotalExclTax"`
	DiscountAmount   json.Number            `json:"discountAmount"`
	TotalExclTax     json.Number            `json:"totalExclTax"`
	TotalTax         json.Number            `json:"totalTax"`
	TotalInclTax     json.Number            `json:"totalInclTax"`
	TaxByRate        map[string]json.Number `json:"taxByRate"`
	DepositInclTax   json.Number            `json:"depositInclTax"`
	RemainingInclTax json.Number            `json:"remainingInclTax"`
}

type QuoteResponse struct {
	ID                  uuid.UUID          `json:"id"`
	Number              string             `json:"number"`
	ClientID            *uuid.UUID         `json:"clientId,omitempty"`
	IssueDate           string             `json:"issueDate"`
	ValidUntil          string             `json:"validUntil"`
	Currency            string             `json:"currency"`
	Status              string             `json:"status"`
	Theme               string             `json:"theme"`
	AccentHex           string             `json:"accentHex"`
	CTAURL              string             `json:"ctaUrl"`
	Subject             string             `json:"subject"`
	ValidityDays        int                `json:"validityDays"`
	StartDate           *string            `json:"startDate,omitempty"`
	WorksDuration       string             `json:"worksDuration"`
	PaymentMethod       string             `json:"paymentMethod"`
	PaymentTerms        string             `json:"paymentTerms"`
	Notes               string             `json:"notes"`
	Discount            AdjustmentResponse `json:"discount"`
	Deposit             AdjustmentResponse `json:"deposit"`
	DetailedDescription string             `json:"detailedDescription"`
	SentAt              *time.Time         `json:"sentAt,omitempty"`
	Lines               []LineItemResponse `json:"lines"`
	Totals              TotalsResponse     `json:"totals"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type QuoteSummary struct {
	ID           uuid.UUID   `json:"id"`
	Number       string      `json:"number"`
	ClientID     *uuid.UUID  `json:"clientId,omitempty"`
	Subject      string      `json:"subject"`
	Status       string      `json:"status"`
	IssueDate    string      `json:"issueDate"`
	LineCount    int         `json:"lineCount"`
	TotalExclTax json.Number `json:"totalExclTax"`
	TotalInclTax json.Number `json:"totalInclTax"`
}

type QuoteListResponse struct {
	Items      []QuoteSummary `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
