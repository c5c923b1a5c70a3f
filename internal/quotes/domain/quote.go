package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line kinds. Free text is accepted; these are the values the UI offers.
const (
	KindService  = "prestation"
	KindSupply   = "fourniture"
	KindLabour   = "main_oeuvre"
	KindTextOnly = "texte"
)

// LineItem is one row of a quote.
type LineItem struct {
	Kind     string
	Label    string
	Quantity decimal.Decimal
	Unit     string
	// UnitPriceExclTax is nil while the price is unknown.
	UnitPriceExclTax *decimal.Decimal
	TaxRate          decimal.Decimal
	Lot              string
	IsOption         bool
	Note             string
	// LineTotalExclTax is written by the totals engine.
	LineTotalExclTax decimal.Decimal
}

// DefaultTaxRate is the standard French VAT rate.
var DefaultTaxRate = decimal.RequireFromString("0.2")

// NewLine returns a line with the usual defaults (qty 1, unit "u", 20% VAT).
func NewLine(label string) *LineItem {
	return &LineItem{
		Kind:     KindService,
		Label:    label,
		Quantity: decimal.NewFromInt(1),
		Unit:     "u",
		TaxRate:  DefaultTaxRate,
	}
}

type Status string

const (
	StatusDraft    Status = "brouillon"
	StatusSent     Status = "envoye"
	StatusAccepted Status = "accepte"
	StatusRejected Status = "refuse"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

const (
	DefaultTheme         = "modern_plus"
	DefaultAccentHex     = "#0EA5E9"
	DefaultCurrency      = "EUR"
	DefaultValidityDays  = 30
	DefaultPaymentMethod = "Virement"
)

// Quote is a devis with its lines.
type Quote struct {
	ID                  uuid.UUID
	CompanyID           uuid.UUID
	ClientID            *uuid.UUID
	Number              string
	IssueDate           time.Time
	Currency            string
	Status              Status
	Theme               string
	AccentHex           string
	CTAURL              string
	Subject             string
	ValidityDays        int
	StartDate           *time.Time
	WorksDuration       string
	PaymentMethod       string
	PaymentTerms        string
	Notes               string
	Discount            Adjustment
	Deposit             Adjustment
	DetailedDescription string
	PDFKey              string
	SentAt              *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Lines               []*LineItem
}

// NewDraft returns a quote with the default presentation settings.
func NewDraft(companyID uuid.UUID, now time.Time) *Quote {
	return &Quote{
		ID:            uuid.New(),
		CompanyID:     companyID,
		IssueDate:     now,
		Currency:      DefaultCurrency,
		Status:        StatusDraft,
		Theme:         DefaultTheme,
		AccentHex:     DefaultAccentHex,
		ValidityDays:  DefaultValidityDays,
		PaymentMethod: DefaultPaymentMethod,
		Discount:      Adjustment{Mode: ModePercent},
		Deposit:       Adjustment{Mode: ModePercent},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TotalsConfig extracts the engine inputs.
func (q *Quote) TotalsConfig() TotalsConfig {
	return TotalsConfig{Discount: q.Discount, Deposit: q.Deposit}
}

// Totals recomputes the totals, refreshing each line's derived total.
func (q *Quote) Totals() Totals {
	return ComputeTotals(q.Lines, q.TotalsConfig())
}

// ValidUntil is the issue date plus the validity period.
func (q *Quote) ValidUntil() time.Time {
	return q.IssueDate.AddDate(0, 0, q.ValidityDays)
}

// FormatNumber renders the human readable quote number, DV-2026-007.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("DV-%d-%03d", year, seq)
}
