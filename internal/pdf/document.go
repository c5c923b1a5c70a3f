// Package pdf renders a quote as a themed A4 PDF with gofpdf.
package pdf

import (
	"time"

	"devis_backend/internal/quotes/domain"
)

// Company is the issuer block printed on the quote.
type Company struct {
	Name      string
	LegalForm string
	Address   string
	SIRET     string
	VATNumber string
	Email     string
	Phone     string
	IBAN      string
	BIC       string
	// Logo holds raw PNG or JPEG bytes; other formats are skipped.
	Logo []byte
}

type Client struct {
	Name        string
	Address     string
	Email       string
	Phone       string
	SiteAddress string
}

// QuoteDocument is everything the renderer needs. Totals must have been
// computed from Quote.Lines.
type QuoteDocument struct {
	Quote   *domain.Quote
	Totals  domain.Totals
	Company Company
	Client  *Client
}

func (d QuoteDocument) issueDate() time.Time {
	if d.Quote.IssueDate.IsZero() {
		return time.Now()
	}
	return d.Quote.IssueDate
}
