package service

import (
	"encoding/json"
	"strings"
	"time"

	"devis_backend/internal/quotes/domain"
	"devis_backend/internal/quotes/transport"
	"devis_backend/platform/apperr"
	"devis_backend/platform/money"
	"devis_backend/platform/sanitize"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

func toDomainLines(reqs []transport.LineItemRequest) []*domain.LineItem {
	lines := make([]*domain.LineItem, 0, len(reqs))
	for _, r := range reqs {
		l := domain.NewLine(sanitize.Text(r.Label))
		if kind := sanitize.Text(r.Kind); kind != "" {
			l.Kind = kind
		}
		l.Quantity = r.Quantity
		if unit := sanitize.Text(r.Unit); unit != "" {
			l.Unit = unit
		}
		if r.UnitPriceExclTax != nil {
			price := *r.UnitPriceExclTax
			l.UnitPriceExclTax = &price
		}
		if r.TaxRate != nil {
			l.TaxRate = *r.TaxRate
			if l.TaxRate.GreaterThan(one) {
				l.TaxRate = l.TaxRate.Div(hundred)
			}
		}
		l.Lot = sanitize.Text(r.Lot)
		l.IsOption = r.IsOption
		l.Note = sanitize.Multiline(r.Note)
		lines = append(lines, l)
	}
	return lines
}

func applyMeta(q *domain.Quote, req transport.UpdateQuoteRequest) error {
	if req.IssueDate != nil {
		d, err := time.Parse(dateLayout, *req.IssueDate)
		if err != nil {
			return apperr.Validation("date d'émission invalide")
		}
		q.IssueDate = d
	}
	if req.StartDate != nil {
		if *req.StartDate == "" {
			q.StartDate = nil
		} else {
			d, err := time.Parse(dateLayout, *req.StartDate)
			if err != nil {
				return apperr.Validation("date de début invalide")
			}
			q.StartDate = &d
		}
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		if !status.Valid() {
			return apperr.Validation("statut inconnu")
		}
		q.Status = status
	}
	if req.ValidityDays != nil {
		q.ValidityDays = *req.ValidityDays
	}
	setText(&q.Theme, req.Theme)
	setText(&q.AccentHex, req.AccentHex)
	setText(&q.CTAURL, req.CTAURL)
	setText(&q.Subject, req.Subject)
	setText(&q.WorksDuration, req.WorksDuration)
	setText(&q.PaymentMethod, req.PaymentMethod)
	if req.PaymentTerms != nil {
		q.PaymentTerms = sanitize.Multiline(*req.PaymentTerms)
	}
	if req.Notes != nil {
		q.Notes = sanitize.Multiline(*req.Notes)
	}
	if req.DetailedDescription != nil {
		q.DetailedDescription = sanitize.Multiline(*req.DetailedDescription)
	}
	return nil
}

func setText(dst *string, v *string) {
	if v != nil {
		*dst = sanitize.Text(*v)
	}
}

func toLineResponses(lines []*domain.LineItem) []transport.LineItemResponse {
	out := make([]transport.LineItemResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, transport.LineItemResponse{
			Kind:             l.Kind,
			Label:            l.Label,
			Quantity:         money.Rate(l.Quantity),
			Unit:             l.Unit,
			UnitPriceExclTax: money.PricePtr(l.UnitPriceExclTax),
			TaxRate:          money.Rate(l.TaxRate),
			Lot:              l.Lot,
			IsOption:         l.IsOption,
			Note:             l.Note,
			LineTotalExclTax: money.JSON(l.LineTotalExclTax),
		})
	}
	return out
}

func toTotalsResponse(t domain.Totals) transport.TotalsResponse {
	byRate := make(map[string]json.Number, len(t.TaxByRate))
	for rate, amount := range t.TaxByRate {
		byRate[rate] = money.JSON(amount)
	}
	return transport.TotalsResponse{
		SubtotalExclTax:  money.JSON(t.SubtotalExclTax),
		DiscountAmount:   money.JSON(t.DiscountAmount),
		TotalExclTax:     money.JSON(t.ExclTax),
		TotalTax:         money.JSON(t.Tax),
		TotalInclTax:     money.JSON(t.InclTax),
		TaxByRate:        byRate,
		DepositInclTax:   money.JSON(t.DepositInclTax),
		RemainingInclTax: money.JSON(t.RemainingInclTax),
	}
}

func adjustmentResponse(a domain.Adjustment) transport.AdjustmentResponse {
	return transport.AdjustmentResponse{Value: money.Rate(a.Value), Mode: a.Mode.String()}
}

// toQuoteResponse recomputes totals so line totals are always current.
func toQuoteResponse(q *domain.Quote) transport.QuoteResponse {
	totals := q.Totals()
	resp := transport.QuoteResponse{
		ID:                  q.ID,
		Number:              q.Number,
		ClientID:            q.ClientID,
		IssueDate:           q.IssueDate.Format(dateLayout),
		ValidUntil:          q.ValidUntil().Format(dateLayout),
		Currency:            q.Currency,
		Status:              string(q.Status),
		Theme:               q.Theme,
		AccentHex:           q.AccentHex,
		CTAURL:              q.CTAURL,
		Subject:             q.Subject,
		ValidityDays:        q.ValidityDays,
		WorksDuration:       q.WorksDuration,
		PaymentMethod:       q.PaymentMethod,
		PaymentTerms:        q.PaymentTerms,
		Notes:               q.Notes,
		Discount:            adjustmentResponse(q.Discount),
		Deposit:             adjustmentResponse(q.Deposit),
		DetailedDescription: q.DetailedDescription,
		SentAt:              q.SentAt,
		Lines:               toLineResponses(q.Lines),
		Totals:              toTotalsResponse(totals),
		CreatedAt:           q.CreatedAt,
		UpdatedAt:           q.UpdatedAt,
	}
	if q.StartDate != nil {
		start := q.StartDate.Format(dateLayout)
		resp.StartDate = &start
	}
	return resp
}

func toSummary(q *domain.Quote) transport.QuoteSummary {
	totals := q.Totals()
	return transport.QuoteSummary{
		ID:           q.ID,
		Number:       q.Number,
		ClientID:     q.ClientID,
		Subject:      q.Subject,
		Status:       string(q.Status),
		IssueDate:    q.IssueDate.Format(dateLayout),
		LineCount:    len(q.Lines),
		TotalExclTax: money.JSON(totals.ExclTax),
		TotalInclTax: money.JSON(totals.InclTax),
	}
}

func pdfFileName(number string) string {
	return "devis-" + strings.TrimSpace(number) + ".pdf"
}
