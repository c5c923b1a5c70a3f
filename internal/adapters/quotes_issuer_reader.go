package adapters

import (
	"context"

	companyrepo "devis_backend/internal/company/repository"
	"devis_backend/internal/pdf"
	quotesvc "devis_backend/internal/quotes/service"
	"devis_backend/platform/logger"

	"github.com/google/uuid"
)

// CompanyProfileReader is the slice of the company service used for quotes.
type CompanyProfileReader interface {
	Profile(ctx context.Context, companyID uuid.UUID) (companyrepo.Company, error)
	LogoBytes(ctx context.Context, company companyrepo.Company) ([]byte, error)
}

// QuotesIssuerReader builds the issuer block of a quote from the company
// profile, downloading the logo from storage.
type QuotesIssuerReader struct {
	companies CompanyProfileReader
	log       *logger.Logger
}

func NewQuotesIssuerReader(companies CompanyProfileReader, log *logger.Logger) *QuotesIssuerReader {
	return &QuotesIssuerReader{companies: companies, log: log}
}

// GetIssuer never fails on the logo: a missing or unreadable logo is left out.
func (a *QuotesIssuerReader) GetIssuer(ctx context.Context, companyID uuid.UUID) (pdf.Company, error) {
	c, err := a.companies.Profile(ctx, companyID)
	if err != nil {
		return pdf.Company{}, err
	}

	logo, err := a.companies.LogoBytes(ctx, c)
	if err != nil {
		a.log.WithContext(ctx).Warn("company logo unavailable", "companyId", companyID, "error", err)
		logo = nil
	}

	return pdf.Company{
		Name:      c.Name,
		LegalForm: c.LegalForm,
		Address:   c.Address,
		SIRET:     c.SIRET,
		VATNumber: c.VATNumber,
		Email:     c.Email,
		Phone:     c.Phone,
		IBAN:      c.IBAN,
		BIC:       c.BIC,
		Logo:      logo,
	}, nil
}

var _ quotesvc.IssuerReader = (*QuotesIssuerReader)(nil)
