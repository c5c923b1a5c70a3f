package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllCategories is the pseudo category meaning "no filter".
const AllCategories = "Toutes"

// PriceItem is one row of a company's price catalog. TaxRate is a
// percentage (20.0), unlike quote lines which carry fractions.
type PriceItem struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Label        string
	PriceExclTax decimal.Decimal
	Unit         string
	Category     string
	TaxRate      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateParams struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Label        string
	PriceExclTax decimal.Decimal
	Unit         string
	Category     string
	TaxRate      decimal.Decimal
}

type UpdateParams struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Label        *string
	PriceExclTax *decimal.Decimal
	Unit         *string
	Category     *string
	TaxRate      *decimal.Decimal
}

type ListParams struct {
	CompanyID uuid.UUID
	// Category is matched exactly; empty means all.
	Category string
	Search   string
	Offset   int
	Limit    int
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (PriceItem, error)
	// CreateMany inserts all items in one transaction.
	CreateMany(ctx context.Context, params []CreateParams) ([]PriceItem, error)
	Update(ctx context.Context, params UpdateParams) (PriceItem, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]PriceItem, int, error)
	Categories(ctx context.Context, companyID uuid.UUID) ([]string, error)
}
