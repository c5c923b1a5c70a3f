package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreatePriceItemRequest struct {
	Label    string           `json:"label" validate:"required,min=1,max=300"`
	PriceHT  decimal.Decimal  `json:"priceHt"`
	Unit     string           `json:"unit" validate:"max=20"`
	Category string           `json:"category" validate:"max=100"`
	TaxRate  *decimal.Decimal `json:"taxRate,omitempty"`
}

type UpdatePriceItemRequest struct {
	Label    *string          `json:"label,omitempty" validate:"omitempty,min=1,max=300"`
	PriceHT  *decimal.Decimal `json:"priceHt,omitempty"`
	Unit     *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	Category *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	TaxRate  *decimal.Decimal `json:"taxRate,omitempty"`
}

type ListPriceItemsRequest struct {
	Category string `form:"category" validate:"max=100"`
	Query    string `form:"q" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1"`
}

type PriceItemResponse struct {
	ID        uuid.UUID   `json:"id"`
	Label     string      `json:"label"`
	PriceHT   json.Number `json:"priceHt"`
	Unit      string      `json:"unit"`
	Category  string      `json:"category"`
	TaxRate   json.Number `json:"taxRate"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type PriceItemListResponse struct {
	Items      []PriceItemResponse `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	TotalPages int                 `json:"totalPages"`
}

type ImportedItem struct {
	Label    string      `json:"label"`
	PriceHT  json.Number `json:"priceHt"`
	Unit     string      `json:"unit"`
	Category string      `json:"category"`
}

// ImportResponse carries either the persisted rows (committed) or a preview.
type ImportResponse struct {
	Committed bool                `json:"committed"`
	Count     int                 `json:"count"`
	Preview   []ImportedItem      `json:"preview,omitempty"`
	Items     []PriceItemResponse `json:"items,omitempty"`
}
