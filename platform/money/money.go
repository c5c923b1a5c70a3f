// Package money formats decimal amounts for JSON responses.
package money

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// JSON renders d as a bare JSON number with two decimals, 12.50.
func JSON(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// JSONPtr keeps nil as JSON null.
func JSONPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := JSON(*d)
	return &n
}

// Price renders a unit price with at least two decimals and never drops
// precision: 12.5 -> 12.50, 0.125 -> 0.125.
func Price(d decimal.Decimal) json.Number {
	if d.Equal(d.Round(2)) {
		return JSON(d)
	}
	return json.Number(d.String())
}

// PricePtr keeps nil as JSON null.
func PricePtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := Price(*d)
	return &n
}

// Rate renders a rate without trailing zeros, 0.055 or 20.
func Rate(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
