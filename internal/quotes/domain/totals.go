// Package domain holds the quote model and the totals engine.
// It has no dependency on other project packages.
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AdjustmentMode says how a discount or deposit value is interpreted.
type AdjustmentMode uint8

const (
	// ModePercent reads the value as a percentage of the base.
	ModePercent AdjustmentMode = iota
	// ModeAmount reads the value as a fixed amount in the quote currency.
	ModeAmount
)

func (m AdjustmentMode) String() string {
	switch m {
	case ModeAmount:
		return "amount"
	default:
		return "percent"
	}
}

// ParseAdjustmentMode accepts "percent" and "amount" (case-insensitive).
func ParseAdjustmentMode(s string) (AdjustmentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percent":
		return ModePercent, nil
	case "amount":
		return ModeAmount, nil
	default:
		return ModePercent, fmt.Errorf("unknown adjustment mode %q", s)
	}
}

func (m AdjustmentMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *AdjustmentMode) UnmarshalText(b []byte) error {
	parsed, err := ParseAdjustmentMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Adjustment is a discount or deposit setting. A zero Value disables it.
type Adjustment struct {
	Value decimal.Decimal
	Mode  AdjustmentMode
}

// TotalsConfig carries the quote-level inputs of the engine.
type TotalsConfig struct {
	Discount Adjustment
	Deposit  Adjustment
}

// Totals is the engine output. It is never stored; callers recompute it.
type Totals struct {
	// SubtotalExclTax is the excl-tax sum before the discount.
	SubtotalExclTax decimal.Decimal
	// DiscountAmount is SubtotalExclTax minus ExclTax.
	DiscountAmount   decimal.Decimal
	ExclTax          decimal.Decimal
	Tax              decimal.Decimal
	InclTax          decimal.Decimal
	TaxByRate        map[string]decimal.Decimal
	DepositInclTax   decimal.Decimal
	RemainingInclTax decimal.Decimal
}

// Calculator computes totals with a fixed rounding quantum.
type Calculator struct {
	Quantum decimal.Decimal
}

// Cent is the quantum used for euro amounts.
var Cent = decimal.New(1, -2)

var DefaultCalculator = Calculator{Quantum: Cent}

var hundred = decimal.NewFromInt(100)

// ComputeTotals runs DefaultCalculator.
func ComputeTotals(lines []*LineItem, cfg TotalsConfig) Totals {
	return DefaultCalculator.Compute(lines, cfg)
}

// Compute derives the totals of lines under cfg and writes each line's
// LineTotalExclTax. Tax is accumulated per line on the pre-discount amount;
// the discount only reduces the excl-tax figure.
func (c Calculator) Compute(lines []*LineItem, cfg TotalsConfig) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	byRate := make(map[string]decimal.Decimal)

	for _, line := range lines {
		if line == nil {
			continue
		}
		lineExcl := c.Round(decimal.Zero)
		if line.UnitPriceExclTax != nil {
			lineExcl = c.Round(line.UnitPriceExclTax.Mul(line.Quantity))
		}
		line.LineTotalExclTax = lineExcl
		subtotal = subtotal.Add(lineExcl)

		lineTax := c.Round(lineExcl.Mul(line.TaxRate))
		tax = tax.Add(lineTax)

		key := RateKey(line.TaxRate)
		byRate[key] = c.Round(byRate[key].Add(lineTax))
	}

	exclAfter := c.applyDiscount(subtotal, cfg.Discount)
	incl := c.Round(exclAfter.Add(tax))
	deposit := c.deposit(incl, cfg.Deposit)

	return Totals{
		SubtotalExclTax:  c.Round(subtotal),
		DiscountAmount:   c.Round(subtotal.Sub(exclAfter)),
		ExclTax:          exclAfter,
		Tax:              c.Round(tax),
		InclTax:          incl,
		TaxByRate:        byRate,
		DepositInclTax:   deposit,
		RemainingInclTax: c.Round(incl.Sub(deposit)),
	}
}

func (c Calculator) applyDiscount(amount decimal.Decimal, adj Adjustment) decimal.Decimal {
	if adj.Value.IsZero() {
		return amount
	}
	if adj.Mode == ModePercent {
		factor := decimal.NewFromInt(1).Sub(adj.Value.Div(hundred))
		return c.Round(amount.Mul(factor))
	}
	return c.Round(decimal.Max(decimal.Zero, amount.Sub(adj.Value)))
}

// deposit is not capped in percent mode, so a value above 100 yields a
// negative remaining amount.
func (c Calculator) deposit(incl decimal.Decimal, adj Adjustment) decimal.Decimal {
	if adj.Value.IsZero() {
		return c.Round(decimal.Zero)
	}
	if adj.Mode == ModePercent {
		return c.Round(incl.Mul(adj.Value.Div(hundred)))
	}
	return c.Round(decimal.Min(incl, adj.Value))
}

// Round rounds half away from zero to a multiple of the quantum.
func (c Calculator) Round(d decimal.Decimal) decimal.Decimal {
	q := c.Quantum
	if q.IsZero() {
		q = Cent
	}
	if q.Coefficient().IsInt64() && q.Coefficient().Int64() == 1 {
		return d.Round(-q.Exponent())
	}
	return d.DivRound(q, 16).Round(0).Mul(q)
}

// RateKey renders a tax rate fraction as its whole-number percentage label,
// ties to even: 0.2 -> "20%", 0.055 -> "6%", 0.085 -> "8%".
func RateKey(rate decimal.Decimal) string {
	return rate.Mul(hundred).RoundBank(0).String() + "%"
}
