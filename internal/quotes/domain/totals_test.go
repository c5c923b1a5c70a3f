package domain

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func line(price *decimal.Decimal, qty, rate string) *LineItem {
	return &LineItem{
		Kind:             KindService,
		Label:            "ligne",
		Quantity:         d(qty),
		Unit:             "u",
		UnitPriceExclTax: price,
		TaxRate:          d(rate),
	}
}

func assertMoney(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got.StringFixed(2))
	}
}

func TestComputeTotalsReferenceScenario(t *testing.T) {
	lines := []*LineItem{
		line(dp("100.00"), "2", "0.20"),
		line(dp("50.00"), "1", "0.10"),
	}
	cfg := TotalsConfig{
		Discount: Adjustment{Value: d("10"), Mode: ModePercent},
		Deposit:  Adjustment{Value: d("30"), Mode: ModePercent},
	}

	got := ComputeTotals(lines, cfg)

	assertMoney(t, "line 1", lines[0].LineTotalExclTax, "200.00")
	assertMoney(t, "line 2", lines[1].LineTotalExclTax, "50.00")
	assertMoney(t, "subtotal", got.SubtotalExclTax, "250.00")
	assertMoney(t, "tax", got.Tax, "45.00")
	assertMoney(t, "excl after discount", got.ExclTax, "225.00")
	assertMoney(t, "discount amount", got.DiscountAmount, "25.00")
	assertMoney(t, "incl", got.InclTax, "270.00")
	assertMoney(t, "deposit", got.DepositInclTax, "81.00")
	assertMoney(t, "remaining", got.RemainingInclTax, "189.00")
	assertMoney(t, "tax 20%", got.TaxByRate["20%"], "40.00")
	assertMoney(t, "tax 10%", got.TaxByRate["10%"], "5.00")
	if len(got.TaxByRate) != 2 {
		t.Fatalf("expected 2 tax rates, got %v", got.TaxByRate)
	}
}

func TestComputeTotalsUnknownPrice(t *testing.T) {
	lines := []*LineItem{line(nil, "5", "0.20")}

	got := ComputeTotals(lines, TotalsConfig{})

	if lines[0].UnitPriceExclTax != nil {
		t.Fatalf("unknown price must stay unknown")
	}
	assertMoney(t, "line total", lines[0].LineTotalExclTax, "0.00")
	assertMoney(t, "excl", got.ExclTax, "0.00")
	assertMoney(t, "tax", got.Tax, "0.00")
	assertMoney(t, "incl", got.InclTax, "0.00")
	assertMoney(t, "remaining", got.RemainingInclTax, "0.00")
}

func TestComputeTotalsAmountDiscountFloorsAtZero(t *testing.T) {
	lines := []*LineItem{
		line(dp("100.00"), "2", "0.20"),
		line(dp("50.00"), "1", "0.10"),
	}
	cfg := TotalsConfig{Discount: Adjustment{Value: d("300"), Mode: ModeAmount}}

	got := ComputeTotals(lines, cfg)

	assertMoney(t, "excl after discount", got.ExclTax, "0.00")
	// Tax stays on the pre-discount base.
	assertMoney(t, "tax", got.Tax, "45.00")
	assertMoney(t, "incl", got.InclTax, "45.00")
}

func TestComputeTotalsZeroDiscountIsSkipped(t *testing.T) {
	lines := []*LineItem{line(dp("19.99"), "3", "0.20")}

	for _, mode := range []AdjustmentMode{ModePercent, ModeAmount} {
		got := ComputeTotals(lines, TotalsConfig{Discount: Adjustment{Mode: mode}})
		assertMoney(t, "excl", got.ExclTax, "59.97")
		assertMoney(t, "discount amount", got.DiscountAmount, "0.00")
	}
}

func TestComputeTotalsAmountDepositIsCapped(t *testing.T) {
	lines := []*LineItem{line(dp("100"), "1", "0.20")}
	cfg := TotalsConfig{Deposit: Adjustment{Value: d("500"), Mode: ModeAmount}}

	got := ComputeTotals(lines, cfg)

	assertMoney(t, "incl", got.InclTax, "120.00")
	assertMoney(t, "deposit", got.DepositInclTax, "120.00")
	assertMoney(t, "remaining", got.RemainingInclTax, "0.00")
}

func TestComputeTotalsPercentDepositIsNotCapped(t *testing.T) {
	lines := []*LineItem{line(dp("100"), "1", "0.20")}
	cfg := TotalsConfig{Deposit: Adjustment{Value: d("150"), Mode: ModePercent}}

	got := ComputeTotals(lines, cfg)

	assertMoney(t, "deposit", got.DepositInclTax, "180.00")
	assertMoney(t, "remaining", got.RemainingInclTax, "-60.00")
}

func TestComputeTotalsRoundsHalfUpPerLine(t *testing.T) {
	// 0.125 * 3 = 0.375 -> 0.38; tax 0.38 * 0.055 = 0.0209 -> 0.02
	lines := []*LineItem{line(dp("0.125"), "3", "0.055")}

	got := ComputeTotals(lines, TotalsConfig{})

	assertMoney(t, "line total", lines[0].LineTotalExclTax, "0.38")
	assertMoney(t, "tax", got.Tax, "0.02")
	if _, ok := got.TaxByRate["6%"]; !ok {
		t.Fatalf("expected 5.5%% to be keyed as 6%%, got %v", got.TaxByRate)
	}
}

func TestComputeTotalsPercentDiscountRounding(t *testing.T) {
	// 33.33 * (1 - 0.15) = 28.3305 -> 28.33
	lines := []*LineItem{line(dp("33.33"), "1", "0")}
	cfg := TotalsConfig{Discount: Adjustment{Value: d("15"), Mode: ModePercent}}

	got := ComputeTotals(lines, cfg)

	assertMoney(t, "excl", got.ExclTax, "28.33")
	assertMoney(t, "tax", got.Tax, "0.00")
	if _, ok := got.TaxByRate["0%"]; !ok {
		t.Fatalf("expected 0%% key, got %v", got.TaxByRate)
	}
}

func TestComputeTotalsOptionLinesAreIncluded(t *testing.T) {
	opt := line(dp("40"), "1", "0.20")
	opt.IsOption = true
	lines := []*LineItem{line(dp("60"), "1", "0.20"), opt}

	got := ComputeTotals(lines, TotalsConfig{})

	assertMoney(t, "excl", got.ExclTax, "100.00")
}

func TestComputeTotalsSkipsNilLines(t *testing.T) {
	got := ComputeTotals([]*LineItem{nil, line(dp("10"), "1", "0.20")}, TotalsConfig{})
	assertMoney(t, "incl", got.InclTax, "12.00")
}

func TestComputeTotalsAcceptsNegativeQuantity(t *testing.T) {
	lines := []*LineItem{line(dp("10"), "-2", "0.20")}
	got := ComputeTotals(lines, TotalsConfig{})
	assertMoney(t, "excl", got.ExclTax, "-20.00")
	assertMoney(t, "tax", got.Tax, "-4.00")
}

func TestCalculatorWithCustomQuantum(t *testing.T) {
	calc := Calculator{Quantum: d("0.05")}
	if got := calc.Round(d("1.12")); !got.Equal(d("1.10")) {
		t.Fatalf("expected 1.10, got %s", got)
	}
	if got := calc.Round(d("1.125")); !got.Equal(d("1.15")) {
		t.Fatalf("expected 1.15, got %s", got)
	}
	if got := (Calculator{}).Round(d("2.345")); !got.Equal(d("2.35")) {
		t.Fatalf("zero quantum should fall back to cents, got %s", got)
	}
}

func TestParseAdjustmentMode(t *testing.T) {
	if m, err := ParseAdjustmentMode(" Amount "); err != nil || m != ModeAmount {
		t.Fatalf("expected amount, got %v %v", m, err)
	}
	if _, err := ParseAdjustmentMode("pourcentage"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}

	var m AdjustmentMode
	if err := m.UnmarshalText([]byte("percent")); err != nil || m != ModePercent {
		t.Fatalf("unmarshal failed: %v", err)
	}
	out, _ := ModeAmount.MarshalText()
	if string(out) != "amount" {
		t.Fatalf("unexpected %q", out)
	}
}

// Randomized check of the invariants that must hold for any input.
func TestComputeTotalsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rates := []string{"0", "0.055", "0.1", "0.2"}

	for i := 0; i < 500; i++ {
		n := rng.Intn(6)
		lines := make([]*LineItem, 0, n)
		for j := 0; j < n; j++ {
			var price *decimal.Decimal
			if rng.Intn(5) > 0 {
				p := decimal.New(rng.Int63n(100000), -3)
				price = &p
			}
			qty := decimal.New(rng.Int63n(5000), -2)
			lines = append(lines, &LineItem{
				Quantity:         qty,
				UnitPriceExclTax: price,
				TaxRate:          d(rates[rng.Intn(len(rates))]),
			})
		}
		mode := AdjustmentMode(rng.Intn(2))
		depMode := AdjustmentMode(rng.Intn(2))
		cfg := TotalsConfig{
			Discount: Adjustment{Value: decimal.New(rng.Int63n(5000), -2), Mode: mode},
			Deposit:  Adjustment{Value: decimal.New(rng.Int63n(15000), -2), Mode: depMode},
		}

		got := ComputeTotals(lines, cfg)

		subtotal := decimal.Zero
		for _, l := range lines {
			want := decimal.Zero
			if l.UnitPriceExclTax != nil {
				want = l.UnitPriceExclTax.Mul(l.Quantity).Round(2)
			}
			if !l.LineTotalExclTax.Equal(want) {
				t.Fatalf("case %d: line total %s, want %s", i, l.LineTotalExclTax, want)
			}
			subtotal = subtotal.Add(want)
		}

		sum := decimal.Zero
		for _, v := range got.TaxByRate {
			sum = sum.Add(v)
		}
		if !sum.Equal(got.Tax) {
			t.Fatalf("case %d: tax map sums to %s, tax is %s", i, sum, got.Tax)
		}

		wantExcl := subtotal
		if !cfg.Discount.Value.IsZero() {
			if mode == ModePercent {
				wantExcl = subtotal.Mul(decimal.NewFromInt(1).Sub(cfg.Discount.Value.Div(decimal.NewFromInt(100)))).Round(2)
			} else {
				wantExcl = decimal.Max(decimal.Zero, subtotal.Sub(cfg.Discount.Value)).Round(2)
			}
		}
		if !got.ExclTax.Equal(wantExcl) {
			t.Fatalf("case %d: excl %s, want %s", i, got.ExclTax, wantExcl)
		}
		if got.ExclTax.IsNegative() {
			t.Fatalf("case %d: excl negative", i)
		}
		if !got.InclTax.Equal(got.ExclTax.Add(got.Tax).Round(2)) {
			t.Fatalf("case %d: incl mismatch", i)
		}
		if depMode == ModeAmount && got.DepositInclTax.GreaterThan(got.InclTax) {
			t.Fatalf("case %d: amount deposit %s exceeds incl %s", i, got.DepositInclTax, got.InclTax)
		}
		if !got.RemainingInclTax.Equal(got.InclTax.Sub(got.DepositInclTax).Round(2)) {
			t.Fatalf("case %d: remaining mismatch", i)
		}

		again := ComputeTotals(lines, cfg)
		if !again.InclTax.Equal(got.InclTax) || !again.DepositInclTax.Equal(got.DepositInclTax) || !again.Tax.Equal(got.Tax) {
			t.Fatalf("case %d: not idempotent", i)
		}
	}
}

func TestRateKeyBreaksTiesToEven(t *testing.T) {
	cases := map[string]string{
		"0.2":   "20%",
		"0.055": "6%",
		"0.085": "8%",
		"0.025": "2%",
		"0.1":   "10%",
	}
	for rate, want := range cases {
		if got := RateKey(d(rate)); got != want {
			t.Fatalf("RateKey(%s) = %s, want %s", rate, got, want)
		}
	}
}
