package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"devis_backend/internal/quotes/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func sampleQuote(theme string, lines int) *domain.Quote {
	q := domain.NewDraft(uuid.New(), time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC))
	q.Number = domain.FormatNumber(2025, 4)
	q.Theme = theme
	q.Subject = "Rénovation salle de bain"
	q.CTAURL = "https://devis.ai/q/" + q.ID.String()
	q.DetailedDescription = "Dépose de l'existant.\nPose d'un receveur extra-plat."
	q.Discount = domain.Adjustment{Value: decimal.NewFromInt(10), Mode: domain.ModePercent}
	q.Deposit = domain.Adjustment{Value: decimal.NewFromInt(30), Mode: domain.ModePercent}
	for i := 0; i < lines; i++ {
		l := domain.NewLine("Carrelage mural grès cérame 30x60, fourniture et pose avec joints époxy")
		price := decimal.RequireFromString("45.50")
		l.UnitPriceExclTax = &price
		l.Quantity = decimal.NewFromInt(int64(i + 1))
		l.Lot = "Lot carrelage"
		if i%3 == 0 {
			l.UnitPriceExclTax = nil
			l.Note = "Prix à confirmer après visite"
		}
		q.Lines = append(q.Lines, l)
	}
	return q
}

func pngLogo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 14, G: 165, B: 233, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode logo: %v", err)
	}
	return buf.Bytes()
}

func TestRenderEveryTheme(t *testing.T) {
	r := NewRenderer(DefaultThemes())
	for _, name := range r.Themes().Names() {
		q := sampleQuote(name, 4)
		doc := QuoteDocument{
			Quote:   q,
			Totals:  q.Totals(),
			Company: Company{Name: "Martin BTP", SIRET: "12345678900011", IBAN: "FR7630006000011234567890189", Logo: pngLogo(t)},
			Client:  &Client{Name: "Mme Durand", Address: "3 rue des Lilas, Lyon"},
		}
		out, err := r.Render(doc)
		if err != nil {
			t.Fatalf("theme %s: %v", name, err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF")) {
			t.Fatalf("theme %s: output is not a PDF", name)
		}
	}
}

func TestRenderPaginatesLongQuotes(t *testing.T) {
	r := NewRenderer(DefaultThemes())
	q := sampleQuote("classic", 80)
	out, err := r.Render(QuoteDocument{Quote: q, Totals: q.Totals(), Company: Company{Name: "Martin BTP"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if bytes.Count(out, []byte("/Type /Page\n")) < 3 {
		t.Fatalf("expected several pages")
	}
}

func TestRenderIgnoresUnreadableLogo(t *testing.T) {
	r := NewRenderer(DefaultThemes())
	q := sampleQuote("bold", 1)
	_, err := r.Render(QuoteDocument{Quote: q, Totals: q.Totals(), Company: Company{Name: "X", Logo: []byte("GIF89a....")}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
}

func TestRenderRejectsNilQuote(t *testing.T) {
	if _, err := NewRenderer(DefaultThemes()).Render(QuoteDocument{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestThemesFallbackAndOverride(t *testing.T) {
	themes := DefaultThemes()
	if got := themes.Get("unknown").Name; got != "modern_plus" {
		t.Fatalf("expected modern_plus fallback, got %s", got)
	}
	if got := themes.Get("creative").HeaderBand.Style; got != BandDiagonal {
		t.Fatalf("expected diagonal band, got %s", got)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "themes.yaml")
	custom := "default: plain\nthemes:\n  plain:\n    accent: \"#123456\"\n"
	if err := os.WriteFile(path, []byte(custom), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadThemes(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	plain := loaded.Get("plain")
	if plain.Font != "Helvetica" || plain.HeaderBand.Style != BandNone {
		t.Fatalf("defaults not applied: %+v", plain)
	}

	if _, err := ParseThemes([]byte("default: x\nthemes:\n  y:\n    accent: red\n")); err == nil {
		t.Fatalf("expected error for missing default theme")
	}
	if _, err := ParseThemes([]byte("default: y\nthemes:\n  y:\n    header_band:\n      style: zigzag\n")); err == nil {
		t.Fatalf("expected error for unknown band style")
	}
}

func TestParseHex(t *testing.T) {
	cases := map[string]rgb{
		"#0EA5E9": {14, 165, 233},
		"0ea5e9":  {14, 165, 233},
		"#fff":    {255, 255, 255},
		"nope":    rgbDefault,
		"":        rgbDefault,
	}
	for in, want := range cases {
		if got := parseHex(in, rgbDefault); got != want {
			t.Fatalf("parseHex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMoney(t *testing.T) {
	if got := Money(decimal.RequireFromString("1234.5")); got != "1234.50 €" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTotalLinesIncludeTaxTotal(t *testing.T) {
	q := sampleQuote("classique", 4)
	totals := q.Totals()

	rows := totalLines(totals, q)
	idx := -1
	for i, row := range rows {
		if row.label == "Total TVA :" {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatalf("missing tax total row in %+v", rows)
	}
	if rows[idx].value != Money(totals.Tax) {
		t.Fatalf("tax total = %q, want %q", rows[idx].value, Money(totals.Tax))
	}
	if idx == 0 || rows[idx-1].label[:4] != "TVA " {
		t.Fatalf("tax total should follow the per-rate rows, got %+v", rows)
	}
	if rows[idx+1].label != "Total TTC :" {
		t.Fatalf("tax total should precede the grand total, got %+v", rows)
	}
}
