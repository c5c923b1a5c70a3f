package pdf

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"devis_backend/internal/quotes/domain"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const (
	pageW       = 210.0
	pageH       = 297.0
	marginLeft  = 20.0
	marginRight = 20.0
	contentW    = pageW - marginLeft - marginRight
	bottomLimit = 262.0
	dateLayout  = "02/01/2006"
)

var (
	colorBlack = rgb{0, 0, 0}
	colorGrey  = rgb{107, 114, 128}
	colorWhite = rgb{255, 255, 255}
)

var legalMentions = []string{
	"En cas de retard de paiement, application d'une indemnité forfaitaire de 40€.",
	"Gestion des déchets : sauf mention contraire, l'évacuation des gravats est à la charge du client.",
	"Médiation : en cas de litige, le consommateur peut saisir le médiateur de la consommation compétent.",
}

// Renderer draws quotes with a fixed theme set. It is safe for concurrent use.
type Renderer struct {
	themes Themes
}

func NewRenderer(themes Themes) *Renderer {
	return &Renderer{themes: themes}
}

func (r *Renderer) Themes() Themes {
	return r.themes
}

// page wraps one gofpdf document with its theme and text translator.
type page struct {
	pdf *gofpdf.Fpdf
	tr     func(string) string
	theme  Theme
	accent rgb
	font   string
}

// Render returns the PDF bytes of doc.
func (r *Renderer) Render(doc QuoteDocument) ([]byte, error) {
	if doc.Quote == nil {
		return nil, fmt.Errorf("render quote: nil quote")
	}
	theme := r.themes.Get(doc.Quote.Theme)
	accent := parseHex(theme.Accent, rgbDefault)
	if doc.Quote.AccentHex != "" {
		accent = parseHex(doc.Quote.AccentHex, accent)
	}

	f := gofpdf.New("P", "mm", "A4", "")
	f.SetMargins(marginLeft, 15, marginRight)
	f.SetAutoPageBreak(false, 0)
	f.SetTitle("Devis "+doc.Quote.Number, true)
	f.SetCreator("Devis.ai", true)
	f.AliasNbPages("")

	p := &page{
		pdf:    f,
		tr:     f.UnicodeTranslatorFromDescriptor(""),
		theme:  theme,
		accent: accent,
		font:   theme.Font,
	}
	f.SetFooterFunc(func() { p.footer(doc.Company) })
	f.AddPage()

	p.headerBand()
	p.logo(doc.Company.Logo)

	var y float64
	if theme.ClassicLayout {
		y = p.minimalistHeader(doc)
	} else {
		y = p.standardHeader(doc)
	}
	y = p.subject(doc.Quote, y)
	y = p.linesTable(doc.Quote.Lines, y)
	y = p.totals(doc.Totals, doc.Quote, y)
	y = p.payment(doc, y)
	p.signatureAndQR(doc.Quote.CTAURL, y)

	if strings.TrimSpace(doc.Quote.DetailedDescription) != "" {
		p.detailedDescription(doc.Quote.DetailedDescription)
	}

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quote %s: %w", doc.Quote.Number, err)
	}
	return buf.Bytes(), nil
}

func (p *page) setFill(c rgb) { p.pdf.SetFillColor(c.r, c.g, c.b) }
func (p *page) setText(c rgb) { p.pdf.SetTextColor(c.r, c.g, c.b) }
func (p *page) setDraw(c rgb) { p.pdf.SetDrawColor(c.r, c.g, c.b) }

func (p *page) setFont(style string, size float64) {
	p.pdf.SetFont(p.font, style, size)
}

// text writes s in a w-wide cell whose top-left corner is (x, y).
func (p *page) text(x, y, w float64, align, s string) {
	p.pdf.SetXY(x, y)
	p.pdf.CellFormat(w, 5, p.tr(s), "", 0, align, false, 0, "")
}

func (p *page) headerBand() {
	band := p.theme.HeaderBand
	if band.Style == BandNone {
		return
	}
	h := band.HeightMM
	p.setFill(p.accent)
	switch band.Style {
	case BandDiagonal:
		p.pdf.Polygon([]gofpdf.PointType{{X: 0, Y: 0}, {X: pageW, Y: 0}, {X: pageW, Y: h * 0.6}, {X: 0, Y: h}}, "F")
	case BandTag:
		p.pdf.Rect(0, 0, pageW, h, "F")
		p.setFill(colorWhite)
		p.pdf.Polygon([]gofpdf.PointType{{X: pageW - 40, Y: h}, {X: pageW, Y: h}, {X: pageW, Y: 0}}, "F")
	default:
		p.pdf.Rect(0, 0, pageW, h, "F")
	}
}

// imageType maps sniffed bytes to a gofpdf image type.
func imageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	default:
		return ""
	}
}

func (p *page) logo(data []byte) {
	kind := imageType(data)
	if kind == "" {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: kind, ReadDpi: false}
	p.pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	if p.pdf.Err() {
		// a broken logo must not block the quote
		p.pdf.ClearError()
		return
	}
	if p.theme.ClassicLayout {
		p.pdf.ImageOptions("logo", marginLeft, 12, 25, 0, false, opts, 0, "")
		return
	}
	p.pdf.ImageOptions("logo", pageW-40, 14, 20, 0, false, opts, 0, "")
}

func (p *page) companyLines(c Company) []string {
	lines := []string{c.Address}
	if c.LegalForm != "" {
		lines = append(lines, c.LegalForm)
	}
	if c.SIRET != "" {
		lines = append(lines, "SIRET : "+c.SIRET)
	}
	if c.VATNumber != "" {
		lines = append(lines, "TVA : "+c.VATNumber)
	}
	lines = append(lines, c.Email, c.Phone)
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func (p *page) standardHeader(doc QuoteDocument) float64 {
	q := doc.Quote
	y := 27.0

	p.setText(colorBlack)
	p.setFont("B", 12)
	p.text(marginLeft, y, 85, "L", doc.Company.Name)
	y += 6
	p.setText(colorGrey)
	p.setFont("", 9)
	for _, l := range p.companyLines(doc.Company) {
		p.text(marginLeft, y, 85, "L", l)
		y += 4
	}

	yr := 27.0
	p.setText(p.accent)
	p.setFont("B", 18)
	p.text(100, yr, 90, "R", "DEVIS N° "+q.Number)
	yr += 9
	p.setText(colorBlack)
	p.setFont("", 10)
	p.text(100, yr, 90, "R", "Date : "+doc.issueDate().Format(dateLayout))
	yr += 5
	if q.ValidityDays > 0 {
		p.text(100, yr, 90, "R", "Valable jusqu'au : "+q.ValidUntil().Format(dateLayout))
		yr += 5
	}
	yr += 4

	fill := parseHex(p.theme.CardFill, rgb{245, 245, 245})
	p.setFill(fill)
	if p.theme.Cards {
		p.pdf.RoundedRect(100, yr, 90, 35, 4, "1234", "F")
	} else {
		p.setDraw(colorGrey)
		p.pdf.Rect(100, yr, 90, 35, "D")
	}
	p.clientCard(doc.Client, 105, yr+2)

	if y < yr+35 {
		y = yr + 35
	}
	return y + 8
}

func (p *page) clientCard(c *Client, x, y float64) {
	p.setText(colorBlack)
	p.setFont("B", 10)
	p.text(x, y, 80, "L", "Client :")
	if c == nil {
		p.setFont("B", 11)
		p.text(x, y+6, 80, "L", "Client inconnu")
		return
	}
	p.setFont("B", 11)
	p.text(x, y+6, 80, "L", c.Name)
	p.setFont("", 9)
	address := c.Address
	if address == "" {
		address = "Adresse non renseignée"
	}
	yy := y + 11
	for _, l := range []string{address, c.Email, c.Phone} {
		if l == "" {
			continue
		}
		p.text(x, yy, 80, "L", l)
		yy += 5
	}
	if c.SiteAddress != "" && c.SiteAddress != c.Address {
		p.text(x, yy, 80, "L", "Chantier : "+c.SiteAddress)
	}
}

func (p *page) minimalistHeader(doc QuoteDocument) float64 {
	q := doc.Quote

	p.setDraw(colorBlack)
	p.pdf.SetLineWidth(0.4)
	p.pdf.Rect(pageW-70, 13, 50, 12, "D")
	p.setText(colorBlack)
	p.setFont("B", 14)
	p.text(pageW-70, 16.5, 50, "C", "DEVIS")

	y := 42.0
	p.setFont("B", 11)
	p.text(marginLeft, y, 80, "L", doc.Company.Name)
	y += 6
	p.setText(colorGrey)
	p.setFont("", 9)
	for _, l := range p.companyLines(doc.Company) {
		p.text(marginLeft, y, 80, "L", l)
		y += 4
	}

	p.setFill(parseHex(p.theme.CardFill, rgb{243, 244, 246}))
	p.pdf.Rect(pageW-90, 35, 70, 35, "F")
	p.clientCard(doc.Client, pageW-85, 37)

	if y < 78 {
		y = 78
	}
	p.setText(colorBlack)
	p.setFont("B", 10)
	p.text(marginLeft, y, 80, "L", "Devis N° : "+q.Number)
	y += 5
	p.setFont("", 10)
	p.text(marginLeft, y, 80, "L", "Date : "+doc.issueDate().Format(dateLayout))
	y += 5
	if q.ValidityDays > 0 {
		p.text(marginLeft, y, 80, "L", "Valable jusqu'au : "+q.ValidUntil().Format(dateLayout))
		y += 5
	}
	return y + 8
}

func (p *page) subject(q *domain.Quote, y float64) float64 {
	p.setText(colorBlack)
	if q.Subject != "" {
		p.setFont("B", 11)
		p.text(marginLeft, y, contentW, "L", "Objet : "+q.Subject)
		y += 6
	}
	if q.StartDate != nil || q.WorksDuration != "" {
		works := "Travaux :"
		if q.StartDate != nil {
			works += " début le " + q.StartDate.Format(dateLayout)
		}
		if q.WorksDuration != "" {
			works += " (durée estimée : " + q.WorksDuration + ")"
		}
		p.setFont("", 9)
		p.text(marginLeft, y, contentW, "L", works)
		y += 6
	}
	return y + 3
}

var tableCols = []struct {
	title string
	width float64
	align string
}{
	{"Désignation", 78, "L"},
	{"Qté", 18, "R"},
	{"Unité", 14, "L"},
	{"PU HT", 22, "R"},
	{"TVA", 14, "R"},
	{"Total HT", 24, "R"},
}

func (p *page) tableHeader(y float64) float64 {
	p.setFill(parseHex(p.theme.TableHeaderFill, rgb{243, 244, 246}))
	p.pdf.Rect(marginLeft, y, contentW, 8, "F")
	p.setText(colorBlack)
	p.setFont("B", 9)
	x := marginLeft
	for _, col := range tableCols {
		p.pdf.SetXY(x+1, y+1.5)
		p.pdf.CellFormat(col.width-2, 5, p.tr(col.title), "", 0, col.align, false, 0, "")
		x += col.width
	}
	return y + 10
}

func (p *page) newPage() float64 {
	p.pdf.AddPage()
	p.headerBand()
	return 25
}

// Money formats an amount as "1234.50 €".
func Money(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}

func quantity(d decimal.Decimal) string {
	return d.Round(3).String()
}

func (p *page) linesTable(lines []*domain.LineItem, y float64) float64 {
	y = p.tableHeader(y)
	p.setFont("", 9)
	currentLot := ""

	for _, l := range lines {
		if l == nil {
			continue
		}
		labelLines := p.pdf.SplitLines([]byte(p.tr(l.Label)), tableCols[0].width-2)
		rowH := float64(max(len(labelLines), 1)) * 4.5
		if l.Note != "" {
			rowH += 4
		}
		if l.Lot != "" && l.Lot != currentLot {
			rowH += 6
		}
		if y+rowH > bottomLimit {
			y = p.tableHeader(p.newPage())
			p.setFont("", 9)
		}

		if l.Lot != "" && l.Lot != currentLot {
			currentLot = l.Lot
			p.setText(p.accent)
			p.setFont("B", 9)
			p.text(marginLeft+1, y, contentW, "L", currentLot)
			p.setFont("", 9)
			y += 6
		}

		p.setText(colorBlack)
		for i, part := range labelLines {
			p.pdf.SetXY(marginLeft+1, y+float64(i)*4.5)
			p.pdf.CellFormat(tableCols[0].width-2, 4.5, string(part), "", 0, "L", false, 0, "")
		}

		price := "Sur devis"
		if l.UnitPriceExclTax != nil {
			price = Money(*l.UnitPriceExclTax)
		}
		cells := []string{quantity(l.Quantity), l.Unit, price, domain.RateKey(l.TaxRate), Money(l.LineTotalExclTax)}
		x := marginLeft + tableCols[0].width
		for i, v := range cells {
			col := tableCols[i+1]
			p.pdf.SetXY(x+1, y)
			p.pdf.CellFormat(col.width-2, 4.5, p.tr(v), "", 0, col.align, false, 0, "")
			x += col.width
		}
		y += float64(max(len(labelLines), 1)) * 4.5

		if l.Note != "" {
			p.setText(colorGrey)
			p.setFont("I", 8)
			note := l.Note
			if len([]rune(note)) > 110 {
				note = string([]rune(note)[:110]) + "..."
			}
			p.text(marginLeft+3, y-0.5, contentW-4, "L", note)
			p.setFont("", 9)
			y += 4
		}

		p.setDraw(rgb{229, 231, 235})
		p.pdf.SetLineWidth(0.1)
		p.pdf.Line(marginLeft, y+0.5, marginLeft+contentW, y+0.5)
		y += 1.5
	}
	return y + 4
}

func sortedRates(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := decimal.NewFromString(strings.TrimSuffix(keys[i], "%"))
		b, _ := decimal.NewFromString(strings.TrimSuffix(keys[j], "%"))
		return a.LessThan(b)
	})
	return keys
}

func (p *page) totalRow(y float64, label, value string, bold bool) float64 {
	style := ""
	if bold {
		style = "B"
	}
	p.setFont(style, 10)
	p.text(110, y, 55, "R", label)
	p.text(165, y, 25, "R", value)
	return y + 5.5
}

type totalLine struct {
	label  string
	value  string
	bold   bool
	accent bool
}

// totalLines lists the summary rows in print order.
func totalLines(t domain.Totals, q *domain.Quote) []totalLine {
	var rows []totalLine
	if !t.DiscountAmount.IsZero() {
		label := "Remise :"
		if q.Discount.Mode == domain.ModePercent {
			label = "Remise (" + q.Discount.Value.String() + "%) :"
		}
		rows = append(rows,
			totalLine{label: "Sous-total HT :", value: Money(t.SubtotalExclTax)},
			totalLine{label: label, value: "-" + Money(t.DiscountAmount)},
		)
	}
	rows = append(rows, totalLine{label: "Total HT :", value: Money(t.ExclTax)})
	for _, rate := range sortedRates(t.TaxByRate) {
		rows = append(rows, totalLine{label: "TVA " + rate + " :", value: Money(t.TaxByRate[rate])})
	}
	rows = append(rows,
		totalLine{label: "Total TVA :", value: Money(t.Tax)},
		totalLine{label: "Total TTC :", value: Money(t.InclTax), bold: true, accent: true},
	)

	if !t.DepositInclTax.IsZero() {
		label := "Acompte :"
		if q.Deposit.Mode == domain.ModePercent {
			label = "Acompte (" + q.Deposit.Value.String() + "%) :"
		}
		rows = append(rows,
			totalLine{label: label, value: Money(t.DepositInclTax)},
			totalLine{label: "Reste à payer :", value: Money(t.RemainingInclTax), bold: true},
		)
	}
	return rows
}

func (p *page) totals(t domain.Totals, q *domain.Quote, y float64) float64 {
	rows := totalLines(t, q)
	needed := 8.0 + 5.5*float64(len(rows))
	if y+needed > bottomLimit {
		y = p.newPage()
	}

	p.setDraw(colorGrey)
	p.pdf.SetLineWidth(0.3)
	p.pdf.Line(120, y, marginLeft+contentW, y)
	y += 3

	for _, row := range rows {
		if row.accent {
			p.setText(p.accent)
			y++
		} else {
			p.setText(colorBlack)
		}
		y = p.totalRow(y, row.label, row.value, row.bold)
	}
	p.setText(colorBlack)
	return y + 6
}

func (p *page) payment(doc QuoteDocument, y float64) float64 {
	q := doc.Quote
	if y+45 > bottomLimit {
		y = p.newPage()
	}

	p.setText(colorBlack)
	if doc.Company.IBAN != "" {
		p.setFont("B", 9)
		p.text(marginLeft, y, contentW, "L", "Coordonnées bancaires")
		y += 4.5
		p.setFont("", 8)
		bank := "IBAN : " + doc.Company.IBAN
		if doc.Company.BIC != "" {
			bank += "  BIC : " + doc.Company.BIC
		}
		p.text(marginLeft, y, contentW, "L", bank)
		y += 6
	}

	terms := q.PaymentTerms
	if terms == "" {
		terms = "À réception"
	}
	mentions := []string{
		fmt.Sprintf("Validité du devis : %d jours.", q.ValidityDays),
		"Mode de règlement : " + q.PaymentMethod + ".",
		"Conditions de règlement : " + terms + ".",
	}
	mentions = append(mentions, legalMentions...)

	p.setText(colorGrey)
	p.setFont("", 8)
	for _, m := range mentions {
		p.text(marginLeft, y, contentW, "L", m)
		y += 3.8
	}

	if strings.TrimSpace(q.Notes) != "" {
		y += 2
		p.setText(colorBlack)
		p.setFont("B", 9)
		p.text(marginLeft, y, contentW, "L", "Notes")
		y += 4.5
		p.setFont("", 8)
		p.pdf.SetXY(marginLeft, y)
		p.pdf.MultiCell(contentW, 3.8, p.tr(q.Notes), "", "L", false)
		y = p.pdf.GetY()
	}
	return y + 4
}

func (p *page) signatureAndQR(ctaURL string, y float64) {
	if y+30 > bottomLimit {
		y = p.newPage()
	}

	p.setDraw(colorBlack)
	p.pdf.SetLineWidth(0.3)
	p.pdf.Rect(130, y, 60, 25, "D")
	p.setText(colorBlack)
	p.setFont("B", 9)
	p.text(132, y+1, 56, "L", "Bon pour accord")
	p.setFont("", 8)
	p.text(132, y+5, 56, "L", "Date et signature :")

	if strings.TrimSpace(ctaURL) == "" {
		return
	}
	png, err := qrcode.Encode(ctaURL, qrcode.Medium, 256)
	if err != nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.pdf.RegisterImageOptionsReader("cta-qr", opts, bytes.NewReader(png))
	p.pdf.ImageOptions("cta-qr", marginLeft, y, 25, 25, false, opts, 0, "")
	p.setText(colorGrey)
	p.setFont("", 7)
	p.text(marginLeft+27, y+10, 80, "L", "Scannez pour consulter le devis en ligne")
}

func (p *page) detailedDescription(text string) {
	y := p.newPage()
	p.setText(colorBlack)
	p.setFont("B", 11)
	p.text(marginLeft, y, contentW, "L", "Description détaillée des travaux")
	p.pdf.SetXY(marginLeft, y+7)
	p.setFont("", 9)
	p.pdf.MultiCell(contentW, 4.5, p.tr(text), "", "L", false)
}

func (p *page) footer(c Company) {
	parts := make([]string, 0, 3)
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if c.SIRET != "" {
		parts = append(parts, "SIRET "+c.SIRET)
	}
	if c.VATNumber != "" {
		parts = append(parts, "TVA "+c.VATNumber)
	}
	p.pdf.SetY(-15)
	p.setText(colorGrey)
	p.setFont("", 7)
	p.pdf.CellFormat(contentW-20, 5, p.tr(strings.Join(parts, " - ")), "", 0, "L", false, 0, "")
	p.pdf.CellFormat(20, 5, fmt.Sprintf("%d/{nb}", p.pdf.PageNo()), "", 0, "R", false, 0, "")
}
