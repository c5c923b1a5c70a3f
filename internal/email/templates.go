package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type quoteEmailData struct {
	baseEmailData
	CompanyName string
	QuoteNumber string
	Paragraphs  []string
	HasPDF      bool
}

type welcomeEmailData struct {
	baseEmailData
	CompanyName string
}

type feedbackEmailData struct {
	baseEmailData
	Paragraphs  []string
	FromEmail   string
	SubmittedAt string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// paragraphs splits free text on line breaks, dropping blank lines.
func paragraphs(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func renderQuoteEmail(companyName, quoteNumber, message string, hasPDF bool) (string, error) {
	if strings.TrimSpace(message) == "" {
		message = defaultQuoteGreeting
	}
	return renderEmailTemplate("quote.html", quoteEmailData{
		baseEmailData: baseEmailData{
			Title:   "Devis " + quoteNumber,
			Heading: "Votre devis " + quoteNumber,
		},
		CompanyName: companyName,
		QuoteNumber: quoteNumber,
		Paragraphs:  paragraphs(message),
		HasPDF:      hasPDF,
	})
}

func renderWelcomeEmail(companyName string) (string, error) {
	return renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{Title: "Bienvenue", Heading: "Bienvenue sur Devis.ai"},
		CompanyName:   companyName,
	})
}

func renderFeedbackEmail(message, fromEmail string, submittedAt time.Time) (string, error) {
	return renderEmailTemplate("feedback.html", feedbackEmailData{
		baseEmailData: baseEmailData{Title: "Nouveau feedback", Heading: "Vous avez reçu un nouveau message"},
		Paragraphs:    paragraphs(message),
		FromEmail:     fromEmail,
		SubmittedAt:   submittedAt.Format(feedbackDateTimeLayout),
	})
}

// QuoteSubject is the subject used when the caller does not provide one.
func QuoteSubject(quoteNumber, companyName string) string {
	return fmt.Sprintf(subjectQuoteFmt, quoteNumber, companyName)
}
