// Package email delivers the HTML mails of the application through SMTP or
// the Brevo API, or logs them in mock mode when no credentials are set.
package email

import (
	"context"
	"fmt"
	"time"

	"devis_backend/platform/config"
	"devis_backend/platform/logger"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string // e.g. "devis-DV-2025-001.pdf"
	MIMEType string
}

type Sender interface {
	SendQuoteEmail(ctx context.Context, toEmail, subject, message, companyName, quoteNumber string, attachments ...Attachment) error
	SendWelcomeEmail(ctx context.Context, toEmail, companyName string) error
	SendFeedbackNotification(ctx context.Context, toEmail, message, fromEmail string, submittedAt time.Time) error
}

// NewSender picks the provider from config. Without credentials the
// returned NoopSender only logs.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{log: log}, nil
	}

	switch cfg.GetEmailProvider() {
	case "brevo":
		return NewBrevoSender(cfg.GetBrevoAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	case "smtp", "":
		return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUser(), cfg.GetSMTPPassword(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}

// NoopSender is the mock mode.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) NoopSender {
	return NoopSender{log: log}
}

func (n NoopSender) record(toEmail, subject string, attachments int) {
	if n.log == nil {
		return
	}
	n.log.Info("mock email", "to", toEmail, "subject", subject, "attachments", attachments)
}

func (n NoopSender) SendQuoteEmail(_ context.Context, toEmail, subject, _, companyName, quoteNumber string, attachments ...Attachment) error {
	if subject == "" {
		subject = QuoteSubject(quoteNumber, companyName)
	}
	n.record(toEmail, subject, len(attachments))
	return nil
}

func (n NoopSender) SendWelcomeEmail(_ context.Context, toEmail, companyName string) error {
	n.record(toEmail, fmt.Sprintf(subjectWelcomeFmt, companyName), 0)
	return nil
}

func (n NoopSender) SendFeedbackNotification(_ context.Context, toEmail, _, _ string, submittedAt time.Time) error {
	n.record(toEmail, fmt.Sprintf(subjectFeedbackFmt, submittedAt.Format(feedbackDateLayout)), 0)
	return nil
}
