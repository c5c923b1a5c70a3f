package service

import (
	"context"
	"fmt"
	"strings"

	"devis_backend/internal/email"
	"devis_backend/internal/events"
	"devis_backend/internal/pdf"
	"devis_backend/internal/quotes/domain"
	"devis_backend/internal/quotes/transport"
	"devis_backend/internal/scheduler"
	"devis_backend/platform/apperr"
	"devis_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	contentTypePDF      = "application/pdf"
	msgIncompleteIssuer = "Complétez le nom de l'entreprise dans votre profil avant de générer le PDF"
)

// RenderedPDF is a generated quote document.
type RenderedPDF struct {
	FileName string
	Content  []byte
	Quote    *domain.Quote
	Company  pdf.Company
	Client   *ClientData
}

// RenderPDF loads the quote, issuer and client and renders the document.
func (s *Service) RenderPDF(ctx context.Context, companyID, id uuid.UUID) (RenderedPDF, error) {
	q, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return RenderedPDF{}, err
	}
	if s.issuers == nil {
		return RenderedPDF{}, apperr.Unavailable("profil entreprise indisponible")
	}

	var (
		issuer pdf.Company
		client *ClientData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issuer, err = s.issuers.GetIssuer(gctx, companyID)
		return err
	})
	if q.ClientID != nil && s.clients != nil {
		clientID := *q.ClientID
		g.Go(func() error {
			c, err := s.clients.GetQuoteClient(gctx, companyID, clientID)
			if apperr.Is(err, apperr.KindNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			client = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RenderedPDF{}, err
	}

	if strings.TrimSpace(issuer.Name) == "" {
		return RenderedPDF{}, apperr.BadRequest(msgIncompleteIssuer)
	}

	doc := pdf.QuoteDocument{Quote: q, Totals: q.Totals(), Company: issuer}
	if client != nil {
		doc.Client = &pdf.Client{
			Name:        client.Name,
			Address:     client.Address,
			Email:       client.Email,
			Phone:       client.Phone,
			SiteAddress: client.SiteAddress,
		}
	}
	content, err := s.renderer.Render(doc)
	if err != nil {
		return RenderedPDF{}, fmt.Errorf("render quote %s: %w", q.Number, err)
	}
	return RenderedPDF{FileName: pdfFileName(q.Number), Content: content, Quote: q, Company: issuer, Client: client}, nil
}

// Send emails the rendered PDF and marks the quote as sent.
func (s *Service) Send(ctx context.Context, companyID, id uuid.UUID, req transport.SendQuoteRequest) (transport.SendQuoteResponse, error) {
	if s.mailer == nil && s.emailQueue == nil {
		return transport.SendQuoteResponse{}, apperr.Unavailable("envoi d'e-mail non configuré")
	}

	rendered, err := s.RenderPDF(ctx, companyID, id)
	if err != nil {
		return transport.SendQuoteResponse{}, err
	}
	q := rendered.Quote

	to := strings.TrimSpace(req.ToEmail)
	if to == "" && rendered.Client != nil {
		to = rendered.Client.Email
	}
	if to == "" {
		return transport.SendQuoteResponse{}, apperr.Validation("adresse e-mail du destinataire requise")
	}
	subject := sanitize.Text(req.Subject)
	if subject == "" {
		subject = email.QuoteSubject(q.Number, rendered.Company.Name)
	}
	message := sanitize.Multiline(req.Message)

	pdfKey := ""
	if s.storage != nil {
		pdfKey = fmt.Sprintf("%s/quotes/%s", companyID, rendered.FileName)
		if err := s.storage.PutObject(ctx, s.pdfBucket, pdfKey, contentTypePDF, rendered.Content); err != nil {
			return transport.SendQuoteResponse{}, fmt.Errorf("store quote pdf: %w", err)
		}
	}

	queued := false
	if s.emailQueue != nil {
		payload := scheduler.QuoteEmailPayload{
			CompanyID:   companyID.String(),
			QuoteID:     q.ID.String(),
			QuoteNumber: q.Number,
			CompanyName: rendered.Company.Name,
			ToEmail:     to,
			Subject:     subject,
			Message:     message,
			FileName:    rendered.FileName,
		}
		if pdfKey != "" {
			payload.PDFBucket = s.pdfBucket
			payload.PDFKey = pdfKey
		} else {
			payload.PDF = rendered.Content
		}
		if err := s.emailQueue.EnqueueQuoteEmail(ctx, payload); err != nil {
			if s.mailer == nil {
				return transport.SendQuoteResponse{}, fmt.Errorf("enqueue quote email: %w", err)
			}
			s.log.WithContext(ctx).Warn("quote email queue unavailable, sending inline", "quoteId", q.ID, "error", err)
		} else {
			queued = true
		}
	}
	if !queued {
		attachment := email.Attachment{Content: rendered.Content, FileName: rendered.FileName, MIMEType: contentTypePDF}
		if err := s.mailer.SendQuoteEmail(ctx, to, subject, message, rendered.Company.Name, q.Number, attachment); err != nil {
			return transport.SendQuoteResponse{}, apperr.Wrap(apperr.KindUnavailable, "l'e-mail n'a pas pu être envoyé", err)
		}
	}

	sentAt := s.now()
	if err := s.repo.MarkSent(ctx, companyID, id, pdfKey, sentAt); err != nil {
		return transport.SendQuoteResponse{}, err
	}
	s.publish(ctx, events.QuoteEmailed{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   q.ID,
		CompanyID: companyID,
		Number:    q.Number,
		ToEmail:   to,
		PDFKey:    pdfKey,
		Queued:    queued,
	})
	s.log.WithContext(ctx).Info("quote sent", "quoteId", q.ID, "number", q.Number, "queued", queued)

	return transport.SendQuoteResponse{
		Status: string(domain.StatusSent),
		SentTo: to,
		SentAt: sentAt,
		Queued: queued,
		PDFKey: pdfKey,
	}, nil
}
