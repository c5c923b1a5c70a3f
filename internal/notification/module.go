// Package notification turns domain events into emails so the company,
// feedback and quote modules never talk to a mail provider themselves.
package notification

import (
	"context"
	"fmt"
	"strings"

	"devis_backend/internal/email"
	"devis_backend/internal/events"
	"devis_backend/internal/scheduler"
	"devis_backend/platform/config"
	"devis_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender email.Sender
	queue  scheduler.EmailQueue
	cfg    config.FeedbackConfig
	log    *logger.Logger
}

func New(sender email.Sender, cfg config.FeedbackConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, log: log}
}

// SetEmailQueue defers feedback notifications to the worker when Redis is configured.
func (m *Module) SetEmailQueue(queue scheduler.EmailQueue) { m.queue = queue }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.CompanyRegistered{}.EventName(), m)
	bus.Subscribe(events.FeedbackSubmitted{}.EventName(), m)
	bus.Subscribe(events.QuoteEmailed{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.CompanyRegistered:
		return m.handleCompanyRegistered(ctx, e)
	case events.FeedbackSubmitted:
		return m.handleFeedbackSubmitted(ctx, e)
	case events.QuoteEmailed:
		m.log.Info("quote delivered", "quoteId", e.QuoteID, "companyId", e.CompanyID, "number", e.Number, "queued", e.Queued)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleCompanyRegistered(ctx context.Context, e events.CompanyRegistered) error {
	if strings.TrimSpace(e.Email) == "" {
		return nil
	}
	if err := m.sender.SendWelcomeEmail(ctx, e.Email, e.Name); err != nil {
		m.log.Error("failed to send welcome email", "error", err, "companyId", e.CompanyID)
		return fmt.Errorf("welcome email: %w", err)
	}
	m.log.Info("welcome email sent", "companyId", e.CompanyID)
	return nil
}

func (m *Module) handleFeedbackSubmitted(ctx context.Context, e events.FeedbackSubmitted) error {
	to := strings.TrimSpace(m.cfg.GetFeedbackNotifyEmail())
	if to == "" {
		m.log.Debug("feedback notification skipped, no recipient configured", "feedbackId", e.FeedbackID)
		return nil
	}

	if m.queue != nil {
		err := m.queue.EnqueueFeedbackNotification(ctx, scheduler.FeedbackEmailPayload{
			FeedbackID:  e.FeedbackID.String(),
			Message:     e.Message,
			FromEmail:   e.Email,
			SubmittedAt: e.OccurredAt(),
		})
		if err == nil {
			return nil
		}
		m.log.Warn("feedback enqueue failed, sending inline", "error", err, "feedbackId", e.FeedbackID)
	}

	if err := m.sender.SendFeedbackNotification(ctx, to, e.Message, e.Email, e.OccurredAt()); err != nil {
		m.log.Error("failed to send feedback notification", "error", err, "feedbackId", e.FeedbackID)
		return fmt.Errorf("feedback notification: %w", err)
	}
	return nil
}

var _ events.Handler = (*Module)(nil)
